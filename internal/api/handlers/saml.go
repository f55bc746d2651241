package handlers

import (
	"fmt"
	"html"
	"net/http"

	"github.com/seattleflu/husky-musher/internal/api/middleware"
	"github.com/seattleflu/husky-musher/internal/auth"
	"github.com/seattleflu/husky-musher/internal/config"
	"github.com/seattleflu/husky-musher/internal/shibboleth"
)

// MockIdPHandler stands in for the campus SSO during development. It mints
// a signed session cookie for whatever NetID the developer types in, which
// the identity middleware then treats like a proxy-authenticated user.
// Config validation refuses to enable it in production.
type MockIdPHandler struct {
	session config.SessionConfig
}

func NewMockIdPHandler(session config.SessionConfig) *MockIdPHandler {
	return &MockIdPHandler{session: session}
}

// Login serves the sign-in form on GET and establishes the session on POST.
func (h *MockIdPHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = fmt.Fprint(w, loginForm)
		return
	}

	netid := shibboleth.NormalizeNetID(r.PostFormValue("netid"))
	if err := shibboleth.ValidateNetID(netid); err != nil {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = fmt.Fprintf(w, loginFormWithError, html.EscapeString(r.PostFormValue("netid")))
		return
	}

	token, err := auth.NewSessionToken(netid, []byte(h.session.Secret), h.session.Expiry)
	if err != nil {
		logger := middleware.LoggerFromContext(r.Context())
		logger.Error().Err(err).Msg("mock IdP session mint failed")
		writeErrorPage(w)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.session.Expiry.Seconds()),
	})

	logger := middleware.LoggerFromContext(r.Context())
	logger.Info().Str("netid", netid).Msg("mock IdP signed in user")

	// Only same-site paths. A leading "//" is a protocol-relative URL and
	// would redirect off-site.
	dest := r.PostFormValue("RelayState")
	if dest == "" || dest[0] != '/' || (len(dest) > 1 && dest[1] == '/') {
		dest = "/"
	}
	http.Redirect(w, r, dest, http.StatusFound)
}

// Logout clears the session cookie.
func (h *MockIdPHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

const loginForm = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Mock IdP Sign In</title></head>
<body>
  <h1>Mock IdP Sign In</h1>
  <form method="POST" action="/saml/login">
    <label>UW NetID: <input name="netid" autofocus></label>
    <button type="submit">Sign in</button>
  </form>
</body>
</html>
`

const loginFormWithError = `<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Mock IdP Sign In</title></head>
<body>
  <h1>Mock IdP Sign In</h1>
  <p>&quot;%s&quot; is not a valid UW NetID.</p>
  <form method="POST" action="/saml/login">
    <label>UW NetID: <input name="netid" autofocus></label>
    <button type="submit">Sign in</button>
  </form>
</body>
</html>
`
