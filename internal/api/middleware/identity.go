package middleware

import (
	"context"
	"net/http"

	"github.com/seattleflu/husky-musher/internal/auth"
	"github.com/seattleflu/husky-musher/internal/config"
	"github.com/seattleflu/husky-musher/internal/shibboleth"
)

const identityKey contextKey = "identity"

// Identity is the resolved SSO identity for a request. RemoteUser is empty
// when the request is unauthenticated; handlers decide whether that is an
// error.
type Identity struct {
	RemoteUser string
	User       shibboleth.UserInfo
}

// ResolveIdentity determines who is making the request, in order of
// precedence:
//
//  1. a mock IdP session cookie (development only),
//  2. the process environment when running in development,
//  3. the attribute headers injected by the SSO proxy.
func ResolveIdentity(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := resolve(cfg, r)
			ctx := context.WithValue(r.Context(), identityKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolve(cfg config.Config, r *http.Request) Identity {
	if cfg.Session.UseMockIdP {
		if cookie, err := r.Cookie(auth.SessionCookieName); err == nil {
			if claims, err := auth.ValidateSessionToken(cookie.Value, []byte(cfg.Session.Secret)); err == nil {
				netid := shibboleth.NormalizeNetID(claims.NetID)
				return Identity{
					RemoteUser: netid,
					User:       shibboleth.UserInfo{NetID: netid},
				}
			}
		}
	}

	if cfg.InDevelopment() {
		remoteUser, info := shibboleth.FromEnviron()
		return Identity{RemoteUser: remoteUser, User: info}
	}

	return Identity{
		RemoteUser: shibboleth.RemoteUser(r),
		User:       shibboleth.ExtractUserInfo(r.Header),
	}
}

// IdentityFromContext returns the identity resolved for this request.
func IdentityFromContext(ctx context.Context) Identity {
	if identity, ok := ctx.Value(identityKey).(Identity); ok {
		return identity
	}
	return Identity{}
}

// ContextWithIdentity injects an identity, for handler tests.
func ContextWithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityKey, identity)
}
