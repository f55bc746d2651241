package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seattleflu/husky-musher/internal/config"
	"github.com/seattleflu/husky-musher/internal/redcap"
	"github.com/seattleflu/husky-musher/internal/shibboleth"
)

type stubSurvey struct{}

func (stubSurvey) FetchParticipant(ctx context.Context, info shibboleth.UserInfo) (redcap.Record, error) {
	return redcap.Record{"record_id": "7", "enrollment_questions_complete": "0"}, nil
}

func (stubSurvey) RegisterParticipant(ctx context.Context, info shibboleth.UserInfo) (string, error) {
	return "7", nil
}

func (stubSurvey) GenerateSurveyLink(ctx context.Context, recordID, event, instrument string, instance int) (string, error) {
	return "https://redcap.example.edu/surveys/?s=LINK", nil
}

func (stubSurvey) CurrentWeek(now time.Time) int { return 1 }

func (stubSurvey) Version(ctx context.Context) (string, error) { return "14.5.10", nil }

func (stubSurvey) Ping(ctx context.Context) error { return nil }

func testConfig() config.Config {
	return config.Config{
		App: config.AppConfig{
			Name:         "husky-musher",
			Version:      "1.4.0",
			DeploymentID: "01JTEST",
		},
		Environment: "production",
	}
}

func newTestRouter(cfg config.Config) http.Handler {
	stub := stubSurvey{}
	return NewRouter(cfg, zerolog.Nop(), Dependencies{
		Survey: stub,
		REDCap: stub,
		Cache:  stub,
	})
}

func TestRouter_RedirectsAuthenticatedUser(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Remote-User", "kaaseng@washington.edu")
	req.Header.Set("Uid", "kaaseng")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "https://redcap.example.edu/surveys/?s=LINK", w.Header().Get("Location"))
}

func TestRouter_RootMethodNotAllowed(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Equal(t, "GET", w.Header().Get("Allow"))
}

func TestRouter_Probes(t *testing.T) {
	router := newTestRouter(testConfig())

	for _, path := range []string{"/status", "/healthz", "/readyz", "/health", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRouter_UnknownPathIs404(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/shibboleth", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Page Not Found")
}

func TestRouter_ResponseHeaders(t *testing.T) {
	router := newTestRouter(testConfig())

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_MockIdPRoutes(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodGet, "/saml/login", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code, "mock IdP routes are absent unless enabled")

	cfg.Environment = "development"
	cfg.Session = config.SessionConfig{Secret: "s", Expiry: time.Hour, UseMockIdP: true}
	router = newTestRouter(cfg)

	req = httptest.NewRequest(http.MethodGet, "/saml/login", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Mock IdP Sign In")
}

func TestMethodMux(t *testing.T) {
	getHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("GET response"))
	})
	postHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	mux := methodMux(map[string]http.Handler{
		http.MethodGet:  getHandler,
		http.MethodPost: postHandler,
	})

	tests := []struct {
		method       string
		expectStatus int
		expectAllow  string
	}{
		{http.MethodGet, http.StatusOK, ""},
		{http.MethodPost, http.StatusCreated, ""},
		{http.MethodPut, http.StatusMethodNotAllowed, "GET, POST"},
		{http.MethodDelete, http.StatusMethodNotAllowed, "GET, POST"},
	}

	for _, tt := range tests {
		req := httptest.NewRequest(tt.method, "/", nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)

		assert.Equal(t, tt.expectStatus, w.Code, tt.method)
		if tt.expectAllow != "" {
			assert.Equal(t, tt.expectAllow, w.Header().Get("Allow"), tt.method)
		}
	}
}
