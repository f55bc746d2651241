package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/seattleflu/husky-musher/internal/api/handlers"
	"github.com/seattleflu/husky-musher/internal/api/middleware"
	"github.com/seattleflu/husky-musher/internal/config"
	"github.com/seattleflu/husky-musher/internal/metrics"
)

// Dependencies carries the constructed collaborators into the router.
// The REDCap client satisfies both Survey and REDCap; they are separate
// fields so tests can stub the redirect flow without a version probe.
type Dependencies struct {
	Survey handlers.SurveyClient
	REDCap handlers.VersionProber
	Cache  handlers.Pinger
}

func NewRouter(cfg config.Config, logger zerolog.Logger, deps Dependencies) http.Handler {
	redirect := handlers.NewRedirectHandler(deps.Survey)
	health := handlers.NewHealthChecker(deps.REDCap, deps.Cache, cfg.App.Version)

	identity := middleware.ResolveIdentity(cfg)

	mux := http.NewServeMux()
	mux.Handle("/{$}", methodMux(map[string]http.Handler{
		http.MethodGet: identity(http.HandlerFunc(redirect.Redirect)),
	}))
	mux.Handle("/status", handlers.Status(cfg.App.Version, cfg.App.DeploymentID))
	mux.Handle("/healthz", handlers.Healthz())
	mux.Handle("/readyz", handlers.Readyz())
	mux.Handle("/health", health.Health())
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	if cfg.Session.UseMockIdP {
		idp := handlers.NewMockIdPHandler(cfg.Session)
		mux.Handle("/saml/login", methodMux(map[string]http.Handler{
			http.MethodGet:  http.HandlerFunc(idp.Login),
			http.MethodPost: http.HandlerFunc(idp.Login),
		}))
		mux.Handle("/saml/logout", http.HandlerFunc(idp.Logout))
	}

	mux.Handle("/", http.HandlerFunc(handlers.NotFound))

	var handler http.Handler = mux
	handler = middleware.RateLimit(cfg.RateLimit)(handler)
	handler = middleware.NoStore(handler)
	handler = middleware.SecurityHeaders(cfg.Environment == "production")(handler)
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestLogging(logger)(handler)
	handler = middleware.Tracing(handler)
	handler = middleware.CorrelationID(logger)(handler)
	return handler
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
