package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all Husky Musher metrics
const namespace = "musher"

// Registry is the Prometheus registry for all application metrics.
var Registry = prometheus.NewRegistry()

// AppInfo is a gauge that exposes application version information as labels
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date", "deployment_id"},
)

// REDCapRequestSeconds times every call against the REDCap API, labeled by
// the client function that made it.
var REDCapRequestSeconds = promauto.With(Registry).NewSummaryVec(
	prometheus.SummaryOpts{
		Name: "redcap_request_seconds",
		Help: "Time spent making requests to REDCap",
	},
	[]string{"function"},
)

// CacheLookupsTotal counts participant cache lookups by outcome (hit|miss).
var CacheLookupsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cache_lookups_total",
		Help:      "Total number of participant cache lookups",
	},
	[]string{"outcome"},
)

// SurveyRedirectsTotal counts issued survey redirects by target instrument.
var SurveyRedirectsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "survey_redirects_total",
		Help:      "Total number of survey redirects issued",
	},
	[]string{"instrument"},
)

// Init initializes the metrics registry and sets version information
func Init(version, commit, buildDate, deploymentID string) {
	// Register default Go metrics (memory, goroutines, GC, etc.)
	Registry.MustRegister(collectors.NewGoCollector())

	// Register process metrics (CPU, memory, file descriptors)
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Set application version info (value is always 1, info is in labels)
	AppInfo.WithLabelValues(version, commit, buildDate, deploymentID).Set(1)
}
