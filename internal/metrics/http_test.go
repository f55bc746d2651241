package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMiddleware_RecordsRequest(t *testing.T) {
	before := testutil.CollectAndCount(HTTPRequestsTotal)

	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusTeapot, w.Code)
	assert.Greater(t, testutil.CollectAndCount(HTTPRequestsTotal), before)
	assert.Equal(t, float64(1), testutil.ToFloat64(
		HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/status", "418"),
	))
}

func TestHTTPMiddleware_DefaultsTo200(t *testing.T) {
	handler := HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// No explicit WriteHeader and no body.
	}))

	req := httptest.NewRequest(http.MethodGet, "/implicit", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, float64(1), testutil.ToFloat64(
		HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/implicit", "200"),
	))
}
