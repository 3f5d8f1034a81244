package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/depotmaster/internal/metrics"
)

func TestLoggingMetricsUseRoutePattern(t *testing.T) {
	met, err := metrics.New()
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Use(WithLogging(met))
	r.Get("/v1/users/{id}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// ids distintos deben caer en la misma serie, no en una por valor
	for _, id := range []string{"9e107d9d-1", "9e107d9d-2"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/users/"+id, nil))
		require.Equal(t, http.StatusOK, rec.Code)
	}

	got := testutil.ToFloat64(met.HTTPRequests.WithLabelValues(http.MethodGet, "/v1/users/{id}", "200"))
	assert.Equal(t, 2.0, got)
}
