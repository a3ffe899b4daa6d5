package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegistersOnce(t *testing.T) {
	first := Registry()
	second := Registry()
	assert.Same(t, first, second)
}

func TestObserveProviderRequest(t *testing.T) {
	Registry()

	ObserveProviderRequest("statsapi", 120*time.Millisecond)
	ObserveProviderError("oddsapi", "upstream_unavailable")
	GamesProcessedTotal.Inc()
	MarkRunComplete("daily-features")

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler().ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "diamond_edge_provider_requests_total"))
	assert.True(t, strings.Contains(body, "diamond_edge_provider_errors_total"))
	assert.True(t, strings.Contains(body, "diamond_edge_last_run_timestamp_seconds"))
}

func TestNewServerAddr(t *testing.T) {
	srv := NewServer(9090, "/metrics")
	assert.Equal(t, ":9090", srv.Addr)
}
