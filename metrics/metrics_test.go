package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()
	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestMetricsRecord(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.OrderPlaced("buy", "initial")
	m.OrderPlaced("buy", "initial")
	m.OrderPlaced("sell", "mirror")
	m.Fill("buy")
	m.PollFailure("sell")
	m.Stale("buy")
	m.LedgerSize("sell", 3)
	m.PassDone(1500 * time.Millisecond)

	out := scrape(t, reg)
	assert.Contains(t, out, `gridbot_orders_placed_total{reason="initial",side="buy"} 2`)
	assert.Contains(t, out, `gridbot_orders_placed_total{reason="mirror",side="sell"} 1`)
	assert.Contains(t, out, `gridbot_fills_total{side="buy"} 1`)
	assert.Contains(t, out, `gridbot_poll_failures_total{side="sell"} 1`)
	assert.Contains(t, out, `gridbot_stale_orders_total{side="buy"} 1`)
	assert.Contains(t, out, `gridbot_ledger_orders{side="sell"} 3`)
	assert.Contains(t, out, `gridbot_passes_total 1`)
	assert.Contains(t, out, `gridbot_pass_duration_seconds_count 1`)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.OrderPlaced("buy", "mirror")
		m.Fill("buy")
		m.PollFailure("buy")
		m.Stale("buy")
		m.LedgerSize("buy", 1)
		m.PassDone(time.Second)
	})
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Fill("sell")

	assert.Contains(t, scrape(t, reg), `gridbot_fills_total{side="sell"} 1`)

	srv := httptest.NewServer(Handler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "ok\n", string(body))
}
