// Package metrics exposes smb1d's Prometheus counters and gauges:
// connections, dispatched commands, NTLM authentication outcomes, and the
// Rectifier's pause/resume/fallback events.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ConnectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smb1d_connections_total",
		Help: "Total TCP connections accepted.",
	})

	ConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "smb1d_connections_active",
		Help: "Currently open connections.",
	})

	CommandsDispatched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smb1d_commands_dispatched_total",
		Help: "SMB1 commands dispatched, by command name and resulting status.",
	}, []string{"command", "status"})

	NTLMAuthOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smb1d_ntlm_auth_outcomes_total",
		Help: "SESSION_SETUP_ANDX outcomes, by result (success, guest, logon_failure).",
	}, []string{"outcome"})

	RectifierPauses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smb1d_rectifier_pauses_total",
		Help: "Times a Rectifier paused its upstream fetch because readers fell behind.",
	})

	RectifierResumes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smb1d_rectifier_resumes_total",
		Help: "Times a Rectifier resumed its upstream fetch after pausing.",
	})

	RectifierFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smb1d_rectifier_range_fallbacks_total",
		Help: "Times an upstream origin ignored a Range request and served the whole body.",
	})

	RectifierBytesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smb1d_rectifier_bytes_fetched_total",
		Help: "Total bytes pulled from upstream origins across all Rectifiers.",
	})
)

// Handler returns the HTTP handler the metrics listener serves /metrics
// with.
func Handler() http.Handler {
	return promhttp.Handler()
}
