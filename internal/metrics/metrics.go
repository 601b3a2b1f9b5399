// Package metrics provides Prometheus instrumentation for the game bot.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RoundsSettled counts rounds closed with payouts applied.
	RoundsSettled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_rounds_settled_total",
		Help: "Rounds closed with payouts applied",
	})

	// CurrentRound is the number of the latest round started.
	CurrentRound = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_current_round",
		Help: "Latest round number",
	})

	// Teams tracks registered teams.
	Teams = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "arena_teams",
		Help: "Number of registered teams",
	})

	// Notifications counts outbound messages by result.
	Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_notifications_total",
		Help: "Outbound chat messages by result",
	}, []string{"result"})

	// StoreErrors counts failed writes to durable storage.
	StoreErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_store_errors_total",
		Help: "Failed durable storage operations",
	}, []string{"op"})

	// MirrorErrors counts failed spreadsheet syncs.
	MirrorErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_mirror_errors_total",
		Help: "Failed spreadsheet mirror syncs",
	})

	// PositionCoefficient is the coefficient each position paid in the last settlement.
	PositionCoefficient = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arena_position_coefficient",
		Help: "Coefficient paid at the last settlement",
	}, []string{"position"})

	// PositionInvestors is the investor count each position had at the last settlement.
	PositionInvestors = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "arena_position_investors",
		Help: "Investor count at the last settlement",
	}, []string{"position"})

	// Updates counts inbound Telegram updates by kind.
	Updates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_updates_total",
		Help: "Inbound chat updates",
	}, []string{"kind"})

	// HTTPRequestDuration tracks status API latency.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "arena_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
	}, []string{"method", "path", "status"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path, strconv.Itoa(wrapped.status)).
			Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
