package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	checkoutOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_operations_total",
			Help: "Total checkout operations",
		},
		[]string{"operation", "status"},
	)

	finalizeOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_finalize_outcomes_total",
			Help: "Outcomes of order confirmation attempts per source",
		},
		[]string{"source", "outcome"},
	)

	gatewayLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_gateway_latency_seconds",
			Help:    "Latency of payment gateway calls",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"provider", "call"},
	)

	activeSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "auth_sessions_active_total",
			Help: "Current number of active auth sessions",
		},
	)
)

type Monitor struct {
	redis *redis.Client
}

func NewMonitor(redisClient *redis.Client) *Monitor {
	monitor := &Monitor{redis: redisClient}

	// Start metrics collection
	go monitor.collectMetrics()

	return monitor
}

func (m *Monitor) collectMetrics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		ctx := context.Background()
		m.collectSessionMetrics(ctx)
	}
}

func (m *Monitor) collectSessionMetrics(ctx context.Context) {
	keys, _ := m.redis.Keys(ctx, "session:*").Result()
	activeSessions.Set(float64(len(keys)))
}

// TrackCheckout counts a checkout operation by outcome.
func (m *Monitor) TrackCheckout(operation, status string) {
	checkoutOperations.WithLabelValues(operation, status).Inc()
}

// TrackFinalize counts a confirmation attempt by source (poll, webhook,
// channel, sweeper) and outcome.
func (m *Monitor) TrackFinalize(source, outcome string) {
	finalizeOutcomes.WithLabelValues(source, outcome).Inc()
}

// TrackGatewayCall records the latency of one payment gateway call.
func (m *Monitor) TrackGatewayCall(provider, call string, duration time.Duration) {
	gatewayLatency.WithLabelValues(provider, call).Observe(duration.Seconds())
}
