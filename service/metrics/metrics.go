package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gateway"

var (
	Sessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions",
		Help:      "Users with a registered live session.",
	})

	Connections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "connections_total",
		Help:      "WebSocket connections by outcome (accepted, rejected, upgrade_failed).",
	}, []string{"result"})

	AuthFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_failures_total",
		Help:      "Handshake authentication failures by reason.",
	}, []string{"reason"})

	Deliveries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "delivery_total",
		Help:      "Per-connection event deliveries by result (delivered, offline, dropped).",
	}, []string{"result"})

	BridgeMessages = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "bridge_messages_total",
		Help:      "Notify envelopes consumed from the message bus.",
	}, []string{"source", "result"})
)

func init() {
	prometheus.MustRegister(Sessions, Connections, AuthFailures, Deliveries, BridgeMessages)
}

// Handler 挂到 gin 上的 /metrics
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.Handler())
}
