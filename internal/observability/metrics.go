package observability

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connect_http_requests_total",
			Help: "Total number of HTTP requests processed by the connect service.",
		},
		[]string{"method", "route", "status"},
	)
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "connect_http_request_duration_seconds",
			Help:    "HTTP request latencies in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route"},
	)
	wsActiveConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "connect_ws_active_connections",
			Help: "Number of active websocket connections.",
		},
	)
	wsEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connect_ws_events_total",
			Help: "Total number of websocket lifecycle events.",
		},
		[]string{"event"},
	)
	channelSubscriptionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connect_channel_subscriptions_total",
			Help: "Total number of channel subscribe/unsubscribe operations.",
		},
		[]string{"kind", "op"},
	)
	channelPublishTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "connect_channel_publish_total",
			Help: "Total number of events published to the channel fabric.",
		},
		[]string{"kind", "event"},
	)
	publishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "connect_publish_errors_total",
			Help: "Total number of fabric relay/publish errors.",
		},
	)
	amqpPublishErrorsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "connect_amqp_publish_errors_total",
			Help: "Total number of AMQP publish errors.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		wsActiveConnections,
		wsEventsTotal,
		channelSubscriptionsTotal,
		channelPublishTotal,
		publishErrorsTotal,
		amqpPublishErrorsTotal,
	)
}

func HTTPMetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		httpRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}

func IncWSActive() {
	wsActiveConnections.Inc()
}

func DecWSActive() {
	wsActiveConnections.Dec()
}

func IncWSEvent(event string) {
	wsEventsTotal.WithLabelValues(event).Inc()
}

func IncChannelSubscribe(kind string) {
	channelSubscriptionsTotal.WithLabelValues(kind, "subscribe").Inc()
}

func IncChannelUnsubscribe(kind string) {
	channelSubscriptionsTotal.WithLabelValues(kind, "unsubscribe").Inc()
}

func IncChannelPublish(kind, event string) {
	channelPublishTotal.WithLabelValues(kind, event).Inc()
}

func IncPublishError() {
	publishErrorsTotal.Inc()
}

func IncAMQPPublishError() {
	amqpPublishErrorsTotal.Inc()
}
