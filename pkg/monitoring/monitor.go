package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// QuizPrepareTotal counts quiz preparations by question kind and outcome
	// (ready, not_found, extraction_failed, generation_failed,
	// validation_failed, cancelled).
	QuizPrepareTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_prepare_total",
			Help: "Quiz preparations by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	QuizPrepareDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "quiz_prepare_phase_duration_seconds",
			Help:    "Duration of each quiz preparation phase",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"phase"},
	)

	QuizActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "quiz_active_sessions",
			Help: "Quiz sessions currently held in memory",
		},
	)

	NotificationClients = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_ws_clients",
			Help: "Open notification websocket connections on this instance",
		},
	)

	NotificationsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Notifications delivered to local websocket clients",
		},
		[]string{"event"},
	)
)

var once sync.Once

func Init() {
	once.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(QuizPrepareTotal)
		prometheus.MustRegister(QuizPrepareDuration)
		prometheus.MustRegister(QuizActiveSessions)
		prometheus.MustRegister(NotificationClients)
		prometheus.MustRegister(NotificationsSent)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
