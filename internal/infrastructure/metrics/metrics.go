// Package metrics exposes the prometheus collectors shared by the bot
// pipeline and the HTTP server.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so tests can build as many as they like.
type Metrics struct {
	registry        *prometheus.Registry
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	commandsTotal   *prometheus.CounterVec
	commandDuration *prometheus.HistogramVec
	remindersTotal  *prometheus.CounterVec
}

// New registers every collector on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		commandsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cloudtodo_commands_total",
				Help: "Bot commands handled, by verb and outcome",
			},
			[]string{"verb", "outcome"},
		),
		commandDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cloudtodo_command_duration_seconds",
				Help:    "Time spent handling one bot command",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"verb"},
		),
		remindersTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cloudtodo_reminders_total",
				Help: "Reminder notifications attempted, by result",
			},
			[]string{"result"},
		),
	}

	m.registry.MustRegister(
		m.requestsTotal,
		m.requestDuration,
		m.commandsTotal,
		m.commandDuration,
		m.remindersTotal,
	)

	return m
}

// CommandHandled implements ports.Recorder
func (m *Metrics) CommandHandled(verb, outcome string, d time.Duration) {
	if verb == "" {
		verb = "unknown"
	}
	m.commandsTotal.WithLabelValues(verb, outcome).Inc()
	m.commandDuration.WithLabelValues(verb).Observe(d.Seconds())
}

// ReminderDelivered implements ports.Recorder
func (m *Metrics) ReminderDelivered(ok bool) {
	result := "sent"
	if !ok {
		result = "failed"
	}
	m.remindersTotal.WithLabelValues(result).Inc()
}

// Middleware records request counts and latency per route
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)

			duration := time.Since(start)
			status := c.Response().Status

			m.requestsTotal.WithLabelValues(
				c.Request().Method,
				c.Path(),
				fmt.Sprintf("%d", status),
			).Inc()

			m.requestDuration.WithLabelValues(
				c.Request().Method,
				c.Path(),
			).Observe(duration.Seconds())

			return err
		}
	}
}

// Handler serves the registry in the prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
