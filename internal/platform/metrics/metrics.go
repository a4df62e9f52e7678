// Package metrics exposes Prometheus collectors for HTTP traffic, domain
// events and host resource usage.
package metrics

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Metrics owns a private registry so tests and multiple servers in one
// process do not collide on the default one.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	inFlight      prometheus.Gauge
	registrations *prometheus.CounterVec
	deletions     *prometheus.CounterVec
	cpuPercent    prometheus.Gauge
	memory        *prometheus.GaugeVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hms_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "hms_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hms_http_requests_in_flight",
			Help: "Number of HTTP requests being served.",
		}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hms_registrations_total",
			Help: "Accounts registered, by role and outcome.",
		}, []string{"role", "outcome"}),
		deletions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "hms_deletions_total",
			Help: "Records removed, by entity. Cascaded doctors are counted individually.",
		}, []string{"entity"}),
		cpuPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "hms_system_cpu_usage_percent",
			Help: "Host CPU usage percentage.",
		}),
		memory: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "hms_system_memory_bytes",
			Help: "Host memory in bytes.",
		}, []string{"type"}),
	}

	m.registry.MustRegister(
		m.requests, m.duration, m.inFlight,
		m.registrations, m.deletions,
		m.cpuPercent, m.memory,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}

// Middleware records request counts and latency labelled by the matched
// route template, not the raw path, to keep cardinality bounded.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			m.inFlight.Inc()
			defer m.inFlight.Dec()

			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			status := strconv.Itoa(c.Response().Status)
			m.requests.WithLabelValues(method, route, status).Inc()
			m.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return nil
		}
	}
}

// RecordRegistration counts an account registration attempt.
func (m *Metrics) RecordRegistration(role string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	m.registrations.WithLabelValues(role, outcome).Inc()
}

// RecordDeletion counts n removed records of entity.
func (m *Metrics) RecordDeletion(entity string, n int) {
	if n > 0 {
		m.deletions.WithLabelValues(entity).Add(float64(n))
	}
}

// CollectSystem samples host CPU and memory once.
func (m *Metrics) CollectSystem(ctx context.Context) error {
	pct, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return err
	}
	if len(pct) > 0 {
		m.cpuPercent.Set(pct[0])
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return err
	}
	m.memory.WithLabelValues("total").Set(float64(vm.Total))
	m.memory.WithLabelValues("used").Set(float64(vm.Used))
	m.memory.WithLabelValues("available").Set(float64(vm.Available))
	return nil
}

// StartSystemCollector samples host metrics every interval until ctx is
// cancelled.
func (m *Metrics) StartSystemCollector(ctx context.Context, interval time.Duration, logger zerolog.Logger) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			if err := m.CollectSystem(ctx); err != nil && ctx.Err() == nil {
				logger.Warn().Err(err).Msg("collect system metrics")
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
}
