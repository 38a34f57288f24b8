package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "printhub"

// Metrics holds the storefront's Prometheus collectors on a private registry
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequests    *prometheus.CounterVec
	HTTPLatency     *prometheus.HistogramVec
	OrdersCreated   prometheus.Counter
	PaymentsTotal   *prometheus.CounterVec
	OTPIssued       prometheus.Counter
	OTPFailures     prometheus.Counter
	RateLimited     prometheus.Counter
	EventPublishErr *prometheus.CounterVec
}

// New registers all collectors on a fresh registry
func New() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		Registry: registry,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Latency of HTTP requests by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_created_total",
			Help:      "Total number of orders created.",
		}),
		PaymentsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Payment verification outcomes by kind and result.",
		}, []string{"kind", "result"}),
		OTPIssued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_issued_total",
			Help:      "Total number of sign-in codes issued.",
		}),
		OTPFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "otp_failures_total",
			Help:      "Total number of rejected sign-in codes.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Total number of requests rejected by the rate limiter.",
		}),
		EventPublishErr: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_errors_total",
			Help:      "Event publish failures by subject.",
		}, []string{"subject"}),
	}

	registry.MustRegister(
		m.HTTPRequests,
		m.HTTPLatency,
		m.OrdersCreated,
		m.PaymentsTotal,
		m.OTPIssued,
		m.OTPFailures,
		m.RateLimited,
		m.EventPublishErr,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// The helpers below accept a nil receiver so callers without metrics wired can skip the checks.

func (m *Metrics) IncOrdersCreated() {
	if m != nil {
		m.OrdersCreated.Inc()
	}
}

// ObservePayment counts a verification outcome; kind is order or subscription
func (m *Metrics) ObservePayment(kind, result string) {
	if m != nil {
		m.PaymentsTotal.WithLabelValues(kind, result).Inc()
	}
}

func (m *Metrics) IncOTPIssued() {
	if m != nil {
		m.OTPIssued.Inc()
	}
}

func (m *Metrics) IncOTPFailure() {
	if m != nil {
		m.OTPFailures.Inc()
	}
}

func (m *Metrics) IncRateLimited() {
	if m != nil {
		m.RateLimited.Inc()
	}
}

func (m *Metrics) IncPublishError(subject string) {
	if m != nil {
		m.EventPublishErr.WithLabelValues(subject).Inc()
	}
}
