package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the bridge's collectors. A nil *Metrics records nothing.
type Metrics struct {
	CheckoutsTotal         *prometheus.CounterVec
	CallbacksTotal         *prometheus.CounterVec
	ReconcileItemsTotal    *prometheus.CounterVec
	ReconcileRunsTotal     *prometheus.CounterVec
	CircuitBreakerState    *prometheus.GaugeVec
	CircuitBreakerFailures *prometheus.CounterVec
	EventsDispatchedTotal  *prometheus.CounterVec
	RequestsTotal          *prometheus.CounterVec
	RequestDuration        *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CheckoutsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkouts_total",
				Help: "Checkout initiations by outcome",
			},
			[]string{"outcome"},
		),
		CallbacksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gateway_callbacks_total",
				Help: "Gateway callbacks by decision and outcome",
			},
			[]string{"decision", "outcome"},
		),
		ReconcileItemsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uncaptured_payments_total",
				Help: "Uncaptured payments processed by outcome",
			},
			[]string{"outcome"},
		),
		ReconcileRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "uncaptured_reconcile_runs_total",
				Help: "Uncaptured payment reconciliation runs by outcome",
			},
			[]string{"outcome"},
		),
		CircuitBreakerState: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "circuit_breaker_state",
				Help: "Circuit breaker state (0=closed, 1=open, 2=half-open)",
			},
			[]string{"circuit_name"},
		),
		CircuitBreakerFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "circuit_breaker_failures_total",
				Help: "Total number of circuit breaker failures",
			},
			[]string{"circuit_name"},
		),
		EventsDispatchedTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_events_dispatched_total",
				Help: "Ledger events delivered from the outbox",
			},
			[]string{"type"},
		),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
	}

	if reg != nil {
		reg.MustRegister(
			m.CheckoutsTotal,
			m.CallbacksTotal,
			m.ReconcileItemsTotal,
			m.ReconcileRunsTotal,
			m.CircuitBreakerState,
			m.CircuitBreakerFailures,
			m.EventsDispatchedTotal,
			m.RequestsTotal,
			m.RequestDuration,
		)
	}

	return m
}

func (m *Metrics) IncCheckout(outcome string) {
	if m == nil {
		return
	}
	m.CheckoutsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncCallback(decision, outcome string) {
	if m == nil {
		return
	}
	m.CallbacksTotal.WithLabelValues(decision, outcome).Inc()
}

func (m *Metrics) IncReconcileItem(outcome string) {
	if m == nil {
		return
	}
	m.ReconcileItemsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncReconcileRun(outcome string) {
	if m == nil {
		return
	}
	m.ReconcileRunsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetBreakerState(name string, state float64) {
	if m == nil {
		return
	}
	m.CircuitBreakerState.WithLabelValues(name).Set(state)
}

func (m *Metrics) IncBreakerFailure(name string) {
	if m == nil {
		return
	}
	m.CircuitBreakerFailures.WithLabelValues(name).Inc()
}

func (m *Metrics) IncEventDispatched(eventType string) {
	if m == nil {
		return
	}
	m.EventsDispatchedTotal.WithLabelValues(eventType).Inc()
}
