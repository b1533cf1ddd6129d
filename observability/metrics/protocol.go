package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// ProtocolMetrics tracks the delegation ledger and loan lifecycle.
type ProtocolMetrics struct {
	delegations    *prometheus.CounterVec
	loanEvents     *prometheus.CounterVec
	slashes        prometheus.Counter
	totalDelegated prometheus.Gauge
	loanPrincipal  prometheus.Gauge
	eventsEmitted  *prometheus.CounterVec
	rpcRequests    *prometheus.CounterVec
}

var (
	protocolOnce     sync.Once
	protocolRegistry *ProtocolMetrics
)

// Protocol returns the process-wide protocol metrics registry.
func Protocol() *ProtocolMetrics {
	protocolOnce.Do(func() {
		protocolRegistry = &ProtocolMetrics{
			delegations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "pharos_delegations_total",
				Help: "Count of delegation ledger mutations by direction.",
			}, []string{"direction"}),
			loanEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "pharos_loan_events_total",
				Help: "Count of loan lifecycle transitions by kind.",
			}, []string{"kind"}),
			slashes: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "pharos_slashes_total",
				Help: "Count of executed slashing operations.",
			}),
			totalDelegated: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "pharos_total_delegated",
				Help: "Aggregate collateral currently delegated, in base units.",
			}),
			loanPrincipal: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "pharos_loan_principal",
				Help: "Outstanding loan principal, in base units.",
			}),
			eventsEmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "pharos_events_emitted_total",
				Help: "Count of protocol events emitted by type.",
			}, []string{"type"}),
			rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "pharos_rpc_requests_total",
				Help: "Count of JSON-RPC requests by method.",
			}, []string{"method"}),
		}
		prometheus.MustRegister(
			protocolRegistry.delegations,
			protocolRegistry.loanEvents,
			protocolRegistry.slashes,
			protocolRegistry.totalDelegated,
			protocolRegistry.loanPrincipal,
			protocolRegistry.eventsEmitted,
			protocolRegistry.rpcRequests,
		)
	})
	return protocolRegistry
}

// ObserveDelegation counts a delegation mutation; direction is "delegate" or
// "undelegate".
func (m *ProtocolMetrics) ObserveDelegation(direction string) {
	if m == nil {
		return
	}
	if direction == "" {
		direction = "unknown"
	}
	m.delegations.WithLabelValues(direction).Inc()
}

// ObserveLoanEvent counts a loan lifecycle transition by kind.
func (m *ProtocolMetrics) ObserveLoanEvent(kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.loanEvents.WithLabelValues(kind).Inc()
}

// ObserveSlash counts an executed slash.
func (m *ProtocolMetrics) ObserveSlash() {
	if m == nil {
		return
	}
	m.slashes.Inc()
}

// SetTotalDelegated records the delegation aggregate.
func (m *ProtocolMetrics) SetTotalDelegated(amount float64) {
	if m == nil {
		return
	}
	m.totalDelegated.Set(amount)
}

// SetLoanPrincipal records the outstanding principal.
func (m *ProtocolMetrics) SetLoanPrincipal(amount float64) {
	if m == nil {
		return
	}
	m.loanPrincipal.Set(amount)
}

// ObserveRPCRequest counts a dispatched JSON-RPC request. Callers must pass a
// bounded method label; unrecognized client input belongs under "unknown".
func (m *ProtocolMetrics) ObserveRPCRequest(method string) {
	if m == nil {
		return
	}
	if method == "" {
		method = "unknown"
	}
	m.rpcRequests.WithLabelValues(method).Inc()
}

// ObserveEvent counts an emitted protocol event by type.
func (m *ProtocolMetrics) ObserveEvent(eventType string) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.eventsEmitted.WithLabelValues(eventType).Inc()
}
