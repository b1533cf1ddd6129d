package observability

import (
	"math/big"

	"pharos/core/events"
	"pharos/observability/metrics"
)

// Collector is an event sink that folds protocol events into the prometheus
// registry. The node invokes it synchronously after each committed operation.
type Collector struct {
	metrics *metrics.ProtocolMetrics
}

// NewCollector returns a collector bound to the process-wide registry.
func NewCollector() *Collector {
	return &Collector{metrics: metrics.Protocol()}
}

// Emit implements the events.Emitter interface. Counters track transition
// frequency; the delegation and principal gauges mirror the aggregates the
// payloads carry, so /metrics reflects ledger state without a state read.
func (c *Collector) Emit(evt events.Event) {
	if c == nil || evt == nil {
		return
	}
	c.metrics.ObserveEvent(evt.EventType())
	switch e := evt.(type) {
	case events.DelegationAdded:
		c.metrics.ObserveDelegation("delegate")
		c.metrics.SetTotalDelegated(gaugeValue(e.TotalDelegated))
	case events.DelegationRemoved:
		c.metrics.ObserveDelegation("undelegate")
		c.metrics.SetTotalDelegated(gaugeValue(e.TotalDelegated))
	case events.CollateralSlashed:
		c.metrics.ObserveSlash()
		c.metrics.SetTotalDelegated(0)
	case events.LoanCreated:
		c.metrics.ObserveLoanEvent("created")
		c.metrics.SetLoanPrincipal(gaugeValue(e.Principal))
	case events.LoanRepaid:
		c.metrics.ObserveLoanEvent("repaid")
		c.metrics.SetLoanPrincipal(0)
	case events.LoanSlashed:
		c.metrics.ObserveLoanEvent("slashed")
		c.metrics.SetLoanPrincipal(0)
	case events.LoanParamsUpdated:
		c.metrics.ObserveLoanEvent("params_updated")
	}
}

func gaugeValue(amount *big.Int) float64 {
	if amount == nil {
		return 0
	}
	value, _ := new(big.Float).SetInt(amount).Float64()
	return value
}
