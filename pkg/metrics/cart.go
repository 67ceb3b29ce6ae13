package metrics

import "github.com/prometheus/client_golang/prometheus"

// CartMetrics counts cart mutations by operation and outcome so no-op
// requests stay visible even though they are not errors.
type CartMetrics struct {
	mutations *prometheus.CounterVec
	checkouts prometheus.Counter
}

func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cart_mutations_total",
		Help: "Cart mutations by operation and outcome.",
	}, []string{"op", "outcome"})
	checkouts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cart_checkouts_total",
		Help: "Completed cart checkouts.",
	})
	reg.MustRegister(mutations, checkouts)
	return &CartMetrics{mutations: mutations, checkouts: checkouts}
}

func (c *CartMetrics) IncMutation(op, outcome string) {
	if c == nil || c.mutations == nil {
		return
	}
	c.mutations.WithLabelValues(normalizeLabel(op), normalizeLabel(outcome)).Inc()
}

func (c *CartMetrics) IncCheckout() {
	if c == nil || c.checkouts == nil {
		return
	}
	c.checkouts.Inc()
}
