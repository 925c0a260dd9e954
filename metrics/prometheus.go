package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus implements Hook on top of a prometheus registerer.
type Prometheus struct {
	submitted     *prometheus.CounterVec
	dispatched    *prometheus.CounterVec
	evicted       *prometheus.CounterVec
	reprioritized *prometheus.CounterVec
	lastPriority  *prometheus.GaugeVec
}

// NewPrometheus registers the engine collectors with reg and returns the
// hook. Passing prometheus.DefaultRegisterer wires into the process-wide
// registry.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	p := &Prometheus{
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "priorq_items_submitted_total",
			Help: "Items admitted to a priority queue.",
		}, []string{"kind"}),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "priorq_items_dispatched_total",
			Help: "Items pulled from a priority queue.",
		}, []string{"kind"}),
		evicted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "priorq_items_evicted_total",
			Help: "Items displaced by admission at capacity.",
		}, []string{"kind"}),
		reprioritized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "priorq_items_reprioritized_total",
			Help: "Items whose priority changed during a reprioritization pass.",
		}, []string{"kind"}),
		lastPriority: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "priorq_last_dispatched_priority",
			Help: "Priority of the most recently dispatched item.",
		}, []string{"kind"}),
	}
	for _, c := range []prometheus.Collector{
		p.submitted, p.dispatched, p.evicted, p.reprioritized, p.lastPriority,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) OnSubmit(kind string, _ float64) {
	p.submitted.WithLabelValues(kind).Inc()
}

func (p *Prometheus) OnNext(kind string, priority float64) {
	p.dispatched.WithLabelValues(kind).Inc()
	p.lastPriority.WithLabelValues(kind).Set(priority)
}

func (p *Prometheus) OnEvict(kind string, _ float64) {
	p.evicted.WithLabelValues(kind).Inc()
}

func (p *Prometheus) OnReprioritize(kind string, changed int) {
	p.reprioritized.WithLabelValues(kind).Add(float64(changed))
}

var _ Hook = (*Prometheus)(nil)
