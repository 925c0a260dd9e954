// Package metrics defines the instrumentation hook the engine reports into.
// The default hook is a no-op; a Prometheus-backed implementation ships in
// this package for hosts that scrape.
package metrics

// Hook receives engine events. Implementations must be safe for concurrent
// use and must not block: hooks are invoked while no engine lock is held,
// but on the caller's hot path.
type Hook interface {
	// OnSubmit is invoked after an item is admitted to a queue.
	OnSubmit(kind string, priority float64)

	// OnNext is invoked after an item is pulled from a queue.
	OnNext(kind string, priority float64)

	// OnEvict is invoked when admission displaced a queued item.
	OnEvict(kind string, priority float64)

	// OnReprioritize is invoked after a reprioritization pass with the
	// number of items whose priority changed.
	OnReprioritize(kind string, changed int)
}

// Nop is a Hook that discards every event.
type Nop struct{}

func (Nop) OnSubmit(string, float64)   {}
func (Nop) OnNext(string, float64)     {}
func (Nop) OnEvict(string, float64)    {}
func (Nop) OnReprioritize(string, int) {}

var _ Hook = Nop{}
