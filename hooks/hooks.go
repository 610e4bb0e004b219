package hooks

import (
	"go.uber.org/zap"

	"github.com/wippyai/bindkit/ownership"
)

// LogObserver logs lifecycle events through zap at debug level.
type LogObserver struct {
	log *zap.Logger
}

// NewLogObserver creates an observer that logs every lifecycle event.
func NewLogObserver(log *zap.Logger) *LogObserver {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogObserver{log: log}
}

func (o *LogObserver) OnLifecycleEvent(e ownership.Event) {
	o.log.Debug("lifecycle event",
		zap.String("event", e.Type.String()),
		zap.Uint32("handle", uint32(e.Handle)),
		zap.Uint32("type_id", uint32(e.TypeID)),
		zap.String("strategy", e.Strategy.String()),
		zap.Int("count", e.Count))
}

// Recorder captures lifecycle events for inspection in tests.
type Recorder struct {
	events []ownership.Event
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) OnLifecycleEvent(e ownership.Event) {
	r.events = append(r.events, e)
}

// Events returns the captured events in arrival order.
func (r *Recorder) Events() []ownership.Event {
	return r.events
}

// CountOf returns how many events of the given type were observed.
func (r *Recorder) CountOf(t ownership.EventType) int {
	n := 0
	for _, e := range r.events {
		if e.Type == t {
			n++
		}
	}
	return n
}

// Reset discards captured events.
func (r *Recorder) Reset() {
	r.events = nil
}

// Multiplexer fans a single subscription out to several observers.
type Multiplexer struct {
	observers []ownership.Observer
}

// NewMultiplexer creates a multiplexer over the given observers.
func NewMultiplexer(observers ...ownership.Observer) *Multiplexer {
	return &Multiplexer{observers: observers}
}

// Add appends an observer.
func (m *Multiplexer) Add(o ownership.Observer) {
	m.observers = append(m.observers, o)
}

func (m *Multiplexer) OnLifecycleEvent(e ownership.Event) {
	for _, o := range m.observers {
		o.OnLifecycleEvent(e)
	}
}
