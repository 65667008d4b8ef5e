package console

import (
	"sync"

	"video-to-audio/domain/conversion"

	"github.com/rs/zerolog"
)

// Publisher is satisfied by every sink in this package
type Publisher interface {
	Publish(event conversion.Event)
}

// Multi fans each event out to several sinks in order
type Multi []Publisher

// Publish forwards event to every sink
func (m Multi) Publish(event conversion.Event) {
	for _, p := range m {
		p.Publish(event)
	}
}

// LogSink records terminal outcomes as structured log events
type LogSink struct {
	logger zerolog.Logger
}

// NewLogSink creates a LogSink
func NewLogSink(logger zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Publish logs the outcome; progress is already logged by the job itself
func (s *LogSink) Publish(event conversion.Event) {
	o := event.Outcome
	if o == nil {
		return
	}

	var e *zerolog.Event
	switch o.Kind {
	case conversion.OutcomeKindFailure:
		e = s.logger.Error()
	default:
		e = s.logger.Info()
	}
	e.Str("job", event.JobID).
		Int64("seq", event.Seq).
		Str("outcome", string(o.Kind)).
		Str("detail", o.Message).
		Msg("batch finished")
}

// Recorder keeps a bounded, sequenced history of relayed events
type Recorder struct {
	mu        sync.RWMutex
	maxEvents int
	events    []conversion.Event
}

// NewRecorder creates a bounded in-memory event buffer
func NewRecorder(maxEvents int) *Recorder {
	if maxEvents <= 0 {
		maxEvents = 500
	}
	return &Recorder{
		maxEvents: maxEvents,
		events:    make([]conversion.Event, 0, maxEvents),
	}
}

// Publish appends one event, dropping the oldest when full
func (r *Recorder) Publish(event conversion.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
	if len(r.events) > r.maxEvents {
		trim := len(r.events) - r.maxEvents
		r.events = append([]conversion.Event(nil), r.events[trim:]...)
	}
}

// Events returns a copy of the recorded history
func (r *Recorder) Events() []conversion.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]conversion.Event(nil), r.events...)
}
