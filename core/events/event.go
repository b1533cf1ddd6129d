package events

// Event represents a structured state change emitted by the protocol core.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers (RPC stream, metrics,
// audit log).
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies the Emitter interface while discarding all events. It
// is the default wired into engines before the node attaches its own sink.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}

// Buffer accumulates events during a single state transition so the caller can
// flush them only after the transition commits. A failed transition simply
// drops the buffer, which gives the exactly-once-on-success emission
// guarantee.
type Buffer struct {
	pending []Event
}

// Emit implements the Emitter interface.
func (b *Buffer) Emit(evt Event) {
	if b == nil || evt == nil {
		return
	}
	b.pending = append(b.pending, evt)
}

// Drain returns the buffered events and resets the buffer.
func (b *Buffer) Drain() []Event {
	if b == nil {
		return nil
	}
	out := b.pending
	b.pending = nil
	return out
}

// Reset discards any buffered events.
func (b *Buffer) Reset() {
	if b == nil {
		return
	}
	b.pending = nil
}
