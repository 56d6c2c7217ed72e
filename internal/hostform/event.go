package hostform

import "context"

// Phase orders listener delivery. Every Capture listener runs before any
// Bubble listener, whatever the registration order.
type Phase int

const (
	Capture Phase = iota
	Bubble
)

// EventType names the events a form emits.
type EventType string

const (
	Submit EventType = "submit"
	Change EventType = "change"
)

// Event is delivered to listeners in phase order.
type Event struct {
	Type EventType

	requested        bool
	defaultPrevented bool
	stopped          bool
}

// PreventDefault marks the event as handled by script.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// StopImmediatePropagation keeps every remaining listener, in both phases,
// from seeing the event.
func (e *Event) StopImmediatePropagation() { e.stopped = true }

// Requested is true for submits triggered by RequestSubmit rather than by the user.
func (e *Event) Requested() bool { return e.requested }

func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

func (e *Event) Stopped() bool { return e.stopped }

// Listener handles one event. It runs synchronously inside Dispatch.
type Listener func(ctx context.Context, e *Event)
