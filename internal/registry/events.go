package registry

import "github.com/warpdl/stickers/internal/sticker"

// EventType classifies registry events.
type EventType int

const (
	// EventCreated follows a successful Create.
	EventCreated EventType = iota
	// EventUpdated follows any persisted change to a sticker.
	EventUpdated
	// EventDeleted follows a Delete that removed a sticker.
	EventDeleted
	// EventRestored is emitted for every sticker read by Load so the UI
	// can rebuild its window in the saved state.
	EventRestored
	// EventTimerFired follows a timer expiry.
	EventTimerFired
	// EventCommandFinished follows a recorded command run.
	EventCommandFinished
	// EventNotice reports a background failure the UI should surface,
	// typically a write that could not be persisted.
	EventNotice
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventUpdated:
		return "updated"
	case EventDeleted:
		return "deleted"
	case EventRestored:
		return "restored"
	case EventTimerFired:
		return "timer-fired"
	case EventCommandFinished:
		return "command-finished"
	case EventNotice:
		return "notice"
	}
	return "unknown"
}

// Event tells the UI host which sticker to redraw. Sticker is a snapshot
// taken when the event was emitted; it is nil for EventDeleted.
type Event struct {
	Type    EventType
	ID      int64
	Sticker *sticker.Sticker
	Err     error
}

const eventBuffer = 256

// emit queues ev without blocking. Events are redraw hints, so a full
// queue drops the event.
func (r *Registry) emit(ev Event) {
	select {
	case r.events <- ev:
	default:
		r.log.Warning("event queue full, dropped %s for sticker %d", ev.Type, ev.ID)
	}
}

// Events returns the event stream. It is never closed.
func (r *Registry) Events() <-chan Event {
	return r.events
}
