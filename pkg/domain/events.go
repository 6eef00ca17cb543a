package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventSelect       EventType = "select"
	EventReset        EventType = "reset"
	EventPersistError EventType = "persist_error"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Key       string    `json:"key"`
}

// SelectEvent is emitted after a selection was computed and persisted.
type SelectEvent struct {
	EventBase
	Behavior  Behavior `json:"behavior"`
	Index     int      `json:"index"`
	NextIndex int      `json:"next_index"`
	Total     int      `json:"total"`
	Segment   string   `json:"segment"`
}

// ResetEvent is emitted when the observed collection differs from the stored one.
type ResetEvent struct {
	EventBase
	PreviousTotal int `json:"previous_total"`
	Total         int `json:"total"`
}

// PersistErrorEvent is emitted when a state mutation could not be saved.
type PersistErrorEvent struct {
	EventBase
	Err error `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnSelect       func(context.Context, *SelectEvent)
	OnReset        func(context.Context, *ResetEvent)
	OnPersistError func(context.Context, *PersistErrorEvent)
}

// Merge returns hooks that call h first and then other for every event.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnSelect: func(ctx context.Context, e *SelectEvent) {
			if h.OnSelect != nil {
				h.OnSelect(ctx, e)
			}
			if other.OnSelect != nil {
				other.OnSelect(ctx, e)
			}
		},
		OnReset: func(ctx context.Context, e *ResetEvent) {
			if h.OnReset != nil {
				h.OnReset(ctx, e)
			}
			if other.OnReset != nil {
				other.OnReset(ctx, e)
			}
		},
		OnPersistError: func(ctx context.Context, e *PersistErrorEvent) {
			if h.OnPersistError != nil {
				h.OnPersistError(ctx, e)
			}
			if other.OnPersistError != nil {
				other.OnPersistError(ctx, e)
			}
		},
	}
}
