package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventConvertStart EventType = "convert_start"
	EventConvertDone  EventType = "convert_done"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// ConvertEvent describes one conversion attempt.
type ConvertEvent struct {
	EventBase
	Key        string        `json:"key"`
	InputSize  int           `json:"input_size"`
	Kind       string        `json:"kind,omitempty"`
	CacheHit   bool          `json:"cache_hit,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
	Err        error         `json:"-"`
	OutputSize int           `json:"output_size,omitempty"`
}

// LifecycleHooks defines callbacks for conversion observability.
type LifecycleHooks struct {
	OnConvertStart func(context.Context, *ConvertEvent)
	OnConvertDone  func(context.Context, *ConvertEvent)
}
