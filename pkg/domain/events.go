package domain

import (
	"context"
	"time"
)

// EventAction names a species lifecycle event published to notifiers.
type EventAction string

// Published event actions.
const (
	EventSpeciesCreated EventAction = "species_created"
	EventSpeciesMutated EventAction = "species_mutated"
	EventSpeciesDeleted EventAction = "species_deleted"
	EventPlayerSwitched EventAction = "player_switched"
	EventGenerationStep EventAction = "generation_step"
)

// SpeciesEvent is the notification payload emitted after a committed
// transaction. It carries snapshot data only.
type SpeciesEvent struct {
	Action     EventAction `json:"action"`
	Info       SpeciesInfo `json:"info"`
	Name       string      `json:"name"`
	Generation int32       `json:"generation"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// Notifier is implemented by every notification channel.
type Notifier interface {
	// ID returns a unique identifier for this notifier.
	ID() string
	// Type returns the channel type, e.g. "websocket".
	Type() string
	// Notify delivers the event. The context bounds cancellation.
	Notify(ctx context.Context, event SpeciesEvent) error
	// Close releases channel resources.
	Close() error
}
