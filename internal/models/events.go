package models

import "time"

// Event types
const (
	EventTypeLocalityChanged      = "LOCALITY_CHANGED"
	EventTypeLocalityUnresolved   = "LOCALITY_UNRESOLVED"
	EventTypeZoneMisconfigured    = "ZONE_MISCONFIGURED"
	EventTypeDistributionApplied  = "DISTRIBUTION_APPLIED"
	EventTypeDistributionReverted = "DISTRIBUTION_REVERTED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// LocalityChangedEvent is published when a session's active locality is
// (re)resolved, so price-dependent consumers re-run their lookups.
type LocalityChangedEvent struct {
	BaseEvent
	SessionID    string `json:"session_id"`
	LocalityID   int64  `json:"locality_id"`
	LocalityName string `json:"locality_name"`
	Method       string `json:"method"` // stored | coordinates | ip | address
}

// LocalityUnresolvedEvent is published when no locality could be determined
// for a session and no addresses were available for disambiguation.
type LocalityUnresolvedEvent struct {
	BaseEvent
	SessionID string `json:"session_id"`
	Reason    string `json:"reason"`
}

// ZoneMisconfiguredEvent flags a zone-locality with the third-party flag set
// but no shipping price. Consumed by the admin audit worker.
type ZoneMisconfiguredEvent struct {
	BaseEvent
	ZoneID     int64 `json:"zone_id"`
	LocalityID int64 `json:"locality_id"`
}

// DistributionAppliedEvent is published after a homepage slot mutation
// persists successfully.
type DistributionAppliedEvent struct {
	BaseEvent
	Slot      int   `json:"slot"`
	ProductID int64 `json:"product_id"`
}

// DistributionRevertedEvent is published when an optimistic slot edit fails
// to persist and the local projection was discarded.
type DistributionRevertedEvent struct {
	BaseEvent
	Slot   int    `json:"slot"`
	Reason string `json:"reason"`
}
