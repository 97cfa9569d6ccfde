package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event types for notification and WebSocket broadcast
const (
	EventNationCreated   = "nation_created"
	EventNationDeleted   = "nation_deleted"
	EventMemberJoined    = "member_joined"
	EventMemberLeft      = "member_left"
	EventTerritoryClaim  = "territory_claim"
	EventTerritoryExpire = "territory_expire"
	EventWallBuilt       = "wall_built"
	EventBuildingPlaced  = "building_placed"
	EventBuildingActive  = "building_active"
	EventWarMatched      = "war_matched"
	EventWarPhase        = "war_phase"
	EventWarCountdown    = "war_countdown"
	EventWarEnded        = "war_ended"
	EventLevelUp         = "level_up"
)

// Event is the envelope broadcast to observers and notification subscribers.
type Event struct {
	Type      string      `json:"event"`
	NationID  int64       `json:"nation_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// NationCreatedEvent is sent when a nation comes into existence, whether by
// explicit creation or by a first land claim.
type NationCreatedEvent struct {
	Name      string    `json:"name"`
	OwnerUUID uuid.UUID `json:"owner_uuid"`
}

// NationDeletedEvent is sent when a nation's last pending territory expires.
type NationDeletedEvent struct {
	Name string `json:"name"`
}

// TerritoryClaimEvent is sent when a claim is inserted PENDING.
type TerritoryClaimEvent struct {
	TerritoryID int64     `json:"territory_id"`
	World       string    `json:"world"`
	CenterX     int       `json:"center_x"`
	CenterZ     int       `json:"center_z"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// BuildingEvent is sent on placement and on completion.
type BuildingEvent struct {
	BuildingID  int64         `json:"building_id"`
	TerritoryID int64         `json:"territory_id"`
	Type        BuildingType  `json:"type"`
	State       BuildingState `json:"state"`
}

// WarEvent is sent on match, phase change and end.
type WarEvent struct {
	NationA          int64    `json:"nation_a"`
	NationB          int64    `json:"nation_b"`
	Phase            WarPhase `json:"phase"`
	RemainingSeconds int      `json:"remaining_seconds"`
}

// WarCountdownEvent drives the visible per-participant countdown indicator.
type WarCountdownEvent struct {
	Phase            WarPhase `json:"phase"`
	RemainingSeconds int      `json:"remaining_seconds"`
	TotalSeconds     int      `json:"total_seconds"`
}
