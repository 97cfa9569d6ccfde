package domain

import (
	"time"

	"github.com/google/uuid"
)

// Nation is a persistent player organization with a level, experience and
// treasury balance.
type Nation struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	OwnerUUID   uuid.UUID `json:"owner_uuid"`
	Level       int       `json:"level"`
	Exp         int64     `json:"exp"`
	BankBalance int64     `json:"bank_balance"`
	Score       int       `json:"score"`
	CreatedAt   time.Time `json:"created_at"`
}

// Role constants for nation members
type Role string

const (
	RoleOwner   Role = "OWNER"
	RoleSubking Role = "SUBKING"
	RoleMember  Role = "MEMBER"
)

// CanInvite reports whether the role may invite new members.
func (r Role) CanInvite() bool {
	return r == RoleOwner || r == RoleSubking
}

// Member is the persisted relation between a player and a nation.
type Member struct {
	NationID   int64     `json:"nation_id"`
	PlayerUUID uuid.UUID `json:"player_uuid"`
	Role       Role      `json:"role"`
	JoinedAt   time.Time `json:"joined_at"`
}

// Membership is the denormalized record served from the identity cache:
// the member's nation plus the fields every permission check needs.
type Membership struct {
	NationID    int64  `json:"nation_id"`
	NationName  string `json:"nation_name"`
	Role        Role   `json:"role"`
	NationLevel int    `json:"nation_level"`
}

// NationSettings is the singleton per-nation settings row.
type NationSettings struct {
	NationID    int64 `json:"nation_id"`
	PvpEnabled  bool  `json:"pvp_enabled"`
	InviteLock  bool  `json:"invite_lock"`
	ChatDefault bool  `json:"chat_default"`
}

// Invitation is held in memory only and expires by wall clock.
type Invitation struct {
	NationID    int64     `json:"nation_id"`
	NationName  string    `json:"nation_name"`
	InviterUUID uuid.UUID `json:"inviter_uuid"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Expired reports whether the invitation is past its expiry.
func (i Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
