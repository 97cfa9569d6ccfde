package service

import (
	"sync"
	"time"

	"github.com/M-LunaFarm/NationSystem/internal/domain"
	"github.com/google/uuid"
)

// InvitationService keeps pending invitations in memory. Invitations expire
// by wall clock at read time; there is no eviction sweep.
type InvitationService struct {
	ttl time.Duration

	mu      sync.Mutex
	invites map[uuid.UUID]domain.Invitation
}

// NewInvitationService creates the service with the configured TTL.
func NewInvitationService(ttl time.Duration) *InvitationService {
	return &InvitationService{
		ttl:     ttl,
		invites: make(map[uuid.UUID]domain.Invitation),
	}
}

// Create records an invitation for the target, replacing any existing one.
func (s *InvitationService) Create(target uuid.UUID, nationID int64, nationName string, inviter uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invites[target] = domain.Invitation{
		NationID:    nationID,
		NationName:  nationName,
		InviterUUID: inviter,
		ExpiresAt:   time.Now().Add(s.ttl),
	}
}

// Get returns the target's live invitation. An expired one is removed and
// reported as absent.
func (s *InvitationService) Get(target uuid.UUID) (domain.Invitation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getLocked(target)
}

// Consume returns and removes the target's live invitation.
func (s *InvitationService) Consume(target uuid.UUID) (domain.Invitation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	invite, ok := s.getLocked(target)
	if ok {
		delete(s.invites, target)
	}
	return invite, ok
}

// Clear drops the target's invitation if any.
func (s *InvitationService) Clear(target uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.invites, target)
}

func (s *InvitationService) getLocked(target uuid.UUID) (domain.Invitation, bool) {
	invite, ok := s.invites[target]
	if !ok {
		return domain.Invitation{}, false
	}
	if invite.Expired(time.Now()) {
		delete(s.invites, target)
		return domain.Invitation{}, false
	}
	return invite, true
}
