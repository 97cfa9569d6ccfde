package service

import (
	"context"
	"database/sql"
	"log"
	"strings"
	"sync"

	"github.com/M-LunaFarm/NationSystem/internal/config"
	"github.com/M-LunaFarm/NationSystem/internal/domain"
	"github.com/M-LunaFarm/NationSystem/internal/economy"
	"github.com/M-LunaFarm/NationSystem/internal/notify"
	"github.com/M-LunaFarm/NationSystem/internal/storage"
	"github.com/google/uuid"
)

// NationService owns nation identity, membership and the invitation flow.
// It keeps a read-through membership cache that every other service's
// permission checks depend on; any code path that changes membership or
// nation level must invalidate it.
type NationService struct {
	cfg      *config.Config
	store    *storage.Store
	ledger   *economy.Ledger
	invites  *InvitationService
	notifier *notify.Notifier
	events   *Events

	mu          sync.RWMutex
	memberships map[uuid.UUID]domain.Membership
	chatPrefs   map[uuid.UUID]bool
}

// NewNationService creates the service.
func NewNationService(cfg *config.Config, store *storage.Store, ledger *economy.Ledger, invites *InvitationService, notifier *notify.Notifier, events *Events) *NationService {
	return &NationService{
		cfg:         cfg,
		store:       store,
		ledger:      ledger,
		invites:     invites,
		notifier:    notifier,
		events:      events,
		memberships: make(map[uuid.UUID]domain.Membership),
		chatPrefs:   make(map[uuid.UUID]bool),
	}
}

// MembershipResult is the outcome of a membership lookup or change.
type MembershipResult struct {
	Status     Status
	Membership domain.Membership
}

// InviteResult carries the inviting nation's name on success.
type InviteResult struct {
	Status     Status
	NationName string
}

// CreateNation creates a nation with the caller as OWNER, charging the
// configured creation cost from the caller's wallet first. The nation,
// settings and ownership rows are inserted in one transaction.
func (s *NationService) CreateNation(ctx context.Context, player uuid.UUID, name string) MembershipResult {
	name = strings.TrimSpace(name)
	if !s.cfg.ValidNationName(name) {
		return MembershipResult{Status: StatusInvalidName}
	}

	member, err := s.store.GetMemberByPlayer(ctx, player)
	if err != nil {
		log.Printf("nation: looking up member: %v", err)
		return MembershipResult{Status: StatusError}
	}
	if member != nil {
		return MembershipResult{Status: StatusAlreadyInNation}
	}

	existing, err := s.store.GetNationByName(ctx, name)
	if err != nil {
		log.Printf("nation: looking up name: %v", err)
		return MembershipResult{Status: StatusError}
	}
	if existing != nil {
		return MembershipResult{Status: StatusNameTaken}
	}

	if cost := s.cfg.Nation.CreateCost; cost > 0 {
		ok, err := s.ledger.Available(ctx, player, cost)
		if err != nil {
			return MembershipResult{Status: StatusEconomyUnavailable}
		}
		if !ok {
			return MembershipResult{Status: StatusInsufficientFunds}
		}
		if err := s.ledger.Withdraw(ctx, player, cost); err != nil {
			return MembershipResult{Status: StatusInsufficientFunds}
		}
	}

	var nationID int64
	err = s.store.WithTx(ctx, func(tx *sql.Tx) error {
		id, err := s.store.InsertNation(tx, &domain.Nation{Name: name, OwnerUUID: player, Level: 1})
		if err != nil {
			return err
		}
		if err := s.store.InsertDefaultSettings(tx, id); err != nil {
			return err
		}
		if err := s.store.InsertMember(tx, id, player, domain.RoleOwner); err != nil {
			return err
		}
		nationID = id
		return nil
	})
	if err != nil {
		log.Printf("nation: creating %q: %v", name, err)
		return MembershipResult{Status: StatusError}
	}

	membership := domain.Membership{NationID: nationID, NationName: name, Role: domain.RoleOwner, NationLevel: 1}
	s.cacheMembership(player, membership)
	s.events.Emit(domain.EventNationCreated, nationID, domain.NationCreatedEvent{Name: name, OwnerUUID: player})
	return MembershipResult{Status: StatusSuccess, Membership: membership}
}

// Membership resolves a player's membership through the cache.
func (s *NationService) Membership(ctx context.Context, player uuid.UUID) MembershipResult {
	s.mu.RLock()
	cached, ok := s.memberships[player]
	s.mu.RUnlock()
	if ok {
		return MembershipResult{Status: StatusSuccess, Membership: cached}
	}

	member, err := s.store.GetMemberByPlayer(ctx, player)
	if err != nil {
		log.Printf("nation: looking up member: %v", err)
		return MembershipResult{Status: StatusError}
	}
	if member == nil {
		return MembershipResult{Status: StatusNotInNation}
	}
	nation, err := s.store.GetNationByID(ctx, member.NationID)
	if err != nil || nation == nil {
		return MembershipResult{Status: StatusNotInNation}
	}

	membership := domain.Membership{
		NationID:    nation.ID,
		NationName:  nation.Name,
		Role:        member.Role,
		NationLevel: nation.Level,
	}
	s.cacheMembership(player, membership)
	return MembershipResult{Status: StatusSuccess, Membership: membership}
}

// Invite creates a time-boxed invitation for target. OWNER and SUBKING may
// invite; the member cap for the nation's level is enforced at invite time
// and again at accept time.
func (s *NationService) Invite(ctx context.Context, inviter, target uuid.UUID) InviteResult {
	if inviter == target {
		return InviteResult{Status: StatusSelfInvite}
	}
	member, err := s.store.GetMemberByPlayer(ctx, inviter)
	if err != nil {
		return InviteResult{Status: StatusError}
	}
	if member == nil {
		return InviteResult{Status: StatusNotInNation}
	}
	targetMember, err := s.store.GetMemberByPlayer(ctx, target)
	if err != nil {
		return InviteResult{Status: StatusError}
	}
	if targetMember != nil {
		return InviteResult{Status: StatusTargetInNation}
	}
	if !member.Role.CanInvite() {
		return InviteResult{Status: StatusOwnerOnly}
	}
	nation, err := s.store.GetNationByID(ctx, member.NationID)
	if err != nil || nation == nil {
		return InviteResult{Status: StatusNotInNation}
	}
	count, err := s.store.CountMembers(ctx, nation.ID)
	if err != nil {
		return InviteResult{Status: StatusError}
	}
	if count >= s.cfg.MaxMembersForLevel(nation.Level) {
		return InviteResult{Status: StatusNationFull}
	}

	s.invites.Create(target, nation.ID, nation.Name, inviter)
	return InviteResult{Status: StatusSuccess, NationName: nation.Name}
}

// AcceptInvite consumes the caller's invitation and joins the nation as
// MEMBER. The invitation is consumed even when a later check fails, so an
// accept can only be attempted once per invite.
func (s *NationService) AcceptInvite(ctx context.Context, player uuid.UUID) MembershipResult {
	member, err := s.store.GetMemberByPlayer(ctx, player)
	if err != nil {
		return MembershipResult{Status: StatusError}
	}
	if member != nil {
		return MembershipResult{Status: StatusAlreadyInNation}
	}
	invite, ok := s.invites.Consume(player)
	if !ok {
		return MembershipResult{Status: StatusInviteNotFound}
	}
	nation, err := s.store.GetNationByID(ctx, invite.NationID)
	if err != nil || nation == nil {
		return MembershipResult{Status: StatusInviteNotFound}
	}
	count, err := s.store.CountMembers(ctx, nation.ID)
	if err != nil {
		return MembershipResult{Status: StatusError}
	}
	if count >= s.cfg.MaxMembersForLevel(nation.Level) {
		return MembershipResult{Status: StatusNationFull}
	}

	err = s.store.WithTx(ctx, func(tx *sql.Tx) error {
		return s.store.InsertMember(tx, invite.NationID, player, domain.RoleMember)
	})
	if err != nil {
		log.Printf("nation: accepting invite: %v", err)
		return MembershipResult{Status: StatusError}
	}

	membership := domain.Membership{
		NationID:    invite.NationID,
		NationName:  invite.NationName,
		Role:        domain.RoleMember,
		NationLevel: nation.Level,
	}
	s.cacheMembership(player, membership)
	s.events.Emit(domain.EventMemberJoined, invite.NationID, nil)
	return MembershipResult{Status: StatusSuccess, Membership: membership}
}

// DeclineInvite consumes the caller's invitation without joining. Declining
// twice reports INVITE_NOT_FOUND the second time.
func (s *NationService) DeclineInvite(player uuid.UUID) Status {
	if _, ok := s.invites.Consume(player); !ok {
		return StatusInviteNotFound
	}
	return StatusSuccess
}

// Leave removes the caller from their nation. Owners cannot leave; the
// nation would be headless.
func (s *NationService) Leave(ctx context.Context, player uuid.UUID) Status {
	member, err := s.store.GetMemberByPlayer(ctx, player)
	if err != nil {
		return StatusError
	}
	if member == nil {
		return StatusNotInNation
	}
	if member.Role == domain.RoleOwner {
		return StatusOwnerOnly
	}
	err = s.store.WithTx(ctx, func(tx *sql.Tx) error {
		return s.store.DeleteMember(tx, member.NationID, player)
	})
	if err != nil {
		log.Printf("nation: leaving: %v", err)
		return StatusError
	}
	s.InvalidateMembership(player)
	s.events.Emit(domain.EventMemberLeft, member.NationID, nil)
	return StatusSuccess
}

// ToggleChat flips the caller's nation-chat preference and persists it.
func (s *NationService) ToggleChat(ctx context.Context, player uuid.UUID) (bool, Status) {
	next := !s.NationChatEnabled(ctx, player)
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		return s.store.SetNationChatEnabled(tx, player, next)
	})
	if err != nil {
		log.Printf("nation: toggling chat: %v", err)
		return false, StatusError
	}
	s.mu.Lock()
	s.chatPrefs[player] = next
	s.mu.Unlock()
	return next, StatusSuccess
}

// NationChatEnabled returns the cached chat preference, loading it on miss.
func (s *NationService) NationChatEnabled(ctx context.Context, player uuid.UUID) bool {
	s.mu.RLock()
	pref, ok := s.chatPrefs[player]
	s.mu.RUnlock()
	if ok {
		return pref
	}
	enabled, err := s.store.GetNationChatEnabled(ctx, player)
	if err != nil {
		return false
	}
	s.mu.Lock()
	s.chatPrefs[player] = enabled
	s.mu.Unlock()
	return enabled
}

// SendNationChat formats and delivers a chat line to the sender's nation.
func (s *NationService) SendNationChat(ctx context.Context, sender uuid.UUID, senderName, message string) {
	result := s.Membership(ctx, sender)
	if !result.Status.OK() {
		return
	}
	formatted := strings.NewReplacer(
		"%player%", senderName,
		"%message%", message,
	).Replace(s.cfg.Nation.ChatFormat)
	s.SendNationMessage(ctx, result.Membership.NationID, formatted)
}

// SendNationMessage delivers text to every member of a nation.
func (s *NationService) SendNationMessage(ctx context.Context, nationID int64, text string) {
	members, err := s.store.ListMemberUUIDs(ctx, nationID)
	if err != nil {
		log.Printf("nation: listing members of %d: %v", nationID, err)
		return
	}
	s.notifier.NationMessage(nationID, members, text)
}

// InvalidateMembership evicts one player's cache entry.
func (s *NationService) InvalidateMembership(player uuid.UUID) {
	s.mu.Lock()
	delete(s.memberships, player)
	s.mu.Unlock()
}

// InvalidateNation evicts every cached entry for a nation's members. members
// must be captured before the membership rows are deleted.
func (s *NationService) InvalidateNation(members []uuid.UUID) {
	s.mu.Lock()
	for _, member := range members {
		delete(s.memberships, member)
	}
	s.mu.Unlock()
}

// cacheMembership is called on every successful load or membership change.
func (s *NationService) cacheMembership(player uuid.UUID, m domain.Membership) {
	s.mu.Lock()
	s.memberships[player] = m
	s.mu.Unlock()
}
