package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/M-LunaFarm/NationSystem/internal/domain"
)

func TestCreateNation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	player := uuid.New()

	if result := env.nations.CreateNation(ctx, player, "x"); result.Status != StatusInvalidName {
		t.Errorf("one-letter name: status = %s, want INVALID_NAME", result.Status)
	}
	if result := env.nations.CreateNation(ctx, player, "bad name!"); result.Status != StatusInvalidName {
		t.Errorf("name with spaces: status = %s, want INVALID_NAME", result.Status)
	}

	// Empty wallet cannot pay the creation cost.
	if result := env.nations.CreateNation(ctx, player, "Avalon"); result.Status != StatusInsufficientFunds {
		t.Errorf("broke player: status = %s, want INSUFFICIENT_FUNDS", result.Status)
	}

	env.fund(t, player, 5000)
	result := env.nations.CreateNation(ctx, player, "Avalon")
	if !result.Status.OK() {
		t.Fatalf("create: status = %s", result.Status)
	}
	if result.Membership.Role != domain.RoleOwner || result.Membership.NationName != "Avalon" {
		t.Errorf("unexpected membership: %+v", result.Membership)
	}

	balance, err := env.ledger.Balance(ctx, player)
	if err != nil {
		t.Fatalf("reading balance: %v", err)
	}
	if balance != 4000 {
		t.Errorf("wallet after create = %d, want 4000", balance)
	}

	if result := env.nations.CreateNation(ctx, player, "Camelot"); result.Status != StatusAlreadyInNation {
		t.Errorf("second nation: status = %s, want ALREADY_IN_NATION", result.Status)
	}

	other := uuid.New()
	env.fund(t, other, 5000)
	if result := env.nations.CreateNation(ctx, other, "Avalon"); result.Status != StatusNameTaken {
		t.Errorf("duplicate name: status = %s, want NAME_TAKEN", result.Status)
	}
}

func TestInviteFlow(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := uuid.New()
	env.seedNation(t, "Avalon", owner)
	target := uuid.New()

	if result := env.nations.Invite(ctx, owner, owner); result.Status != StatusSelfInvite {
		t.Errorf("self invite: status = %s, want SELF_INVITE", result.Status)
	}
	if result := env.nations.Invite(ctx, target, owner); result.Status != StatusNotInNation {
		t.Errorf("invite by outsider: status = %s, want NOT_IN_NATION", result.Status)
	}

	result := env.nations.Invite(ctx, owner, target)
	if !result.Status.OK() || result.NationName != "Avalon" {
		t.Fatalf("invite = %+v", result)
	}

	accepted := env.nations.AcceptInvite(ctx, target)
	if !accepted.Status.OK() {
		t.Fatalf("accept: status = %s", accepted.Status)
	}
	if accepted.Membership.Role != domain.RoleMember {
		t.Errorf("joined as %s, want MEMBER", accepted.Membership.Role)
	}

	// The invitation is consumed; a second accept finds nothing.
	if result := env.nations.AcceptInvite(ctx, target); result.Status != StatusAlreadyInNation {
		t.Errorf("re-accept while member: status = %s, want ALREADY_IN_NATION", result.Status)
	}

	// A plain MEMBER may not invite.
	if result := env.nations.Invite(ctx, target, uuid.New()); result.Status != StatusOwnerOnly {
		t.Errorf("member inviting: status = %s, want OWNER_ONLY", result.Status)
	}
	// Members of a nation cannot be invited again.
	if result := env.nations.Invite(ctx, owner, target); result.Status != StatusTargetInNation {
		t.Errorf("inviting existing member: status = %s, want TARGET_IN_NATION", result.Status)
	}
}

func TestDeclineInvite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := uuid.New()
	env.seedNation(t, "Avalon", owner)
	target := uuid.New()

	if status := env.nations.DeclineInvite(target); status != StatusInviteNotFound {
		t.Errorf("decline without invite: status = %s, want INVITE_NOT_FOUND", status)
	}

	env.nations.Invite(ctx, owner, target)
	if status := env.nations.DeclineInvite(target); !status.OK() {
		t.Errorf("decline: status = %s", status)
	}
	if status := env.nations.DeclineInvite(target); status != StatusInviteNotFound {
		t.Errorf("second decline: status = %s, want INVITE_NOT_FOUND", status)
	}
	if result := env.nations.AcceptInvite(ctx, target); result.Status != StatusInviteNotFound {
		t.Errorf("accept after decline: status = %s, want INVITE_NOT_FOUND", result.Status)
	}
}

func TestNationFull(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Nation.MaxMembersByLevel = []int{2}
	ctx := context.Background()
	owner := uuid.New()
	nationID := env.seedNation(t, "Avalon", owner)
	env.addMember(t, nationID)

	if result := env.nations.Invite(ctx, owner, uuid.New()); result.Status != StatusNationFull {
		t.Errorf("invite at cap: status = %s, want NATION_FULL", result.Status)
	}
}

func TestLeave(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := uuid.New()
	nationID := env.seedNation(t, "Avalon", owner)
	member := env.addMember(t, nationID)

	if status := env.nations.Leave(ctx, uuid.New()); status != StatusNotInNation {
		t.Errorf("leave by outsider: status = %s, want NOT_IN_NATION", status)
	}
	if status := env.nations.Leave(ctx, owner); status != StatusOwnerOnly {
		t.Errorf("owner leaving: status = %s, want OWNER_ONLY", status)
	}
	if status := env.nations.Leave(ctx, member); !status.OK() {
		t.Errorf("member leaving: status = %s", status)
	}
	if result := env.nations.Membership(ctx, member); result.Status != StatusNotInNation {
		t.Errorf("membership after leave: status = %s, want NOT_IN_NATION", result.Status)
	}
}

func TestMembershipCache(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := uuid.New()
	nationID := env.seedNation(t, "Avalon", owner)

	first := env.nations.Membership(ctx, owner)
	if !first.Status.OK() || first.Membership.NationID != nationID {
		t.Fatalf("membership = %+v", first)
	}
	if first.Membership.NationLevel != 1 {
		t.Errorf("cached level = %d, want 1", first.Membership.NationLevel)
	}

	// The cache serves the old level until invalidated.
	env.bumpLevel(t, nationID, 1)
	stale := env.nations.Membership(ctx, owner)
	if stale.Membership.NationLevel != 1 {
		t.Errorf("level before invalidation = %d, want 1", stale.Membership.NationLevel)
	}
	env.nations.InvalidateNation([]uuid.UUID{owner})
	fresh := env.nations.Membership(ctx, owner)
	if fresh.Membership.NationLevel != 2 {
		t.Errorf("level after invalidation = %d, want 2", fresh.Membership.NationLevel)
	}
}

func TestToggleChat(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	player := uuid.New()

	if env.nations.NationChatEnabled(ctx, player) {
		t.Error("chat should default to disabled")
	}
	enabled, status := env.nations.ToggleChat(ctx, player)
	if !status.OK() || !enabled {
		t.Fatalf("first toggle = %v, %s", enabled, status)
	}
	enabled, status = env.nations.ToggleChat(ctx, player)
	if !status.OK() || enabled {
		t.Fatalf("second toggle = %v, %s", enabled, status)
	}
}
