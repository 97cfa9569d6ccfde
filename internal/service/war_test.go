package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/M-LunaFarm/NationSystem/internal/config"
	"github.com/M-LunaFarm/NationSystem/internal/domain"
)

// newWarEnv shortens war timings so a full war fits in a handful of ticks.
func newWarEnv(t *testing.T) (*testEnv, *WarService) {
	t.Helper()
	env := newTestEnv(t)
	env.cfg.War.MatchOpen = true
	env.cfg.War.PrepareSeconds = 5
	env.cfg.War.BattleSeconds = 10
	env.cfg.War.MatchBands = []config.MatchBand{
		{TimeSeconds: 2, MaxLevelDiff: 0},
		{TimeSeconds: 4, MaxLevelDiff: 3},
	}
	wars := NewWarService(env.cfg, env.store, env.nations, env.events)
	return env, wars
}

func TestEnqueueChecks(t *testing.T) {
	env, wars := newWarEnv(t)
	ctx := context.Background()
	owner := uuid.New()
	nationID := env.seedNation(t, "Avalon", owner)

	if status := wars.Enqueue(ctx, uuid.New()); status != StatusNotInNation {
		t.Errorf("outsider: status = %s, want NOT_IN_NATION", status)
	}
	member := env.addMember(t, nationID)
	if status := wars.Enqueue(ctx, member); status != StatusOwnerOnly {
		t.Errorf("member: status = %s, want OWNER_ONLY", status)
	}

	if status := wars.Enqueue(ctx, owner); !status.OK() {
		t.Fatalf("enqueue: status = %s", status)
	}
	if status := wars.Enqueue(ctx, owner); status != StatusAlreadyQueued {
		t.Errorf("double enqueue: status = %s, want ALREADY_QUEUED", status)
	}
	if wars.QueueSize() != 1 {
		t.Errorf("queue size = %d, want 1", wars.QueueSize())
	}

	wars.SetMatchOpen(false)
	other := uuid.New()
	env.seedNation(t, "Camelot", other)
	if status := wars.Enqueue(ctx, other); status != StatusMatchClosed {
		t.Errorf("closed intake: status = %s, want MATCH_CLOSED", status)
	}

	wars.ClearMatching()
	if wars.QueueSize() != 0 {
		t.Errorf("queue size after clear = %d, want 0", wars.QueueSize())
	}
}

func TestMatchingEqualLevels(t *testing.T) {
	env, wars := newWarEnv(t)
	ctx := context.Background()
	ownerA := uuid.New()
	ownerB := uuid.New()
	nationA := env.seedNation(t, "Avalon", ownerA)
	nationB := env.seedNation(t, "Camelot", ownerB)

	wars.Enqueue(ctx, ownerA)
	wars.Enqueue(ctx, ownerB)

	// Equal levels match within the tightest band on the first tick.
	wars.TickMatching(ctx)

	if !wars.IsInWar(nationA) || !wars.IsInWar(nationB) {
		t.Fatal("both nations should be at war")
	}
	if wars.QueueSize() != 0 {
		t.Errorf("queue size after match = %d, want 0", wars.QueueSize())
	}

	state, ok := wars.WarState(nationA)
	if !ok {
		t.Fatal("missing war state")
	}
	if state.Phase != domain.WarPrepare {
		t.Errorf("phase = %s, want PREPARE", state.Phase)
	}
	if state.RemainingSeconds != 15 {
		t.Errorf("remaining = %d, want prepare+battle = 15", state.RemainingSeconds)
	}

	// Both ids resolve to the same war.
	other, ok := wars.WarState(nationB)
	if !ok || other.NationA != state.NationA || other.NationB != state.NationB {
		t.Errorf("war state mismatch: %+v vs %+v", state, other)
	}

	// A nation at war cannot queue again.
	if status := wars.Enqueue(ctx, ownerA); status != StatusAlreadyQueued {
		t.Errorf("enqueue while at war: status = %s, want ALREADY_QUEUED", status)
	}
}

func TestMatchingDrainsQueueInOneTick(t *testing.T) {
	env, wars := newWarEnv(t)
	ctx := context.Background()

	// Four equal-level nations queued at once pair off as two wars on the
	// same tick, not one war per tick.
	nations := make([]int64, 4)
	for i, name := range []string{"Avalon", "Camelot", "Elysium", "Valhalla"} {
		owner := uuid.New()
		nations[i] = env.seedNation(t, name, owner)
		if status := wars.Enqueue(ctx, owner); !status.OK() {
			t.Fatalf("enqueue %s: status = %s", name, status)
		}
	}

	wars.TickMatching(ctx)

	if wars.QueueSize() != 0 {
		t.Fatalf("queue size after tick = %d, want 0", wars.QueueSize())
	}
	for i, nationID := range nations {
		if !wars.IsInWar(nationID) {
			t.Errorf("nation %d should be at war after the tick", i)
		}
	}
}

func TestMatchingBandWidening(t *testing.T) {
	env, wars := newWarEnv(t)
	ctx := context.Background()
	ownerA := uuid.New()
	ownerB := uuid.New()
	nationA := env.seedNation(t, "Avalon", ownerA)
	nationB := env.seedNation(t, "Camelot", ownerB)
	env.bumpLevel(t, nationB, 2)

	wars.Enqueue(ctx, ownerA)
	wars.Enqueue(ctx, ownerB)

	// Levels 1 vs 3. Tolerance stays 0 through 2 waited seconds, so the
	// first two ticks find no match.
	wars.TickMatching(ctx)
	wars.TickMatching(ctx)
	if wars.IsInWar(nationA) {
		t.Fatal("matched before the band widened")
	}

	// Third tick: waited = 3 > 2 seconds, tolerance widens to 3.
	wars.TickMatching(ctx)
	if !wars.IsInWar(nationA) || !wars.IsInWar(nationB) {
		t.Fatal("expected a match after band widening")
	}
}

func TestWarCountdownAndDraw(t *testing.T) {
	env, wars := newWarEnv(t)
	ctx := context.Background()
	ownerA := uuid.New()
	ownerB := uuid.New()
	nationA := env.seedNation(t, "Avalon", ownerA)
	nationB := env.seedNation(t, "Camelot", ownerB)

	wars.Enqueue(ctx, ownerA)
	wars.Enqueue(ctx, ownerB)
	wars.TickMatching(ctx)

	// The prepare window is 5 seconds; the flip to ACTIVE lands on the tick
	// where remaining reaches the battle window.
	for i := 0; i < 4; i++ {
		wars.TickWars(ctx)
	}
	state, _ := wars.WarState(nationA)
	if state.Phase != domain.WarPrepare {
		t.Fatalf("phase after 4 ticks = %s, want PREPARE", state.Phase)
	}

	wars.TickWars(ctx)
	state, ok := wars.WarState(nationA)
	if !ok {
		t.Fatal("war ended early")
	}
	if state.Phase != domain.WarActive {
		t.Errorf("phase after prepare = %s, want ACTIVE", state.Phase)
	}
	if state.RemainingSeconds != 10 {
		t.Errorf("remaining at flip = %d, want 10", state.RemainingSeconds)
	}

	// Run out the battle window; the war ends as a draw and both sides are
	// released together.
	for i := 0; i < 10; i++ {
		wars.TickWars(ctx)
	}
	if wars.IsInWar(nationA) || wars.IsInWar(nationB) {
		t.Error("war should have ended")
	}
	if _, ok := wars.WarState(nationA); ok {
		t.Error("war state should be gone")
	}

	// Both nations are free to queue again.
	if status := wars.Enqueue(ctx, ownerA); !status.OK() {
		t.Errorf("requeue after war: status = %s", status)
	}
}

func TestCountdownLabel(t *testing.T) {
	prepare := domain.WarState{Phase: domain.WarPrepare, RemainingSeconds: 42}
	if got := CountdownLabel(prepare); got != "Preparing for war... (42s)" {
		t.Errorf("prepare label = %q", got)
	}
	active := domain.WarState{Phase: domain.WarActive, RemainingSeconds: 7}
	if got := CountdownLabel(active); got != "War in progress... (7s)" {
		t.Errorf("active label = %q", got)
	}
}
