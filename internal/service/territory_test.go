package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/M-LunaFarm/NationSystem/internal/domain"
	"github.com/M-LunaFarm/NationSystem/internal/world"
)

func TestCreateTerritoryFoundsNation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	player := uuid.New()
	center := world.BlockPos{World: "world", X: 0, Y: 64, Z: 0}

	if result := env.territories.CreateTerritory(ctx, player, center, ""); result.Status != StatusNameRequired {
		t.Errorf("claim without name: status = %s, want NAME_REQUIRED", result.Status)
	}
	if result := env.territories.CreateTerritory(ctx, player, center, "!!"); result.Status != StatusInvalidName {
		t.Errorf("claim with bad name: status = %s, want INVALID_NAME", result.Status)
	}

	result := env.territories.CreateTerritory(ctx, player, center, "Avalon")
	if !result.Status.OK() {
		t.Fatalf("claim: status = %s", result.Status)
	}
	if !result.CreatedNation || result.NationName != "Avalon" {
		t.Errorf("claim = %+v, want founded nation Avalon", result)
	}

	territory, err := env.store.GetTerritoryByID(ctx, result.TerritoryID)
	if err != nil || territory == nil {
		t.Fatalf("loading claim: %v, %v", territory, err)
	}
	if territory.WallStatus != domain.WallPending {
		t.Errorf("wall status = %s, want PENDING", territory.WallStatus)
	}
	if territory.WallExpiresAt == nil {
		t.Error("pending claim must carry an expiry")
	}

	membership := env.nations.Membership(ctx, player)
	if !membership.Status.OK() || membership.Membership.Role != domain.RoleOwner {
		t.Errorf("founder membership = %+v, want OWNER", membership)
	}
}

func TestCreateTerritoryProximity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first := uuid.New()
	result := env.territories.CreateTerritory(ctx, first, world.BlockPos{World: "world", X: 0, Y: 64, Z: 0}, "Avalon")
	if !result.Status.OK() {
		t.Fatalf("first claim: status = %s", result.Status)
	}

	// MinDistance is 100 in the test config; 50 blocks away is too close.
	second := uuid.New()
	tooClose := env.territories.CreateTerritory(ctx, second, world.BlockPos{World: "world", X: 50, Y: 64, Z: 0}, "Camelot")
	if tooClose.Status != StatusTooClose {
		t.Errorf("close claim: status = %s, want TOO_CLOSE", tooClose.Status)
	}

	// Another world is never in conflict.
	otherWorld := env.territories.CreateTerritory(ctx, second, world.BlockPos{World: "nether", X: 50, Y: 64, Z: 0}, "Camelot")
	if !otherWorld.Status.OK() {
		t.Errorf("claim in other world: status = %s", otherWorld.Status)
	}

	farEnough := env.territories.CreateTerritory(ctx, uuid.New(), world.BlockPos{World: "world", X: 200, Y: 64, Z: 0}, "Elysium")
	if !farEnough.Status.OK() {
		t.Errorf("distant claim: status = %s", farEnough.Status)
	}
}

func TestCreateTerritoryConcurrentClaims(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Paired claims 50 blocks apart race each other; the scan and the insert
	// share one transaction, so exactly one of each pair may commit. Pairs
	// are spread 1000 blocks apart so iterations never conflict.
	for i := 0; i < 20; i++ {
		base := i * 1000
		results := make(chan ClaimResult, 2)
		claim := func(x int, name string) {
			center := world.BlockPos{World: "world", X: x, Y: 64, Z: 0}
			results <- env.territories.CreateTerritory(ctx, uuid.New(), center, name)
		}
		go claim(base, fmt.Sprintf("East%d", i))
		go claim(base+50, fmt.Sprintf("West%d", i))

		committed := 0
		for j := 0; j < 2; j++ {
			switch r := <-results; r.Status {
			case StatusSuccess:
				committed++
			case StatusTooClose:
			default:
				t.Fatalf("pair %d: status = %s", i, r.Status)
			}
		}
		if committed != 1 {
			t.Fatalf("pair %d: %d claims committed, want exactly 1", i, committed)
		}
	}
}

func TestCreateTerritoryLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := uuid.New()
	env.seedNation(t, "Avalon", owner)

	first := env.territories.CreateTerritory(ctx, owner, world.BlockPos{World: "world", X: 0, Y: 64, Z: 0}, "")
	if !first.Status.OK() {
		t.Fatalf("first claim: status = %s", first.Status)
	}
	// Level 1 allows a single claim.
	second := env.territories.CreateTerritory(ctx, owner, world.BlockPos{World: "world", X: 500, Y: 64, Z: 0}, "")
	if second.Status != StatusTooManyTerritories {
		t.Errorf("second claim: status = %s, want TOO_MANY_TERRITORIES", second.Status)
	}

	member := env.addMember(t, first.NationID)
	memberClaim := env.territories.CreateTerritory(ctx, member, world.BlockPos{World: "world", X: 800, Y: 64, Z: 0}, "")
	if memberClaim.Status != StatusNotOwner {
		t.Errorf("claim by member: status = %s, want NOT_OWNER", memberClaim.Status)
	}
}

func TestBuildWall(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := uuid.New()

	result := env.territories.CreateTerritory(ctx, owner, world.BlockPos{World: "world", X: 0, Y: 64, Z: 0}, "Avalon")
	if !result.Status.OK() {
		t.Fatalf("claim: status = %s", result.Status)
	}

	inside := world.BlockPos{World: "world", X: 3, Y: 64, Z: 3}
	outside := world.BlockPos{World: "world", X: 900, Y: 64, Z: 0}

	if status := env.territories.BuildWall(ctx, owner, outside); status != StatusNotInTerritory {
		t.Errorf("build outside claim: status = %s, want NOT_IN_TERRITORY", status)
	}
	if status := env.territories.BuildWall(ctx, uuid.New(), inside); status != StatusNotInNation {
		t.Errorf("build by outsider: status = %s, want NOT_IN_NATION", status)
	}

	if status := env.territories.BuildWall(ctx, owner, inside); !status.OK() {
		t.Fatalf("build wall: status = %s", status)
	}

	territory, err := env.store.GetTerritoryByID(ctx, result.TerritoryID)
	if err != nil || territory == nil {
		t.Fatalf("loading claim: %v, %v", territory, err)
	}
	if territory.WallStatus != domain.WallBuilt {
		t.Errorf("wall status = %s, want BUILT", territory.WallStatus)
	}
	if territory.WallExpiresAt != nil {
		t.Error("built claim should not carry an expiry")
	}

	// The perimeter now exists in the world. Size 23 puts the ring corner
	// at offset 12.
	var corner string
	env.gateway.Do(ctx, func(w *world.World) error {
		corner = w.BlockAt(world.BlockPos{World: "world", X: 12, Y: env.cfg.Territory.YMin, Z: 12})
		return nil
	})
	if corner != world.BlockBedrock {
		t.Errorf("wall corner = %q, want bedrock", corner)
	}

	if status := env.territories.BuildWall(ctx, owner, inside); status != StatusNoPendingWall {
		t.Errorf("rebuild: status = %s, want NO_PENDING_WALL", status)
	}
}

func TestExpirePending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := uuid.New()
	nationID := env.seedNation(t, "Avalon", owner)

	past := time.Now().Add(-time.Minute)
	var territoryID int64
	err := env.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		territoryID, err = env.store.InsertTerritory(tx, &domain.Territory{
			NationID: nationID, World: "world", CenterY: 64,
			Size: env.cfg.Territory.Size, WallStatus: domain.WallPending, WallExpiresAt: &past,
		})
		return err
	})
	if err != nil {
		t.Fatalf("inserting expired claim: %v", err)
	}

	env.territories.ExpirePending(ctx)

	territory, err := env.store.GetTerritoryByID(ctx, territoryID)
	if err != nil {
		t.Fatalf("loading claim: %v", err)
	}
	if territory != nil {
		t.Error("expired claim still present")
	}

	// Losing the last claim dissolves the nation.
	nation, err := env.store.GetNationByID(ctx, nationID)
	if err != nil {
		t.Fatalf("loading nation: %v", err)
	}
	if nation != nil {
		t.Error("nation with no claims should be deleted")
	}
	if result := env.nations.Membership(ctx, owner); result.Status != StatusNotInNation {
		t.Errorf("membership after dissolution: status = %s, want NOT_IN_NATION", result.Status)
	}
}

func TestExpirePendingKeepsNationWithOtherClaims(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := uuid.New()
	nationID := env.seedNation(t, "Avalon", owner)
	env.addTerritory(t, nationID, 500, 0, domain.WallBuilt)

	past := time.Now().Add(-time.Minute)
	err := env.store.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := env.store.InsertTerritory(tx, &domain.Territory{
			NationID: nationID, World: "world", CenterY: 64,
			Size: env.cfg.Territory.Size, WallStatus: domain.WallPending, WallExpiresAt: &past,
		})
		return err
	})
	if err != nil {
		t.Fatalf("inserting expired claim: %v", err)
	}

	env.territories.ExpirePending(ctx)

	nation, err := env.store.GetNationByID(ctx, nationID)
	if err != nil || nation == nil {
		t.Fatalf("nation with a surviving claim was deleted: %v, %v", nation, err)
	}
	count, err := env.store.CountTerritoriesByNation(ctx, nationID)
	if err != nil {
		t.Fatalf("counting claims: %v", err)
	}
	if count != 1 {
		t.Errorf("claim count = %d, want 1", count)
	}
}
