package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/M-LunaFarm/NationSystem/internal/domain"
	"github.com/M-LunaFarm/NationSystem/internal/world"
)

func TestPlaceBuildingChecks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := uuid.New()
	nationID := env.seedNation(t, "Avalon", owner)
	base := world.BlockPos{World: "world", X: 6, Y: 64, Z: 0}

	if result := env.buildings.PlaceBuilding(ctx, uuid.New(), base, domain.BuildingBank, "SOUTH"); result.Status != StatusNotInNation {
		t.Errorf("outsider: status = %s, want NOT_IN_NATION", result.Status)
	}
	member := env.addMember(t, nationID)
	if result := env.buildings.PlaceBuilding(ctx, member, base, domain.BuildingBank, "SOUTH"); result.Status != StatusNotOwner {
		t.Errorf("member: status = %s, want NOT_OWNER", result.Status)
	}
	if result := env.buildings.PlaceBuilding(ctx, owner, base, domain.BuildingBank, "SOUTH"); result.Status != StatusNotInTerritory {
		t.Errorf("no claim: status = %s, want NOT_IN_TERRITORY", result.Status)
	}

	territoryID := env.addTerritory(t, nationID, 0, 0, domain.WallPending)
	if result := env.buildings.PlaceBuilding(ctx, owner, base, domain.BuildingBank, "SOUTH"); result.Status != StatusWallNotBuilt {
		t.Errorf("pending wall: status = %s, want WALL_NOT_BUILT", result.Status)
	}

	err := env.store.WithTx(ctx, func(tx *sql.Tx) error {
		return env.store.UpdateWallStatus(tx, territoryID, domain.WallBuilt, nil)
	})
	if err != nil {
		t.Fatalf("building wall: %v", err)
	}

	wrongY := world.BlockPos{World: "world", X: 6, Y: 70, Z: 0}
	if result := env.buildings.PlaceBuilding(ctx, owner, wrongY, domain.BuildingBank, "SOUTH"); result.Status != StatusInvalidY {
		t.Errorf("wrong y: status = %s, want INVALID_Y", result.Status)
	}

	// The center core is reserved for the wall structures.
	core := world.BlockPos{World: "world", X: 0, Y: 64, Z: 0}
	if result := env.buildings.PlaceBuilding(ctx, owner, core, domain.BuildingBank, "SOUTH"); result.Status != StatusInvalidLocation {
		t.Errorf("center core: status = %s, want INVALID_LOCATION", result.Status)
	}
	// Outside the inner margin of the claim.
	edge := world.BlockPos{World: "world", X: 8, Y: 64, Z: 0}
	if result := env.buildings.PlaceBuilding(ctx, owner, edge, domain.BuildingBank, "SOUTH"); result.Status != StatusInvalidLocation {
		t.Errorf("claim edge: status = %s, want INVALID_LOCATION", result.Status)
	}

	if result := env.buildings.PlaceBuilding(ctx, owner, base, domain.BuildingRestaurant, "SOUTH"); result.Status != StatusInvalidType {
		t.Errorf("unconfigured type: status = %s, want INVALID_TYPE", result.Status)
	}
	// The shop requires level 2.
	if result := env.buildings.PlaceBuilding(ctx, owner, base, domain.BuildingShop, "SOUTH"); result.Status != StatusLevelTooLow {
		t.Errorf("shop at level 1: status = %s, want LEVEL_TOO_LOW", result.Status)
	}

	result := env.buildings.PlaceBuilding(ctx, owner, base, domain.BuildingBank, "WEST")
	if !result.Status.OK() {
		t.Fatalf("place: status = %s", result.Status)
	}
	if result.Building.State != domain.BuildingInProgress {
		t.Errorf("state = %s, want BUILDING", result.Building.State)
	}
	if result.Building.Direction != domain.DirWest {
		t.Errorf("direction = %s, want WEST", result.Building.Direction)
	}
	if result.Building.BuildCompleteAt == nil {
		t.Error("construction must carry a completion deadline")
	}

	// Only one construction at a time per territory.
	other := world.BlockPos{World: "world", X: -6, Y: 64, Z: 0}
	if r := env.buildings.PlaceBuilding(ctx, owner, other, domain.BuildingChest, "SOUTH"); r.Status != StatusBuildingInProgress {
		t.Errorf("second construction: status = %s, want BUILDING_IN_PROGRESS", r.Status)
	}
}

func TestPlaceBuildingSpacingAndLimit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := uuid.New()
	nationID := env.seedNation(t, "Avalon", owner)
	territoryID := env.addTerritory(t, nationID, 0, 0, domain.WallBuilt)
	env.activateBuilding(t, territoryID, domain.BuildingBank)

	// The bank sits at (0,0) by default in activateBuilding; min spacing is
	// 3, so a placement 2 blocks away collides. It is also inside the core,
	// so probe with a purpose-built existing building instead.
	err := env.store.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := env.store.InsertBuilding(tx, &domain.Building{
			TerritoryID: territoryID, Type: domain.BuildingChest,
			State: domain.BuildingActive, Direction: domain.DirSouth,
			World: "world", BaseX: 6, BaseY: 64, BaseZ: 6, Level: 1,
		})
		return err
	})
	if err != nil {
		t.Fatalf("inserting chest: %v", err)
	}

	near := world.BlockPos{World: "world", X: 7, Y: 64, Z: 6}
	if result := env.buildings.PlaceBuilding(ctx, owner, near, domain.BuildingPresent, "SOUTH"); result.Status != StatusTooClose {
		t.Errorf("adjacent placement: status = %s, want TOO_CLOSE", result.Status)
	}

	// The bank limit is one per nation; a second bank is refused even at a
	// clear spot.
	clear := world.BlockPos{World: "world", X: -6, Y: 64, Z: -6}
	if result := env.buildings.PlaceBuilding(ctx, owner, clear, domain.BuildingBank, "SOUTH"); result.Status != StatusLimitReached {
		t.Errorf("second bank: status = %s, want LIMIT_REACHED", result.Status)
	}

	if result := env.buildings.PlaceBuilding(ctx, owner, clear, domain.BuildingPresent, "SOUTH"); !result.Status.OK() {
		t.Errorf("clear placement: status = %s", result.Status)
	}
}

func TestProcessCompletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := uuid.New()
	nationID := env.seedNation(t, "Avalon", owner)
	territoryID := env.addTerritory(t, nationID, 0, 0, domain.WallBuilt)

	due := time.Now().Add(-time.Second)
	var buildingID int64
	err := env.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		buildingID, err = env.store.InsertBuilding(tx, &domain.Building{
			TerritoryID: territoryID, Type: domain.BuildingBank,
			State: domain.BuildingInProgress, Direction: domain.DirSouth,
			World: "world", BaseX: 6, BaseY: 64, BaseZ: 0, Level: 1,
			BuildCompleteAt: &due,
		})
		return err
	})
	if err != nil {
		t.Fatalf("inserting due construction: %v", err)
	}

	if has, _ := env.buildings.HasActiveBuilding(ctx, nationID, domain.BuildingBank); has {
		t.Fatal("bank active before completion sweep")
	}

	env.buildings.ProcessCompletion(ctx)

	has, err := env.buildings.HasActiveBuilding(ctx, nationID, domain.BuildingBank)
	if err != nil {
		t.Fatalf("HasActiveBuilding: %v", err)
	}
	if !has {
		t.Error("bank not promoted to ACTIVE")
	}

	// The structure template was stamped at the building base.
	var block string
	env.gateway.Do(ctx, func(w *world.World) error {
		block = w.BlockAt(world.BlockPos{World: "world", X: 6, Y: 64, Z: 0})
		return nil
	})
	if block != "stone" {
		t.Errorf("structure block = %q, want stone", block)
	}

	// The sweep is idempotent for a promoted row.
	env.buildings.ProcessCompletion(ctx)
	buildings, err := env.store.ListBuildingsByTerritory(ctx, territoryID)
	if err != nil {
		t.Fatalf("listing buildings: %v", err)
	}
	if len(buildings) != 1 || buildings[0].ID != buildingID || buildings[0].State != domain.BuildingActive {
		t.Errorf("buildings after sweeps = %+v", buildings)
	}
}
