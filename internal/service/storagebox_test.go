package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/M-LunaFarm/NationSystem/internal/domain"
)

func TestStorageOpenSave(t *testing.T) {
	env := newTestEnv(t)
	boxes := NewStorageService(env.cfg, env.store, env.buildings)
	ctx := context.Background()
	owner := uuid.New()
	nationID := env.seedNation(t, "Avalon", owner)

	if result := boxes.Open(ctx, uuid.New()); result.Status != StatusNotInNation {
		t.Errorf("outsider: status = %s, want NOT_IN_NATION", result.Status)
	}
	if result := boxes.Open(ctx, owner); result.Status != StatusNoStorageBuilding {
		t.Errorf("no chest: status = %s, want NO_STORAGE_BUILDING", result.Status)
	}

	territoryID := env.addTerritory(t, nationID, 0, 0, domain.WallBuilt)
	env.activateBuilding(t, territoryID, domain.BuildingChest)

	// First open is all empty slots at the configured size.
	result := boxes.Open(ctx, owner)
	if !result.Status.OK() {
		t.Fatalf("open: status = %s", result.Status)
	}
	if result.Size != env.cfg.Storage.Size || len(result.Slots) != env.cfg.Storage.Size {
		t.Fatalf("open size = %d slots = %d, want %d", result.Size, len(result.Slots), env.cfg.Storage.Size)
	}
	for i, slot := range result.Slots {
		if slot != nil {
			t.Errorf("slot %d = %+v, want empty", i, slot)
		}
	}

	slots := []*ItemStack{
		{Item: "iron_ingot", Count: 64},
		nil,
		{Item: "diamond", Count: 3},
	}
	if status := boxes.Save(ctx, owner, slots); !status.OK() {
		t.Fatalf("save: status = %s", status)
	}

	// Any member sees the shared contents, padded to full size.
	member := env.addMember(t, nationID)
	result = boxes.Open(ctx, member)
	if !result.Status.OK() {
		t.Fatalf("member open: status = %s", result.Status)
	}
	if got := result.Slots[0]; got == nil || got.Item != "iron_ingot" || got.Count != 64 {
		t.Errorf("slot 0 = %+v", got)
	}
	if result.Slots[1] != nil {
		t.Errorf("slot 1 = %+v, want empty", result.Slots[1])
	}
	if got := result.Slots[2]; got == nil || got.Item != "diamond" {
		t.Errorf("slot 2 = %+v", got)
	}
	for i := 3; i < len(result.Slots); i++ {
		if result.Slots[i] != nil {
			t.Errorf("slot %d = %+v, want empty padding", i, result.Slots[i])
		}
	}

	oversized := make([]*ItemStack, env.cfg.Storage.Size+1)
	if status := boxes.Save(ctx, owner, oversized); status != StatusError {
		t.Errorf("oversized save: status = %s, want ERROR", status)
	}
}
