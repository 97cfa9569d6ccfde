package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/M-LunaFarm/NationSystem/internal/config"
	"github.com/M-LunaFarm/NationSystem/internal/domain"
	"github.com/M-LunaFarm/NationSystem/internal/storage"
	"github.com/google/uuid"
)

// ItemStack is one slot of the shared nation storage. A nil entry in the
// slot slice is an empty slot.
type ItemStack struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

// StorageService exposes the shared per-nation item storage. Contents are
// serialized to a compressed blob; saves go through the usual transaction
// path so a crash never loses a committed close.
type StorageService struct {
	cfg       *config.Config
	store     *storage.Store
	buildings *BuildingService
}

// NewStorageService creates the shared storage service.
func NewStorageService(cfg *config.Config, store *storage.Store, buildings *BuildingService) *StorageService {
	return &StorageService{cfg: cfg, store: store, buildings: buildings}
}

// StorageResult carries the storage contents on success.
type StorageResult struct {
	Status Status       `json:"status"`
	Size   int          `json:"size,omitempty"`
	Slots  []*ItemStack `json:"slots,omitempty"`
}

// Open loads the caller's nation storage. Requires membership and an active
// chest building.
func (s *StorageService) Open(ctx context.Context, player uuid.UUID) StorageResult {
	nationID, status := s.chestGate(ctx, player)
	if !status.OK() {
		return StorageResult{Status: status}
	}

	slots, err := s.load(ctx, nationID)
	if err != nil {
		log.Printf("storage: loading contents for nation %d: %v", nationID, err)
		return StorageResult{Status: StatusError}
	}
	return StorageResult{Status: StatusSuccess, Size: s.cfg.Storage.Size, Slots: slots}
}

// Save persists the full slot contents for the caller's nation. Slices
// longer than the configured size are rejected; shorter ones are padded
// with empty slots.
func (s *StorageService) Save(ctx context.Context, player uuid.UUID, slots []*ItemStack) Status {
	nationID, status := s.chestGate(ctx, player)
	if !status.OK() {
		return status
	}
	if len(slots) > s.cfg.Storage.Size {
		return StatusError
	}
	for len(slots) < s.cfg.Storage.Size {
		slots = append(slots, nil)
	}

	data, err := json.Marshal(slots)
	if err != nil {
		log.Printf("storage: encoding contents for nation %d: %v", nationID, err)
		return StatusError
	}
	err = s.store.WithTx(ctx, func(tx *sql.Tx) error {
		return s.store.SaveStorageContents(tx, nationID, data, time.Now())
	})
	if err != nil {
		log.Printf("storage: saving contents for nation %d: %v", nationID, err)
		return StatusError
	}
	return StatusSuccess
}

func (s *StorageService) load(ctx context.Context, nationID int64) ([]*ItemStack, error) {
	data, err := s.store.LoadStorageContents(ctx, nationID)
	if err != nil {
		return nil, err
	}
	slots := make([]*ItemStack, s.cfg.Storage.Size)
	if len(data) == 0 {
		return slots, nil
	}
	var saved []*ItemStack
	if err := json.Unmarshal(data, &saved); err != nil {
		return nil, fmt.Errorf("decoding storage contents: %w", err)
	}
	// Size may have shrunk in config since the last save; overflow is dropped.
	copy(slots, saved)
	return slots, nil
}

func (s *StorageService) chestGate(ctx context.Context, player uuid.UUID) (int64, Status) {
	member, err := s.store.GetMemberByPlayer(ctx, player)
	if err != nil {
		return 0, StatusError
	}
	if member == nil {
		return 0, StatusNotInNation
	}
	has, err := s.buildings.HasActiveBuilding(ctx, member.NationID, domain.BuildingChest)
	if err != nil {
		return 0, StatusError
	}
	if !has {
		return 0, StatusNoStorageBuilding
	}
	return member.NationID, StatusSuccess
}
