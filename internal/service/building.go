package service

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/M-LunaFarm/NationSystem/internal/config"
	"github.com/M-LunaFarm/NationSystem/internal/domain"
	"github.com/M-LunaFarm/NationSystem/internal/storage"
	"github.com/M-LunaFarm/NationSystem/internal/structure"
	"github.com/M-LunaFarm/NationSystem/internal/world"
	"github.com/google/uuid"
)

// BuildingService owns placement validation and the construction timer state
// machine BUILDING -> ACTIVE -> DESTROYED.
type BuildingService struct {
	cfg        *config.Config
	store      *storage.Store
	gateway    *world.Gateway
	structures *structure.Provider
	events     *Events
}

// NewBuildingService creates the service.
func NewBuildingService(cfg *config.Config, store *storage.Store, gw *world.Gateway, structures *structure.Provider, events *Events) *BuildingService {
	return &BuildingService{
		cfg:        cfg,
		store:      store,
		gateway:    gw,
		structures: structures,
		events:     events,
	}
}

// PlaceResult is the outcome of placeBuilding.
type PlaceResult struct {
	Status   Status
	Building domain.Building
}

// PlaceBuilding validates and inserts a construction in state BUILDING with
// a completion deadline. The checks run in order; the first failure wins.
func (s *BuildingService) PlaceBuilding(ctx context.Context, player uuid.UUID, base world.BlockPos, buildingType domain.BuildingType, facing string) PlaceResult {
	member, err := s.store.GetMemberByPlayer(ctx, player)
	if err != nil {
		log.Printf("building: looking up member: %v", err)
		return PlaceResult{Status: StatusError}
	}
	if member == nil {
		return PlaceResult{Status: StatusNotInNation}
	}
	if member.Role != domain.RoleOwner {
		return PlaceResult{Status: StatusNotOwner}
	}
	nation, err := s.store.GetNationByID(ctx, member.NationID)
	if err != nil || nation == nil {
		return PlaceResult{Status: StatusNotInNation}
	}

	territories, err := s.store.ListTerritoriesByNation(ctx, member.NationID)
	if err != nil {
		return PlaceResult{Status: StatusError}
	}
	var territory *domain.Territory
	for i := range territories {
		if territories[i].Contains(base.World, base.X, base.Z) {
			territory = &territories[i]
			break
		}
	}
	if territory == nil {
		return PlaceResult{Status: StatusNotInTerritory}
	}
	if territory.WallStatus != domain.WallBuilt {
		return PlaceResult{Status: StatusWallNotBuilt}
	}
	if base.Y != territory.CenterY {
		return PlaceResult{Status: StatusInvalidY}
	}

	buildings, err := s.store.ListBuildingsByTerritory(ctx, territory.ID)
	if err != nil {
		return PlaceResult{Status: StatusError}
	}
	for _, b := range buildings {
		if b.State == domain.BuildingInProgress {
			return PlaceResult{Status: StatusBuildingInProgress}
		}
	}
	if !s.insideBuildArea(*territory, base) {
		return PlaceResult{Status: StatusInvalidLocation}
	}
	if tooCloseToExisting(buildings, base, s.cfg.Building.MinSpacing) {
		return PlaceResult{Status: StatusTooClose}
	}

	def, ok := s.cfg.BuildingDefinition(buildingType)
	if !ok || def.StructurePath == "" {
		return PlaceResult{Status: StatusInvalidType}
	}
	if nation.Level < def.MinLevel {
		return PlaceResult{Status: StatusLevelTooLow}
	}
	placed, err := s.store.CountPlacedByNationAndType(ctx, member.NationID, buildingType)
	if err != nil {
		return PlaceResult{Status: StatusError}
	}
	if placed >= def.MaxPerNation {
		return PlaceResult{Status: StatusLimitReached}
	}
	if !s.structures.HasTemplate(def.StructurePath) {
		return PlaceResult{Status: StatusStructureMissing}
	}

	completeAt := time.Now().Add(time.Duration(def.BuildTimeSeconds) * time.Second)
	building := domain.Building{
		TerritoryID:     territory.ID,
		Type:            buildingType,
		State:           domain.BuildingInProgress,
		Direction:       domain.NormalizeDirection(facing),
		World:           base.World,
		BaseX:           base.X,
		BaseY:           base.Y,
		BaseZ:           base.Z,
		Level:           1,
		BuildCompleteAt: &completeAt,
	}
	err = s.store.WithTx(ctx, func(tx *sql.Tx) error {
		id, err := s.store.InsertBuilding(tx, &building)
		building.ID = id
		return err
	})
	if err != nil {
		log.Printf("building: inserting %s: %v", buildingType, err)
		return PlaceResult{Status: StatusError}
	}

	s.events.Emit(domain.EventBuildingPlaced, member.NationID, domain.BuildingEvent{
		BuildingID:  building.ID,
		TerritoryID: territory.ID,
		Type:        buildingType,
		State:       domain.BuildingInProgress,
	})
	return PlaceResult{Status: StatusSuccess, Building: building}
}

// ProcessCompletion promotes every due BUILDING row to ACTIVE and stamps
// its structure into the world. The flip is persisted first and the world
// placement runs after, on the gateway; a building whose template went
// missing is left BUILDING and retried next sweep, with an operator warning
// so a permanently stuck row is visible in the logs.
func (s *BuildingService) ProcessCompletion(ctx context.Context) {
	due, err := s.store.ListDueBuildings(ctx, time.Now())
	if err != nil {
		log.Printf("building: listing due constructions: %v", err)
		return
	}
	for _, building := range due {
		def, ok := s.cfg.BuildingDefinition(building.Type)
		if !ok || !s.structures.HasTemplate(def.StructurePath) {
			log.Printf("building: construction %d (%s) waiting on missing template %q", building.ID, building.Type, def.StructurePath)
			continue
		}
		err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
			return s.store.UpdateBuildingState(tx, building.ID, domain.BuildingActive, nil)
		})
		if err != nil {
			log.Printf("building: promoting construction %d: %v", building.ID, err)
			continue
		}

		b := building
		if err := s.gateway.Do(ctx, func(w *world.World) error {
			base := world.BlockPos{World: b.World, X: b.BaseX, Y: b.BaseY, Z: b.BaseZ}
			return s.structures.Place(w, def.StructurePath, base, b.Direction)
		}); err != nil {
			log.Printf("building: placing structure for %d: %v", building.ID, err)
		}

		s.events.Emit(domain.EventBuildingActive, 0, domain.BuildingEvent{
			BuildingID:  building.ID,
			TerritoryID: building.TerritoryID,
			Type:        building.Type,
			State:       domain.BuildingActive,
		})
	}
}

// HasActiveBuilding reports whether the nation has an ACTIVE building of the
// given type. Used as a gate by the bank, storage, shop and present services.
func (s *BuildingService) HasActiveBuilding(ctx context.Context, nationID int64, t domain.BuildingType) (bool, error) {
	count, err := s.store.CountActiveByNationAndType(ctx, nationID, t)
	return count > 0, err
}

// insideBuildArea checks that the building footprint stays inside the
// claim's inner margin and off the reserved center core.
func (s *BuildingService) insideBuildArea(t domain.Territory, base world.BlockPos) bool {
	half := (s.cfg.Building.MinSpacing - 1) / 2
	if half < 0 {
		half = 0
	}
	footprint := domain.BlockArea{
		MinX: base.X - half, MaxX: base.X + half,
		MinZ: base.Z - half, MaxZ: base.Z + half,
	}
	inner := domain.AreaFromCenter(t.CenterX, t.CenterZ, t.Size-8)
	if footprint.MinX < inner.MinX || footprint.MaxX > inner.MaxX ||
		footprint.MinZ < inner.MinZ || footprint.MaxZ > inner.MaxZ {
		return false
	}
	core := domain.BlockArea{
		MinX: t.CenterX - 4, MaxX: t.CenterX + 4,
		MinZ: t.CenterZ - 4, MaxZ: t.CenterZ + 4,
	}
	return !footprint.Intersects(core)
}

func tooCloseToExisting(buildings []domain.Building, base world.BlockPos, spacing int) bool {
	for _, b := range buildings {
		if b.State == domain.BuildingDestroyed {
			continue
		}
		dx := intAbs(b.BaseX - base.X)
		dz := intAbs(b.BaseZ - base.Z)
		if dx <= spacing && dz <= spacing {
			return true
		}
	}
	return false
}

func intAbs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
