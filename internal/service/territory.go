package service

import (
	"context"
	"database/sql"
	"log"
	"math"
	"strings"
	"time"

	"github.com/M-LunaFarm/NationSystem/internal/config"
	"github.com/M-LunaFarm/NationSystem/internal/domain"
	"github.com/M-LunaFarm/NationSystem/internal/storage"
	"github.com/M-LunaFarm/NationSystem/internal/structure"
	"github.com/M-LunaFarm/NationSystem/internal/world"
	"github.com/google/uuid"
)

// TerritoryService owns land-claim geometry and the wall two-phase state
// machine. A claim starts PENDING with an expiry; building the wall flips it
// to BUILT, and the expiry sweep deletes claims that never got one.
type TerritoryService struct {
	cfg        *config.Config
	store      *storage.Store
	gateway    *world.Gateway
	structures *structure.Provider
	nations    *NationService
	events     *Events
}

// NewTerritoryService creates the service.
func NewTerritoryService(cfg *config.Config, store *storage.Store, gw *world.Gateway, structures *structure.Provider, nations *NationService, events *Events) *TerritoryService {
	return &TerritoryService{
		cfg:        cfg,
		store:      store,
		gateway:    gw,
		structures: structures,
		nations:    nations,
		events:     events,
	}
}

// ClaimResult is the outcome of createTerritory.
type ClaimResult struct {
	Status        Status
	TerritoryID   int64
	NationID      int64
	NationName    string
	CreatedNation bool
}

// TerritoriesResult carries a nation's claims.
type TerritoriesResult struct {
	Status      Status
	Territories []domain.Territory
}

// CreateTerritory claims the square around center for the caller's nation.
// A caller without a nation founds one on the spot, which requires a valid
// proposedName; an existing member must be OWNER. The claim-count check, the
// proximity scan and the insert run in one transaction, so two racing claims
// cannot both pass the scan before either commits.
func (s *TerritoryService) CreateTerritory(ctx context.Context, player uuid.UUID, center world.BlockPos, proposedName string) ClaimResult {
	member, err := s.store.GetMemberByPlayer(ctx, player)
	if err != nil {
		log.Printf("territory: looking up member: %v", err)
		return ClaimResult{Status: StatusError}
	}

	var nationID int64
	var nationName string
	nationLevel := 1
	createdNation := false

	if member != nil {
		if member.Role != domain.RoleOwner {
			return ClaimResult{Status: StatusNotOwner}
		}
		nation, err := s.store.GetNationByID(ctx, member.NationID)
		if err != nil || nation == nil {
			return ClaimResult{Status: StatusNotInNation}
		}
		nationID = nation.ID
		nationName = nation.Name
		nationLevel = nation.Level
	} else {
		if proposedName == "" {
			return ClaimResult{Status: StatusNameRequired}
		}
		if !s.cfg.ValidNationName(proposedName) {
			return ClaimResult{Status: StatusInvalidName}
		}
		existing, err := s.store.GetNationByName(ctx, proposedName)
		if err != nil {
			return ClaimResult{Status: StatusError}
		}
		if existing != nil {
			return ClaimResult{Status: StatusNameTaken}
		}
		err = s.store.WithTx(ctx, func(tx *sql.Tx) error {
			id, err := s.store.InsertNation(tx, &domain.Nation{Name: proposedName, OwnerUUID: player, Level: 1})
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
			log.Printf("territory: founding nation %q: %v", proposedName, err)
			return ClaimResult{Status: StatusError}
		}
		nationName = proposedName
		createdNation = true
		s.nations.InvalidateMembership(player)
		s.events.Emit(domain.EventNationCreated, nationID, domain.NationCreatedEvent{Name: proposedName, OwnerUUID: player})
	}

	expiresAt := time.Now().Add(s.cfg.WallExpiry())
	territory := domain.Territory{
		NationID:      nationID,
		World:         center.World,
		CenterX:       center.X,
		CenterY:       center.Y,
		CenterZ:       center.Z,
		Size:          s.cfg.Territory.Size,
		WallStatus:    domain.WallPending,
		WallExpiresAt: &expiresAt,
	}
	minDistance := float64(s.cfg.Territory.MinDistance)
	status := StatusSuccess
	var territoryID int64
	err = s.store.WithTx(ctx, func(tx *sql.Tx) error {
		count, err := s.store.CountTerritoriesByNationTx(tx, nationID)
		if err != nil {
			return err
		}
		if count >= s.cfg.MaxTerritoriesForLevel(nationLevel) {
			status = StatusTooManyTerritories
			return nil
		}
		all, err := s.store.ListAllTerritoriesTx(tx)
		if err != nil {
			return err
		}
		for _, other := range all {
			if !strings.EqualFold(other.World, center.World) {
				continue
			}
			if distance(center, other) < minDistance {
				status = StatusTooClose
				return nil
			}
		}
		id, err := s.store.InsertTerritory(tx, &territory)
		territoryID = id
		return err
	})
	if err != nil {
		log.Printf("territory: inserting claim: %v", err)
		return ClaimResult{Status: StatusError}
	}
	if status != StatusSuccess {
		return ClaimResult{Status: status}
	}

	s.events.Emit(domain.EventTerritoryClaim, nationID, domain.TerritoryClaimEvent{
		TerritoryID: territoryID,
		World:       center.World,
		CenterX:     center.X,
		CenterZ:     center.Z,
		ExpiresAt:   expiresAt,
	})
	return ClaimResult{
		Status:        StatusSuccess,
		TerritoryID:   territoryID,
		NationID:      nationID,
		NationName:    nationName,
		CreatedNation: createdNation,
	}
}

// BuildWall terraforms the wall of the PENDING claim containing pos and
// flips it to BUILT. The world mutation runs on the gateway and must succeed
// before the status is persisted; a crash between the two leaves the claim
// PENDING with a built wall, never the reverse.
func (s *TerritoryService) BuildWall(ctx context.Context, player uuid.UUID, pos world.BlockPos) Status {
	member, err := s.store.GetMemberByPlayer(ctx, player)
	if err != nil {
		return StatusError
	}
	if member == nil {
		return StatusNotInNation
	}
	if member.Role != domain.RoleOwner {
		return StatusNotOwner
	}
	territories, err := s.store.ListTerritoriesByNation(ctx, member.NationID)
	if err != nil {
		return StatusError
	}
	var target *domain.Territory
	for i := range territories {
		if territories[i].Contains(pos.World, pos.X, pos.Z) {
			target = &territories[i]
			break
		}
	}
	if target == nil {
		return StatusNotInTerritory
	}
	if target.WallStatus != domain.WallPending {
		return StatusNoPendingWall
	}

	placed := false
	err = s.gateway.Do(ctx, func(w *world.World) error {
		placed = s.structures.BuildWall(w, *target, s.cfg.Territory.YMin, s.cfg.Territory.YMax)
		return nil
	})
	if err != nil {
		log.Printf("territory: wall placement for claim %d: %v", target.ID, err)
		return StatusError
	}
	if !placed {
		return StatusStructureMissing
	}

	err = s.store.WithTx(ctx, func(tx *sql.Tx) error {
		return s.store.UpdateWallStatus(tx, target.ID, domain.WallBuilt, nil)
	})
	if err != nil {
		log.Printf("territory: persisting wall status for claim %d: %v", target.ID, err)
		return StatusError
	}

	s.events.Emit(domain.EventWallBuilt, member.NationID, domain.TerritoryClaimEvent{
		TerritoryID: target.ID,
		World:       target.World,
		CenterX:     target.CenterX,
		CenterZ:     target.CenterZ,
	})
	return StatusSuccess
}

// ListTerritories returns the caller's nation's claims.
func (s *TerritoryService) ListTerritories(ctx context.Context, player uuid.UUID) TerritoriesResult {
	member, err := s.store.GetMemberByPlayer(ctx, player)
	if err != nil {
		return TerritoriesResult{Status: StatusError}
	}
	if member == nil {
		return TerritoriesResult{Status: StatusNotInNation}
	}
	territories, err := s.store.ListTerritoriesByNation(ctx, member.NationID)
	if err != nil {
		return TerritoriesResult{Status: StatusError}
	}
	return TerritoriesResult{Status: StatusSuccess, Territories: territories}
}

// ExpirePending deletes every PENDING claim past its expiry. A nation whose
// last claim expires is deleted with all its rows in the same transaction,
// and its members' cache entries are invalidated.
func (s *TerritoryService) ExpirePending(ctx context.Context) {
	expired, err := s.store.ListPendingExpired(ctx, time.Now())
	if err != nil {
		log.Printf("territory: listing expired claims: %v", err)
		return
	}
	for _, territory := range expired {
		// Member list is captured before the rows go away, for cache
		// invalidation after commit.
		members, err := s.store.ListMemberUUIDs(ctx, territory.NationID)
		if err != nil {
			log.Printf("territory: listing members of nation %d: %v", territory.NationID, err)
			continue
		}

		deletedNation := false
		err = s.store.WithTx(ctx, func(tx *sql.Tx) error {
			if err := s.store.DeleteTerritory(tx, territory.ID); err != nil {
				return err
			}
			remaining, err := s.store.CountTerritoriesByNationTx(tx, territory.NationID)
			if err != nil {
				return err
			}
			if remaining == 0 {
				if err := s.store.DeleteMembersByNation(tx, territory.NationID); err != nil {
					return err
				}
				if err := s.store.DeleteSettingsByNation(tx, territory.NationID); err != nil {
					return err
				}
				if err := s.store.DeleteNation(tx, territory.NationID); err != nil {
					return err
				}
				deletedNation = true
			}
			return nil
		})
		if err != nil {
			log.Printf("territory: expiring claim %d: %v", territory.ID, err)
			continue
		}

		s.events.Emit(domain.EventTerritoryExpire, territory.NationID, domain.TerritoryClaimEvent{
			TerritoryID: territory.ID,
			World:       territory.World,
			CenterX:     territory.CenterX,
			CenterZ:     territory.CenterZ,
		})
		if deletedNation {
			s.nations.InvalidateNation(members)
			s.events.Emit(domain.EventNationDeleted, territory.NationID, nil)
		}
	}
}

// distance is the Euclidean distance between the claim centers, matching the
// proximity rule's 3D measure.
func distance(center world.BlockPos, t domain.Territory) float64 {
	dx := float64(center.X - t.CenterX)
	dy := float64(center.Y - t.CenterY)
	dz := float64(center.Z - t.CenterZ)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
