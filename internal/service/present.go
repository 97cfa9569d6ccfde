package service

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/M-LunaFarm/NationSystem/internal/config"
	"github.com/M-LunaFarm/NationSystem/internal/domain"
	"github.com/M-LunaFarm/NationSystem/internal/economy"
	"github.com/M-LunaFarm/NationSystem/internal/storage"
	"github.com/google/uuid"
)

// PresentService hands out the daily present: money to the claiming player
// and experience to the nation, on a per-nation cooldown.
type PresentService struct {
	cfg       *config.Config
	store     *storage.Store
	ledger    *economy.Ledger
	buildings *BuildingService

	now func() time.Time
}

// NewPresentService creates the daily present service.
func NewPresentService(cfg *config.Config, store *storage.Store, ledger *economy.Ledger, buildings *BuildingService) *PresentService {
	return &PresentService{
		cfg:       cfg,
		store:     store,
		ledger:    ledger,
		buildings: buildings,
		now:       time.Now,
	}
}

// PresentClaimResult reports a present claim. On COOLDOWN, RemainingSeconds says
// how long until the next claim.
type PresentClaimResult struct {
	Status           Status `json:"status"`
	RewardMoney      int64  `json:"reward_money,omitempty"`
	RewardExp        int64  `json:"reward_exp,omitempty"`
	RemainingSeconds int64  `json:"remaining_seconds,omitempty"`
}

// Claim gives the player the daily present if the nation has an active
// present building and the cooldown has elapsed. The claim timestamp and the
// nation experience commit together; the wallet credit follows.
func (s *PresentService) Claim(ctx context.Context, player uuid.UUID) PresentClaimResult {
	member, err := s.store.GetMemberByPlayer(ctx, player)
	if err != nil {
		return PresentClaimResult{Status: StatusError}
	}
	if member == nil {
		return PresentClaimResult{Status: StatusNotInNation}
	}

	has, err := s.buildings.HasActiveBuilding(ctx, member.NationID, domain.BuildingPresent)
	if err != nil {
		return PresentClaimResult{Status: StatusError}
	}
	if !has {
		return PresentClaimResult{Status: StatusNoPresentBuilding}
	}

	now := s.now()
	last, err := s.store.GetLastPresentClaim(ctx, member.NationID)
	if err != nil {
		return PresentClaimResult{Status: StatusError}
	}
	cooldown := time.Duration(s.cfg.Present.CooldownHours) * time.Hour
	if last != nil {
		next := last.Add(cooldown)
		if now.Before(next) {
			return PresentClaimResult{
				Status:           StatusCooldown,
				RemainingSeconds: int64(next.Sub(now).Seconds()),
			}
		}
	}

	err = s.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.store.UpsertLastPresentClaim(tx, member.NationID, now); err != nil {
			return err
		}
		return s.store.AddExp(tx, member.NationID, s.cfg.Present.RewardExp)
	})
	if err != nil {
		log.Printf("present: recording claim for nation %d: %v", member.NationID, err)
		return PresentClaimResult{Status: StatusError}
	}

	if err := s.ledger.Deposit(ctx, player, s.cfg.Present.RewardMoney); err != nil {
		log.Printf("present: crediting %d to %s: %v", s.cfg.Present.RewardMoney, player, err)
	}
	return PresentClaimResult{
		Status:      StatusSuccess,
		RewardMoney: s.cfg.Present.RewardMoney,
		RewardExp:   s.cfg.Present.RewardExp,
	}
}
