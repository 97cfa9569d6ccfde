package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/M-LunaFarm/NationSystem/internal/config"
	"github.com/M-LunaFarm/NationSystem/internal/domain"
	"github.com/M-LunaFarm/NationSystem/internal/storage"
	"github.com/google/uuid"
)

// LevelService handles nation progression. Level-ups spend accumulated
// experience and treasury money in one transaction.
type LevelService struct {
	cfg     *config.Config
	store   *storage.Store
	nations *NationService
	events  *Events
}

// NewLevelService creates the progression service.
func NewLevelService(cfg *config.Config, store *storage.Store, nations *NationService, events *Events) *LevelService {
	return &LevelService{cfg: cfg, store: store, nations: nations, events: events}
}

// LevelInfoResult carries the progression summary on success.
type LevelInfoResult struct {
	Status Status            `json:"status"`
	Info   *domain.LevelInfo `json:"info,omitempty"`
}

// LevelUpResult carries the new level on success.
type LevelUpResult struct {
	Status   Status `json:"status"`
	NewLevel int    `json:"new_level,omitempty"`
}

// Info returns the caller's nation level, resources and next-level costs.
func (s *LevelService) Info(ctx context.Context, player uuid.UUID) LevelInfoResult {
	member, err := s.store.GetMemberByPlayer(ctx, player)
	if err != nil {
		return LevelInfoResult{Status: StatusError}
	}
	if member == nil {
		return LevelInfoResult{Status: StatusNotInNation}
	}
	nation, err := s.store.GetNationByID(ctx, member.NationID)
	if err != nil || nation == nil {
		return LevelInfoResult{Status: StatusError}
	}

	info := &domain.LevelInfo{
		Level:         nation.Level,
		Exp:           nation.Exp,
		BankBalance:   nation.BankBalance,
		NextExpCost:   s.cfg.LevelUpExpCost(nation.Level),
		NextMoneyCost: s.cfg.LevelUpMoneyCost(nation.Level),
		MaxLevel:      s.cfg.MaxLevel(),
	}
	return LevelInfoResult{Status: StatusSuccess, Info: info}
}

// LevelUp advances the caller's nation by one level, spending experience and
// treasury money. Owner only. Both costs are checked and deducted in the
// same transaction, so a concurrent deposit or level-up cannot double-spend.
func (s *LevelService) LevelUp(ctx context.Context, player uuid.UUID) LevelUpResult {
	member, err := s.store.GetMemberByPlayer(ctx, player)
	if err != nil {
		return LevelUpResult{Status: StatusError}
	}
	if member == nil {
		return LevelUpResult{Status: StatusNotInNation}
	}
	if member.Role != domain.RoleOwner {
		return LevelUpResult{Status: StatusOwnerOnly}
	}
	nation, err := s.store.GetNationByID(ctx, member.NationID)
	if err != nil || nation == nil {
		return LevelUpResult{Status: StatusError}
	}

	expCost := s.cfg.LevelUpExpCost(nation.Level)
	moneyCost := s.cfg.LevelUpMoneyCost(nation.Level)
	if expCost < 0 || moneyCost < 0 {
		return LevelUpResult{Status: StatusMaxLevel}
	}
	if nation.Exp < expCost {
		return LevelUpResult{Status: StatusNotEnoughExp}
	}
	if nation.BankBalance < moneyCost {
		return LevelUpResult{Status: StatusNotEnoughMoney}
	}

	err = s.store.WithTx(ctx, func(tx *sql.Tx) error {
		balance, err := s.store.GetBankBalanceTx(tx, nation.ID)
		if err != nil {
			return err
		}
		if balance < moneyCost {
			return errInsufficientBank
		}
		if err := s.store.LevelUpNation(tx, nation.ID, expCost, moneyCost); err != nil {
			return err
		}
		return s.store.InsertBankEntry(tx, nation.ID, domain.BankLevelUp, moneyCost, player)
	})
	if err == errInsufficientBank {
		return LevelUpResult{Status: StatusNotEnoughMoney}
	}
	if err != nil {
		log.Printf("level: leveling up nation %d: %v", nation.ID, err)
		return LevelUpResult{Status: StatusError}
	}

	newLevel := nation.Level + 1
	memberUUIDs, err := s.store.ListMemberUUIDs(ctx, nation.ID)
	if err != nil {
		memberUUIDs = nil
	}
	s.nations.InvalidateNation(memberUUIDs)
	s.nations.SendNationMessage(ctx, nation.ID,
		fmt.Sprintf("[Nation] %s has reached level %d!", nation.Name, newLevel))
	s.events.Emit(domain.EventLevelUp, nation.ID, map[string]int{"level": newLevel})
	return LevelUpResult{Status: StatusSuccess, NewLevel: newLevel}
}
