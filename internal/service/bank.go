package service

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"github.com/M-LunaFarm/NationSystem/internal/config"
	"github.com/M-LunaFarm/NationSystem/internal/domain"
	"github.com/M-LunaFarm/NationSystem/internal/economy"
	"github.com/M-LunaFarm/NationSystem/internal/storage"
	"github.com/google/uuid"
)

// BankService manages the nation treasury. Every operation requires an
// active bank building; the treasury exists only once the nation has built
// one.
type BankService struct {
	cfg       *config.Config
	store     *storage.Store
	ledger    *economy.Ledger
	buildings *BuildingService
}

// NewBankService wires the treasury to the wallet ledger and building gate.
func NewBankService(cfg *config.Config, store *storage.Store, ledger *economy.Ledger, buildings *BuildingService) *BankService {
	return &BankService{cfg: cfg, store: store, ledger: ledger, buildings: buildings}
}

// BalanceResult carries the treasury balance on success.
type BalanceResult struct {
	Status  Status `json:"status"`
	Balance int64  `json:"balance,omitempty"`
}

// HistoryResult carries the most recent treasury entries on success.
type HistoryResult struct {
	Status  Status             `json:"status"`
	Entries []domain.BankEntry `json:"entries,omitempty"`
}

// Balance returns the caller's nation treasury balance.
func (s *BankService) Balance(ctx context.Context, player uuid.UUID) BalanceResult {
	nationID, status := s.requireBank(ctx, player)
	if !status.OK() {
		return BalanceResult{Status: status}
	}

	var balance int64
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		balance, err = s.store.GetBankBalanceTx(tx, nationID)
		return err
	})
	if err != nil {
		log.Printf("bank: reading balance for nation %d: %v", nationID, err)
		return BalanceResult{Status: StatusError}
	}
	return BalanceResult{Status: StatusSuccess, Balance: balance}
}

// History returns the most recent treasury entries, newest first.
func (s *BankService) History(ctx context.Context, player uuid.UUID, limit int) HistoryResult {
	nationID, status := s.requireBank(ctx, player)
	if !status.OK() {
		return HistoryResult{Status: status}
	}
	if limit <= 0 {
		limit = 10
	}

	entries, err := s.store.ListBankHistory(ctx, nationID, limit)
	if err != nil {
		log.Printf("bank: listing history for nation %d: %v", nationID, err)
		return HistoryResult{Status: StatusError}
	}
	return HistoryResult{Status: StatusSuccess, Entries: entries}
}

// Deposit moves amount from the player's wallet into the nation treasury.
// The wallet debit happens first; if the treasury write then fails, the
// wallet is refunded.
func (s *BankService) Deposit(ctx context.Context, player uuid.UUID, amount int64) BalanceResult {
	if amount <= 0 {
		return BalanceResult{Status: StatusError}
	}
	nationID, status := s.requireBank(ctx, player)
	if !status.OK() {
		return BalanceResult{Status: status}
	}

	if err := s.ledger.Withdraw(ctx, player, amount); err != nil {
		return BalanceResult{Status: StatusInsufficientFunds}
	}

	var balance int64
	err := s.store.WithTx(ctx, func(tx *sql.Tx) error {
		if err := s.store.AddBankBalance(tx, nationID, amount); err != nil {
			return err
		}
		if err := s.store.InsertBankEntry(tx, nationID, domain.BankDeposit, amount, player); err != nil {
			return err
		}
		var err error
		balance, err = s.store.GetBankBalanceTx(tx, nationID)
		return err
	})
	if err != nil {
		log.Printf("bank: depositing %d for nation %d: %v", amount, nationID, err)
		if refundErr := s.ledger.Deposit(ctx, player, amount); refundErr != nil {
			log.Printf("bank: refunding %d to %s: %v", amount, player, refundErr)
		}
		return BalanceResult{Status: StatusError}
	}
	return BalanceResult{Status: StatusSuccess, Balance: balance}
}

// Withdraw moves amount from the nation treasury into the owner's wallet.
// Only the owner may withdraw. The treasury debit commits before the wallet
// credit; a failed credit is logged and retriable from the history record.
func (s *BankService) Withdraw(ctx context.Context, player uuid.UUID, amount int64) BalanceResult {
	if amount <= 0 {
		return BalanceResult{Status: StatusError}
	}
	member, err := s.store.GetMemberByPlayer(ctx, player)
	if err != nil {
		return BalanceResult{Status: StatusError}
	}
	if member == nil {
		return BalanceResult{Status: StatusNotInNation}
	}
	if member.Role != domain.RoleOwner {
		return BalanceResult{Status: StatusOwnerOnly}
	}
	nationID, status := s.bankGate(ctx, member.NationID)
	if !status.OK() {
		return BalanceResult{Status: status}
	}

	var balance int64
	err = s.store.WithTx(ctx, func(tx *sql.Tx) error {
		current, err := s.store.GetBankBalanceTx(tx, nationID)
		if err != nil {
			return err
		}
		if current < amount {
			return errInsufficientBank
		}
		if err := s.store.AddBankBalance(tx, nationID, -amount); err != nil {
			return err
		}
		if err := s.store.InsertBankEntry(tx, nationID, domain.BankWithdraw, amount, player); err != nil {
			return err
		}
		balance = current - amount
		return nil
	})
	if err == errInsufficientBank {
		return BalanceResult{Status: StatusInsufficientFunds}
	}
	if err != nil {
		log.Printf("bank: withdrawing %d for nation %d: %v", amount, nationID, err)
		return BalanceResult{Status: StatusError}
	}

	if err := s.ledger.Deposit(ctx, player, amount); err != nil {
		log.Printf("bank: crediting %d to %s after withdrawal: %v", amount, player, err)
	}
	return BalanceResult{Status: StatusSuccess, Balance: balance}
}

// requireBank resolves the caller's nation and checks the bank gate.
func (s *BankService) requireBank(ctx context.Context, player uuid.UUID) (int64, Status) {
	member, err := s.store.GetMemberByPlayer(ctx, player)
	if err != nil {
		return 0, StatusError
	}
	if member == nil {
		return 0, StatusNotInNation
	}
	return s.bankGate(ctx, member.NationID)
}

func (s *BankService) bankGate(ctx context.Context, nationID int64) (int64, Status) {
	has, err := s.buildings.HasActiveBuilding(ctx, nationID, domain.BuildingBank)
	if err != nil {
		return 0, StatusError
	}
	if !has {
		return 0, StatusNoBankBuilding
	}
	return nationID, StatusSuccess
}

var errInsufficientBank = fmt.Errorf("insufficient treasury balance")
