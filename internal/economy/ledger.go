// Package economy exposes player wallets as a ledger. Wallets live on the
// world state, so every call runs through the gateway and is awaited by the
// worker-pool caller.
package economy

import (
	"context"

	"github.com/M-LunaFarm/NationSystem/internal/world"
	"github.com/google/uuid"
)

// Ledger mediates wallet access over a world gateway.
type Ledger struct {
	gw *world.Gateway
}

// NewLedger creates a ledger bound to a gateway.
func NewLedger(gw *world.Gateway) *Ledger {
	return &Ledger{gw: gw}
}

// Available reports whether the player can pay amount.
func (l *Ledger) Available(ctx context.Context, player uuid.UUID, amount int64) (bool, error) {
	var ok bool
	err := l.gw.Do(ctx, func(w *world.World) error {
		ok = w.Balance(player) >= amount
		return nil
	})
	return ok, err
}

// Balance returns the player's wallet balance.
func (l *Ledger) Balance(ctx context.Context, player uuid.UUID) (int64, error) {
	var balance int64
	err := l.gw.Do(ctx, func(w *world.World) error {
		balance = w.Balance(player)
		return nil
	})
	return balance, err
}

// Withdraw removes amount from the player's wallet, failing on insufficient
// funds. The check and the debit happen in one gateway task, so concurrent
// withdrawals cannot both pass the balance check.
func (l *Ledger) Withdraw(ctx context.Context, player uuid.UUID, amount int64) error {
	return l.gw.Do(ctx, func(w *world.World) error {
		return w.Withdraw(player, amount)
	})
}

// Deposit adds amount to the player's wallet.
func (l *Ledger) Deposit(ctx context.Context, player uuid.UUID, amount int64) error {
	return l.gw.Do(ctx, func(w *world.World) error {
		w.Deposit(player, amount)
		return nil
	})
}
