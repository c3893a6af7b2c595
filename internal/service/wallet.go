package service

import (
	"context"

	"campuspark/internal/balance"
	"campuspark/internal/domain"
)

// BalanceView is the presentation output of the balance.
type BalanceView struct {
	Balance float64              `json:"balance"`
	Source  domain.PaymentSource `json:"source"`
}

// WalletService exposes the user's balance.
type WalletService struct {
	ledger *balance.Ledger
}

// NewWalletService creates a new WalletService.
func NewWalletService(ledger *balance.Ledger) *WalletService {
	return &WalletService{ledger: ledger}
}

// Balance returns the in-memory balance.
func (s *WalletService) Balance() BalanceView {
	return BalanceView{Balance: s.ledger.Current(), Source: domain.PaymentSourceLocal}
}

// Sync pulls the remote balance when reachable.
func (s *WalletService) Sync(ctx context.Context) BalanceView {
	res := s.ledger.Refresh(ctx)
	return BalanceView{Balance: res.Balance, Source: res.Source}
}
