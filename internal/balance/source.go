// Package balance keeps the user's balance consistent across the remote
// wallet and the local cache.
package balance

import (
	"context"
	"errors"
	"fmt"

	"campuspark/internal/domain"
	"campuspark/internal/wallet"
)

// ErrNotFound is returned by a Source that holds no balance yet.
var ErrNotFound = errors.New("balance not found")

// ErrInsufficientFunds is returned when a local debit would go below zero.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Source is one copy of the balance.
type Source interface {
	Name() domain.PaymentSource
	Get(ctx context.Context) (float64, error)
	Put(ctx context.Context, balance float64) error
}

// Creator is implemented by sources that must be initialised before the
// first Put.
type Creator interface {
	Create(ctx context.Context, balance float64) error
}

// WalletAPI is the part of the wallet client used for balances.
type WalletAPI interface {
	GetWallet(ctx context.Context, userID int) (*wallet.Wallet, error)
	UpdateWallet(ctx context.Context, userID int, balance float64) (*wallet.Wallet, error)
	CreateWallet(ctx context.Context, userID int, balance float64) (*wallet.Wallet, error)
}

// Store is the part of the local cache used for balances.
type Store interface {
	GetBalance(ctx context.Context) (float64, bool, error)
	SetBalance(ctx context.Context, balance float64) error
}

// RemoteSource is the wallet service copy of the balance.
type RemoteSource struct {
	api    WalletAPI
	userID int
}

// NewRemoteSource creates a RemoteSource for userID.
func NewRemoteSource(api WalletAPI, userID int) *RemoteSource {
	return &RemoteSource{api: api, userID: userID}
}

func (s *RemoteSource) Name() domain.PaymentSource { return domain.PaymentSourceRemote }

func (s *RemoteSource) Get(ctx context.Context) (float64, error) {
	w, err := s.api.GetWallet(ctx, s.userID)
	if err != nil {
		if errors.Is(err, wallet.ErrWalletNotFound) {
			return 0, fmt.Errorf("%w: %w", ErrNotFound, err)
		}
		return 0, err
	}
	return w.Balance, nil
}

func (s *RemoteSource) Put(ctx context.Context, balance float64) error {
	_, err := s.api.UpdateWallet(ctx, s.userID, balance)
	return err
}

func (s *RemoteSource) Create(ctx context.Context, balance float64) error {
	_, err := s.api.CreateWallet(ctx, s.userID, balance)
	return err
}

// LocalSource is the cached copy of the balance.
type LocalSource struct {
	store Store
}

// NewLocalSource creates a LocalSource.
func NewLocalSource(store Store) *LocalSource {
	return &LocalSource{store: store}
}

func (s *LocalSource) Name() domain.PaymentSource { return domain.PaymentSourceLocal }

func (s *LocalSource) Get(ctx context.Context) (float64, error) {
	v, ok, err := s.store.GetBalance(ctx)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrNotFound
	}
	return v, nil
}

func (s *LocalSource) Put(ctx context.Context, balance float64) error {
	if err := s.store.SetBalance(ctx, balance); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPersistence, err)
	}
	return nil
}

var (
	_ Source  = (*RemoteSource)(nil)
	_ Creator = (*RemoteSource)(nil)
	_ Source  = (*LocalSource)(nil)
)
