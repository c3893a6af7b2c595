package tests

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"campuspark/internal/domain"
	"campuspark/internal/redis"
	"campuspark/internal/repository"
	"campuspark/internal/session"
	"campuspark/internal/wallet"
)

// ──────────────────────────────────────────────
// MOCK TICKET REPOSITORY
// ──────────────────────────────────────────────

// MockTicketRepository is a mock implementation of TicketRepository.
type MockTicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]*domain.Ticket

	// Counters for verification
	CreateCallCount       int32
	UpdateStatusCallCount int32

	// Error injection
	CreateError       error
	UpdateStatusError error
}

// NewMockTicketRepository creates a new mock ticket repository.
func NewMockTicketRepository() *MockTicketRepository {
	return &MockTicketRepository{
		tickets: make(map[string]*domain.Ticket),
	}
}

func (m *MockTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *ticket
	m.tickets[ticket.ID] = &cp
	return nil
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *MockTicketRepository) GetAll(ctx context.Context) ([]*domain.Ticket, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ticket, 0, len(m.tickets))
	for _, t := range m.tickets {
		cp := *t
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].EndedAt.After(result[j].EndedAt) })
	return result, nil
}

func (m *MockTicketRepository) UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) error {
	atomic.AddInt32(&m.UpdateStatusCallCount, 1)
	if m.UpdateStatusError != nil {
		return m.UpdateStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tickets[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.Status = status
	return nil
}

// GetTicket returns a ticket by ID (for test assertions).
func (m *MockTicketRepository) GetTicket(id string) *domain.Ticket {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.tickets[id]
}

// CountTickets returns the number of tickets.
func (m *MockTicketRepository) CountTickets() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tickets)
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments []*domain.Payment

	// Counters
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{}
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if payment.IdempotencyKey != "" {
		for _, p := range m.payments {
			if p.IdempotencyKey == payment.IdempotencyKey {
				return ErrMockDBConstraint
			}
		}
	}
	cp := *payment
	m.payments = append(m.payments, &cp)
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockPaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.IdempotencyKey == key {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockPaymentRepository) ListByTicketID(ctx context.Context, ticketID string) ([]*domain.Payment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Payment
	for _, p := range m.payments {
		if p.TicketID == ticketID {
			cp := *p
			result = append(result, &cp)
		}
	}
	return result, nil
}

// ByStatus returns the recorded payments with the given status.
func (m *MockPaymentRepository) ByStatus(status domain.PaymentStatus) []*domain.Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []*domain.Payment
	for _, p := range m.payments {
		if p.Status == status {
			result = append(result, p)
		}
	}
	return result
}

// CountPayments returns the number of recorded payments.
func (m *MockPaymentRepository) CountPayments() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.payments)
}

// ──────────────────────────────────────────────
// MOCK WALLET SERVICE
// ──────────────────────────────────────────────

// MockWallet is a mock of the remote wallet service. It serves both the
// payment endpoint and the wallet balance endpoints.
type MockWallet struct {
	mu      sync.Mutex
	balance float64
	exists  bool

	// Control behavior
	Approve       bool
	DeclineReason string
	PayError      error
	GetError      error
	UpdateError   error

	// When set, Pay signals PayStarted and waits for PayRelease.
	PayStarted chan struct{}
	PayRelease chan struct{}

	// Counters
	PayCallCount    int32
	UpdateCallCount int32
	CreateCallCount int32
}

// NewMockWallet creates a wallet holding balance that approves payments.
func NewMockWallet(balance float64) *MockWallet {
	return &MockWallet{balance: balance, exists: true, Approve: true}
}

// NewMockWalletWithoutAccount creates a wallet service that has no wallet
// for the user yet.
func NewMockWalletWithoutAccount() *MockWallet {
	return &MockWallet{Approve: true}
}

func (m *MockWallet) Pay(ctx context.Context, userID int, amount float64, method string) (*wallet.PaymentResponse, error) {
	atomic.AddInt32(&m.PayCallCount, 1)

	if m.PayStarted != nil {
		m.PayStarted <- struct{}{}
		<-m.PayRelease
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PayError != nil {
		return nil, m.PayError
	}
	if !m.Approve {
		return &wallet.PaymentResponse{Status: "declined", Message: m.DeclineReason}, nil
	}
	return &wallet.PaymentResponse{Status: wallet.StatusApproved, TransactionID: "tx-" + time.Now().Format("150405.000")}, nil
}

func (m *MockWallet) GetWallet(ctx context.Context, userID int) (*wallet.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetError != nil {
		return nil, m.GetError
	}
	if !m.exists {
		return nil, wallet.ErrWalletNotFound
	}
	return &wallet.Wallet{UserID: userID, Balance: m.balance}, nil
}

func (m *MockWallet) UpdateWallet(ctx context.Context, userID int, balance float64) (*wallet.Wallet, error) {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateError != nil {
		return nil, m.UpdateError
	}
	if !m.exists {
		return nil, wallet.ErrWalletNotFound
	}
	m.balance = balance
	return &wallet.Wallet{UserID: userID, Balance: balance}, nil
}

func (m *MockWallet) CreateWallet(ctx context.Context, userID int, balance float64) (*wallet.Wallet, error) {
	atomic.AddInt32(&m.CreateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateError != nil {
		return nil, m.UpdateError
	}
	m.exists = true
	m.balance = balance
	return &wallet.Wallet{UserID: userID, Balance: balance}, nil
}

// Balance returns the remote balance (for test assertions).
func (m *MockWallet) Balance() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balance
}

// SetUnreachable makes every call fail like a network error.
func (m *MockWallet) SetUnreachable() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PayError = ErrMockUnreachable
	m.GetError = ErrMockUnreachable
	m.UpdateError = ErrMockUnreachable
}

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is a mock of the local Redis cache: spots, hidden spots,
// balance and vehicle.
type MockCacheStore struct {
	mu      sync.Mutex
	spots   []domain.Spot
	hidden  domain.HiddenSpotSet
	balance *float64
	vehicle *domain.Vehicle

	// Counters
	SetBalanceCallCount int32

	// Error injection
	SetBalanceError error
	SaveSpotsError  error
}

// NewMockCacheStore creates an empty cache.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{hidden: domain.NewHiddenSpotSet()}
}

func (m *MockCacheStore) GetSpots(ctx context.Context) ([]domain.Spot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.Spot(nil), m.spots...), nil
}

func (m *MockCacheStore) SaveSpots(ctx context.Context, spots []domain.Spot) error {
	if m.SaveSpotsError != nil {
		return m.SaveSpotsError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spots = append([]domain.Spot(nil), spots...)
	return nil
}

func (m *MockCacheStore) GetHiddenSpots(ctx context.Context) (domain.HiddenSpotSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hidden.Clone(), nil
}

func (m *MockCacheStore) ReplaceHiddenSpots(ctx context.Context, set domain.HiddenSpotSet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hidden = set.Clone()
	return nil
}

func (m *MockCacheStore) GetBalance(ctx context.Context) (float64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balance == nil {
		return 0, false, nil
	}
	return *m.balance, true, nil
}

func (m *MockCacheStore) SetBalance(ctx context.Context, balance float64) error {
	atomic.AddInt32(&m.SetBalanceCallCount, 1)
	if m.SetBalanceError != nil {
		return m.SetBalanceError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balance = &balance
	return nil
}

func (m *MockCacheStore) GetVehicle(ctx context.Context) (*domain.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.vehicle == nil {
		return nil, nil
	}
	cp := *m.vehicle
	return &cp, nil
}

func (m *MockCacheStore) SaveVehicle(ctx context.Context, v *domain.Vehicle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *v
	m.vehicle = &cp
	return nil
}

// SeedBalance sets the cached balance.
func (m *MockCacheStore) SeedBalance(balance float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balance = &balance
}

// SeedHidden sets the cached hidden spots.
func (m *MockCacheStore) SeedHidden(ids ...int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hidden = domain.NewHiddenSpotSet(ids...)
}

// CachedBalance returns the cached balance and whether one is stored.
func (m *MockCacheStore) CachedBalance() (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balance == nil {
		return 0, false
	}
	return *m.balance, true
}

// CachedHidden returns the persisted hidden spots.
func (m *MockCacheStore) CachedHidden() domain.HiddenSpotSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hidden.Clone()
}

// ──────────────────────────────────────────────
// MOCK LOCATION STORE
// ──────────────────────────────────────────────

// MockLocationStore is a mock implementation of the spot location index.
// FindNearbySpots returns the configured Nearby list.
type MockLocationStore struct {
	mu      sync.Mutex
	indexed map[int64]domain.Spot

	Nearby    []redis.SpotLocation
	FindError error
}

// NewMockLocationStore creates a new mock location store.
func NewMockLocationStore() *MockLocationStore {
	return &MockLocationStore{indexed: make(map[int64]domain.Spot)}
}

func (m *MockLocationStore) IndexSpots(ctx context.Context, spots ...domain.Spot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sp := range spots {
		m.indexed[sp.ID] = sp
	}
	return nil
}

func (m *MockLocationStore) FindNearbySpots(ctx context.Context, lat, lng, radiusKm float64) ([]redis.SpotLocation, error) {
	if m.FindError != nil {
		return nil, m.FindError
	}
	return m.Nearby, nil
}

// IsIndexed reports whether a spot was indexed.
func (m *MockLocationStore) IsIndexed(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.indexed[id]
	return ok
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[int]time.Time

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[int]time.Time),
	}
}

func (m *MockLockStore) AcquireBalanceLock(ctx context.Context, userID int, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if expiry, exists := m.locks[userID]; exists && time.Now().Before(expiry) {
		return false, nil
	}
	m.locks[userID] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockLockStore) ReleaseBalanceLock(ctx context.Context, userID int) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, userID)
	return nil
}

// IsLocked checks if the balance of a user is locked.
func (m *MockLockStore) IsLocked(userID int) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks[userID]
	return exists && time.Now().Before(expiry)
}

// ──────────────────────────────────────────────
// MOCK CARD PROCESSOR
// ──────────────────────────────────────────────

// MockCardProcessor is a mock card operator.
type MockCardProcessor struct {
	mu sync.Mutex

	// Control behavior
	ShouldDecline bool
	FailError     error

	// Counters
	ChargeCallCount int32
}

// NewMockCardProcessor creates a processor that approves every charge.
func NewMockCardProcessor() *MockCardProcessor {
	return &MockCardProcessor{}
}

func (m *MockCardProcessor) Charge(ctx context.Context, amount float64, card domain.CardDetails) (bool, error) {
	atomic.AddInt32(&m.ChargeCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailError != nil {
		return false, m.FailError
	}
	return !m.ShouldDecline, nil
}

// ──────────────────────────────────────────────
// MANUAL TICKER
// ──────────────────────────────────────────────

// ManualTickers creates tickers that only fire when the test says so.
type ManualTickers struct {
	mu      sync.Mutex
	tickers []*manualTicker
}

type manualTicker struct {
	ch chan time.Time
}

func (t *manualTicker) C() <-chan time.Time { return t.ch }
func (t *manualTicker) Stop()               {}

// New is a session.TickerFactory.
func (m *ManualTickers) New(time.Duration) session.Ticker {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := &manualTicker{ch: make(chan time.Time)}
	m.tickers = append(m.tickers, t)
	return t
}

// Fire delivers n ticks to the most recent ticker. Each send returns once
// the countdown goroutine has picked the tick up.
func (m *ManualTickers) Fire(n int) {
	m.mu.Lock()
	t := m.tickers[len(m.tickers)-1]
	m.mu.Unlock()
	for i := 0; i < n; i++ {
		t.ch <- time.Now()
	}
}

// Count returns the number of tickers created.
func (m *ManualTickers) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickers)
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDBConstraint = errors.New("mock: unique constraint violation")
	ErrMockUnreachable  = errors.New("mock: connection refused")
	ErrMockRedis        = errors.New("mock: redis unavailable")
)

// Ensure mocks implement the interfaces used by the services.
var (
	_ repository.TicketRepository  = (*MockTicketRepository)(nil)
	_ repository.PaymentRepository = (*MockPaymentRepository)(nil)
	_ redis.SpotStoreInterface     = (*MockCacheStore)(nil)
	_ redis.VehicleStoreInterface  = (*MockCacheStore)(nil)
	_ redis.BalanceStoreInterface  = (*MockCacheStore)(nil)
	_ redis.LocationStoreInterface = (*MockLocationStore)(nil)
	_ redis.LockStoreInterface     = (*MockLockStore)(nil)
)
