package tests

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"campuspark/internal/balance"
	"campuspark/internal/domain"
	"campuspark/internal/fare"
	"campuspark/internal/service"
	"campuspark/internal/session"
)

const testUserID = 1

// harness wires the parking core over mocks.
type harness struct {
	wallet    *MockWallet
	cache     *MockCacheStore
	tickets   *MockTicketRepository
	payments  *MockPaymentRepository
	locks     *MockLockStore
	cards     *MockCardProcessor
	locations *MockLocationStore
	tickers   *ManualTickers
	logs      *logtest.Hook
	logger    *logrus.Logger

	ledger     *balance.Ledger
	notifier   *service.NotificationService
	receipts   *service.ReceiptService
	settlement *service.SettlementService
	parking    *service.ParkingService
	topup      *service.TopUpService
}

func newHarness(t *testing.T, w *MockWallet, cache *MockCacheStore) *harness {
	t.Helper()

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	log := logrus.NewEntry(logger)

	h := &harness{
		wallet:    w,
		cache:     cache,
		tickets:   NewMockTicketRepository(),
		payments:  NewMockPaymentRepository(),
		locks:     NewMockLockStore(),
		cards:     NewMockCardProcessor(),
		locations: NewMockLocationStore(),
		tickers:   &ManualTickers{},
		logs:      hook,
		logger:    logger,
	}

	calc := fare.NewCalculator(fare.DefaultRatePerMinute)
	h.ledger = balance.NewLedger(
		balance.NewRemoteSource(w, testUserID),
		balance.NewLocalSource(cache),
		log,
	)
	if _, err := h.ledger.Load(context.Background()); err != nil {
		t.Fatalf("ledger load: %v", err)
	}

	h.notifier = service.NewNotificationService(log)
	h.receipts = service.NewReceiptService(fare.DefaultRatePerMinute)
	h.settlement = service.NewSettlementService(
		service.SettlementConfig{UserID: testUserID},
		w, h.ledger, h.locks, h.tickets, h.payments, h.receipts, h.notifier, log,
	)
	h.parking = service.NewParkingService(
		session.NewMachine(calc),
		session.NewTimer(time.Second, h.tickers.New),
		calc,
		cache,
		h.locations,
		h.tickets,
		h.settlement,
		h.notifier,
		log,
	)
	if err := h.parking.Load(context.Background()); err != nil {
		t.Fatalf("parking load: %v", err)
	}
	t.Cleanup(h.parking.Shutdown)

	h.topup = service.NewTopUpService(
		service.TopUpConfig{UserID: testUserID, QuickAmounts: []float64{5, 10, 20, 50}},
		h.ledger, h.cards, h.locks, h.payments, h.notifier, log,
	)
	return h
}

// openSettlement registers a pending settlement for minutes of parking.
func (h *harness) openSettlement(minutes int) *domain.PendingSettlement {
	p := &domain.PendingSettlement{
		ID:          "settlement-1",
		SpotID:      1,
		SpotTitle:   "Vaga 1",
		MinutesUsed: minutes,
		FareAmount:  fare.NewCalculator(fare.DefaultRatePerMinute).Calc(minutes),
		Reason:      domain.EndReasonStopped,
		StartedAt:   time.Now().Add(-time.Duration(minutes) * time.Minute),
		EndedAt:     time.Now(),
	}
	h.settlement.Open(p)
	return p
}

// warnings returns the messages logged at warning level.
func (h *harness) warnings() []string {
	var out []string
	for _, e := range h.logs.AllEntries() {
		if e.Level == logrus.WarnLevel {
			out = append(out, e.Message)
		}
	}
	return out
}

func containsMessage(messages []string, want string) bool {
	for _, m := range messages {
		if m == want {
			return true
		}
	}
	return false
}

// waitFor polls cond until it holds or a second passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within 1s")
}

func approxEqual(a, b float64) bool {
	d := a - b
	return d < 0.0001 && d > -0.0001
}

func atomicLoad(v *int32) int32 {
	return atomic.LoadInt32(v)
}
