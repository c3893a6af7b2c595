package tests

import (
	"context"
	"errors"
	"testing"

	"campuspark/internal/domain"
	"campuspark/internal/service"
)

// ──────────────────────────────────────────────
// 1. REMOTE-APPROVED SETTLEMENT
// ──────────────────────────────────────────────

func TestSettlement_RemoteApprovedDebitsBothCopies(t *testing.T) {
	t.Parallel()

	cache := NewMockCacheStore()
	cache.SeedBalance(20)
	h := newHarness(t, NewMockWallet(20), cache)
	h.openSettlement(50) // R$ 5,00

	result, err := h.settlement.Confirm(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Outcome != service.SettlementRemoteApproved {
		t.Errorf("expected outcome %s, got %s", service.SettlementRemoteApproved, result.Outcome)
	}
	if !result.Converged {
		t.Error("expected converged balances")
	}
	if result.TransactionID == "" {
		t.Error("expected transaction id from the wallet service")
	}
	if !approxEqual(result.Balance, 15) {
		t.Errorf("expected balance 15, got %.2f", result.Balance)
	}
	if !approxEqual(h.wallet.Balance(), 15) {
		t.Errorf("expected remote balance 15, got %.2f", h.wallet.Balance())
	}
	if cached, _ := cache.CachedBalance(); !approxEqual(cached, 15) {
		t.Errorf("expected cached balance 15, got %.2f", cached)
	}
	if h.settlement.HasPending() {
		t.Error("expected settlement to be resolved")
	}
	if result.Receipt == nil || result.Receipt.Source != domain.PaymentSourceRemote {
		t.Error("expected a receipt marked as remote")
	}
	if n := len(h.payments.ByStatus(domain.PaymentStatusSuccess)); n != 1 {
		t.Errorf("expected 1 successful payment, got %d", n)
	}
}

func TestSettlement_WriteBackFailureFallsBackToLocal(t *testing.T) {
	t.Parallel()

	cache := NewMockCacheStore()
	cache.SeedBalance(20)
	w := NewMockWallet(20)
	h := newHarness(t, w, cache)
	h.openSettlement(50)

	w.UpdateError = ErrMockUnreachable

	result, err := h.settlement.Confirm(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Still a remote approval, but the copies diverge.
	if result.Outcome != service.SettlementRemoteApproved {
		t.Errorf("expected outcome %s, got %s", service.SettlementRemoteApproved, result.Outcome)
	}
	if result.Converged {
		t.Error("expected diverged balances")
	}
	if !approxEqual(result.Balance, 15) {
		t.Errorf("expected local balance 15, got %.2f", result.Balance)
	}
	if !approxEqual(w.Balance(), 20) {
		t.Errorf("expected remote balance untouched at 20, got %.2f", w.Balance())
	}
	if !containsMessage(h.warnings(), "payment approved but remote balance write-back failed, local and remote balances diverge") {
		t.Error("expected the inconsistency to be logged")
	}
}

func TestSettlement_WriteBackFailureClampsAtZero(t *testing.T) {
	t.Parallel()

	cache := NewMockCacheStore()
	cache.SeedBalance(2)
	w := NewMockWallet(2)
	h := newHarness(t, w, cache)
	h.openSettlement(50)

	w.GetError = ErrMockUnreachable

	result, err := h.settlement.Confirm(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Balance != 0 {
		t.Errorf("expected balance clamped at 0, got %.2f", result.Balance)
	}
	if h.ledger.Current() < 0 {
		t.Error("balance must never be negative")
	}
}

func TestSettlement_RemoteApprovedBeyondBalanceClampsAtZero(t *testing.T) {
	t.Parallel()

	cache := NewMockCacheStore()
	cache.SeedBalance(2)
	w := NewMockWallet(2)
	h := newHarness(t, w, cache)
	h.openSettlement(50) // R$ 5,00

	result, err := h.settlement.Confirm(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Outcome != service.SettlementRemoteApproved {
		t.Errorf("expected outcome %s, got %s", service.SettlementRemoteApproved, result.Outcome)
	}
	if result.Balance != 0 {
		t.Errorf("expected balance clamped at 0, got %.2f", result.Balance)
	}
	if w.Balance() != 0 {
		t.Errorf("expected remote balance clamped at 0, got %.2f", w.Balance())
	}
	if cached, _ := cache.CachedBalance(); cached != 0 {
		t.Errorf("expected cached balance 0, got %.2f", cached)
	}
	if !containsMessage(h.warnings(), "remote balance too low for approved debit, clamping at zero") {
		t.Error("expected a warning about the clamp")
	}
}

// ──────────────────────────────────────────────
// 2. LOCAL FALLBACK
// ──────────────────────────────────────────────

func TestSettlement_UnreachableDebitsLocalOnly(t *testing.T) {
	t.Parallel()

	cache := NewMockCacheStore()
	cache.SeedBalance(10)
	w := NewMockWallet(0)
	w.SetUnreachable()
	h := newHarness(t, w, cache)
	h.openSettlement(50)

	result, err := h.settlement.Confirm(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Outcome != service.SettlementLocalOnly {
		t.Errorf("expected outcome %s, got %s", service.SettlementLocalOnly, result.Outcome)
	}
	if !approxEqual(result.Balance, 5) {
		t.Errorf("expected balance 5, got %.2f", result.Balance)
	}
	if cached, _ := cache.CachedBalance(); !approxEqual(cached, 5) {
		t.Errorf("expected cached balance 5, got %.2f", cached)
	}
	if h.settlement.HasPending() {
		t.Error("expected settlement to be resolved")
	}
	payments := h.payments.ByStatus(domain.PaymentStatusSuccess)
	if len(payments) != 1 || payments[0].Source != domain.PaymentSourceLocal {
		t.Errorf("expected one local payment, got %+v", payments)
	}
}

func TestSettlement_UnreachableWithInsufficientLocalFunds(t *testing.T) {
	t.Parallel()

	cache := NewMockCacheStore()
	cache.SeedBalance(2)
	w := NewMockWallet(0)
	w.SetUnreachable()
	h := newHarness(t, w, cache)
	h.openSettlement(50)

	_, err := h.settlement.Confirm(context.Background())
	if !errors.Is(err, service.ErrPaymentUnavailable) {
		t.Fatalf("expected ErrPaymentUnavailable, got %v", err)
	}
	if !errors.Is(err, domain.ErrPaymentUnavailable) {
		t.Error("expected error to be classified as payment unavailable")
	}

	if !approxEqual(h.ledger.Current(), 2) {
		t.Errorf("expected balance to stay 2, got %.2f", h.ledger.Current())
	}
	if !h.settlement.HasPending() {
		t.Error("expected settlement to stay unresolved")
	}
	if n := len(h.payments.ByStatus(domain.PaymentStatusFailed)); n != 1 {
		t.Errorf("expected 1 failed payment, got %d", n)
	}
}

// ──────────────────────────────────────────────
// 3. DECLINE, CANCEL AND RETRY
// ──────────────────────────────────────────────

func TestSettlement_DeclinedKeepsPending(t *testing.T) {
	t.Parallel()

	cache := NewMockCacheStore()
	cache.SeedBalance(20)
	w := NewMockWallet(20)
	w.Approve = false
	w.DeclineReason = "saldo insuficiente"
	h := newHarness(t, w, cache)
	h.openSettlement(50)

	_, err := h.settlement.Confirm(context.Background())
	if !errors.Is(err, domain.ErrPaymentDeclined) {
		t.Fatalf("expected payment declined, got %v", err)
	}
	if !h.settlement.HasPending() {
		t.Fatal("expected settlement to stay unresolved")
	}
	if !approxEqual(h.ledger.Current(), 20) {
		t.Errorf("expected balance unchanged, got %.2f", h.ledger.Current())
	}

	// Retry after the wallet approves.
	w.Approve = true
	result, err := h.settlement.Confirm(context.Background())
	if err != nil {
		t.Fatalf("unexpected error on retry: %v", err)
	}
	if !approxEqual(result.Balance, 15) {
		t.Errorf("expected balance 15 after retry, got %.2f", result.Balance)
	}
	if n := atomicLoad(&w.PayCallCount); n != 2 {
		t.Errorf("expected 2 pay calls, got %d", n)
	}
}

func TestSettlement_CancelDoesNotCharge(t *testing.T) {
	t.Parallel()

	cache := NewMockCacheStore()
	cache.SeedBalance(20)
	h := newHarness(t, NewMockWallet(20), cache)
	p := h.openSettlement(50)

	cancelled, err := h.settlement.Cancel(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.ID != p.ID {
		t.Errorf("expected cancelled settlement %s, got %s", p.ID, cancelled.ID)
	}
	if h.settlement.HasPending() {
		t.Error("expected no pending settlement after cancel")
	}
	if !approxEqual(h.ledger.Current(), 20) {
		t.Errorf("expected balance unchanged, got %.2f", h.ledger.Current())
	}
	if atomicLoad(&h.wallet.PayCallCount) != 0 {
		t.Error("expected no payment call")
	}

	if _, err := h.settlement.Confirm(context.Background()); !errors.Is(err, service.ErrNoPendingSettlement) {
		t.Errorf("expected ErrNoPendingSettlement, got %v", err)
	}
	if _, err := h.settlement.Cancel(context.Background()); !errors.Is(err, service.ErrNoPendingSettlement) {
		t.Errorf("expected ErrNoPendingSettlement on second cancel, got %v", err)
	}
}

func TestSettlement_LateResultAfterCancelIsDiscarded(t *testing.T) {
	t.Parallel()

	cache := NewMockCacheStore()
	cache.SeedBalance(20)
	w := NewMockWallet(20)
	w.PayStarted = make(chan struct{})
	w.PayRelease = make(chan struct{})
	h := newHarness(t, w, cache)
	h.openSettlement(50)

	errCh := make(chan error, 1)
	go func() {
		_, err := h.settlement.Confirm(context.Background())
		errCh <- err
	}()

	<-w.PayStarted

	// A second confirm while the first is in flight is rejected.
	if _, err := h.settlement.Confirm(context.Background()); !errors.Is(err, service.ErrSettlementInProgress) {
		t.Errorf("expected ErrSettlementInProgress, got %v", err)
	}

	if _, err := h.settlement.Cancel(context.Background()); err != nil {
		t.Fatalf("unexpected cancel error: %v", err)
	}
	close(w.PayRelease)

	if err := <-errCh; !errors.Is(err, service.ErrSettlementCancelled) {
		t.Fatalf("expected ErrSettlementCancelled, got %v", err)
	}

	if !approxEqual(h.ledger.Current(), 20) {
		t.Errorf("expected balance untouched, got %.2f", h.ledger.Current())
	}
	if !approxEqual(w.Balance(), 20) {
		t.Errorf("expected remote balance untouched, got %.2f", w.Balance())
	}
	discarded := h.payments.ByStatus(domain.PaymentStatusDiscarded)
	if len(discarded) != 1 || discarded[0].TransactionID == "" {
		t.Errorf("expected one discarded payment with transaction id, got %+v", discarded)
	}
	if !containsMessage(h.warnings(), "discarding payment result of a cancelled settlement") {
		t.Error("expected discard warning")
	}
}

func TestSettlement_BalanceLockHeld(t *testing.T) {
	t.Parallel()

	cache := NewMockCacheStore()
	cache.SeedBalance(20)
	h := newHarness(t, NewMockWallet(20), cache)
	h.openSettlement(50)

	h.locks.ForceAcquireFailure = true
	if _, err := h.settlement.Confirm(context.Background()); !errors.Is(err, service.ErrBalanceBusy) {
		t.Fatalf("expected ErrBalanceBusy, got %v", err)
	}

	// The attempt is released; a later confirm goes through.
	h.locks.ForceAcquireFailure = false
	if _, err := h.settlement.Confirm(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.locks.IsLocked(testUserID) {
		t.Error("expected balance lock to be released")
	}
}

func TestSettlement_LockStoreDownFailsOpen(t *testing.T) {
	t.Parallel()

	cache := NewMockCacheStore()
	cache.SeedBalance(20)
	h := newHarness(t, NewMockWallet(20), cache)
	h.openSettlement(50)

	h.locks.AcquireError = ErrMockRedis
	if _, err := h.settlement.Confirm(context.Background()); err != nil {
		t.Fatalf("expected settlement to proceed without the lock, got %v", err)
	}
}

func TestSettlement_UpdatesTicketStatus(t *testing.T) {
	t.Parallel()

	cache := NewMockCacheStore()
	cache.SeedBalance(20)
	h := newHarness(t, NewMockWallet(20), cache)

	ticket := &domain.Ticket{ID: "ticket-1", Status: domain.TicketStatusPending}
	if err := h.tickets.Create(context.Background(), ticket); err != nil {
		t.Fatal(err)
	}
	p := &domain.PendingSettlement{ID: "s-1", TicketID: "ticket-1", MinutesUsed: 10, FareAmount: 1}
	h.settlement.Open(p)

	if _, err := h.settlement.Confirm(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := h.tickets.GetTicket("ticket-1").Status; got != domain.TicketStatusPaid {
		t.Errorf("expected ticket PAID, got %s", got)
	}

	// A cancelled settlement leaves a CANCELLED ticket behind.
	ticket2 := &domain.Ticket{ID: "ticket-2", Status: domain.TicketStatusPending}
	_ = h.tickets.Create(context.Background(), ticket2)
	h.settlement.Open(&domain.PendingSettlement{ID: "s-2", TicketID: "ticket-2", MinutesUsed: 1, FareAmount: 0.1})
	if _, err := h.settlement.Cancel(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := h.tickets.GetTicket("ticket-2").Status; got != domain.TicketStatusCancelled {
		t.Errorf("expected ticket CANCELLED, got %s", got)
	}
}

func TestSettlement_NotifiesOutcome(t *testing.T) {
	t.Parallel()

	cache := NewMockCacheStore()
	cache.SeedBalance(10)
	w := NewMockWallet(0)
	w.SetUnreachable()
	h := newHarness(t, w, cache)
	h.openSettlement(50)

	if _, err := h.settlement.Confirm(context.Background()); err != nil {
		t.Fatal(err)
	}

	found := false
	for _, n := range h.notifier.Drain() {
		if n.Type == service.NotificationPaymentLocal {
			found = true
		}
	}
	if !found {
		t.Error("expected a local payment notification")
	}
}
