package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"campuspark/internal/balance"
	"campuspark/internal/domain"
	"campuspark/internal/metrics"
	"campuspark/internal/redis"
	"campuspark/internal/repository"
	"campuspark/internal/wallet"
)

// Payer is the remote "pay" operation of the wallet service.
type Payer interface {
	Pay(ctx context.Context, userID int, amount float64, method string) (*wallet.PaymentResponse, error)
}

// SettlementOutcome tells how a settlement was paid.
type SettlementOutcome string

const (
	// SettlementRemoteApproved means the wallet service approved the payment.
	SettlementRemoteApproved SettlementOutcome = "REMOTE_APPROVED"
	// SettlementLocalOnly means the wallet service was unreachable and the
	// fare was deducted from the local balance.
	SettlementLocalOnly SettlementOutcome = "LOCAL_ONLY"
)

// SettlementResult is the outcome of a successful settlement.
type SettlementResult struct {
	SettlementID  string            `json:"settlement_id"`
	TicketID      string            `json:"ticket_id,omitempty"`
	MinutesUsed   int               `json:"minutes_used"`
	Fare          float64           `json:"fare"`
	Outcome       SettlementOutcome `json:"outcome"`
	TransactionID string            `json:"transaction_id,omitempty"`
	Balance       float64           `json:"balance"`
	// Converged is false when a remote-approved payment could not be written
	// back to the remote wallet and was applied to the local copy only.
	Converged bool            `json:"converged"`
	Receipt   *domain.Receipt `json:"receipt"`
}

// SettlementConfig configures the SettlementService.
type SettlementConfig struct {
	UserID int
	Method domain.PaymentMethod
}

// SettlementService collects the fare of terminated sessions.
type SettlementService struct {
	payer    Payer
	ledger   *balance.Ledger
	lock     balanceLock
	tickets  repository.TicketRepository
	payments repository.PaymentRepository
	receipts *ReceiptService
	notifier *NotificationService
	log      *logrus.Entry
	userID   int
	method   domain.PaymentMethod

	mu       sync.Mutex
	pending  *domain.PendingSettlement
	inFlight bool
	// attempt is bumped on cancel so that in-flight results can tell they
	// belong to an abandoned settlement.
	attempt uint64
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(
	cfg SettlementConfig,
	payer Payer,
	ledger *balance.Ledger,
	lockStore redis.LockStoreInterface,
	tickets repository.TicketRepository,
	payments repository.PaymentRepository,
	receipts *ReceiptService,
	notifier *NotificationService,
	log *logrus.Entry,
) *SettlementService {
	method := cfg.Method
	if method == "" {
		method = domain.PaymentMethodBalance
	}
	return &SettlementService{
		payer:    payer,
		ledger:   ledger,
		lock:     balanceLock{store: lockStore, userID: cfg.UserID, log: log},
		tickets:  tickets,
		payments: payments,
		receipts: receipts,
		notifier: notifier,
		log:      log,
		userID:   cfg.UserID,
		method:   method,
	}
}

// Open registers the settlement of a terminated session.
func (s *SettlementService) Open(p *domain.PendingSettlement) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *p
	s.pending = &cp
	s.inFlight = false
	s.attempt++
}

// HasPending reports whether a settlement is waiting to be paid or cancelled.
func (s *SettlementService) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

// Pending returns a copy of the unresolved settlement.
func (s *SettlementService) Pending() (*domain.PendingSettlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return nil, ErrNoPendingSettlement
	}
	cp := *s.pending
	return &cp, nil
}

// Confirm pays the pending settlement: remote debit first, falling back to
// the local balance when the wallet service cannot be reached.
func (s *SettlementService) Confirm(ctx context.Context) (*SettlementResult, error) {
	// Once started, a settlement runs to completion even if the caller goes
	// away; the wallet client timeout bounds each remote call.
	ctx = context.WithoutCancel(ctx)

	s.mu.Lock()
	if s.pending == nil {
		s.mu.Unlock()
		return nil, ErrNoPendingSettlement
	}
	if s.inFlight {
		s.mu.Unlock()
		return nil, ErrSettlementInProgress
	}
	p := *s.pending
	token := s.attempt
	s.inFlight = true
	s.mu.Unlock()

	release, err := s.lock.acquire(ctx)
	if err != nil {
		s.finishAttempt(token)
		return nil, err
	}
	defer release()

	resp, payErr := s.payer.Pay(ctx, s.userID, p.FareAmount, string(s.method))

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attempt != token {
		return nil, s.discardLocked(ctx, &p, resp)
	}
	s.inFlight = false

	switch {
	case payErr != nil:
		s.log.WithError(payErr).WithField("settlement_id", p.ID).Warn("wallet service unreachable, trying local balance")
		return s.settleLocallyLocked(ctx, &p)

	case !resp.Approved():
		s.recordPayment(ctx, &p, "", domain.PaymentStatusDeclined, resp.TransactionID)
		s.notifier.NotifyPaymentDeclined(ctx, &p, resp.Message)
		metrics.Settlements.WithLabelValues("declined").Inc()
		if resp.Message != "" {
			return nil, fmt.Errorf("%w: %s", ErrPaymentDeclined, resp.Message)
		}
		return nil, ErrPaymentDeclined

	default:
		res := s.ledger.Adjust(ctx, -p.FareAmount)
		converged := res.Source == domain.PaymentSourceRemote
		if !converged {
			s.log.WithFields(logrus.Fields{
				"settlement_id":  p.ID,
				"transaction_id": resp.TransactionID,
				"fare":           p.FareAmount,
			}).Warn("payment approved but remote balance write-back failed, local and remote balances diverge")
		}
		result := s.resolveLocked(ctx, &p, SettlementRemoteApproved, resp.TransactionID, res.Balance, converged)
		s.notifier.NotifyPaymentApproved(ctx, result)
		return result, nil
	}
}

func (s *SettlementService) settleLocallyLocked(ctx context.Context, p *domain.PendingSettlement) (*SettlementResult, error) {
	res, err := s.ledger.DebitLocal(ctx, p.FareAmount)
	if err != nil {
		s.recordPayment(ctx, p, domain.PaymentSourceLocal, domain.PaymentStatusFailed, "")
		s.notifier.NotifyPaymentFailed(ctx, p)
		metrics.Settlements.WithLabelValues("unavailable").Inc()
		return nil, ErrPaymentUnavailable
	}

	result := s.resolveLocked(ctx, p, SettlementLocalOnly, "", res.Balance, false)
	s.notifier.NotifyPaymentLocal(ctx, result)
	return result, nil
}

// resolveLocked records a successful settlement and clears the pending slot.
func (s *SettlementService) resolveLocked(ctx context.Context, p *domain.PendingSettlement, outcome SettlementOutcome, txID string, balanceAfter float64, converged bool) *SettlementResult {
	source := domain.PaymentSourceRemote
	if outcome == SettlementLocalOnly {
		source = domain.PaymentSourceLocal
	}

	s.recordPayment(ctx, p, source, domain.PaymentStatusSuccess, txID)
	s.updateTicket(ctx, p.TicketID, domain.TicketStatusPaid)

	s.pending = nil
	metrics.Settlements.WithLabelValues(strings.ToLower(string(outcome))).Inc()

	return &SettlementResult{
		SettlementID:  p.ID,
		TicketID:      p.TicketID,
		MinutesUsed:   p.MinutesUsed,
		Fare:          p.FareAmount,
		Outcome:       outcome,
		TransactionID: txID,
		Balance:       balanceAfter,
		Converged:     converged,
		Receipt:       s.receipts.GenerateReceipt(p, source, txID, balanceAfter),
	}
}

// discardLocked drops a payment result that arrived after the settlement was
// cancelled. The balance is not touched.
func (s *SettlementService) discardLocked(ctx context.Context, p *domain.PendingSettlement, resp *wallet.PaymentResponse) error {
	var txID string
	if resp != nil {
		txID = resp.TransactionID
	}

	s.log.WithFields(logrus.Fields{
		"settlement_id":  p.ID,
		"transaction_id": txID,
		"approved":       resp.Approved(),
	}).Warn("discarding payment result of a cancelled settlement")

	s.recordPayment(ctx, p, domain.PaymentSourceRemote, domain.PaymentStatusDiscarded, txID)
	metrics.Settlements.WithLabelValues("discarded").Inc()
	return ErrSettlementCancelled
}

// Cancel abandons the pending settlement without charging. The ticket is
// kept as CANCELLED. A payment still in flight is discarded when it returns.
func (s *SettlementService) Cancel(ctx context.Context) (*domain.PendingSettlement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pending == nil {
		return nil, ErrNoPendingSettlement
	}

	p := *s.pending
	s.pending = nil
	s.inFlight = false
	s.attempt++

	s.updateTicket(ctx, p.TicketID, domain.TicketStatusCancelled)
	s.notifier.NotifySettlementCancelled(ctx, &p)
	metrics.Settlements.WithLabelValues("cancelled").Inc()
	return &p, nil
}

func (s *SettlementService) finishAttempt(token uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.attempt == token {
		s.inFlight = false
	}
}

func (s *SettlementService) recordPayment(ctx context.Context, p *domain.PendingSettlement, source domain.PaymentSource, status domain.PaymentStatus, txID string) {
	payment := &domain.Payment{
		ID:            uuid.New().String(),
		Kind:          domain.PaymentKindSettlement,
		TicketID:      p.TicketID,
		Amount:        p.FareAmount,
		Method:        s.method,
		Source:        source,
		Status:        status,
		TransactionID: txID,
		CreatedAt:     time.Now(),
	}
	if status == domain.PaymentStatusSuccess {
		payment.IdempotencyKey = "settlement:" + p.ID
	}

	if err := s.payments.Create(ctx, payment); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"settlement_id": p.ID,
			"status":        status,
		}).Warn("failed to record payment")
	}
}

func (s *SettlementService) updateTicket(ctx context.Context, ticketID string, status domain.TicketStatus) {
	if ticketID == "" {
		return
	}
	if err := s.tickets.UpdateStatus(ctx, ticketID, status); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"ticket_id": ticketID,
			"status":    status,
		}).Warn("failed to update ticket status")
	}
}
