package service

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"campuspark/internal/balance"
	"campuspark/internal/domain"
	"campuspark/internal/fare"
	"campuspark/internal/metrics"
	"campuspark/internal/redis"
	"campuspark/internal/repository"
)

var expiryPattern = regexp.MustCompile(`^\d{2}/\d{2}$`)

// CardProcessor charges a card.
type CardProcessor interface {
	Charge(ctx context.Context, amount float64, card domain.CardDetails) (bool, error)
}

// SimulatedCardProcessor approves charges at random after a delay.
type SimulatedCardProcessor struct {
	approvalRate float64
	delay        time.Duration

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulatedCardProcessor creates a processor that approves with
// probability approvalRate after delay.
func NewSimulatedCardProcessor(approvalRate float64, delay time.Duration, seed int64) *SimulatedCardProcessor {
	return &SimulatedCardProcessor{
		approvalRate: approvalRate,
		delay:        delay,
		rng:          rand.New(rand.NewSource(seed)),
	}
}

// Charge waits for the processing delay and draws the outcome.
func (p *SimulatedCardProcessor) Charge(ctx context.Context, amount float64, card domain.CardDetails) (bool, error) {
	if err := sleep(ctx, p.delay); err != nil {
		return false, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64() < p.approvalRate, nil
}

// TopUpConfig configures the TopUpService.
type TopUpConfig struct {
	UserID       int
	PixDelay     time.Duration
	QuickAmounts []float64
}

// TopUpOptions lists what the top-up screen offers.
type TopUpOptions struct {
	QuickAmounts []float64             `json:"quick_amounts"`
	Methods      []domain.PaymentMethod `json:"methods"`
}

// TopUpRequest contains the parameters for a credit purchase.
type TopUpRequest struct {
	AmountText string
	Method     domain.PaymentMethod
	Card       *domain.CardDetails
}

// TopUpService sells credits: PIX codes confirmed by the user, or cards
// charged through a CardProcessor. Credits go through the balance ledger.
type TopUpService struct {
	ledger   *balance.Ledger
	cards    CardProcessor
	lock     balanceLock
	payments repository.PaymentRepository
	notifier *NotificationService
	log      *logrus.Entry
	cfg      TopUpConfig
	now      func() time.Time

	mu         sync.Mutex
	pendingPix map[string]*domain.TopUp
}

// NewTopUpService creates a new TopUpService.
func NewTopUpService(
	cfg TopUpConfig,
	ledger *balance.Ledger,
	cards CardProcessor,
	lockStore redis.LockStoreInterface,
	payments repository.PaymentRepository,
	notifier *NotificationService,
	log *logrus.Entry,
) *TopUpService {
	return &TopUpService{
		ledger:     ledger,
		cards:      cards,
		lock:       balanceLock{store: lockStore, userID: cfg.UserID, log: log},
		payments:   payments,
		notifier:   notifier,
		log:        log,
		cfg:        cfg,
		now:        time.Now,
		pendingPix: make(map[string]*domain.TopUp),
	}
}

// Options returns the quick amounts and accepted methods.
func (s *TopUpService) Options() TopUpOptions {
	return TopUpOptions{
		QuickAmounts: s.cfg.QuickAmounts,
		Methods:      []domain.PaymentMethod{domain.PaymentMethodPix, domain.PaymentMethodCredit, domain.PaymentMethodDebit},
	}
}

// TopUp starts a credit purchase. PIX purchases return a reference code and
// wait for ConfirmPix; card purchases are charged and credited immediately.
func (s *TopUpService) TopUp(ctx context.Context, req TopUpRequest) (*domain.TopUp, error) {
	amount, err := ParseAmount(req.AmountText)
	if err != nil {
		return nil, err
	}

	switch {
	case req.Method == domain.PaymentMethodPix:
		return s.createPix(amount), nil
	case req.Method.IsCard():
		if req.Card == nil {
			return nil, ErrInvalidCardNumber
		}
		if err := ValidateCard(*req.Card); err != nil {
			return nil, err
		}
		return s.chargeCard(ctx, amount, req.Method, *req.Card)
	default:
		return nil, ErrInvalidPaymentMethod
	}
}

func (s *TopUpService) createPix(amount float64) *domain.TopUp {
	now := s.now()
	t := &domain.TopUp{
		Amount:        amount,
		Method:        domain.PaymentMethodPix,
		ReferenceCode: fmt.Sprintf("PIX|%d|R%.2f", now.UnixMilli(), amount),
		Status:        domain.TopUpStatusAwaitingConfirmation,
		CreatedAt:     now,
	}

	s.mu.Lock()
	s.pendingPix[t.ReferenceCode] = t
	s.mu.Unlock()

	cp := *t
	return &cp
}

// ConfirmPix credits a PIX purchase once the user confirms the transfer.
// Confirming an already credited code returns the original result.
func (s *TopUpService) ConfirmPix(ctx context.Context, code string) (*domain.TopUp, error) {
	key := "topup:" + code

	s.mu.Lock()
	t, ok := s.pendingPix[code]
	if ok {
		delete(s.pendingPix, code)
	}
	s.mu.Unlock()

	if !ok {
		existing, err := s.payments.GetByIdempotencyKey(ctx, key)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, ErrTopUpNotFound
		}
		return &domain.TopUp{
			Amount:        existing.Amount,
			Method:        existing.Method,
			ReferenceCode: code,
			Status:        domain.TopUpStatusCredited,
			Source:        existing.Source,
			BalanceAfter:  s.ledger.Current(),
			CreatedAt:     existing.CreatedAt,
		}, nil
	}

	if err := sleep(ctx, s.cfg.PixDelay); err != nil {
		s.requeuePix(t)
		return nil, err
	}

	credited, err := s.credit(ctx, t.Amount, domain.PaymentMethodPix, key)
	if err != nil {
		s.requeuePix(t)
		return nil, err
	}
	credited.ReferenceCode = code
	return credited, nil
}

func (s *TopUpService) requeuePix(t *domain.TopUp) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingPix[t.ReferenceCode] = t
}

func (s *TopUpService) chargeCard(ctx context.Context, amount float64, method domain.PaymentMethod, card domain.CardDetails) (*domain.TopUp, error) {
	approved, err := s.cards.Charge(ctx, amount, card)
	if err != nil {
		metrics.TopUps.WithLabelValues(string(method), "failed").Inc()
		return nil, err
	}
	if !approved {
		s.record(ctx, amount, method, "", domain.PaymentStatusDeclined, "")
		s.notifier.NotifyTopUpDeclined(ctx, amount, method)
		metrics.TopUps.WithLabelValues(string(method), "declined").Inc()
		return nil, ErrCardDeclined
	}

	return s.credit(ctx, amount, method, "")
}

// credit adds amount to the balance, remote-first with local fallback.
func (s *TopUpService) credit(ctx context.Context, amount float64, method domain.PaymentMethod, idempotencyKey string) (*domain.TopUp, error) {
	// The purchase is already paid; the credit must not be abandoned halfway.
	ctx = context.WithoutCancel(ctx)

	release, err := s.lock.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	res := s.ledger.Adjust(ctx, amount)

	t := &domain.TopUp{
		Amount:       amount,
		Method:       method,
		Status:       domain.TopUpStatusCredited,
		Source:       res.Source,
		BalanceAfter: res.Balance,
		CreatedAt:    s.now(),
	}

	s.record(ctx, amount, method, res.Source, domain.PaymentStatusSuccess, idempotencyKey)
	s.notifier.NotifyTopUpCredited(ctx, t)
	metrics.TopUps.WithLabelValues(string(method), "credited").Inc()
	return t, nil
}

func (s *TopUpService) record(ctx context.Context, amount float64, method domain.PaymentMethod, source domain.PaymentSource, status domain.PaymentStatus, idempotencyKey string) {
	payment := &domain.Payment{
		ID:             uuid.New().String(),
		Kind:           domain.PaymentKindTopUp,
		Amount:         amount,
		Method:         method,
		Source:         source,
		Status:         status,
		IdempotencyKey: idempotencyKey,
		CreatedAt:      s.now(),
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"method": method,
			"status": status,
		}).Warn("failed to record top-up")
	}
}

// ParseAmount parses a positive, finite currency amount; a comma decimal
// separator is accepted ("15,00").
func ParseAmount(text string) (float64, error) {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidAmount
	}
	v = fare.Round2(v)
	if v <= 0 {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// ValidateCard checks the card-shaped fields of a top-up.
func ValidateCard(card domain.CardDetails) error {
	number := strings.ReplaceAll(card.Number, " ", "")
	if len(number) < 12 || !allDigits(number) {
		return ErrInvalidCardNumber
	}
	if strings.TrimSpace(card.Name) == "" {
		return ErrInvalidCardName
	}
	if !expiryPattern.MatchString(strings.TrimSpace(card.Expiry)) {
		return ErrInvalidCardExpiry
	}
	cvv := strings.TrimSpace(card.CVV)
	if len(cvv) < 3 || !allDigits(cvv) {
		return ErrInvalidCardCVV
	}
	return nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
