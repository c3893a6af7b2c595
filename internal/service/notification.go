package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"campuspark/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationSessionStarted      NotificationType = "SESSION_STARTED"
	NotificationTimeAdded           NotificationType = "TIME_ADDED"
	NotificationTimeUp              NotificationType = "TIME_UP"
	NotificationSessionStopped      NotificationType = "SESSION_STOPPED"
	NotificationPaymentApproved     NotificationType = "PAYMENT_APPROVED"
	NotificationPaymentLocal        NotificationType = "PAYMENT_LOCAL"
	NotificationPaymentDeclined     NotificationType = "PAYMENT_DECLINED"
	NotificationPaymentFailed       NotificationType = "PAYMENT_FAILED"
	NotificationSettlementCancelled NotificationType = "SETTLEMENT_CANCELLED"
	NotificationTopUpCredited       NotificationType = "TOPUP_CREDITED"
	NotificationTopUpDeclined       NotificationType = "TOPUP_DECLINED"
)

// DefaultInboxSize is the number of notifications kept for the presentation layer.
const DefaultInboxSize = 50

// Notification is a message for the presentation layer.
type Notification struct {
	ID        string                 `json:"id"`
	Type      NotificationType       `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// NotificationService logs notifications and keeps the most recent ones in
// an inbox drained by the presentation layer.
type NotificationService struct {
	log      *logrus.Entry
	capacity int

	mu    sync.Mutex
	inbox []Notification
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(log *logrus.Entry) *NotificationService {
	return &NotificationService{log: log, capacity: DefaultInboxSize}
}

// Drain returns the pending notifications, oldest first, and empties the inbox.
func (s *NotificationService) Drain() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.inbox
	s.inbox = nil
	if out == nil {
		out = []Notification{}
	}
	return out
}

// NotifySessionStarted notifies that a session started on a spot.
func (s *NotificationService) NotifySessionStarted(ctx context.Context, spot domain.SelectedSpot, minutes int) {
	s.send(ctx, Notification{
		Type:    NotificationSessionStarted,
		Title:   "Sessão iniciada",
		Message: fmt.Sprintf("Estacionamento em %s por %d minutos.", spot.Title, minutes),
		Data: map[string]interface{}{
			"spot_id":       spot.ID,
			"total_minutes": minutes,
		},
	})
}

// NotifyTimeAdded notifies that the session was extended.
func (s *NotificationService) NotifyTimeAdded(ctx context.Context, addedMinutes, totalMinutes int) {
	s.send(ctx, Notification{
		Type:    NotificationTimeAdded,
		Title:   fmt.Sprintf("+%d Min", addedMinutes),
		Message: "Tempo adicionado com sucesso.",
		Data: map[string]interface{}{
			"total_minutes": totalMinutes,
		},
	})
}

// NotifyTimeUp notifies that the session expired and will be charged.
func (s *NotificationService) NotifyTimeUp(ctx context.Context, p *domain.PendingSettlement) {
	s.send(ctx, Notification{
		Type:    NotificationTimeUp,
		Title:   "Fim do Tempo",
		Message: "Sua sessão encerrou e será cobrada.",
		Data:    settlementData(p),
	})
}

// NotifySessionStopped notifies that the user ended the session.
func (s *NotificationService) NotifySessionStopped(ctx context.Context, p *domain.PendingSettlement) {
	s.send(ctx, Notification{
		Type:    NotificationSessionStopped,
		Title:   "Sessão encerrada",
		Message: fmt.Sprintf("Tempo utilizado: %d min. Valor: R$ %.2f", p.MinutesUsed, p.FareAmount),
		Data:    settlementData(p),
	})
}

// NotifyPaymentApproved notifies a payment approved by the wallet service.
func (s *NotificationService) NotifyPaymentApproved(ctx context.Context, r *SettlementResult) {
	txID := r.TransactionID
	if txID == "" {
		txID = "N/A"
	}
	s.send(ctx, Notification{
		Type:    NotificationPaymentApproved,
		Title:   "Pagamento aprovado",
		Message: fmt.Sprintf("Transação: %s", txID),
		Data: map[string]interface{}{
			"settlement_id":  r.SettlementID,
			"fare":           r.Fare,
			"balance":        r.Balance,
			"transaction_id": r.TransactionID,
		},
	})
}

// NotifyPaymentLocal notifies a payment deducted from the local balance only.
func (s *NotificationService) NotifyPaymentLocal(ctx context.Context, r *SettlementResult) {
	s.send(ctx, Notification{
		Type:    NotificationPaymentLocal,
		Title:   "Pagamento local efetuado",
		Message: fmt.Sprintf("Pagamento de R$ %.2f deduzido do seu saldo local.", r.Fare),
		Data: map[string]interface{}{
			"settlement_id": r.SettlementID,
			"fare":          r.Fare,
			"balance":       r.Balance,
		},
	})
}

// NotifyPaymentDeclined notifies an explicit refusal from the wallet service.
func (s *NotificationService) NotifyPaymentDeclined(ctx context.Context, p *domain.PendingSettlement, reason string) {
	if reason == "" {
		reason = "Pagamento recusado."
	}
	s.send(ctx, Notification{
		Type:    NotificationPaymentDeclined,
		Title:   "Pagamento não aprovado",
		Message: reason,
		Data:    settlementData(p),
	})
}

// NotifyPaymentFailed notifies that neither the wallet service nor the local balance could pay.
func (s *NotificationService) NotifyPaymentFailed(ctx context.Context, p *domain.PendingSettlement) {
	s.send(ctx, Notification{
		Type:    NotificationPaymentFailed,
		Title:   "Pagamento falhou",
		Message: "API de pagamento indisponível e saldo local insuficiente.",
		Data:    settlementData(p),
	})
}

// NotifySettlementCancelled notifies that the user abandoned a settlement.
func (s *NotificationService) NotifySettlementCancelled(ctx context.Context, p *domain.PendingSettlement) {
	s.send(ctx, Notification{
		Type:    NotificationSettlementCancelled,
		Title:   "Pagamento cancelado",
		Message: fmt.Sprintf("Cobrança de R$ %.2f não realizada.", p.FareAmount),
		Data:    settlementData(p),
	})
}

// NotifyTopUpCredited notifies that credits were added to the balance.
func (s *NotificationService) NotifyTopUpCredited(ctx context.Context, t *domain.TopUp) {
	s.send(ctx, Notification{
		Type:    NotificationTopUpCredited,
		Title:   "Sucesso",
		Message: fmt.Sprintf("R$ %.2f adicionados ao saldo.", t.Amount),
		Data: map[string]interface{}{
			"amount":  t.Amount,
			"method":  t.Method,
			"balance": t.BalanceAfter,
		},
	})
}

// NotifyTopUpDeclined notifies that the card operator refused a top-up.
func (s *NotificationService) NotifyTopUpDeclined(ctx context.Context, amount float64, method domain.PaymentMethod) {
	s.send(ctx, Notification{
		Type:    NotificationTopUpDeclined,
		Title:   "Pagamento recusado",
		Message: "Operadora recusou o pagamento.",
		Data: map[string]interface{}{
			"amount": amount,
			"method": method,
		},
	})
}

func settlementData(p *domain.PendingSettlement) map[string]interface{} {
	return map[string]interface{}{
		"settlement_id": p.ID,
		"ticket_id":     p.TicketID,
		"spot_id":       p.SpotID,
		"minutes_used":  p.MinutesUsed,
		"fare":          p.FareAmount,
	}
}

// send logs the notification and appends it to the inbox.
func (s *NotificationService) send(_ context.Context, n Notification) {
	n.ID = uuid.New().String()
	n.CreatedAt = time.Now()

	s.log.WithFields(logrus.Fields{
		"type":  n.Type,
		"title": n.Title,
	}).Info(n.Message)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inbox = append(s.inbox, n)
	if len(s.inbox) > s.capacity {
		s.inbox = s.inbox[len(s.inbox)-s.capacity:]
	}
}
