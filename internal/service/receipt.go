package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"campuspark/internal/domain"
)

// ReceiptService handles receipt generation.
type ReceiptService struct {
	ratePerMinute float64
}

// NewReceiptService creates a new ReceiptService.
func NewReceiptService(ratePerMinute float64) *ReceiptService {
	return &ReceiptService{ratePerMinute: ratePerMinute}
}

// GenerateReceipt builds the receipt of a settled session.
func (s *ReceiptService) GenerateReceipt(p *domain.PendingSettlement, source domain.PaymentSource, transactionID string, balanceAfter float64) *domain.Receipt {
	return &domain.Receipt{
		ID:            uuid.New().String(),
		TicketID:      p.TicketID,
		SpotID:        p.SpotID,
		SpotTitle:     p.SpotTitle,
		MinutesUsed:   p.MinutesUsed,
		RatePerMinute: s.ratePerMinute,
		Fare:          p.FareAmount,
		Source:        source,
		TransactionID: transactionID,
		BalanceAfter:  balanceAfter,
		StartedAt:     p.StartedAt,
		EndedAt:       p.EndedAt,
		CreatedAt:     time.Now(),
	}
}

// FormatReceipt formats the receipt as plain text.
func (s *ReceiptService) FormatReceipt(r *domain.Receipt) string {
	var b strings.Builder
	line := "====================================="

	fmt.Fprintln(&b, line)
	fmt.Fprintln(&b, "        COMPROVANTE DE ESTACIONAMENTO")
	fmt.Fprintln(&b, line)
	fmt.Fprintf(&b, "Recibo:  %s\n", r.ID)
	if r.TicketID != "" {
		fmt.Fprintf(&b, "Ticket:  %s\n", r.TicketID)
	}
	fmt.Fprintf(&b, "Data:    %s\n\n", r.CreatedAt.Format("02/01/2006 15:04"))

	fmt.Fprintf(&b, "Vaga:    %s\n", r.SpotTitle)
	fmt.Fprintf(&b, "Início:  %s\n", formatClock(r.StartedAt))
	fmt.Fprintf(&b, "Fim:     %s\n", formatClock(r.EndedAt))
	fmt.Fprintf(&b, "Tempo:   %d min x R$ %s\n", r.MinutesUsed, formatMoney(r.RatePerMinute))
	fmt.Fprintln(&b, "-------------------------------------")
	fmt.Fprintf(&b, "TOTAL:   R$ %s\n\n", formatMoney(r.Fare))

	switch r.Source {
	case domain.PaymentSourceRemote:
		fmt.Fprintf(&b, "Pago via carteira (transação %s)\n", orNA(r.TransactionID))
	default:
		fmt.Fprintln(&b, "Pago com saldo local")
	}
	fmt.Fprintf(&b, "Saldo:   R$ %s\n", formatMoney(r.BalanceAfter))
	fmt.Fprintln(&b, line)

	return b.String()
}

func formatClock(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("15:04:05")
}

// formatMoney renders a BRL amount with a comma decimal separator.
func formatMoney(v float64) string {
	return strings.Replace(fmt.Sprintf("%.2f", v), ".", ",", 1)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
