package domain

import "time"

// TicketStatus represents the settlement status of a finished session.
type TicketStatus string

const (
	TicketStatusPending   TicketStatus = "PENDING"
	TicketStatusPaid      TicketStatus = "PAID"
	TicketStatusCancelled TicketStatus = "CANCELLED"
)

// Ticket is the history record of one terminated parking session.
type Ticket struct {
	ID          string
	SpotID      int64
	SpotTitle   string
	StartedAt   time.Time
	EndedAt     time.Time
	MinutesUsed int
	Fare        float64
	EndReason   EndReason
	Status      TicketStatus
}

// Receipt summarises a settled session.
type Receipt struct {
	ID            string
	TicketID      string
	SpotID        int64
	SpotTitle     string
	MinutesUsed   int
	RatePerMinute float64
	Fare          float64
	Source        PaymentSource
	TransactionID string
	BalanceAfter  float64
	StartedAt     time.Time
	EndedAt       time.Time
	CreatedAt     time.Time
}
