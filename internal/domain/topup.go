package domain

import "time"

// TopUpStatus represents the state of a credit purchase.
type TopUpStatus string

const (
	TopUpStatusAwaitingConfirmation TopUpStatus = "AWAITING_CONFIRMATION"
	TopUpStatusCredited             TopUpStatus = "CREDITED"
	TopUpStatusDeclined             TopUpStatus = "DECLINED"
)

// TopUp is a credit purchase.
type TopUp struct {
	Amount        float64
	Method        PaymentMethod
	ReferenceCode string // PIX only
	Status        TopUpStatus
	Source        PaymentSource
	BalanceAfter  float64
	CreatedAt     time.Time
}

// CardDetails holds the card fields entered for a top-up.
type CardDetails struct {
	Number string
	Name   string
	Expiry string
	CVV    string
}
