package domain

import "time"

// PaymentStatus represents the outcome of a payment attempt.
type PaymentStatus string

const (
	PaymentStatusSuccess   PaymentStatus = "SUCCESS"
	PaymentStatusDeclined  PaymentStatus = "DECLINED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusDiscarded PaymentStatus = "DISCARDED"
)

// PaymentKind distinguishes session settlements from credit purchases.
type PaymentKind string

const (
	PaymentKindSettlement PaymentKind = "SETTLEMENT"
	PaymentKindTopUp      PaymentKind = "TOPUP"
)

// PaymentSource tells which balance copy a payment was applied to.
type PaymentSource string

const (
	PaymentSourceRemote PaymentSource = "REMOTE"
	PaymentSourceLocal  PaymentSource = "LOCAL"
)

// PaymentMethod is the instrument used for a payment.
type PaymentMethod string

const (
	PaymentMethodBalance PaymentMethod = "balance"
	PaymentMethodPix     PaymentMethod = "pix"
	PaymentMethodCredit  PaymentMethod = "credit"
	PaymentMethodDebit   PaymentMethod = "debit"
)

// IsCard reports whether the method is a card instrument.
func (m PaymentMethod) IsCard() bool {
	return m == PaymentMethodCredit || m == PaymentMethodDebit
}

// Payment is a ledger entry for a settlement or top-up attempt.
type Payment struct {
	ID             string
	Kind           PaymentKind
	TicketID       string
	Amount         float64
	Method         PaymentMethod
	Source         PaymentSource
	Status         PaymentStatus
	TransactionID  string
	IdempotencyKey string
	CreatedAt      time.Time
}
