package service

import (
	"fmt"

	"campuspark/internal/domain"
	"campuspark/internal/repository"
)

var (
	// ErrSpotNotFound is returned when a spot id is unknown.
	ErrSpotNotFound = fmt.Errorf("spot %w", repository.ErrNotFound)

	// ErrInvalidLocation is returned when coordinates are out of range.
	ErrInvalidLocation = fmt.Errorf("%w: invalid location", domain.ErrInputValidation)

	// ErrInvalidRadius is returned when a search radius is not positive.
	ErrInvalidRadius = fmt.Errorf("%w: radius must be positive", domain.ErrInputValidation)

	// ErrNearbyUnavailable is returned when no spot location index is configured.
	ErrNearbyUnavailable = fmt.Errorf("%w: spot location index unavailable", domain.ErrRemoteService)

	// ErrSettlementPending is returned when starting a session while the
	// previous one is still unpaid.
	ErrSettlementPending = fmt.Errorf("%w: previous session has a pending settlement", domain.ErrConflict)

	// ErrNoPendingSettlement is returned by settlement operations when nothing is owed.
	ErrNoPendingSettlement = fmt.Errorf("%w: no pending settlement", domain.ErrConflict)

	// ErrSettlementInProgress is returned when a payment is already being processed.
	ErrSettlementInProgress = fmt.Errorf("%w: settlement already in progress", domain.ErrConflict)

	// ErrSettlementCancelled is returned when a payment result arrives after
	// the user cancelled the settlement. The result is discarded.
	ErrSettlementCancelled = fmt.Errorf("%w: settlement was cancelled", domain.ErrConflict)

	// ErrBalanceBusy is returned when another writer holds the balance lock.
	ErrBalanceBusy = fmt.Errorf("%w: balance is being updated", domain.ErrConflict)

	// ErrPaymentDeclined is returned when the wallet service does not approve a payment.
	ErrPaymentDeclined = fmt.Errorf("%w", domain.ErrPaymentDeclined)

	// ErrPaymentUnavailable is returned when the wallet service is unreachable
	// and the local balance does not cover the fare.
	ErrPaymentUnavailable = fmt.Errorf("%w: insufficient funds and payment service unavailable", domain.ErrPaymentUnavailable)

	// ErrInvalidAmount is returned when a top-up amount is not a positive number.
	ErrInvalidAmount = fmt.Errorf("%w: invalid amount, e.g. 15,00", domain.ErrInputValidation)

	// ErrInvalidPaymentMethod is returned for unknown top-up methods.
	ErrInvalidPaymentMethod = fmt.Errorf("%w: invalid payment method", domain.ErrInputValidation)

	// ErrInvalidCardNumber is returned when the card number has fewer than 12 digits.
	ErrInvalidCardNumber = fmt.Errorf("%w: invalid card number", domain.ErrInputValidation)

	// ErrInvalidCardName is returned when the card holder name is empty.
	ErrInvalidCardName = fmt.Errorf("%w: invalid card holder name", domain.ErrInputValidation)

	// ErrInvalidCardExpiry is returned when the expiry is not MM/YY.
	ErrInvalidCardExpiry = fmt.Errorf("%w: expiry must be MM/YY", domain.ErrInputValidation)

	// ErrInvalidCardCVV is returned when the CVV has fewer than 3 digits.
	ErrInvalidCardCVV = fmt.Errorf("%w: invalid CVV", domain.ErrInputValidation)

	// ErrCardDeclined is returned when the card operator refuses a top-up.
	ErrCardDeclined = fmt.Errorf("%w: card operator refused the payment", domain.ErrPaymentDeclined)

	// ErrTopUpNotFound is returned when a PIX reference code is unknown.
	ErrTopUpNotFound = fmt.Errorf("top-up %w", repository.ErrNotFound)

	// ErrVehicleIncomplete is returned when plate or model is missing.
	ErrVehicleIncomplete = fmt.Errorf("%w: plate and model are required", domain.ErrInputValidation)

	// ErrInvalidTicketID is returned when ticket ID is empty.
	ErrInvalidTicketID = fmt.Errorf("%w: invalid ticket id", domain.ErrInputValidation)
)
