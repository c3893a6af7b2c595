package postgres

import (
	"context"
	"database/sql"
	"errors"

	"campuspark/internal/domain"
	"campuspark/internal/repository"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

const paymentColumns = `id, kind, ticket_id, amount, method, source, status, transaction_id, idempotency_key, created_at`

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.q.ExecContext(ctx, query,
		payment.ID,
		payment.Kind,
		nullString(payment.TicketID),
		payment.Amount,
		payment.Method,
		nullString(string(payment.Source)),
		payment.Status,
		nullString(payment.TransactionID),
		nullString(payment.IdempotencyKey),
		payment.CreatedAt,
	)

	return err
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	payment, err := scanPayment(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return payment, nil
}

// GetByIdempotencyKey retrieves a payment by its idempotency key.
// Returns nil if no payment exists with the given key.
func (r *PaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE idempotency_key = $1`

	payment, err := scanPayment(r.q.QueryRowContext(ctx, query, key))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return payment, nil
}

// ListByTicketID retrieves the settlement attempts of a ticket, oldest first.
func (r *PaymentRepository) ListByTicketID(ctx context.Context, ticketID string) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE ticket_id = $1 ORDER BY created_at ASC`

	rows, err := r.q.QueryContext(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, payment)
	}

	return payments, rows.Err()
}

func scanPayment(row rowScanner) (*domain.Payment, error) {
	var (
		payment        domain.Payment
		ticketID       sql.NullString
		source         sql.NullString
		transactionID  sql.NullString
		idempotencyKey sql.NullString
	)

	err := row.Scan(
		&payment.ID,
		&payment.Kind,
		&ticketID,
		&payment.Amount,
		&payment.Method,
		&source,
		&payment.Status,
		&transactionID,
		&idempotencyKey,
		&payment.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	payment.TicketID = ticketID.String
	payment.Source = domain.PaymentSource(source.String)
	payment.TransactionID = transactionID.String
	payment.IdempotencyKey = idempotencyKey.String
	return &payment, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
