package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campuspark/internal/domain"
	"campuspark/internal/repository"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func sampleTicket() *domain.Ticket {
	started := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	return &domain.Ticket{
		ID:          "tk-1",
		SpotID:      1,
		SpotTitle:   "Vaga Quadra Unimar",
		StartedAt:   started,
		EndedAt:     started.Add(3 * time.Minute),
		MinutesUsed: 3,
		Fare:        0.3,
		EndReason:   domain.EndReasonStopped,
		Status:      domain.TicketStatusPending,
	}
}

func ticketRow(t *domain.Ticket) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "spot_id", "spot_title", "started_at", "ended_at", "minutes_used", "fare", "end_reason", "status"}).
		AddRow(t.ID, t.SpotID, t.SpotTitle, t.StartedAt, t.EndedAt, t.MinutesUsed, t.Fare, string(t.EndReason), string(t.Status))
}

func TestTicketRepository_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTicketRepository(db)
	ticket := sampleTicket()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO tickets")).
		WithArgs(ticket.ID, ticket.SpotID, ticket.SpotTitle, ticket.StartedAt, ticket.EndedAt,
			ticket.MinutesUsed, ticket.Fare, ticket.EndReason, ticket.Status).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), ticket))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_GetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTicketRepository(db)
	want := sampleTicket()

	mock.ExpectQuery(regexp.QuoteMeta("FROM tickets WHERE id = $1")).
		WithArgs(want.ID).
		WillReturnRows(ticketRow(want))

	got, err := repo.GetByID(context.Background(), want.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRepository_GetByID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTicketRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM tickets WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTicketRepository_GetAll(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTicketRepository(db)
	first := sampleTicket()

	rows := ticketRow(first).
		AddRow("tk-2", int64(2), "Vaga Refeitório", first.StartedAt, first.EndedAt, 1, 0.1, "EXPIRED", "PAID")
	mock.ExpectQuery(regexp.QuoteMeta("FROM tickets ORDER BY ended_at DESC")).WillReturnRows(rows)

	tickets, err := repo.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	assert.Equal(t, domain.TicketStatusPaid, tickets[1].Status)
	assert.Equal(t, domain.EndReasonExpired, tickets[1].EndReason)
}

func TestTicketRepository_UpdateStatus(t *testing.T) {
	db, mock := newMock(t)
	repo := NewTicketRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE tickets SET status = $1 WHERE id = $2")).
		WithArgs(domain.TicketStatusPaid, "tk-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE tickets SET status = $1 WHERE id = $2")).
		WithArgs(domain.TicketStatusPaid, "missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateStatus(context.Background(), "tk-1", domain.TicketStatusPaid))
	assert.ErrorIs(t, repo.UpdateStatus(context.Background(), "missing", domain.TicketStatusPaid), repository.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_CreateTopUpHasNullTicket(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPaymentRepository(db)
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	payment := &domain.Payment{
		ID:             "p-1",
		Kind:           domain.PaymentKindTopUp,
		Amount:         20,
		Method:         domain.PaymentMethodPix,
		Source:         domain.PaymentSourceRemote,
		Status:         domain.PaymentStatusSuccess,
		IdempotencyKey: "topup:PIX|1|R20.00",
		CreatedAt:      created,
	}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO payments")).
		WithArgs("p-1", domain.PaymentKindTopUp, nil, 20.0, domain.PaymentMethodPix, "REMOTE",
			domain.PaymentStatusSuccess, nil, "topup:PIX|1|R20.00", created).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Create(context.Background(), payment))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func paymentColumnsList() []string {
	return []string{"id", "kind", "ticket_id", "amount", "method", "source", "status", "transaction_id", "idempotency_key", "created_at"}
}

func TestPaymentRepository_GetByIdempotencyKey(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPaymentRepository(db)
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM payments WHERE idempotency_key = $1")).
		WithArgs("topup:X").
		WillReturnRows(sqlmock.NewRows(paymentColumnsList()).
			AddRow("p-1", "TOPUP", nil, 20.0, "pix", "LOCAL", "SUCCESS", nil, "topup:X", created))

	got, err := repo.GetByIdempotencyKey(context.Background(), "topup:X")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "", got.TicketID)
	assert.Equal(t, domain.PaymentSourceLocal, got.Source)
	assert.Equal(t, "topup:X", got.IdempotencyKey)
}

func TestPaymentRepository_GetByIdempotencyKey_Missing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPaymentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM payments WHERE idempotency_key = $1")).
		WithArgs("topup:none").
		WillReturnError(sql.ErrNoRows)

	got, err := repo.GetByIdempotencyKey(context.Background(), "topup:none")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestPaymentRepository_ListByTicketID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPaymentRepository(db)
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM payments WHERE ticket_id = $1")).
		WithArgs("tk-1").
		WillReturnRows(sqlmock.NewRows(paymentColumnsList()).
			AddRow("p-1", "SETTLEMENT", "tk-1", 0.3, "balance", nil, "DECLINED", nil, nil, created).
			AddRow("p-2", "SETTLEMENT", "tk-1", 0.3, "balance", "REMOTE", "SUCCESS", "T1", nil, created.Add(time.Minute)))

	payments, err := repo.ListByTicketID(context.Background(), "tk-1")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, domain.PaymentStatusDeclined, payments[0].Status)
	assert.Equal(t, domain.PaymentSource(""), payments[0].Source)
	assert.Equal(t, "T1", payments[1].TransactionID)
}

func TestMigrate(t *testing.T) {
	db, mock := newMock(t)

	for range Migrations() {
		mock.ExpectExec("CREATE").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}
