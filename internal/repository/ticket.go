package repository

import (
	"context"

	"campuspark/internal/domain"
)

// TicketRepository defines the persistence operations for parking tickets.
type TicketRepository interface {
	// Create persists a new ticket.
	Create(ctx context.Context, ticket *domain.Ticket) error

	// GetByID retrieves a ticket by ID.
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)

	// GetAll retrieves the most recent tickets.
	GetAll(ctx context.Context) ([]*domain.Ticket, error)

	// UpdateStatus updates the settlement status of a ticket.
	UpdateStatus(ctx context.Context, id string, status domain.TicketStatus) error
}
