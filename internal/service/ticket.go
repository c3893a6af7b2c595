package service

import (
	"context"

	"campuspark/internal/domain"
	"campuspark/internal/repository"
)

// TicketDetails is a ticket with its settlement attempts.
type TicketDetails struct {
	Ticket   *domain.Ticket    `json:"ticket"`
	Payments []*domain.Payment `json:"payments"`
}

// TicketService reads the parking history.
type TicketService struct {
	tickets  repository.TicketRepository
	payments repository.PaymentRepository
}

// NewTicketService creates a new TicketService.
func NewTicketService(tickets repository.TicketRepository, payments repository.PaymentRepository) *TicketService {
	return &TicketService{tickets: tickets, payments: payments}
}

// GetAllTickets retrieves the most recent tickets.
func (s *TicketService) GetAllTickets(ctx context.Context) ([]*domain.Ticket, error) {
	return s.tickets.GetAll(ctx)
}

// GetTicket retrieves a ticket and its payments.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*TicketDetails, error) {
	if ticketID == "" {
		return nil, ErrInvalidTicketID
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	payments, err := s.payments.ListByTicketID(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if payments == nil {
		payments = []*domain.Payment{}
	}

	return &TicketDetails{Ticket: ticket, Payments: payments}, nil
}
