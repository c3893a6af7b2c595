package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campuspark/internal/domain"
	"campuspark/internal/service"
)

// TicketHandler handles HTTP requests for the parking history.
type TicketHandler struct {
	ticketService *service.TicketService
}

// NewTicketHandler creates a new TicketHandler.
func NewTicketHandler(ticketService *service.TicketService) *TicketHandler {
	return &TicketHandler{ticketService: ticketService}
}

// TicketResponse is the HTTP response for a ticket.
type TicketResponse struct {
	ID          string        `json:"id"`
	SpotID      int64         `json:"spot_id"`
	SpotTitle   string        `json:"spot_title"`
	StartedAt   string        `json:"started_at"`
	EndedAt     string        `json:"ended_at"`
	MinutesUsed int           `json:"minutes_used"`
	Fare        float64       `json:"fare"`
	EndReason   string        `json:"end_reason"`
	Status      string        `json:"status"`
	Payments    []PaymentInfo `json:"payments,omitempty"`
}

// PaymentInfo contains payment details in the ticket response.
type PaymentInfo struct {
	ID            string  `json:"id"`
	Amount        float64 `json:"amount"`
	Method        string  `json:"method"`
	Source        string  `json:"source"`
	Status        string  `json:"status"`
	TransactionID string  `json:"transaction_id,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

func newTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          t.ID,
		SpotID:      t.SpotID,
		SpotTitle:   t.SpotTitle,
		StartedAt:   formatTime(t.StartedAt),
		EndedAt:     formatTime(t.EndedAt),
		MinutesUsed: t.MinutesUsed,
		Fare:        t.Fare,
		EndReason:   string(t.EndReason),
		Status:      string(t.Status),
	}
}

// GetAll handles GET /v1/tickets
func (h *TicketHandler) GetAll(c *gin.Context) {
	tickets, err := h.ticketService.GetAllTickets(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		response = append(response, newTicketResponse(t))
	}

	respondJSON(c, http.StatusOK, response)
}

// Get handles GET /v1/tickets/:id
func (h *TicketHandler) Get(c *gin.Context) {
	details, err := h.ticketService.GetTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := newTicketResponse(details.Ticket)
	for _, p := range details.Payments {
		response.Payments = append(response.Payments, PaymentInfo{
			ID:            p.ID,
			Amount:        p.Amount,
			Method:        string(p.Method),
			Source:        string(p.Source),
			Status:        string(p.Status),
			TransactionID: p.TransactionID,
			CreatedAt:     formatTime(p.CreatedAt),
		})
	}

	respondJSON(c, http.StatusOK, response)
}
