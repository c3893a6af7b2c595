package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campuspark/internal/domain"
	"campuspark/internal/service"
)

// SettlementHandler handles HTTP requests for session settlement.
type SettlementHandler struct {
	settlementService *service.SettlementService
	receiptService    *service.ReceiptService
}

// NewSettlementHandler creates a new SettlementHandler.
func NewSettlementHandler(settlementService *service.SettlementService, receiptService *service.ReceiptService) *SettlementHandler {
	return &SettlementHandler{
		settlementService: settlementService,
		receiptService:    receiptService,
	}
}

// PendingSettlementResponse is the HTTP response for a pending settlement.
type PendingSettlementResponse struct {
	SettlementID string  `json:"settlement_id"`
	TicketID     string  `json:"ticket_id,omitempty"`
	SpotID       int64   `json:"spot_id"`
	SpotTitle    string  `json:"spot_title"`
	MinutesUsed  int     `json:"minutes_used"`
	Fare         float64 `json:"fare"`
	Reason       string  `json:"reason"`
	StartedAt    string  `json:"started_at,omitempty"`
	EndedAt      string  `json:"ended_at,omitempty"`
}

// SettlementResponse is the HTTP response of a paid settlement.
type SettlementResponse struct {
	SettlementID  string       `json:"settlement_id"`
	TicketID      string       `json:"ticket_id,omitempty"`
	Outcome       string       `json:"outcome"`
	MinutesUsed   int          `json:"minutes_used"`
	Fare          float64      `json:"fare"`
	TransactionID string       `json:"transaction_id,omitempty"`
	Balance       float64      `json:"balance"`
	Converged     bool         `json:"converged"`
	Receipt       *ReceiptInfo `json:"receipt,omitempty"`
}

// ReceiptInfo contains receipt details in the response.
type ReceiptInfo struct {
	ID            string  `json:"id"`
	SpotTitle     string  `json:"spot_title"`
	MinutesUsed   int     `json:"minutes_used"`
	RatePerMinute float64 `json:"rate_per_minute"`
	Fare          float64 `json:"fare"`
	Source        string  `json:"source"`
	BalanceAfter  float64 `json:"balance_after"`
	Text          string  `json:"text"`
}

func newPendingSettlementResponse(p *domain.PendingSettlement) PendingSettlementResponse {
	return PendingSettlementResponse{
		SettlementID: p.ID,
		TicketID:     p.TicketID,
		SpotID:       p.SpotID,
		SpotTitle:    p.SpotTitle,
		MinutesUsed:  p.MinutesUsed,
		Fare:         p.FareAmount,
		Reason:       string(p.Reason),
		StartedAt:    formatTime(p.StartedAt),
		EndedAt:      formatTime(p.EndedAt),
	}
}

// Get handles GET /v1/settlement
func (h *SettlementHandler) Get(c *gin.Context) {
	pending, err := h.settlementService.Pending()
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newPendingSettlementResponse(pending))
}

// Confirm handles POST /v1/settlement/confirm
func (h *SettlementHandler) Confirm(c *gin.Context) {
	result, err := h.settlementService.Confirm(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := SettlementResponse{
		SettlementID:  result.SettlementID,
		TicketID:      result.TicketID,
		Outcome:       string(result.Outcome),
		MinutesUsed:   result.MinutesUsed,
		Fare:          result.Fare,
		TransactionID: result.TransactionID,
		Balance:       result.Balance,
		Converged:     result.Converged,
	}

	if r := result.Receipt; r != nil {
		response.Receipt = &ReceiptInfo{
			ID:            r.ID,
			SpotTitle:     r.SpotTitle,
			MinutesUsed:   r.MinutesUsed,
			RatePerMinute: r.RatePerMinute,
			Fare:          r.Fare,
			Source:        string(r.Source),
			BalanceAfter:  r.BalanceAfter,
			Text:          h.receiptService.FormatReceipt(r),
		}
	}

	respondJSON(c, http.StatusOK, response)
}

// Cancel handles POST /v1/settlement/cancel
func (h *SettlementHandler) Cancel(c *gin.Context) {
	pending, err := h.settlementService.Cancel(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newPendingSettlementResponse(pending))
}
