package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campuspark/internal/domain"
	"campuspark/internal/service"
)

// WalletHandler handles HTTP requests for the balance and credit purchases.
type WalletHandler struct {
	walletService *service.WalletService
	topUpService  *service.TopUpService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletService *service.WalletService, topUpService *service.TopUpService) *WalletHandler {
	return &WalletHandler{walletService: walletService, topUpService: topUpService}
}

// CardRequest holds the card fields of a top-up.
type CardRequest struct {
	Number string `json:"number"`
	Name   string `json:"name"`
	Expiry string `json:"expiry"`
	CVV    string `json:"cvv"`
}

// TopUpRequest is the HTTP request body for a credit purchase. Amount is the
// text typed by the user ("15,00").
type TopUpRequest struct {
	Amount string       `json:"amount" binding:"required"`
	Method string       `json:"method" binding:"required"`
	Card   *CardRequest `json:"card"`
}

// TopUpResponse is the HTTP response for credit purchases.
type TopUpResponse struct {
	Amount        float64 `json:"amount"`
	Method        string  `json:"method"`
	Status        string  `json:"status"`
	ReferenceCode string  `json:"reference_code,omitempty"`
	Source        string  `json:"source,omitempty"`
	Balance       float64 `json:"balance,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

func newTopUpResponse(t *domain.TopUp) TopUpResponse {
	return TopUpResponse{
		Amount:        t.Amount,
		Method:        string(t.Method),
		Status:        string(t.Status),
		ReferenceCode: t.ReferenceCode,
		Source:        string(t.Source),
		Balance:       t.BalanceAfter,
		CreatedAt:     formatTime(t.CreatedAt),
	}
}

// GetBalance handles GET /v1/wallet
func (h *WalletHandler) GetBalance(c *gin.Context) {
	respondJSON(c, http.StatusOK, h.walletService.Balance())
}

// Sync handles POST /v1/wallet/sync
func (h *WalletHandler) Sync(c *gin.Context) {
	respondJSON(c, http.StatusOK, h.walletService.Sync(c.Request.Context()))
}

// TopUpOptions handles GET /v1/wallet/topup/options
func (h *WalletHandler) TopUpOptions(c *gin.Context) {
	respondJSON(c, http.StatusOK, h.topUpService.Options())
}

// TopUp handles POST /v1/wallet/topup
func (h *WalletHandler) TopUp(c *gin.Context) {
	var req TopUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	in := service.TopUpRequest{
		AmountText: req.Amount,
		Method:     domain.PaymentMethod(req.Method),
	}
	if req.Card != nil {
		in.Card = &domain.CardDetails{
			Number: req.Card.Number,
			Name:   req.Card.Name,
			Expiry: req.Card.Expiry,
			CVV:    req.Card.CVV,
		}
	}

	topUp, err := h.topUpService.TopUp(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	code := http.StatusOK
	if topUp.Status == domain.TopUpStatusAwaitingConfirmation {
		code = http.StatusAccepted
	}
	respondJSON(c, code, newTopUpResponse(topUp))
}

// ConfirmPix handles POST /v1/wallet/topup/pix/:code/confirm
func (h *WalletHandler) ConfirmPix(c *gin.Context) {
	topUp, err := h.topUpService.ConfirmPix(c.Request.Context(), c.Param("code"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newTopUpResponse(topUp))
}
