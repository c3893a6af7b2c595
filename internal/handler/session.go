package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"campuspark/internal/service"
)

// SessionHandler handles HTTP requests for the parking session.
type SessionHandler struct {
	parkingService *service.ParkingService
	defaultMinutes int
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(parkingService *service.ParkingService, defaultMinutes int) *SessionHandler {
	return &SessionHandler{parkingService: parkingService, defaultMinutes: defaultMinutes}
}

// StartSessionRequest is the HTTP request body for starting a session.
// Minutes is the text typed by the user; it is validated by the session.
type StartSessionRequest struct {
	Minutes *string `json:"minutes"`
}

// Get handles GET /v1/session
func (h *SessionHandler) Get(c *gin.Context) {
	respondJSON(c, http.StatusOK, h.parkingService.Session())
}

// Start handles POST /v1/session/start
func (h *SessionHandler) Start(c *gin.Context) {
	var req StartSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
			return
		}
	}

	minutes := strconv.Itoa(h.defaultMinutes)
	if req.Minutes != nil {
		minutes = *req.Minutes
	}

	view, err := h.parkingService.StartSession(c.Request.Context(), minutes)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, view)
}

// Stop handles POST /v1/session/stop
func (h *SessionHandler) Stop(c *gin.Context) {
	pending, err := h.parkingService.StopSession(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, newPendingSettlementResponse(pending))
}

// AddTime handles POST /v1/session/add-time
func (h *SessionHandler) AddTime(c *gin.Context) {
	view, err := h.parkingService.AddTime(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, view)
}
