package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campuspark/internal/service"
)

// SpotHandler handles HTTP requests for parking spots.
type SpotHandler struct {
	parkingService *service.ParkingService
}

// NewSpotHandler creates a new SpotHandler.
func NewSpotHandler(parkingService *service.ParkingService) *SpotHandler {
	return &SpotHandler{parkingService: parkingService}
}

// CreateSpotRequest is the HTTP request body for creating a spot.
type CreateSpotRequest struct {
	Lat   *float64 `json:"lat" binding:"required"`
	Lng   *float64 `json:"lng" binding:"required"`
	Title string   `json:"title"`
}

// NearbyQuery is the query string of GET /v1/spots/nearby.
type NearbyQuery struct {
	Lat      *float64 `form:"lat" binding:"required"`
	Lng      *float64 `form:"lng" binding:"required"`
	RadiusKm float64  `form:"radius_km"`
}

// ToggleHiddenResponse is the HTTP response of POST /v1/spots/:id/toggle-hidden.
type ToggleHiddenResponse struct {
	SpotID int64 `json:"spot_id"`
	Hidden bool  `json:"hidden"`
}

// GetAll handles GET /v1/spots
func (h *SpotHandler) GetAll(c *gin.Context) {
	respondJSON(c, http.StatusOK, h.parkingService.Spots())
}

// CreateSpot handles POST /v1/spots
func (h *SpotHandler) CreateSpot(c *gin.Context) {
	var req CreateSpotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	spot, err := h.parkingService.CreateSpot(c.Request.Context(), service.CreateSpotRequest{
		Lat:   *req.Lat,
		Lng:   *req.Lng,
		Title: req.Title,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, spot)
}

// Nearby handles GET /v1/spots/nearby
func (h *SpotHandler) Nearby(c *gin.Context) {
	var q NearbyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: "lat and lng are required"})
		return
	}

	spots, err := h.parkingService.NearbySpots(c.Request.Context(), *q.Lat, *q.Lng, q.RadiusKm)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, spots)
}

// Select handles POST /v1/spots/:id/select
func (h *SpotHandler) Select(c *gin.Context) {
	id, err := parseSpotID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	view, err := h.parkingService.SelectSpot(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, view)
}

// ToggleHidden handles POST /v1/spots/:id/toggle-hidden
func (h *SpotHandler) ToggleHidden(c *gin.Context) {
	id, err := parseSpotID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	hidden, err := h.parkingService.ToggleHidden(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, ToggleHiddenResponse{SpotID: id, Hidden: hidden})
}

// ShowAll handles POST /v1/spots/show-all
func (h *SpotHandler) ShowAll(c *gin.Context) {
	h.parkingService.ShowAllHidden(c.Request.Context())
	respondJSON(c, http.StatusOK, h.parkingService.Spots())
}
