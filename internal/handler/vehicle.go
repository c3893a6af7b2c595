package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campuspark/internal/domain"
	"campuspark/internal/service"
)

// VehicleHandler handles HTTP requests for the vehicle profile.
type VehicleHandler struct {
	vehicleService *service.VehicleService
}

// NewVehicleHandler creates a new VehicleHandler.
func NewVehicleHandler(vehicleService *service.VehicleService) *VehicleHandler {
	return &VehicleHandler{vehicleService: vehicleService}
}

// UpdateVehicleRequest is the HTTP request body for updating the vehicle.
type UpdateVehicleRequest struct {
	Plate string `json:"plate"`
	Model string `json:"model"`
	Color string `json:"color"`
}

// Get handles GET /v1/vehicle
func (h *VehicleHandler) Get(c *gin.Context) {
	vehicle, err := h.vehicleService.Get(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, vehicle)
}

// Update handles PUT /v1/vehicle
func (h *VehicleHandler) Update(c *gin.Context) {
	var req UpdateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondJSON(c, http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	vehicle, err := h.vehicleService.Save(c.Request.Context(), domain.Vehicle{
		Plate: req.Plate,
		Model: req.Model,
		Color: req.Color,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, vehicle)
}
