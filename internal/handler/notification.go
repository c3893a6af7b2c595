package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"campuspark/internal/service"
)

// NotificationHandler serves the in-app notification inbox.
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// Drain handles GET /v1/notifications. Returned notifications are removed
// from the inbox.
func (h *NotificationHandler) Drain(c *gin.Context) {
	respondJSON(c, http.StatusOK, h.notificationService.Drain())
}
