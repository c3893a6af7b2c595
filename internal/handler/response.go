package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"campuspark/internal/domain"
	"campuspark/internal/repository"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps error categories to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, domain.ErrInputValidation),
		errors.Is(err, domain.ErrNoSelection):
		return http.StatusBadRequest

	// State conflicts
	case errors.Is(err, domain.ErrNoActiveSession),
		errors.Is(err, domain.ErrConflict):
		return http.StatusConflict

	// Explicit refusal
	case errors.Is(err, domain.ErrPaymentDeclined):
		return http.StatusPaymentRequired

	// Fallback exhausted
	case errors.Is(err, domain.ErrPaymentUnavailable),
		errors.Is(err, domain.ErrRemoteService):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

// errInvalidID is returned for non-numeric spot ids in the path.
var errInvalidID = fmt.Errorf("%w: invalid spot id", domain.ErrInputValidation)

func parseSpotID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errInvalidID
	}
	return id, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
