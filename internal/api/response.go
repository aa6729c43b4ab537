package api

import (
	"errors"
	"net/http"

	"storefront/internal/service"
	"storefront/internal/store"

	"github.com/gin-gonic/gin"
)

// ActionResult is the uniform envelope returned by every mutating
// endpoint; callers check Success instead of relying on status alone.
type ActionResult struct {
	Success     bool                `json:"success"`
	Message     string              `json:"message,omitempty"`
	FieldErrors map[string][]string `json:"fieldErrors,omitempty"`
	Token       string              `json:"token,omitempty"`
	OrderID     int64               `json:"order_id,omitempty"`
}

// respondError maps the service error taxonomy onto the envelope:
// validation errors carry per-field messages, not-found and auth get
// their status codes, business errors pass their message through, and
// anything unexpected becomes a generic 500.
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, ActionResult{
			Success:     false,
			FieldErrors: verr.Fields,
		})
		return
	}

	var invErr *store.InsufficientInventoryError
	if errors.As(err, &invErr) {
		c.JSON(http.StatusConflict, ActionResult{
			Success: false,
			Message: "Sorry, " + invErr.Error(),
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, ActionResult{
			Success: false,
			Message: "Invalid credentials",
		})
	case service.IsNotFound(err):
		c.JSON(http.StatusNotFound, ActionResult{
			Success: false,
			Message: "Not found",
		})
	case errors.Is(err, service.ErrEmptyCart):
		c.JSON(http.StatusBadRequest, ActionResult{
			Success: false,
			Message: "Your cart is empty",
		})
	case errors.Is(err, service.ErrOutOfStock):
		c.JSON(http.StatusConflict, ActionResult{
			Success: false,
			Message: "This product is out of stock",
		})
	case errors.Is(err, service.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, ActionResult{
			Success: false,
			Message: "An account with this email already exists",
		})
	case service.IsDuplicate(err):
		c.JSON(http.StatusConflict, ActionResult{
			Success: false,
			Message: "A record with this slug already exists",
		})
	default:
		c.JSON(http.StatusInternalServerError, ActionResult{
			Success: false,
			Message: "Something went wrong. Please try again.",
		})
	}
}
