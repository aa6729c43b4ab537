package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/service"
	"storefront/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name string
		err  error
		code int
	}{
		{"unauthorized", service.ErrUnauthorized, http.StatusUnauthorized},
		{"empty cart", service.ErrEmptyCart, http.StatusBadRequest},
		{"out of stock", fmt.Errorf("widget: %w", service.ErrOutOfStock), http.StatusConflict},
		{"duplicate email", service.ErrDuplicateEmail, http.StatusConflict},
		{"not found", fmt.Errorf("order 9: %w", store.ErrNotFound), http.StatusNotFound},
		{"duplicate slug", fmt.Errorf("slug %q: %w", "gizmo", store.ErrDuplicate), http.StatusConflict},
		{"insufficient inventory", &store.InsufficientInventoryError{
			ProductName: "widget", Available: 1, Requested: 2,
		}, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			respondError(c, tc.err)
			assert.Equal(t, tc.code, w.Code)

			var result ActionResult
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
			assert.False(t, result.Success)
		})
	}
}

func TestRespondErrorValidation(t *testing.T) {
	gin.SetMode(gin.TestMode)

	verr := service.NewValidationError()
	verr.Add("email", "Please enter a valid email address")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respondError(c, verr)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var result ActionResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.False(t, result.Success)
	assert.Contains(t, result.FieldErrors, "email")
}
