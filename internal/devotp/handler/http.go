// Package handler implements the dev-only OTP retrieval endpoint. Only
// registered when dev OTP mode is enabled and the environment is not
// production.
package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"carelink/backend/internal/devotp"
	"carelink/backend/internal/phone"
	"carelink/backend/internal/server/respond"
)

const devOTPNote = "DEV MODE ONLY"

// HTTPHandler serves GET /v1/dev/otp.
type HTTPHandler struct {
	store devotp.Store
}

// NewHTTPHandler returns a handler that reads codes from the given store.
func NewHTTPHandler(store devotp.Store) *HTTPHandler {
	return &HTTPHandler{store: store}
}

// GetOTP returns the plain code for the given phone from the dev store.
// Returns 404 if missing or expired.
func (h *HTTPHandler) GetOTP(c *gin.Context) {
	raw := c.Query("phone")
	if raw == "" {
		respond.Error(c, http.StatusBadRequest, respond.CodeInvalidInput, "phone is required")
		return
	}
	canonical, err := phone.Normalize(raw)
	if err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeInvalidInput, err.Error())
		return
	}
	code, ok := h.store.Get(c.Request.Context(), canonical)
	if !ok {
		respond.Error(c, http.StatusNotFound, respond.CodeNotFound, "code not found or expired")
		return
	}
	c.JSON(http.StatusOK, gin.H{"otp": code, "note": devOTPNote})
}
