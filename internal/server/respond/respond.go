// Package respond defines the JSON error envelope shared by all HTTP
// handlers and middleware.
package respond

import "github.com/gin-gonic/gin"

// Stable machine-readable error codes.
const (
	CodeInvalidInput       = "invalid_input"
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeDuplicatePhone     = "phone_already_registered"
	CodeInvalidCode        = "invalid_code"
	CodeCodeExpired        = "code_expired"
	CodeAttemptsExhausted  = "attempts_exhausted"
	CodeRateLimited        = "rate_limited"
	CodeInternal           = "internal_error"
)

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error writes the error envelope with the given HTTP status and aborts the
// gin chain.
func Error(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{"error": ErrorBody{Code: code, Message: message}})
}
