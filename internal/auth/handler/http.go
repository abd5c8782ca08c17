// Package handler exposes the auth service over HTTP.
package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"carelink/backend/internal/auth"
	"carelink/backend/internal/otp"
	"carelink/backend/internal/patient/domain"
	patientrepo "carelink/backend/internal/patient/repository"
	"carelink/backend/internal/phone"
	"carelink/backend/internal/server/middleware"
	"carelink/backend/internal/server/respond"
)

// HTTPHandler serves the /v1/auth endpoints.
type HTTPHandler struct {
	svc    *auth.Service
	ledger *otp.Ledger
}

func NewHTTPHandler(svc *auth.Service, ledger *otp.Ledger) *HTTPHandler {
	return &HTTPHandler{svc: svc, ledger: ledger}
}

type registerRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
	FullName string `json:"full_name"`
}

type otpRequestRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type otpVerifyRequest struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

type sessionResponse struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	User      patientResponse `json:"user"`
}

type patientResponse struct {
	ID          string `json:"id"`
	Phone       string `json:"phone"`
	Role        string `json:"role"`
	FullName    string `json:"full_name,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
}

// Register handles POST /v1/auth/register.
func (h *HTTPHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeInvalidInput, "phone and password are required")
		return
	}
	sess, err := h.svc.Register(c.Request.Context(), auth.RegisterInput{
		Phone:    req.Phone,
		Password: req.Password,
		FullName: req.FullName,
	})
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toSessionResponse(sess))
}

// RequestOTP handles POST /v1/auth/otp/request. The response does not reveal
// whether an account exists for the number.
func (h *HTTPHandler) RequestOTP(c *gin.Context) {
	var req otpRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeInvalidInput, "phone is required")
		return
	}
	if _, err := h.ledger.Request(c.Request.Context(), req.Phone); err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "code sent"})
}

// VerifyOTP handles POST /v1/auth/otp/verify.
func (h *HTTPHandler) VerifyOTP(c *gin.Context) {
	var req otpVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeInvalidInput, "phone and code are required")
		return
	}
	sess, err := h.svc.LoginWithOTP(c.Request.Context(), req.Phone, req.Code)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSessionResponse(sess))
}

// Logout handles POST /v1/auth/logout. Requires a valid session; the session
// is revoked until the token's natural expiry.
func (h *HTTPHandler) Logout(c *gin.Context) {
	sess, ok := middleware.GetSession(c.Request.Context())
	if !ok {
		respond.Error(c, http.StatusUnauthorized, respond.CodeUnauthorized, "missing or invalid authorization")
		return
	}
	if err := h.svc.Logout(c.Request.Context(), sess.SessionID, sess.ExpiresAt); err != nil {
		log.Printf("auth: logout failed for session %s: %v", sess.SessionID, err)
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "logout failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

type profileUpdateRequest struct {
	FullName    *string `json:"full_name"`
	DateOfBirth *string `json:"date_of_birth"` // YYYY-MM-DD
}

// Profile handles GET /v1/profile.
func (h *HTTPHandler) Profile(c *gin.Context) {
	sess, ok := middleware.GetSession(c.Request.Context())
	if !ok {
		respond.Error(c, http.StatusUnauthorized, respond.CodeUnauthorized, "missing or invalid authorization")
		return
	}
	p, err := h.svc.Profile(c.Request.Context(), sess.SubjectID)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPatientResponse(p))
}

// UpdateProfile handles PUT /v1/profile.
func (h *HTTPHandler) UpdateProfile(c *gin.Context) {
	sess, ok := middleware.GetSession(c.Request.Context())
	if !ok {
		respond.Error(c, http.StatusUnauthorized, respond.CodeUnauthorized, "missing or invalid authorization")
		return
	}
	var req profileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, respond.CodeInvalidInput, "malformed profile body")
		return
	}
	upd := domain.ProfileUpdate{FullName: req.FullName}
	if req.DateOfBirth != nil {
		dob, err := time.Parse("2006-01-02", *req.DateOfBirth)
		if err != nil {
			respond.Error(c, http.StatusBadRequest, respond.CodeInvalidInput, "date_of_birth must be YYYY-MM-DD")
			return
		}
		upd.DateOfBirth = &dob
	}
	p, err := h.svc.UpdateProfile(c.Request.Context(), sess.SubjectID, upd)
	if err != nil {
		writeAuthError(c, err)
		return
	}
	c.JSON(http.StatusOK, toPatientResponse(p))
}

// writeAuthError maps service and ledger errors to HTTP responses.
func writeAuthError(c *gin.Context, err error) {
	var phoneErr *phone.ValidationError
	var inputErr *auth.ValidationError
	var limited *otp.RateLimitedError
	switch {
	case errors.As(err, &phoneErr):
		respond.Error(c, http.StatusBadRequest, respond.CodeInvalidInput, phoneErr.Error())
	case errors.As(err, &inputErr):
		respond.Error(c, http.StatusBadRequest, respond.CodeInvalidInput, inputErr.Error())
	case errors.As(err, &limited):
		seconds := int64(limited.RetryAfter / time.Second)
		if limited.RetryAfter%time.Second != 0 {
			seconds++
		}
		if seconds < 1 {
			seconds = 1
		}
		c.Header("Retry-After", strconv.FormatInt(seconds, 10))
		respond.Error(c, http.StatusTooManyRequests, respond.CodeRateLimited, "too many requests, retry later")
	case errors.Is(err, auth.ErrPhoneAlreadyRegistered), errors.Is(err, patientrepo.ErrDuplicatePhone):
		respond.Error(c, http.StatusConflict, respond.CodeDuplicatePhone, "an account already exists for this phone number")
	case errors.Is(err, otp.ErrInvalidCode):
		respond.Error(c, http.StatusUnauthorized, respond.CodeInvalidCode, "invalid code")
	case errors.Is(err, otp.ErrExpired):
		respond.Error(c, http.StatusUnauthorized, respond.CodeCodeExpired, "code expired or not found")
	case errors.Is(err, otp.ErrAttemptsExhausted):
		respond.Error(c, http.StatusUnauthorized, respond.CodeAttemptsExhausted, "too many failed attempts, request a new code")
	case errors.Is(err, auth.ErrAccountNotFound):
		respond.Error(c, http.StatusBadRequest, respond.CodeInvalidInput, "no account for this phone number")
	case errors.Is(err, auth.ErrAccountDisabled):
		respond.Error(c, http.StatusForbidden, respond.CodeForbidden, "account disabled")
	default:
		log.Printf("auth: unexpected error: %v", err)
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "internal error")
	}
}

func toSessionResponse(sess *auth.Session) sessionResponse {
	return sessionResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		User:      toPatientResponse(sess.Patient),
	}
}

func toPatientResponse(p *domain.Patient) patientResponse {
	out := patientResponse{
		ID:       p.ID,
		Phone:    p.Phone,
		Role:     string(p.Role),
		FullName: p.FullName,
	}
	if p.DateOfBirth != nil {
		out.DateOfBirth = p.DateOfBirth.Format("2006-01-02")
	}
	return out
}
