// Package handler exposes staff-facing patient listings over HTTP.
package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"carelink/backend/internal/patient/domain"
	"carelink/backend/internal/server/respond"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// Lister is the slice of the patient store the listing endpoints consume.
type Lister interface {
	List(ctx context.Context, limit, offset int) ([]*domain.Patient, error)
}

// HTTPHandler serves the role-gated patient list endpoints.
type HTTPHandler struct {
	patients Lister
}

func NewHTTPHandler(patients Lister) *HTTPHandler {
	return &HTTPHandler{patients: patients}
}

type listItem struct {
	ID          string `json:"id"`
	Phone       string `json:"phone"`
	Role        string `json:"role"`
	FullName    string `json:"full_name,omitempty"`
	DateOfBirth string `json:"date_of_birth,omitempty"`
	Status      string `json:"status"`
}

// List handles GET /v1/admin/patients and GET /v1/doctor/patients. Role
// checks happen in middleware; both routes serve the same listing.
func (h *HTTPHandler) List(c *gin.Context) {
	limit := queryInt(c, "limit", defaultPageSize)
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	patients, err := h.patients.List(c.Request.Context(), limit, offset)
	if err != nil {
		log.Printf("patient: list failed: %v", err)
		respond.Error(c, http.StatusInternalServerError, respond.CodeInternal, "internal error")
		return
	}

	items := make([]listItem, 0, len(patients))
	for _, p := range patients {
		item := listItem{
			ID:       p.ID,
			Phone:    p.Phone,
			Role:     string(p.Role),
			FullName: p.FullName,
			Status:   string(p.Status),
		}
		if p.DateOfBirth != nil {
			item.DateOfBirth = p.DateOfBirth.Format("2006-01-02")
		}
		items = append(items, item)
	}
	c.JSON(http.StatusOK, gin.H{"patients": items, "limit": limit, "offset": offset})
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
