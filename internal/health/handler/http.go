// Package handler implements the readiness/liveness endpoint.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger checks reachability of a backing store.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PolicyChecker verifies the policy engine can evaluate.
type PolicyChecker interface {
	HealthCheck(ctx context.Context) error
}

const checkTimeout = 2 * time.Second

// HTTPHandler serves GET /healthz for Kubernetes, load balancers, and CI.
type HTTPHandler struct {
	db     Pinger
	policy PolicyChecker
}

// NewHTTPHandler returns a health handler. Either dependency may be nil; a
// nil check is reported as "skipped".
func NewHTTPHandler(db Pinger, policy PolicyChecker) *HTTPHandler {
	return &HTTPHandler{db: db, policy: policy}
}

// Healthz reports overall status plus per-check detail. 200 when every
// configured check passes, 503 otherwise.
func (h *HTTPHandler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
	defer cancel()

	checks := gin.H{}
	healthy := true

	if h.db != nil {
		if err := h.db.PingContext(ctx); err != nil {
			checks["database"] = "unreachable"
			healthy = false
		} else {
			checks["database"] = "ok"
		}
	} else {
		checks["database"] = "skipped"
	}

	if h.policy != nil {
		if err := h.policy.HealthCheck(ctx); err != nil {
			checks["policy"] = "failed"
			healthy = false
		} else {
			checks["policy"] = "ok"
		}
	} else {
		checks["policy"] = "skipped"
	}

	status := http.StatusOK
	overall := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		overall = "degraded"
	}
	c.JSON(status, gin.H{"status": overall, "checks": checks})
}
