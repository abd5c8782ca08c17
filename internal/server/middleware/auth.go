package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"carelink/backend/internal/accesspolicy"
	"carelink/backend/internal/revocation"
	"carelink/backend/internal/security"
	"carelink/backend/internal/server/respond"
)

const bearerPrefix = "bearer "

// unauthorizedMessage is deliberately the same for a missing, malformed,
// expired, or revoked token so the response does not reveal which check
// failed.
const unauthorizedMessage = "missing or invalid authorization"

// RequireAuth returns middleware that validates the Bearer token, rejects
// revoked sessions, and checks the subject's role against requiredRoles via
// the access policy. On success the session is stored in the request context
// for handlers. When the revocation backend cannot be reached the token is
// treated as unauthenticated, never let through.
func RequireAuth(tokens *security.TokenProvider, revocations revocation.Registry, policy accesspolicy.Evaluator, requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearer(c.GetHeader("Authorization"))
		if token == "" {
			respond.Error(c, http.StatusUnauthorized, respond.CodeUnauthorized, unauthorizedMessage)
			return
		}

		sess, err := tokens.Validate(token)
		if err != nil {
			respond.Error(c, http.StatusUnauthorized, respond.CodeUnauthorized, unauthorizedMessage)
			return
		}

		revoked, err := revocations.IsRevoked(c.Request.Context(), security.HashToken(sess.SessionID))
		if err != nil {
			log.Printf("auth: revocation check failed for session %s: %v", sess.SessionID, err)
			respond.Error(c, http.StatusUnauthorized, respond.CodeUnauthorized, unauthorizedMessage)
			return
		}
		if revoked {
			respond.Error(c, http.StatusUnauthorized, respond.CodeUnauthorized, unauthorizedMessage)
			return
		}

		decision, err := policy.Evaluate(c.Request.Context(), sess.Role, requiredRoles)
		if err != nil {
			log.Printf("auth: policy evaluation failed: %v", err)
			respond.Error(c, http.StatusForbidden, respond.CodeForbidden, "access denied")
			return
		}
		if !decision.Allowed {
			respond.Error(c, http.StatusForbidden, respond.CodeForbidden, "access denied")
			return
		}

		c.Request = c.Request.WithContext(WithSession(c.Request.Context(), sess))
		c.Next()
	}
}

// extractBearer returns the Bearer token from an Authorization header value,
// or "" if missing or malformed.
func extractBearer(header string) string {
	v := strings.TrimSpace(header)
	if len(v) < len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(v[len(bearerPrefix):])
}
