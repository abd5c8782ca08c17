package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"carelink/backend/internal/audit"
)

// Audit returns middleware that records an audit event after the handler
// completes. Failed requests are recorded too, with the HTTP status in the
// metadata, so rejected logins leave a trace. The client IP is stashed in
// the request context for the audit logger's IP extractor.
func Audit(logger audit.AuditLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithClientIP(c.Request.Context(), c.ClientIP())
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		route := c.FullPath()
		if route == "" {
			// Unmatched route, nothing meaningful to record.
			return
		}
		ar := audit.ParseRoute(c.Request.Method, route)

		userID := ""
		if sess, ok := GetSession(c.Request.Context()); ok {
			userID = sess.SubjectID
		}
		meta := fmt.Sprintf(`{"status":%d}`, c.Writer.Status())
		logger.LogEvent(c.Request.Context(), userID, ar.Action, ar.Resource, meta)
	}
}
