// Package server assembles the HTTP router: routes, rate limit classes,
// auth requirements, and tracing/audit middleware.
package server

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"carelink/backend/internal/accesspolicy"
	"carelink/backend/internal/audit"
	authhandler "carelink/backend/internal/auth/handler"
	devhandler "carelink/backend/internal/devotp/handler"
	healthhandler "carelink/backend/internal/health/handler"
	patienthandler "carelink/backend/internal/patient/handler"
	"carelink/backend/internal/ratelimit"
	"carelink/backend/internal/revocation"
	"carelink/backend/internal/security"
	"carelink/backend/internal/server/middleware"
)

// Deps carries everything the router needs. Dev is optional; when nil the
// dev OTP endpoint is not registered.
type Deps struct {
	ServiceName string

	Auth     *authhandler.HTTPHandler
	Patients *patienthandler.HTTPHandler
	Health   *healthhandler.HTTPHandler
	Dev      *devhandler.HTTPHandler

	Tokens      *security.TokenProvider
	Revocations revocation.Registry
	Policy      accesspolicy.Evaluator
	Limiter     ratelimit.Limiter
	Audit       audit.AuditLogger
}

// NewRouter builds the gin engine with all routes registered.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(d.ServiceName))
	r.Use(middleware.Audit(d.Audit))

	r.GET("/healthz", d.Health.Healthz)

	authed := func(roles ...string) gin.HandlerFunc {
		return middleware.RequireAuth(d.Tokens, d.Revocations, d.Policy, roles...)
	}
	limited := func(class ratelimit.Class) gin.HandlerFunc {
		return middleware.RateLimit(d.Limiter, class)
	}

	v1 := r.Group("/v1")
	{
		authGroup := v1.Group("/auth")
		authGroup.POST("/register", limited(ratelimit.ClassRegister), d.Auth.Register)
		authGroup.POST("/otp/request", limited(ratelimit.ClassOTPRequest), d.Auth.RequestOTP)
		authGroup.POST("/otp/verify", limited(ratelimit.ClassOTPVerify), d.Auth.VerifyOTP)
		authGroup.POST("/logout", authed(), d.Auth.Logout)

		v1.GET("/profile", authed(), d.Auth.Profile)
		v1.PUT("/profile", authed(), limited(ratelimit.ClassMutation), d.Auth.UpdateProfile)

		v1.GET("/admin/patients", authed("admin", "staff"), d.Patients.List)
		v1.GET("/doctor/patients", authed("doctor", "admin"), d.Patients.List)

		if d.Dev != nil {
			v1.GET("/dev/otp", d.Dev.GetOTP)
		}
	}

	return r
}
