// Package router wires the HTTP route table.
package router

import (
	"github.com/gin-gonic/gin"

	authhandler "auth_backend/internal/feature/auth/transport/handler"
	platformhandler "auth_backend/internal/platform/http/handler"
	jwtmw "auth_backend/internal/platform/jwt"
	"auth_backend/internal/shared/ratelimiter"
)

// New builds the gin engine with all routes registered.
// limiter may be nil when Redis is unavailable; the auth routes then run
// without throttling.
func New(auth *authhandler.AuthHandler, issuer *jwtmw.Issuer, limiter *ratelimiter.Limiter) *gin.Engine {
	r := gin.Default()

	// Liveness probe, no auth.
	r.GET("/healthz", platformhandler.Health)

	// Public auth endpoints, throttled per client IP.
	public := r.Group("/auth")
	public.Use(ratelimiter.Middleware(limiter))
	{
		public.POST("/register", auth.Register)
		public.POST("/verify", auth.Verify)
		public.POST("/login", auth.Login)
	}

	// Routes below require a bearer session token.
	protected := r.Group("/auth")
	protected.Use(jwtmw.AuthRequired(issuer))
	{
		protected.GET("/me", auth.Me)
	}

	return r
}
