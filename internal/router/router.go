package router

import (
	"github.com/gin-gonic/gin"

	"github.com/pageza/macrosync/backend/internal/api"
	"github.com/pageza/macrosync/backend/internal/middleware"
)

// Options configures the engine built by SetupRouter
type Options struct {
	AllowedOrigins []string
	// RateLimiter is optional; without Redis requests are not limited
	RateLimiter  *middleware.RateLimiter
	AIConfigured bool
}

// SetupRouter configures the middleware chain and the application routes
func SetupRouter(svc api.Nutrition, opts Options) *gin.Engine {
	router := gin.New()

	router.Use(
		middleware.RequestID(),
		middleware.AccessLog(),
		middleware.Recovery(),
		middleware.CORS(opts.AllowedOrigins),
	)
	if opts.RateLimiter != nil {
		router.Use(opts.RateLimiter.RateLimitMiddleware())
	}

	api.NewHandler(svc, opts.AIConfigured).RegisterRoutes(router)
	return router
}
