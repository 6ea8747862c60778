package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pageza/macrosync/backend/internal/aierr"
	"github.com/pageza/macrosync/backend/internal/cache"
	"github.com/pageza/macrosync/backend/internal/model"
	"github.com/pageza/macrosync/backend/internal/service"
)

// Nutrition is the service the handlers call
type Nutrition interface {
	Workout(ctx context.Context, req service.WorkoutRequest) service.WorkoutResult
	MealPlan(ctx context.Context, req service.MealPlanRequest) (service.MealPlanResult, error)
	SwapMeal(ctx context.Context, req service.SwapRequest) (service.SwapResult, error)
	AnalyzeFood(ctx context.Context, image []byte) (*model.FoodAnalysis, error)
	Stats() cache.Stats
}

// Handler serves the nutrition API
type Handler struct {
	svc          Nutrition
	aiConfigured bool
}

// NewHandler creates a new Handler
func NewHandler(svc Nutrition, aiConfigured bool) *Handler {
	return &Handler{svc: svc, aiConfigured: aiConfigured}
}

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error  string          `json:"error"`
	Notice *service.Notice `json:"notice,omitempty"`
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.HealthCheck)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/workouts/suggest", h.SuggestWorkout)

		plans := v1.Group("/meal-plans")
		{
			plans.POST("", h.GetMealPlan)
			plans.POST("/:date/slots/:slot/swap", h.SwapMeal)
		}

		v1.POST("/food/analyze", h.AnalyzeFood)
		v1.GET("/images/resolve", h.ResolveImage)
		v1.GET("/cache/stats", h.CacheStats)
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"aiConfigured": h.aiConfigured,
	})
}

// CacheStats returns the resilience cache counters
func (h *Handler) CacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Stats())
}

// bindOptionalJSON binds a JSON body when one was sent
func bindOptionalJSON(c *gin.Context, v any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
}

// writeGatewayError answers a failure that has no fallback content
func writeGatewayError(c *gin.Context, err error) {
	kind := aierr.Classify(err)
	zerolog.Ctx(c.Request.Context()).Warn().Err(err).Str("kind", string(kind)).Msg("request failed")
	c.JSON(kind.HTTPStatus(), ErrorResponse{
		Error:  kind.Message(),
		Notice: service.NoticeFor(kind),
	})
}
