package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/macrosync/backend/internal/model"
	"github.com/pageza/macrosync/backend/internal/service"
)

// SuggestWorkout returns the cached or freshly generated workout
func (h *Handler) SuggestWorkout(c *gin.Context) {
	var req service.WorkoutRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.Macros.Validate(); err != nil {
		badRequest(c, err)
		return
	}

	c.JSON(http.StatusOK, h.svc.Workout(c.Request.Context(), req))
}

// GetMealPlan returns the plan for a calendar day
func (h *Handler) GetMealPlan(c *gin.Context) {
	var req service.MealPlanRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.svc.MealPlan(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDate) {
			badRequest(c, err)
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to load meal plan"})
		return
	}
	c.JSON(http.StatusOK, res)
}

// SwapMealRequest is the optional body of a swap
type SwapMealRequest struct {
	Preference     string `json:"preference"`
	PlanPreference string `json:"planPreference"`
}

// SwapMeal regenerates one slot of a day's plan
func (h *Handler) SwapMeal(c *gin.Context) {
	slot, err := model.ParseSlot(c.Param("slot"))
	if err != nil {
		badRequest(c, err)
		return
	}

	var body SwapMealRequest
	if err := bindOptionalJSON(c, &body); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.svc.SwapMeal(c.Request.Context(), service.SwapRequest{
		Date:       c.Param("date"),
		Slot:       slot,
		Preference:     body.Preference,
		PlanPreference: body.PlanPreference,
	})
	if err != nil {
		if errors.Is(err, service.ErrInvalidDate) {
			badRequest(c, err)
			return
		}
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "failed to swap meal"})
		return
	}
	c.JSON(http.StatusOK, res)
}
