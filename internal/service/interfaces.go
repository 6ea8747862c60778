package service

import (
	"context"

	"github.com/pageza/macrosync/backend/internal/model"
)

// Gateway issues structured requests to the generative backend. Every
// method returns a fully validated value or a classified *aierr.Error.
type Gateway interface {
	RequestFoodAnalysis(ctx context.Context, image []byte) (*model.FoodAnalysis, error)
	RequestWorkout(ctx context.Context, macros model.MacroProfile, goal string) (*model.Workout, error)
	RequestMealPlan(ctx context.Context, preference string) (*model.MealPlan, error)
	RequestMeal(ctx context.Context, slot model.Slot, preference, replacing string) (*model.Meal, error)
}
