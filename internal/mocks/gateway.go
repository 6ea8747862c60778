package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/macrosync/backend/internal/model"
)

// MockGateway is a mock implementation of the AI gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) RequestFoodAnalysis(ctx context.Context, image []byte) (*model.FoodAnalysis, error) {
	args := m.Called(ctx, image)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.FoodAnalysis), args.Error(1)
}

func (m *MockGateway) RequestWorkout(ctx context.Context, macros model.MacroProfile, goal string) (*model.Workout, error) {
	args := m.Called(ctx, macros, goal)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Workout), args.Error(1)
}

func (m *MockGateway) RequestMealPlan(ctx context.Context, preference string) (*model.MealPlan, error) {
	args := m.Called(ctx, preference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.MealPlan), args.Error(1)
}

func (m *MockGateway) RequestMeal(ctx context.Context, slot model.Slot, preference, replacing string) (*model.Meal, error) {
	args := m.Called(ctx, slot, preference, replacing)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Meal), args.Error(1)
}
