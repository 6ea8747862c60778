package service

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/pageza/macrosync/backend/internal/model"
)

//go:embed fallbacks.yaml
var fallbacksYAML []byte

// Fallbacks is the static content served when the backend fails.
type Fallbacks struct {
	Workout  model.Workout  `yaml:"workout"`
	MealPlan model.MealPlan `yaml:"mealPlan"`
}

// Validate checks that the fallback content is complete.
func (f Fallbacks) Validate() error {
	if err := f.Workout.Validate(); err != nil {
		return fmt.Errorf("fallback workout: %w", err)
	}
	if err := f.MealPlan.Validate(); err != nil {
		return fmt.Errorf("fallback meal plan: %w", err)
	}
	return nil
}

// ParseFallbacks decodes and validates a fallback catalogue.
func ParseFallbacks(data []byte) (Fallbacks, error) {
	var f Fallbacks
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Fallbacks{}, fmt.Errorf("failed to parse fallbacks: %w", err)
	}
	if err := f.Validate(); err != nil {
		return Fallbacks{}, err
	}
	return f, nil
}

// DefaultFallbacks returns the embedded catalogue.
func DefaultFallbacks() Fallbacks {
	f, err := ParseFallbacks(fallbacksYAML)
	if err != nil {
		panic(err)
	}
	return f
}
