package model

import (
	"errors"
	"fmt"
	"strings"
)

// FoodAnalysis is the estimate produced from a single captured frame. It is
// never cached.
type FoodAnalysis struct {
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
	// Confidence is nil when the backend did not report one.
	Confidence *float64 `json:"confidence,omitempty"`
}

// Validate checks the estimate is complete and in range.
func (f FoodAnalysis) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return errors.New("food name is empty")
	}
	if err := nonNegative(
		field{"calories", f.Calories},
		field{"protein", f.Protein},
		field{"carbs", f.Carbs},
		field{"fats", f.Fats},
	); err != nil {
		return err
	}
	if f.Confidence != nil && (*f.Confidence < 0 || *f.Confidence > 1) {
		return fmt.Errorf("confidence %v outside [0,1]", *f.Confidence)
	}
	return nil
}
