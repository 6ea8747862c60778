package model

import (
	"errors"
	"fmt"
	"strings"
)

// Intensity is the effort level of a suggested workout.
type Intensity string

const (
	IntensityLow      Intensity = "low"
	IntensityModerate Intensity = "moderate"
	IntensityHigh     Intensity = "high"
)

// Intensities lists every accepted intensity value.
var Intensities = []Intensity{IntensityLow, IntensityModerate, IntensityHigh}

// ParseIntensity accepts any casing of a known intensity.
func ParseIntensity(s string) (Intensity, error) {
	v := Intensity(strings.ToLower(strings.TrimSpace(s)))
	for _, i := range Intensities {
		if v == i {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown intensity %q", s)
}

// Workout is a single training suggestion.
type Workout struct {
	Name            string    `json:"name" yaml:"name"`
	DurationMinutes float64   `json:"durationMinutes" yaml:"durationMinutes"`
	CaloriesBurned  float64   `json:"caloriesBurned" yaml:"caloriesBurned"`
	Intensity       Intensity `json:"intensity" yaml:"intensity"`
	Reason          string    `json:"reason" yaml:"reason"`
}

// Validate checks that every field carries a usable value.
func (w Workout) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return errors.New("workout name is empty")
	}
	if w.DurationMinutes <= 0 {
		return fmt.Errorf("workout duration must be positive, got %v", w.DurationMinutes)
	}
	if w.CaloriesBurned < 0 {
		return fmt.Errorf("workout calories must not be negative, got %v", w.CaloriesBurned)
	}
	if _, err := ParseIntensity(string(w.Intensity)); err != nil {
		return err
	}
	if strings.TrimSpace(w.Reason) == "" {
		return errors.New("workout reason is empty")
	}
	return nil
}
