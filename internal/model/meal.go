package model

import (
	"errors"
	"fmt"
	"strings"
)

// Slot is one of the four fixed meal-plan positions.
type Slot string

const (
	SlotBreakfast Slot = "breakfast"
	SlotLunch     Slot = "lunch"
	SlotDinner    Slot = "dinner"
	SlotSnack     Slot = "snack"
)

// Slots is the fixed slot order of every MealPlan.
var Slots = []Slot{SlotBreakfast, SlotLunch, SlotDinner, SlotSnack}

// ParseSlot accepts any casing of a known slot name.
func ParseSlot(s string) (Slot, error) {
	v := Slot(strings.ToLower(strings.TrimSpace(s)))
	for _, slot := range Slots {
		if v == slot {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown meal slot %q", s)
}

// Meal is one dish of a plan.
type Meal struct {
	Name                string   `json:"name" yaml:"name"`
	Kcal                float64  `json:"kcal" yaml:"kcal"`
	Protein             float64  `json:"protein" yaml:"protein"`
	Carbs               float64  `json:"carbs" yaml:"carbs"`
	Fats                float64  `json:"fats" yaml:"fats"`
	ImagePromptKeywords string   `json:"imagePromptKeywords" yaml:"imagePromptKeywords"`
	PreparationSteps    []string `json:"preparationSteps" yaml:"preparationSteps"`
	Customizations      []string `json:"customizations" yaml:"customizations"`
}

// Validate checks that the meal is fully populated.
func (m Meal) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return errors.New("meal name is empty")
	}
	if err := nonNegative(
		field{"kcal", m.Kcal},
		field{"protein", m.Protein},
		field{"carbs", m.Carbs},
		field{"fats", m.Fats},
	); err != nil {
		return err
	}
	if len(m.PreparationSteps) == 0 {
		return fmt.Errorf("meal %q has no preparation steps", m.Name)
	}
	if len(m.Customizations) == 0 {
		return fmt.Errorf("meal %q has no customizations", m.Name)
	}
	return nil
}

// MealPlan is one day of meals. All four slots are always present.
type MealPlan struct {
	Breakfast Meal `json:"breakfast" yaml:"breakfast"`
	Lunch     Meal `json:"lunch" yaml:"lunch"`
	Dinner    Meal `json:"dinner" yaml:"dinner"`
	Snack     Meal `json:"snack" yaml:"snack"`
}

// Meal returns the meal in the given slot.
func (p MealPlan) Meal(slot Slot) (Meal, bool) {
	switch slot {
	case SlotBreakfast:
		return p.Breakfast, true
	case SlotLunch:
		return p.Lunch, true
	case SlotDinner:
		return p.Dinner, true
	case SlotSnack:
		return p.Snack, true
	}
	return Meal{}, false
}

// WithMeal returns a copy of the plan with one slot replaced.
func (p MealPlan) WithMeal(slot Slot, meal Meal) (MealPlan, error) {
	switch slot {
	case SlotBreakfast:
		p.Breakfast = meal
	case SlotLunch:
		p.Lunch = meal
	case SlotDinner:
		p.Dinner = meal
	case SlotSnack:
		p.Snack = meal
	default:
		return p, fmt.Errorf("unknown meal slot %q", slot)
	}
	return p, nil
}

// Each calls fn for every slot in slot order.
func (p MealPlan) Each(fn func(Slot, Meal)) {
	for _, slot := range Slots {
		meal, _ := p.Meal(slot)
		fn(slot, meal)
	}
}

// Totals sums the macros of the four meals.
func (p MealPlan) Totals() MacroProfile {
	var t MacroProfile
	p.Each(func(_ Slot, m Meal) {
		t.Calories += m.Kcal
		t.Protein += m.Protein
		t.Carbs += m.Carbs
		t.Fats += m.Fats
	})
	return t
}

// Validate checks every slot.
func (p MealPlan) Validate() error {
	for _, slot := range Slots {
		meal, _ := p.Meal(slot)
		if err := meal.Validate(); err != nil {
			return fmt.Errorf("%s: %w", slot, err)
		}
	}
	return nil
}
