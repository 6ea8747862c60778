package service

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/generative-ai-go/genai"
)

// SchemaType names the JSON type a schema node accepts.
type SchemaType string

const (
	TypeObject  SchemaType = "object"
	TypeArray   SchemaType = "array"
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeInteger SchemaType = "integer"
	TypeBoolean SchemaType = "boolean"
)

// Schema declares the shape of a structured response. It is sent to the
// backend as the response schema and checked again locally, because
// backends do not always honor it.
type Schema struct {
	Type        SchemaType
	Description string
	Properties  map[string]*Schema
	Required    []string
	Items       *Schema
	Enum        []string
	MinItems    int
}

// Validate decodes raw and checks it against the schema.
func (s *Schema) Validate(raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return s.check("$", v)
}

func (s *Schema) check(path string, v any) error {
	if v == nil {
		return fmt.Errorf("%s: value is null", path)
	}
	switch s.Type {
	case TypeObject:
		obj, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: expected object, got %s", path, jsonType(v))
		}
		for _, name := range s.Required {
			if val, ok := obj[name]; !ok || val == nil {
				return fmt.Errorf("%s: missing required field %q", path, name)
			}
		}
		for _, name := range sortedKeys(s.Properties) {
			val, ok := obj[name]
			if !ok {
				continue
			}
			if val == nil && !s.requires(name) {
				continue
			}
			if err := s.Properties[name].check(path+"."+name, val); err != nil {
				return err
			}
		}
	case TypeArray:
		arr, ok := v.([]any)
		if !ok {
			return fmt.Errorf("%s: expected array, got %s", path, jsonType(v))
		}
		if len(arr) < s.MinItems {
			return fmt.Errorf("%s: expected at least %d items, got %d", path, s.MinItems, len(arr))
		}
		if s.Items != nil {
			for i, item := range arr {
				if err := s.Items.check(fmt.Sprintf("%s[%d]", path, i), item); err != nil {
					return err
				}
			}
		}
	case TypeString:
		str, ok := v.(string)
		if !ok {
			return fmt.Errorf("%s: expected string, got %s", path, jsonType(v))
		}
		if len(s.Enum) > 0 && !containsFold(s.Enum, str) {
			return fmt.Errorf("%s: %q is not one of %s", path, str, strings.Join(s.Enum, ", "))
		}
	case TypeNumber:
		if _, ok := v.(float64); !ok {
			return fmt.Errorf("%s: expected number, got %s", path, jsonType(v))
		}
	case TypeInteger:
		n, ok := v.(float64)
		if !ok || n != math.Trunc(n) {
			return fmt.Errorf("%s: expected integer, got %s", path, jsonType(v))
		}
	case TypeBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("%s: expected boolean, got %s", path, jsonType(v))
		}
	default:
		return fmt.Errorf("%s: unsupported schema type %q", path, s.Type)
	}
	return nil
}

func (s *Schema) requires(name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

// GenAI converts the schema into the form the Gemini API expects.
func (s *Schema) GenAI() *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{
		Type:        genaiType(s.Type),
		Description: s.Description,
		Required:    s.Required,
		Items:       s.Items.GenAI(),
	}
	if len(s.Enum) > 0 {
		out.Format = "enum"
		out.Enum = s.Enum
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = prop.GenAI()
		}
	}
	return out
}

func genaiType(t SchemaType) genai.Type {
	switch t {
	case TypeObject:
		return genai.TypeObject
	case TypeArray:
		return genai.TypeArray
	case TypeString:
		return genai.TypeString
	case TypeNumber:
		return genai.TypeNumber
	case TypeInteger:
		return genai.TypeInteger
	case TypeBoolean:
		return genai.TypeBoolean
	}
	return genai.TypeUnspecified
}

func jsonType(v any) string {
	switch v.(type) {
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}

func containsFold(values []string, s string) bool {
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(s), v) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]*Schema) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func number(desc string) *Schema { return &Schema{Type: TypeNumber, Description: desc} }

func text(desc string) *Schema { return &Schema{Type: TypeString, Description: desc} }

func nonEmptyList(desc string) *Schema {
	return &Schema{Type: TypeArray, Description: desc, Items: &Schema{Type: TypeString}, MinItems: 1}
}

// FoodAnalysisSchema is the response shape of a food photo analysis.
var FoodAnalysisSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"name":       text("Name of the dish in the photo"),
		"calories":   number("Estimated energy in kcal"),
		"protein":    number("Protein in grams"),
		"carbs":      number("Carbohydrates in grams"),
		"fats":       number("Fats in grams"),
		"confidence": number("Confidence of the estimate between 0 and 1"),
	},
	Required: []string{"name", "calories", "protein", "carbs", "fats"},
}

// WorkoutSchema is the response shape of a workout suggestion.
var WorkoutSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"name":            text("Name of the workout"),
		"durationMinutes": number("Duration in minutes"),
		"caloriesBurned":  number("Estimated kcal burned"),
		"intensity":       {Type: TypeString, Enum: []string{"low", "moderate", "high"}},
		"reason":          text("One sentence explaining why this workout fits"),
	},
	Required: []string{"name", "durationMinutes", "caloriesBurned", "intensity", "reason"},
}

// MealSchema is the response shape of a single meal.
var MealSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"name":                text("Name of the meal"),
		"kcal":                number("Energy in kcal"),
		"protein":             number("Protein in grams"),
		"carbs":               number("Carbohydrates in grams"),
		"fats":                number("Fats in grams"),
		"imagePromptKeywords": text("Comma separated keywords describing the dish visually"),
		"preparationSteps":    nonEmptyList("Ordered preparation steps"),
		"customizations":      nonEmptyList("Optional swaps or add-ons"),
	},
	Required: []string{"name", "kcal", "protein", "carbs", "fats", "imagePromptKeywords", "preparationSteps", "customizations"},
}

// MealPlanSchema is the response shape of a full day plan.
var MealPlanSchema = &Schema{
	Type: TypeObject,
	Properties: map[string]*Schema{
		"breakfast": MealSchema,
		"lunch":     MealSchema,
		"dinner":    MealSchema,
		"snack":     MealSchema,
	},
	Required: []string{"breakfast", "lunch", "dinner", "snack"},
}
