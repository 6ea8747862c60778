package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"

	"github.com/pageza/macrosync/backend/internal/aierr"
	"github.com/pageza/macrosync/backend/internal/model"
)

const (
	DefaultModel   = "gemini-1.5-flash"
	DefaultTimeout = 30 * time.Second
)

var (
	// ErrMissingCredential means no API key was configured.
	ErrMissingCredential = errors.New("no API key configured")
	// ErrInvalidImage means the image is empty or not a supported format.
	ErrInvalidImage = errors.New("image must be a non-empty JPEG, PNG or WebP")
)

// GatewayConfig controls how the gateway talks to its backend.
type GatewayConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
	// MaxRetries enables automatic retries of quota, network and backend
	// failures. Zero leaves retrying to the caller.
	MaxRetries    int
	RetryInterval time.Duration
}

// AIGateway is the Gateway backed by a generative model.
type AIGateway struct {
	backend Backend
	cfg     GatewayConfig
}

// NewAIGateway creates a gateway. A nil backend is allowed when no
// credential is configured; every call then fails with a configuration error.
func NewAIGateway(backend Backend, cfg GatewayConfig) *AIGateway {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &AIGateway{backend: backend, cfg: cfg}
}

// RequestFoodAnalysis estimates the nutrition of the dish in image.
func (g *AIGateway) RequestFoodAnalysis(ctx context.Context, image []byte) (*model.FoodAnalysis, error) {
	const op = "gateway.RequestFoodAnalysis"

	format, err := imageFormat(image)
	if err != nil {
		return nil, err
	}

	prompt := "Identify the food in this photo and estimate its nutrition for the visible portion. " +
		"Return JSON with name, calories (kcal), protein, carbs and fats in grams, " +
		"and confidence between 0 and 1."

	var analysis model.FoodAnalysis
	err = g.call(ctx, op, GenerateRequest{
		Prompt:      prompt,
		Image:       image,
		ImageFormat: format,
		Schema:      FoodAnalysisSchema,
	}, &analysis)
	if err != nil {
		return nil, err
	}
	if err := analysis.Validate(); err != nil {
		return nil, aierr.New(aierr.KindParse, op, err)
	}
	return &analysis, nil
}

// RequestWorkout suggests one workout for the macro snapshot and goal.
func (g *AIGateway) RequestWorkout(ctx context.Context, macros model.MacroProfile, goal string) (*model.Workout, error) {
	const op = "gateway.RequestWorkout"

	prompt := fmt.Sprintf(
		"Today's intake so far: %.0fg protein, %.0fg carbs, %.0fg fats, %.0f kcal. "+
			"The user's goal is %q. Suggest one specific workout for today. "+
			"Return JSON with name, durationMinutes, caloriesBurned, intensity "+
			"(one of low, moderate, high) and a one sentence reason.",
		macros.Protein, macros.Carbs, macros.Fats, macros.Calories, goal,
	)

	var workout model.Workout
	if err := g.call(ctx, op, GenerateRequest{Prompt: prompt, Schema: WorkoutSchema}, &workout); err != nil {
		return nil, err
	}
	intensity, err := model.ParseIntensity(string(workout.Intensity))
	if err != nil {
		return nil, aierr.New(aierr.KindParse, op, err)
	}
	workout.Intensity = intensity
	if err := workout.Validate(); err != nil {
		return nil, aierr.New(aierr.KindParse, op, err)
	}
	return &workout, nil
}

// RequestMealPlan generates a full day of meals for preference.
func (g *AIGateway) RequestMealPlan(ctx context.Context, preference string) (*model.MealPlan, error) {
	const op = "gateway.RequestMealPlan"

	prompt := fmt.Sprintf(
		"Create a one day meal plan for someone who wants %q. "+
			"Return JSON with breakfast, lunch, dinner and snack. Each meal needs name, kcal, "+
			"protein, carbs, fats, imagePromptKeywords (comma separated), at least one "+
			"preparationSteps entry and at least one customizations entry.",
		preference,
	)

	var plan model.MealPlan
	if err := g.call(ctx, op, GenerateRequest{Prompt: prompt, Schema: MealPlanSchema}, &plan); err != nil {
		return nil, err
	}
	if err := plan.Validate(); err != nil {
		return nil, aierr.New(aierr.KindParse, op, err)
	}
	return &plan, nil
}

// RequestMeal generates a single replacement meal for slot.
func (g *AIGateway) RequestMeal(ctx context.Context, slot model.Slot, preference, replacing string) (*model.Meal, error) {
	const op = "gateway.RequestMeal"

	prompt := fmt.Sprintf(
		"Suggest one %s for someone who wants %q. It replaces %q, so pick something different. "+
			"Return JSON with name, kcal, protein, carbs, fats, imagePromptKeywords (comma separated), "+
			"at least one preparationSteps entry and at least one customizations entry.",
		slot, preference, replacing,
	)

	var meal model.Meal
	if err := g.call(ctx, op, GenerateRequest{Prompt: prompt, Schema: MealSchema}, &meal); err != nil {
		return nil, err
	}
	if err := meal.Validate(); err != nil {
		return nil, aierr.New(aierr.KindParse, op, err)
	}
	return &meal, nil
}

// call runs req against the backend, with retries when enabled, and decodes
// the schema-checked response into out.
func (g *AIGateway) call(ctx context.Context, op string, req GenerateRequest, out any) error {
	if g.cfg.APIKey == "" || g.backend == nil {
		return aierr.New(aierr.KindConfiguration, op, ErrMissingCredential)
	}
	req.Model = g.cfg.Model

	var raw string
	attempt := func() error {
		var err error
		raw, err = g.generate(ctx, op, req)
		if err != nil && !aierr.KindOf(err).Retryable() {
			return backoff.Permanent(err)
		}
		return err
	}

	var err error
	if g.cfg.MaxRetries > 0 {
		err = backoff.Retry(attempt, g.retryPolicy(ctx))
	} else {
		err = attempt()
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Err
		}
	}
	if err != nil {
		log.Warn().Err(err).Str("op", op).Str("kind", string(aierr.KindOf(err))).Msg("gateway call failed")
		return err
	}

	if err := decodeResponse(raw, req.Schema, out); err != nil {
		log.Warn().Err(err).Str("op", op).Msg("gateway response rejected")
		return aierr.New(aierr.KindParse, op, err)
	}
	return nil
}

func (g *AIGateway) generate(ctx context.Context, op string, req GenerateRequest) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	start := time.Now()
	raw, err := g.backend.Generate(callCtx, req)
	log.Debug().
		Str("op", op).
		Str("model", req.Model).
		Dur("latency", time.Since(start)).
		Bool("ok", err == nil).
		Msg("gateway call")
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", aierr.New(aierr.KindNetwork, op, fmt.Errorf("no response within %s: %w", g.cfg.Timeout, err))
		}
		return "", aierr.Wrap(op, err)
	}
	return raw, nil
}

func (g *AIGateway) retryPolicy(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	if g.cfg.RetryInterval > 0 {
		b.InitialInterval = g.cfg.RetryInterval
	}
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(g.cfg.MaxRetries)), ctx)
}

// decodeResponse strips markdown fences, checks raw against schema and
// unmarshals it into out.
func decodeResponse(raw string, schema *Schema, out any) error {
	cleaned := stripFences(raw)
	if cleaned == "" {
		return ErrEmptyResponse
	}
	if schema != nil {
		if err := schema.Validate([]byte(cleaned)); err != nil {
			return err
		}
	}
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	} else {
		s = strings.TrimPrefix(s, "```")
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func imageFormat(image []byte) (string, error) {
	if len(image) == 0 {
		return "", ErrInvalidImage
	}
	switch http.DetectContentType(image) {
	case "image/jpeg":
		return "jpeg", nil
	case "image/png":
		return "png", nil
	case "image/webp":
		return "webp", nil
	}
	return "", ErrInvalidImage
}
