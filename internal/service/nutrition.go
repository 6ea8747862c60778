package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pageza/macrosync/backend/internal/aierr"
	"github.com/pageza/macrosync/backend/internal/cache"
	"github.com/pageza/macrosync/backend/internal/capture"
	"github.com/pageza/macrosync/backend/internal/imagery"
	"github.com/pageza/macrosync/backend/internal/model"
)

const (
	// DashboardContextKey partitions the workout suggestion shown on the dashboard.
	DashboardContextKey   = "dashboard"
	DefaultGoal           = "Lean muscle growth"
	DefaultPreference     = "High Protein"
	DefaultSwapPreference = "Varied healthy alternative"
	// DateLayout is the calendar-date context key format of meal plans.
	DateLayout = "2006-01-02"
)

// ErrInvalidDate is returned for a meal-plan date that is not YYYY-MM-DD.
var ErrInvalidDate = errors.New("date must be formatted as YYYY-MM-DD")

// Notice tells the caller why fallback or stale content is shown.
type Notice struct {
	Kind      aierr.Kind `json:"kind"`
	Message   string     `json:"message"`
	Retryable bool       `json:"retryable"`
}

// NoticeFor builds the notice for a failure kind, or nil for KindNone.
func NoticeFor(kind aierr.Kind) *Notice {
	if kind == aierr.KindNone {
		return nil
	}
	return &Notice{Kind: kind, Message: kind.Message(), Retryable: kind.Retryable()}
}

// NutritionService combines the gateway, the resilience cache and the image
// resolver into the operations the app screens use.
type NutritionService struct {
	gateway   Gateway
	cache     *cache.Cache
	fallbacks Fallbacks
	now       func() time.Time
}

// NewNutritionService creates a NutritionService.
func NewNutritionService(gateway Gateway, c *cache.Cache, fallbacks Fallbacks) *NutritionService {
	return &NutritionService{
		gateway:   gateway,
		cache:     c,
		fallbacks: fallbacks,
		now:       time.Now,
	}
}

// WorkoutRequest asks for a workout suggestion.
type WorkoutRequest struct {
	Macros       model.MacroProfile `json:"macros"`
	Goal         string             `json:"goal"`
	ContextKey   string             `json:"contextKey"`
	ForceRefresh bool               `json:"forceRefresh"`
}

// WorkoutResult is a workout and where it came from.
type WorkoutResult struct {
	Workout    model.Workout `json:"workout"`
	Source     cache.Source  `json:"source"`
	Notice     *Notice       `json:"notice,omitempty"`
	Superseded bool          `json:"superseded,omitempty"`
}

// Workout returns the workout for req.ContextKey, generating one on a miss.
func (s *NutritionService) Workout(ctx context.Context, req WorkoutRequest) WorkoutResult {
	if req.ContextKey == "" {
		req.ContextKey = DashboardContextKey
	}
	if req.Macros.IsZero() {
		req.Macros = model.DefaultMacroProfile
	}
	if strings.TrimSpace(req.Goal) == "" {
		req.Goal = DefaultGoal
	}

	res := cache.Fetch(ctx, s.cache, cache.Request{
		Feature:      cache.FeatureWorkout,
		ContextKey:   req.ContextKey,
		ForceRefresh: req.ForceRefresh,
	}, func(ctx context.Context) (model.Workout, error) {
		w, err := s.gateway.RequestWorkout(ctx, req.Macros, req.Goal)
		if err != nil {
			return model.Workout{}, err
		}
		return *w, nil
	}, s.fallbacks.Workout)

	return WorkoutResult{
		Workout:    res.Value,
		Source:     res.Source,
		Notice:     NoticeFor(res.Kind),
		Superseded: res.Superseded,
	}
}

// MealPlanRequest asks for the plan of one calendar day.
type MealPlanRequest struct {
	Date         string `json:"date"`
	Preference   string `json:"preference"`
	ForceRefresh bool   `json:"forceRefresh"`
}

// MealPlanResult is a plan with resolved images.
type MealPlanResult struct {
	Date           string                `json:"date"`
	Plan           model.MealPlan        `json:"plan"`
	Totals         model.MacroProfile    `json:"totals"`
	Images         map[model.Slot]string `json:"images"`
	FallbackImages map[model.Slot]string `json:"fallbackImages"`
	Source         cache.Source          `json:"source"`
	Notice         *Notice               `json:"notice,omitempty"`
	Superseded     bool                  `json:"superseded,omitempty"`
}

// MealPlan returns the plan for req.Date, generating one on a miss.
func (s *NutritionService) MealPlan(ctx context.Context, req MealPlanRequest) (MealPlanResult, error) {
	date, err := s.normalizeDate(req.Date)
	if err != nil {
		return MealPlanResult{}, err
	}
	preference := req.Preference
	if strings.TrimSpace(preference) == "" {
		preference = DefaultPreference
	}

	res := cache.Fetch(ctx, s.cache, cache.Request{
		Feature:      cache.FeatureMealPlan,
		ContextKey:   date,
		ForceRefresh: req.ForceRefresh,
	}, func(ctx context.Context) (model.MealPlan, error) {
		p, err := s.gateway.RequestMealPlan(ctx, preference)
		if err != nil {
			return model.MealPlan{}, err
		}
		return *p, nil
	}, s.fallbacks.MealPlan)

	result := s.planResult(date, res.Value)
	result.Source = res.Source
	result.Notice = NoticeFor(res.Kind)
	result.Superseded = res.Superseded
	return result, nil
}

func (s *NutritionService) planResult(date string, plan model.MealPlan) MealPlanResult {
	fallbackImages := make(map[model.Slot]string, len(model.Slots))
	plan.Each(func(slot model.Slot, m model.Meal) {
		fallbackImages[slot] = imagery.FallbackURL(m)
	})
	return MealPlanResult{
		Date:           date,
		Plan:           plan,
		Totals:         plan.Totals(),
		Images:         imagery.ResolvePlan(plan, date),
		FallbackImages: fallbackImages,
	}
}

// SwapRequest asks to replace one slot of a day's plan.
type SwapRequest struct {
	Date       string     `json:"date"`
	Slot       model.Slot `json:"slot"`
	Preference string     `json:"preference"`

	// PlanPreference is used when no plan exists for the day yet and the
	// rest of the plan has to be generated first.
	PlanPreference string `json:"planPreference"`
}

// SwapResult is the plan after a swap attempt.
type SwapResult struct {
	MealPlanResult
	Slot model.Slot `json:"slot"`
	// Swapped is false when the previous meal was kept.
	Swapped bool `json:"swapped"`
	// Persisted is false when the merged plan was not stored, e.g. because
	// it was built on fallback content.
	Persisted bool `json:"persisted"`
}

// SwapMeal replaces a single slot of the plan for req.Date. The other slots
// stay readable throughout. On failure the previous meal is kept and a notice
// is returned. A day without a plan gets one first, built with
// req.PlanPreference.
func (s *NutritionService) SwapMeal(ctx context.Context, req SwapRequest) (SwapResult, error) {
	date, err := s.normalizeDate(req.Date)
	if err != nil {
		return SwapResult{}, err
	}
	slot, err := model.ParseSlot(string(req.Slot))
	if err != nil {
		return SwapResult{}, err
	}
	preference := req.Preference
	if strings.TrimSpace(preference) == "" {
		preference = DefaultSwapPreference
	}

	base, err := s.MealPlan(ctx, MealPlanRequest{Date: date, Preference: req.PlanPreference})
	if err != nil {
		return SwapResult{}, err
	}
	current, _ := base.Plan.Meal(slot)

	token := s.cache.Begin(cache.FeatureMealPlan, slotKey(date, slot))
	meal, err := s.gateway.RequestMeal(ctx, slot, preference, current.Name)
	if err != nil {
		kind := aierr.Classify(err)
		log.Warn().Err(err).Str("date", date).Str("slot", string(slot)).Str("kind", string(kind)).Msg("meal swap failed")
		out := SwapResult{MealPlanResult: base, Slot: slot}
		out.Notice = NoticeFor(kind)
		return out, nil
	}

	unlock := s.cache.Lock(cache.FeatureMealPlan, date)
	defer unlock()

	plan := base.Plan
	persist := base.Source != cache.SourceFallback
	if stored, ok := cache.Load[model.MealPlan](ctx, s.cache, cache.FeatureMealPlan, date); ok {
		plan = stored
		persist = true
	}

	if !s.cache.IsLatest(token) {
		log.Info().Str("date", date).Str("slot", string(slot)).Msg("discarding superseded meal swap")
		out := SwapResult{MealPlanResult: s.planResult(date, plan), Slot: slot}
		out.Source = base.Source
		out.Superseded = true
		return out, nil
	}

	merged, err := plan.WithMeal(slot, *meal)
	if err != nil {
		return SwapResult{}, err
	}
	if persist {
		if err := cache.Save(ctx, s.cache, cache.FeatureMealPlan, date, merged); err != nil {
			log.Warn().Err(err).Str("date", date).Msg("failed to store swapped plan")
			persist = false
		}
	}

	out := SwapResult{MealPlanResult: s.planResult(date, merged), Slot: slot, Swapped: true, Persisted: persist}
	out.Source = cache.SourceLive
	return out, nil
}

// AnalyzeFood estimates the nutrition of a photo. Results are never cached
// and there is no fallback.
func (s *NutritionService) AnalyzeFood(ctx context.Context, image []byte) (*model.FoodAnalysis, error) {
	analysis, err := s.gateway.RequestFoodAnalysis(ctx, image)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("name", analysis.Name).Float64("calories", analysis.Calories).Msg("food analyzed")
	return analysis, nil
}

// Scan captures one frame from dev and analyzes it. The device is released
// on every path.
func (s *NutritionService) Scan(ctx context.Context, dev capture.Device) (*model.FoodAnalysis, error) {
	var analysis *model.FoodAnalysis
	err := capture.WithStream(ctx, dev, func(stream capture.Stream) error {
		frame, err := stream.Capture(ctx)
		if err != nil {
			return fmt.Errorf("failed to capture frame: %w", err)
		}
		analysis, err = s.AnalyzeFood(ctx, frame)
		return err
	})
	if err != nil {
		return nil, err
	}
	return analysis, nil
}

// Stats returns the cache counters.
func (s *NutritionService) Stats() cache.Stats {
	return s.cache.Stats()
}

func (s *NutritionService) normalizeDate(date string) (string, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return s.now().Format(DateLayout), nil
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return date, nil
}

func slotKey(date string, slot model.Slot) string {
	return date + ":" + string(slot)
}
