package service

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/macrosync/backend/internal/aierr"
	"github.com/pageza/macrosync/backend/internal/cache"
	"github.com/pageza/macrosync/backend/internal/capture"
	"github.com/pageza/macrosync/backend/internal/imagery"
	"github.com/pageza/macrosync/backend/internal/mocks"
	"github.com/pageza/macrosync/backend/internal/model"
)

const testDate = "2024-05-01"

func newTestService(gw Gateway) (*NutritionService, *cache.MemoryStore) {
	store := cache.NewMemoryStore()
	svc := NewNutritionService(gw, cache.New(store), DefaultFallbacks())
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC) }
	return svc, store
}

func replacementMeal(name string) *model.Meal {
	return &model.Meal{
		Name:                name,
		Kcal:                450,
		Protein:             35,
		Carbs:               40,
		Fats:                15,
		ImagePromptKeywords: "bowl, greens",
		PreparationSteps:    []string{"Cook it."},
		Customizations:      []string{"Add chili."},
	}
}

func TestNutritionService_UnreachableBackend(t *testing.T) {
	backend := new(MockBackend)
	backend.On("Generate", mock.Anything, mock.Anything).
		Return("", &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")})

	svc, store := newTestService(NewAIGateway(backend, GatewayConfig{APIKey: "test-key", Timeout: time.Second}))

	res, err := svc.MealPlan(context.Background(), MealPlanRequest{Date: testDate, Preference: "High Protein"})
	require.NoError(t, err)

	assert.Equal(t, cache.SourceFallback, res.Source)
	assert.Equal(t, "Oatmeal with Mixed Berries & Walnuts", res.Plan.Breakfast.Name)
	assert.Equal(t, 380.0, res.Plan.Breakfast.Kcal)
	require.NotNil(t, res.Notice)
	assert.Equal(t, aierr.KindNetwork, res.Notice.Kind)
	assert.True(t, res.Notice.Retryable)
	assert.NotEmpty(t, res.Notice.Message)
	assert.Equal(t, imagery.Resolve(res.Plan.Breakfast, testDate), res.Images[model.SlotBreakfast])
	assert.Contains(t, res.Images[model.SlotBreakfast], "lock=3864")
	assert.Len(t, res.FallbackImages, 4)
	assert.Equal(t, 0, store.Len())
}

func TestNutritionService_NoCredential(t *testing.T) {
	svc, store := newTestService(NewAIGateway(nil, GatewayConfig{}))

	res := svc.Workout(context.Background(), WorkoutRequest{})

	assert.Equal(t, cache.SourceFallback, res.Source)
	assert.Equal(t, "HIIT Dynamic Protocol", res.Workout.Name)
	require.NotNil(t, res.Notice)
	assert.Equal(t, aierr.KindConfiguration, res.Notice.Kind)
	assert.False(t, res.Notice.Retryable)
	assert.Equal(t, 0, store.Len())
}

func TestNutritionService_Workout(t *testing.T) {
	gw := new(mocks.MockGateway)
	workout := &model.Workout{Name: "Hill Sprints", DurationMinutes: 20, CaloriesBurned: 260, Intensity: model.IntensityHigh, Reason: "Plenty of carbs."}
	gw.On("RequestWorkout", mock.Anything, model.DefaultMacroProfile, DefaultGoal).Return(workout, nil).Once()

	svc, store := newTestService(gw)

	first := svc.Workout(context.Background(), WorkoutRequest{})
	second := svc.Workout(context.Background(), WorkoutRequest{})

	assert.Equal(t, cache.SourceLive, first.Source)
	assert.Nil(t, first.Notice)
	assert.Equal(t, cache.SourceCache, second.Source)
	assert.Equal(t, *workout, second.Workout)
	_, err := store.Get(context.Background(), cache.Key(cache.FeatureWorkout, DashboardContextKey))
	assert.NoError(t, err)
	gw.AssertExpectations(t)
}

func TestNutritionService_MealPlan(t *testing.T) {
	t.Run("defaults to today and high protein", func(t *testing.T) {
		gw := new(mocks.MockGateway)
		plan := DefaultFallbacks().MealPlan
		gw.On("RequestMealPlan", mock.Anything, DefaultPreference).Return(&plan, nil).Once()

		svc, _ := newTestService(gw)
		res, err := svc.MealPlan(context.Background(), MealPlanRequest{})
		require.NoError(t, err)

		assert.Equal(t, testDate, res.Date)
		assert.Equal(t, cache.SourceLive, res.Source)
		assert.Equal(t, plan.Totals(), res.Totals)
		gw.AssertExpectations(t)
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		svc, _ := newTestService(new(mocks.MockGateway))
		_, err := svc.MealPlan(context.Background(), MealPlanRequest{Date: "05/01/2024"})
		assert.ErrorIs(t, err, ErrInvalidDate)
	})

	t.Run("dates are separate entries", func(t *testing.T) {
		gw := new(mocks.MockGateway)
		plan := DefaultFallbacks().MealPlan
		gw.On("RequestMealPlan", mock.Anything, DefaultPreference).Return(&plan, nil).Twice()

		svc, store := newTestService(gw)
		_, err := svc.MealPlan(context.Background(), MealPlanRequest{Date: "2024-05-01"})
		require.NoError(t, err)
		res, err := svc.MealPlan(context.Background(), MealPlanRequest{Date: "2024-05-02"})
		require.NoError(t, err)

		assert.Equal(t, cache.SourceLive, res.Source)
		assert.Equal(t, 2, store.Len())
		assert.Contains(t, res.Images[model.SlotLunch], "lock=3941")
	})
}

func seedPlan(t *testing.T, svc *NutritionService) model.MealPlan {
	t.Helper()
	plan := DefaultFallbacks().MealPlan
	plan.Lunch.Name = "Turkey Wrap"
	require.NoError(t, cache.Save(context.Background(), svc.cache, cache.FeatureMealPlan, testDate, plan))
	return plan
}

func storedPlan(t *testing.T, svc *NutritionService) model.MealPlan {
	t.Helper()
	plan, ok := cache.Load[model.MealPlan](context.Background(), svc.cache, cache.FeatureMealPlan, testDate)
	require.True(t, ok)
	return plan
}

func TestNutritionService_SwapMeal(t *testing.T) {
	t.Run("persists merged plan", func(t *testing.T) {
		gw := new(mocks.MockGateway)
		svc, _ := newTestService(gw)
		before := seedPlan(t, svc)
		gw.On("RequestMeal", mock.Anything, model.SlotLunch, DefaultSwapPreference, "Turkey Wrap").
			Return(replacementMeal("Tuna Poke Bowl"), nil).Once()

		res, err := svc.SwapMeal(context.Background(), SwapRequest{Date: testDate, Slot: model.SlotLunch})
		require.NoError(t, err)

		assert.True(t, res.Swapped)
		assert.True(t, res.Persisted)
		assert.Nil(t, res.Notice)
		assert.Equal(t, "Tuna Poke Bowl", res.Plan.Lunch.Name)

		stored := storedPlan(t, svc)
		assert.Equal(t, "Tuna Poke Bowl", stored.Lunch.Name)
		assert.Equal(t, before.Breakfast, stored.Breakfast)
		assert.Equal(t, before.Dinner, stored.Dinner)
		assert.Equal(t, before.Snack, stored.Snack)
		gw.AssertExpectations(t)
	})

	t.Run("failure keeps prior meal", func(t *testing.T) {
		gw := new(mocks.MockGateway)
		svc, _ := newTestService(gw)
		before := seedPlan(t, svc)
		gw.On("RequestMeal", mock.Anything, model.SlotLunch, "Vegan", "Turkey Wrap").
			Return(nil, aierr.New(aierr.KindQuotaExceeded, "gateway.RequestMeal", errors.New("429"))).Once()

		res, err := svc.SwapMeal(context.Background(), SwapRequest{Date: testDate, Slot: model.SlotLunch, Preference: "Vegan"})
		require.NoError(t, err)

		assert.False(t, res.Swapped)
		require.NotNil(t, res.Notice)
		assert.Equal(t, aierr.KindQuotaExceeded, res.Notice.Kind)
		assert.Equal(t, "Turkey Wrap", res.Plan.Lunch.Name)
		assert.Equal(t, before, storedPlan(t, svc))
	})

	t.Run("fallback base is not persisted", func(t *testing.T) {
		gw := new(mocks.MockGateway)
		gw.On("RequestMealPlan", mock.Anything, DefaultPreference).
			Return(nil, aierr.New(aierr.KindNetwork, "gateway.RequestMealPlan", errors.New("offline"))).Once()
		gw.On("RequestMeal", mock.Anything, model.SlotDinner, DefaultSwapPreference, "Baked Salmon with Quinoa & Asparagus").
			Return(replacementMeal("Beef Stir Fry"), nil).Once()

		svc, store := newTestService(gw)
		res, err := svc.SwapMeal(context.Background(), SwapRequest{Date: testDate, Slot: model.SlotDinner})
		require.NoError(t, err)

		assert.True(t, res.Swapped)
		assert.False(t, res.Persisted)
		assert.Equal(t, "Beef Stir Fry", res.Plan.Dinner.Name)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("missing plan is generated with the plan preference", func(t *testing.T) {
		gw := new(mocks.MockGateway)
		gw.On("RequestMealPlan", mock.Anything, "Keto").Return(&model.MealPlan{
			Breakfast: *replacementMeal("Bacon and Eggs"),
			Lunch:     *replacementMeal("Cobb Salad"),
			Dinner:    *replacementMeal("Ribeye"),
			Snack:     *replacementMeal("Cheese Crisps"),
		}, nil).Once()
		gw.On("RequestMeal", mock.Anything, model.SlotSnack, "Crunchy", "Cheese Crisps").
			Return(replacementMeal("Pork Rinds"), nil).Once()

		svc, _ := newTestService(gw)
		res, err := svc.SwapMeal(context.Background(), SwapRequest{
			Date: testDate, Slot: model.SlotSnack, Preference: "Crunchy", PlanPreference: "Keto",
		})
		require.NoError(t, err)

		assert.True(t, res.Swapped)
		assert.True(t, res.Persisted)
		assert.Equal(t, "Ribeye", res.Plan.Dinner.Name)
		assert.Equal(t, "Pork Rinds", storedPlan(t, svc).Snack.Name)
		gw.AssertExpectations(t)
	})

	t.Run("unknown slot", func(t *testing.T) {
		svc, _ := newTestService(new(mocks.MockGateway))
		_, err := svc.SwapMeal(context.Background(), SwapRequest{Date: testDate, Slot: "brunch"})
		assert.Error(t, err)
	})

	t.Run("concurrent swaps of different slots both land", func(t *testing.T) {
		gw := new(mocks.MockGateway)
		svc, _ := newTestService(gw)
		seedPlan(t, svc)
		gw.On("RequestMeal", mock.Anything, model.SlotBreakfast, DefaultSwapPreference, mock.Anything).
			Return(replacementMeal("Egg White Omelette"), nil).Once()
		gw.On("RequestMeal", mock.Anything, model.SlotSnack, DefaultSwapPreference, mock.Anything).
			Return(replacementMeal("Protein Shake"), nil).Once()

		var wg sync.WaitGroup
		for _, slot := range []model.Slot{model.SlotBreakfast, model.SlotSnack} {
			wg.Add(1)
			go func(slot model.Slot) {
				defer wg.Done()
				_, err := svc.SwapMeal(context.Background(), SwapRequest{Date: testDate, Slot: slot})
				assert.NoError(t, err)
			}(slot)
		}
		wg.Wait()

		stored := storedPlan(t, svc)
		assert.Equal(t, "Egg White Omelette", stored.Breakfast.Name)
		assert.Equal(t, "Protein Shake", stored.Snack.Name)
		assert.Equal(t, "Turkey Wrap", stored.Lunch.Name)
	})

	t.Run("superseded swap is discarded", func(t *testing.T) {
		gw := new(mocks.MockGateway)
		svc, _ := newTestService(gw)
		seedPlan(t, svc)

		entered := make(chan struct{})
		release := make(chan struct{})
		gw.On("RequestMeal", mock.Anything, model.SlotLunch, DefaultSwapPreference, mock.Anything).
			Run(func(mock.Arguments) {
				close(entered)
				<-release
			}).
			Return(replacementMeal("Slow Answer"), nil).Once()
		gw.On("RequestMeal", mock.Anything, model.SlotLunch, DefaultSwapPreference, mock.Anything).
			Return(replacementMeal("Fast Answer"), nil).Once()

		slow := make(chan SwapResult, 1)
		go func() {
			res, err := svc.SwapMeal(context.Background(), SwapRequest{Date: testDate, Slot: model.SlotLunch})
			assert.NoError(t, err)
			slow <- res
		}()
		<-entered

		fast, err := svc.SwapMeal(context.Background(), SwapRequest{Date: testDate, Slot: model.SlotLunch})
		require.NoError(t, err)
		assert.True(t, fast.Swapped)

		close(release)
		stale := <-slow

		assert.True(t, stale.Superseded)
		assert.False(t, stale.Swapped)
		assert.Equal(t, "Fast Answer", stale.Plan.Lunch.Name)
		assert.Equal(t, "Fast Answer", storedPlan(t, svc).Lunch.Name)
	})
}

func TestNutritionService_AnalyzeFood(t *testing.T) {
	confidence := 0.8
	analysis := &model.FoodAnalysis{Name: "Avocado Toast", Calories: 320, Protein: 9, Carbs: 30, Fats: 18, Confidence: &confidence}

	t.Run("scan releases device and analyzes frame", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "frame.jpg")
		require.NoError(t, os.WriteFile(path, testJPEG, 0o644))

		gw := new(mocks.MockGateway)
		gw.On("RequestFoodAnalysis", mock.Anything, testJPEG).Return(analysis, nil).Once()
		svc, store := newTestService(gw)

		got, err := svc.Scan(context.Background(), capture.FileDevice{Path: path})
		require.NoError(t, err)
		assert.Equal(t, analysis, got)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("errors are returned classified", func(t *testing.T) {
		gw := new(mocks.MockGateway)
		gw.On("RequestFoodAnalysis", mock.Anything, testJPEG).
			Return(nil, aierr.New(aierr.KindParse, "gateway.RequestFoodAnalysis", errors.New("bad json"))).Once()
		svc, _ := newTestService(gw)

		got, err := svc.AnalyzeFood(context.Background(), testJPEG)
		assert.Nil(t, got)
		assert.Equal(t, aierr.KindParse, aierr.KindOf(err))
	})
}
