package imagery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pageza/macrosync/backend/internal/model"
)

func saladMeal() model.Meal {
	return model.Meal{
		Name:                "Grilled Chicken Mediterranean Salad",
		ImagePromptKeywords: "grilled chicken, greens, feta",
	}
}

func TestResolve_ChickenSalad(t *testing.T) {
	got := Resolve(saladMeal(), "2024-05-01")

	want := "https://loremflickr.com/400/400/" +
		"grilled,chicken,grilled-chicken,poultry," +
		"dark-background,minimalist,food-photography,topview" +
		"/all?lock=3940"
	assert.Equal(t, want, got)
}

func TestResolve_Deterministic(t *testing.T) {
	meal := saladMeal()
	assert.Equal(t, Resolve(meal, "2024-05-01"), Resolve(meal, "2024-05-01"))
}

func TestResolve_ContextKeyOnlyChangesLock(t *testing.T) {
	meal := saladMeal()
	day1 := Resolve(meal, "2024-05-01")
	day2 := Resolve(meal, "2024-05-02")

	assert.NotEqual(t, day1, day2)
	assert.Equal(t, strings.Split(day1, "?")[0], strings.Split(day2, "?")[0])
	assert.True(t, strings.HasSuffix(day2, "lock=3941"))
}

func TestQuery(t *testing.T) {
	tests := []struct {
		name string
		meal model.Meal
		want string
	}{
		{
			name: "stop words and short tokens dropped",
			meal: model.Meal{Name: "Oatmeal with Mixed Berries & Walnuts", ImagePromptKeywords: "oats"},
			want: "oatmeal,berries,walnuts,oatmeal-bowl",
		},
		{
			name: "keywords fill remaining room",
			meal: model.Meal{Name: "Tofu", ImagePromptKeywords: " Sesame Seeds , tofu "},
			want: "tofu,grilled-tofu,tofu-bowl,sesame%20seeds",
		},
		{
			name: "no subject tokens",
			meal: model.Meal{Name: "A Healthy Bowl"},
			want: "",
		},
	}

	style := strings.Join(StyleTokens, ",")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := style
			if tt.want != "" {
				want = tt.want + "," + style
			}
			assert.Equal(t, want, Query(tt.meal))
		})
	}
}

func TestSeed(t *testing.T) {
	assert.Equal(t, 3940, Seed("Grilled Chicken Mediterranean Salad", "2024-05-01"))
	assert.Equal(t, 3864, Seed("Oatmeal with Mixed Berries & Walnuts", "2024-05-01"))
	assert.Equal(t, Seed("grilled chicken mediterranean salad", ""), Seed("Grilled,  Chicken Mediterranean Salad!", ""))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "oatmeal with mixed berries walnuts", Normalize("Oatmeal with Mixed Berries & Walnuts"))
	assert.Equal(t, "", Normalize("  !!  "))
}

func TestResolvePlan(t *testing.T) {
	meal := saladMeal()
	plan := model.MealPlan{Breakfast: meal, Lunch: meal, Dinner: meal, Snack: meal}

	urls := ResolvePlan(plan, "2024-05-01")
	assert.Len(t, urls, 4)
	for _, slot := range model.Slots {
		assert.Equal(t, Resolve(meal, "2024-05-01"), urls[slot])
	}
}

func TestFallbackURL(t *testing.T) {
	assert.Equal(t,
		"https://loremflickr.com/400/400/healthy,food,dark,minimalist?lock=35",
		FallbackURL(saladMeal()))
}
