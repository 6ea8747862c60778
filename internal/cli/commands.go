package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pageza/macrosync/backend/internal/aierr"
	"github.com/pageza/macrosync/backend/internal/app"
	"github.com/pageza/macrosync/backend/internal/capture"
	"github.com/pageza/macrosync/backend/internal/imagery"
	"github.com/pageza/macrosync/backend/internal/model"
	"github.com/pageza/macrosync/backend/internal/service"
)

func newPlanCmd(v *viper.Viper) *cobra.Command {
	var req service.MealPlanRequest

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the meal plan of a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, v, func(a *app.App) error {
				res, err := a.Service.MealPlan(cmd.Context(), req)
				if err != nil {
					return err
				}
				return render(cmd, v, res, func(w io.Writer) error { return printPlan(w, res) })
			})
		},
	}
	cmd.Flags().StringVar(&req.Date, "date", "", "day as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&req.Preference, "preference", service.DefaultPreference, "dietary preference")
	cmd.Flags().BoolVar(&req.ForceRefresh, "refresh", false, "ignore the cached plan")
	return cmd
}

func newSwapCmd(v *viper.Viper) *cobra.Command {
	var req service.SwapRequest

	cmd := &cobra.Command{
		Use:   "swap <slot>",
		Short: "Replace one meal of a day's plan",
		Long:  "Replace one meal of a day's plan. Slot is one of breakfast, lunch, dinner or snack.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			slot, err := model.ParseSlot(args[0])
			if err != nil {
				return err
			}
			req.Slot = slot
			return withApp(cmd, v, func(a *app.App) error {
				res, err := a.Service.SwapMeal(cmd.Context(), req)
				if err != nil {
					return err
				}
				return render(cmd, v, res, func(w io.Writer) error {
					switch {
					case res.Swapped:
						fmt.Fprintf(w, "%s swapped.\n", slot)
					case res.Superseded:
						fmt.Fprintf(w, "%s swap superseded by a newer request.\n", slot)
					default:
						fmt.Fprintf(w, "%s unchanged.\n", slot)
					}
					return printPlan(w, res.MealPlanResult)
				})
			})
		},
	}
	cmd.Flags().StringVar(&req.Date, "date", "", "day as YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&req.Preference, "preference", service.DefaultSwapPreference, "what the new meal should be like")
	cmd.Flags().StringVar(&req.PlanPreference, "plan-preference", service.DefaultPreference, "dietary preference if the day has no plan yet")
	return cmd
}

func newWorkoutCmd(v *viper.Viper) *cobra.Command {
	var req service.WorkoutRequest

	cmd := &cobra.Command{
		Use:   "workout",
		Short: "Suggest a workout for today's intake",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := req.Macros.Validate(); err != nil {
				return err
			}
			return withApp(cmd, v, func(a *app.App) error {
				res := a.Service.Workout(cmd.Context(), req)
				return render(cmd, v, res, func(w io.Writer) error {
					wo := res.Workout
					fmt.Fprintf(w, "%s (source: %s)\n", wo.Name, res.Source)
					printNotice(w, res.Notice)
					fmt.Fprintf(w, "  %.0f min, %.0f kcal, %s intensity\n", wo.DurationMinutes, wo.CaloriesBurned, wo.Intensity)
					fmt.Fprintf(w, "  %s\n", wo.Reason)
					return nil
				})
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&req.Goal, "goal", service.DefaultGoal, "training goal")
	f.Float64Var(&req.Macros.Protein, "protein", model.DefaultMacroProfile.Protein, "protein eaten today in grams")
	f.Float64Var(&req.Macros.Carbs, "carbs", model.DefaultMacroProfile.Carbs, "carbs eaten today in grams")
	f.Float64Var(&req.Macros.Fats, "fats", model.DefaultMacroProfile.Fats, "fats eaten today in grams")
	f.Float64Var(&req.Macros.Calories, "calories", model.DefaultMacroProfile.Calories, "energy eaten today in kcal")
	f.StringVar(&req.ContextKey, "context-key", service.DashboardContextKey, "cache partition of the suggestion")
	f.BoolVar(&req.ForceRefresh, "refresh", false, "ignore the cached suggestion")
	return cmd
}

func newScanCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "scan <image.jpg>",
		Short: "Estimate the nutrition of a food photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, v, func(a *app.App) error {
				analysis, err := a.Service.Scan(cmd.Context(), capture.FileDevice{Path: args[0]})
				if err != nil {
					if kind := aierr.KindOf(err); kind != aierr.KindNone {
						return fmt.Errorf("%s: %w", kind.Message(), err)
					}
					return err
				}
				return render(cmd, v, analysis, func(w io.Writer) error {
					fmt.Fprintf(w, "%s: %.0f kcal, %.1fg protein, %.1fg carbs, %.1fg fats\n",
						analysis.Name, analysis.Calories, analysis.Protein, analysis.Carbs, analysis.Fats)
					if analysis.Confidence != nil {
						fmt.Fprintf(w, "confidence %.0f%%\n", *analysis.Confidence*100)
					}
					return nil
				})
			})
		},
	}
}

func newImageCmd(v *viper.Viper) *cobra.Command {
	var keywords, contextKey string

	cmd := &cobra.Command{
		Use:   "image <meal name>",
		Short: "Print the image URL of a meal",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meal := model.Meal{Name: strings.Join(args, " "), ImagePromptKeywords: keywords}
			out := map[string]any{
				"url":         imagery.Resolve(meal, contextKey),
				"fallbackUrl": imagery.FallbackURL(meal),
				"query":       imagery.Query(meal),
				"seed":        imagery.Seed(meal.Name, contextKey),
			}
			return render(cmd, v, out, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, out["url"])
				return err
			})
		},
	}
	cmd.Flags().StringVar(&keywords, "keywords", "", "comma separated image keywords")
	cmd.Flags().StringVar(&contextKey, "context-key", "", "context that varies the image, e.g. a date")
	return cmd
}
