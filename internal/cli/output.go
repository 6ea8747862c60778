package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pageza/macrosync/backend/internal/model"
	"github.com/pageza/macrosync/backend/internal/service"
)

// render prints v as JSON when --json is set, otherwise through text
func render(cmd *cobra.Command, v *viper.Viper, value any, text func(w io.Writer) error) error {
	out := cmd.OutOrStdout()
	if v.GetBool("json") {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(value)
	}
	return text(out)
}

func printNotice(w io.Writer, n *service.Notice) {
	if n == nil {
		return
	}
	retry := ""
	if n.Retryable {
		retry = " (retry later)"
	}
	fmt.Fprintf(w, "! %s%s\n", n.Message, retry)
}

func printPlan(w io.Writer, res service.MealPlanResult) error {
	fmt.Fprintf(w, "Meal plan for %s (source: %s)\n", res.Date, res.Source)
	printNotice(w, res.Notice)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOT\tMEAL\tKCAL\tPROTEIN\tCARBS\tFATS")
	res.Plan.Each(func(slot model.Slot, m model.Meal) {
		fmt.Fprintf(tw, "%s\t%s\t%.0f\t%.0f\t%.0f\t%.0f\n", slot, m.Name, m.Kcal, m.Protein, m.Carbs, m.Fats)
	})
	t := res.Totals
	fmt.Fprintf(tw, "total\t\t%.0f\t%.0f\t%.0f\t%.0f\n", t.Calories, t.Protein, t.Carbs, t.Fats)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w, "Images:")
	for _, slot := range model.Slots {
		fmt.Fprintf(w, "  %-9s %s\n", slot, res.Images[slot])
	}
	return nil
}
