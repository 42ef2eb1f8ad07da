package cli

import (
	"fmt"
	"time"

	"alcyxob/trainplan/internal/planner"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type weekSummary struct {
	Week      int  `json:"week"`
	Days      int  `json:"days"`
	Exercises int  `json:"exercises"`
	Deload    bool `json:"deload"`
}

type programSummary struct {
	Weeks  []weekSummary  `json:"weeks"`
	Totals planner.Totals `json:"totals"`
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Show per-week day and exercise counts of a generated plan",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s := summarize(planner.Expand(primitive.NilObjectID, time.Time{}))
		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, s)
		}

		headerColor.Fprintf(out, "%-6s %-5s %-10s\n", "Week", "Days", "Exercises")
		for _, w := range s.Weeks {
			line := fmt.Sprintf("%-6d %-5d %-10d", w.Week, w.Days, w.Exercises)
			if w.Deload {
				warnColor.Fprintln(out, line+" deload")
				continue
			}
			fmt.Fprintln(out, line)
		}
		fmt.Fprintf(out, "Total: %d days, %d exercises\n", s.Totals.Days, s.Totals.Exercises)
		return nil
	},
}

func summarize(batches []planner.DayBatch) programSummary {
	s := programSummary{Totals: planner.Estimate(batches)}
	for _, b := range batches {
		if n := len(s.Weeks); n == 0 || s.Weeks[n-1].Week != b.Day.Week {
			s.Weeks = append(s.Weeks, weekSummary{Week: b.Day.Week, Deload: b.Day.Deload})
		}
		w := &s.Weeks[len(s.Weeks)-1]
		w.Days++
		w.Exercises += len(b.Exercises)
	}
	return s
}
