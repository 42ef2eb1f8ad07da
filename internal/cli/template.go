package cli

import (
	"fmt"

	"alcyxob/trainplan/internal/api"
	"alcyxob/trainplan/internal/domain"
	"alcyxob/trainplan/internal/periodization"

	"github.com/spf13/cobra"
)

var (
	templateVariant string
	templateDeload  bool
)

var templateCmd = &cobra.Command{
	Use:   "template <day-type>",
	Short: "Show the exercise list of a day type",
	Long: `Print the exercises of one day type of the weekly cycle:
upper-strength, lower-strength, upper-hypertrophy or lower-hypertrophy.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dayType, err := periodization.ParseDayType(args[0])
		if err != nil {
			return err
		}
		variant, err := periodization.ParseMovementVariant(templateVariant)
		if err != nil {
			return err
		}

		tpl := api.BuildTemplate(dayType, variant, templateDeload)
		out := cmd.OutOrStdout()
		if jsonOutput {
			return writeJSON(out, tpl)
		}

		title := tpl.Label
		if dayType == domain.DayLowerStrength {
			title += fmt.Sprintf(" (%s)", variant)
		}
		if tpl.Deload {
			title += " - deload"
		}
		headerColor.Fprintln(out, title)
		for i, ex := range tpl.Exercises {
			fmt.Fprintf(out, "%2d. %-32s %d x %d-%d  RIR %d  [%s]\n",
				i+1, ex.Name, ex.TargetSets, ex.RepMin, ex.RepMax, ex.TargetRIR, ex.Category)
			if ex.Notes != "" {
				fmt.Fprintf(out, "    %s\n", ex.Notes)
			}
		}
		return nil
	},
}

func init() {
	templateCmd.Flags().StringVar(&templateVariant, "variant", string(domain.VariantPrimaryHinge), "Hinge variant (primary-hinge or paused-hinge)")
	templateCmd.Flags().BoolVar(&templateDeload, "deload", false, "Apply the deload transform")
}
