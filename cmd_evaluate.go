package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kartoza/precast-yard/internal/models"
	"github.com/kartoza/precast-yard/internal/precast"
	"github.com/kartoza/precast-yard/internal/simulator"
)

// explainedEvaluation adds the analytical breakdown to an evaluation
type explainedEvaluation struct {
	models.EvaluateResponse
	GroundTruth []explainedOutcome `json:"groundtruth"`
}

type explainedOutcome struct {
	Method string `json:"curing_method"`
	precast.Outcome
}

func newEvaluateCmd() *cobra.Command {
	var explain bool

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Predict days and cost for every curing method",
		Long: `Evaluate a scenario with the trained models and compare each curing
method against the analytical yard model.`,
		Args: cobra.NoArgs,
	}
	sf := bindScenarioFlags(cmd)
	cmd.Flags().BoolVar(&explain, "explain", false, "Show the analytical cost breakdown")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		sc, err := sf.resolve(cmd)
		if err != nil {
			return err
		}
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		sim, err := openSimulator(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer sim.Close()

		results, err := sim.Evaluate(sc)
		if err != nil {
			return err
		}

		resp := models.EvaluateResponse{Results: results, Scenario: sc}
		if jsonOutput(cmd) {
			if !explain {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			out := explainedEvaluation{EvaluateResponse: resp}
			for _, r := range results {
				out.GroundTruth = append(out.GroundTruth, explainedOutcome{Method: r.Method, Outcome: r.Outcome})
			}
			return printJSON(cmd.OutOrStdout(), out)
		}

		printEvaluation(cmd.OutOrStdout(), results, explain)
		return nil
	}

	return cmd
}

func printEvaluation(w io.Writer, results []simulator.Evaluation, explain bool) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Method,
			formatDays(r.PredictedDays),
			precast.FormatINR(r.PredictedCost),
			formatDays(r.GroundTruthDays),
			precast.FormatINR(r.GroundTruthCost),
		})
	}
	printTable(w, "Evaluation",
		[]string{"Curing", "Days", "Cost", "Actual days", "Actual cost"}, rows)

	if !explain {
		return
	}

	rows = rows[:0]
	var fellBack bool
	for _, r := range results {
		o := r.Outcome
		method := r.Method
		if o.FellBack {
			method += " *"
			fellBack = true
		}
		rows = append(rows, []string{
			method,
			formatDays(o.CuringDays),
			precast.FormatINR(o.Breakdown.Material),
			precast.FormatINR(o.Breakdown.Equipment),
			precast.FormatINR(o.Breakdown.Curing),
			precast.FormatINR(o.Breakdown.Overhead),
		})
	}
	printTable(w, "Cost breakdown",
		[]string{"Curing", "Curing days", "Material", "Equipment", "Curing cost", "Overhead"}, rows)
	if fellBack {
		fmt.Fprintln(w, warnStyle.Render("* water budget too small; curing used chemical compound"))
	}
}
