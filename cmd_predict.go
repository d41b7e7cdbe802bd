package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/kartoza/precast-yard/internal/models"
	"github.com/kartoza/precast-yard/internal/precast"
	"github.com/kartoza/precast-yard/internal/simulator"
)

func newPredictTimeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict-time BUDGET",
		Short: "Find the schedule a budget (INR) buys for each curing method",
		Args:  cobra.ExactArgs(1),
	}
	sf := bindScenarioFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		budget, err := parseTarget("budget", args[0])
		if err != nil {
			return err
		}
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

		results, err := sim.PredictTime(budget, sc)
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(cmd.OutOrStdout(), models.PredictTimeResponse{
				InputBudget: budget,
				Results:     results,
				Scenario:    sc,
			})
		}
		printRecommendations(cmd.OutOrStdout(),
			fmt.Sprintf("Schedule for a budget of %s", precast.FormatINR(budget)), results)
		return nil
	}

	return cmd
}

func newPredictCostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict-cost DAYS",
		Short: "Find the cost of meeting a deadline for each curing method",
		Args:  cobra.ExactArgs(1),
	}
	sf := bindScenarioFlags(cmd)

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		days, err := parseTarget("days", args[0])
		if err != nil {
			return err
		}
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

		results, err := sim.PredictCost(days, sc)
		if err != nil {
			return err
		}
		if jsonOutput(cmd) {
			return printJSON(cmd.OutOrStdout(), models.PredictCostResponse{
				InputDays: days,
				Results:   results,
				Scenario:  sc,
			})
		}
		printRecommendations(cmd.OutOrStdout(),
			fmt.Sprintf("Cost for a %s day schedule", formatDays(days)), results)
		return nil
	}

	return cmd
}

// parseTarget reads a positive numeric argument
func parseTarget(name, arg string) (float64, error) {
	v, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number, got %q", name, arg)
	}
	if !precast.IsPositiveFinite(v) {
		return 0, fmt.Errorf("%s must be a finite positive number, got %s", name, arg)
	}
	return v, nil
}

func printRecommendations(w io.Writer, title string, results []simulator.Recommendation) {
	rows := make([][]string, 0, len(results))
	for _, r := range results {
		rows = append(rows, []string{
			r.Method,
			formatDays(r.Days),
			precast.FormatINR(r.Cost),
			fmt.Sprintf("%.2f", r.Complexity),
			fmt.Sprintf("%.0f%%", r.Equipment*100),
		})
	}
	printTable(w, title,
		[]string{"Curing", "Days", "Cost", "Complexity", "Equipment"}, rows)
}
