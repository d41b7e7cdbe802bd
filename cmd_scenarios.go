package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kartoza/precast-yard/internal/config"
	"github.com/kartoza/precast-yard/internal/models"
	"github.com/kartoza/precast-yard/internal/precast"
	"github.com/kartoza/precast-yard/internal/scenarios"
)

func newScenariosCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "Manage saved scenarios",
	}
	cmd.AddCommand(
		newScenariosListCmd(),
		newScenariosSaveCmd(),
		newScenariosRunCmd(),
		newScenariosDeleteCmd(),
	)
	return cmd
}

func openScenarioStore(cmd *cobra.Command) (*scenarios.Store, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	store, err := scenarios.NewStore(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return store, cfg, nil
}

func newScenariosListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved scenarios, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openScenarioStore(cmd)
			if err != nil {
				return err
			}
			list, err := store.List()
			if err != nil {
				return err
			}
			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), list)
			}
			printSavedList(cmd.OutOrStdout(), list)
			return nil
		},
	}
}

func newScenariosSaveCmd() *cobra.Command {
	var (
		description string
		budget      float64
		days        float64
	)

	cmd := &cobra.Command{
		Use:   "save TITLE",
		Short: "Save the scenario given by flags under a title",
		Args:  cobra.ExactArgs(1),
	}
	sf := bindScenarioFlags(cmd)
	cmd.Flags().StringVar(&description, "description", "", "Free-text notes")
	cmd.Flags().Float64Var(&budget, "budget", 0, "Budget (INR) to answer predict-time for")
	cmd.Flags().Float64Var(&days, "days", 0, "Deadline (days) to answer predict-cost for")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		sc, err := sf.resolve(cmd)
		if err != nil {
			return err
		}
		store, _, err := openScenarioStore(cmd)
		if err != nil {
			return err
		}

		saved := &scenarios.Saved{Title: args[0], Description: description, Scenario: sc}
		if cmd.Flags().Changed("budget") {
			saved.Budget = &budget
		}
		if cmd.Flags().Changed("days") {
			saved.Days = &days
		}
		if saved, err = store.Create(saved); err != nil {
			return err
		}

		if jsonOutput(cmd) {
			return printJSON(cmd.OutOrStdout(), saved)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %q as %s\n", saved.Title, saved.ID)
		return nil
	}

	return cmd
}

func newScenariosRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run ID",
		Short: "Evaluate a saved scenario and answer its budget and deadline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, cfg, err := openScenarioStore(cmd)
			if err != nil {
				return err
			}
			saved, err := store.Get(args[0])
			if err != nil {
				return err
			}
			sim, err := openSimulator(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer sim.Close()

			resp := models.SavedEvaluationResponse{Saved: saved}
			if resp.Evaluation, err = sim.Evaluate(saved.Scenario); err != nil {
				return err
			}
			if saved.Budget != nil {
				if resp.PredictTime, err = sim.PredictTime(*saved.Budget, saved.Scenario); err != nil {
					return err
				}
			}
			if saved.Days != nil {
				if resp.PredictCost, err = sim.PredictCost(*saved.Days, saved.Scenario); err != nil {
					return err
				}
			}

			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, titleStyle.Render(saved.Title))
			if saved.Description != "" {
				fmt.Fprintln(w, noteStyle.Render(saved.Description))
			}
			printEvaluation(w, resp.Evaluation, false)
			if resp.PredictTime != nil {
				printRecommendations(w, "Schedule for a budget of "+precast.FormatINR(*saved.Budget), resp.PredictTime)
			}
			if resp.PredictCost != nil {
				printRecommendations(w, fmt.Sprintf("Cost for a %s day schedule", formatDays(*saved.Days)), resp.PredictCost)
			}
			return nil
		},
	}
}

func newScenariosDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a saved scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, _, err := openScenarioStore(cmd)
			if err != nil {
				return err
			}
			if err := store.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
			return nil
		},
	}
}

func printSavedList(w io.Writer, list []*scenarios.Saved) {
	if len(list) == 0 {
		fmt.Fprintln(w, noteStyle.Render("No saved scenarios. Use 'precast-yard scenarios save TITLE'."))
		return
	}
	rows := make([][]string, 0, len(list))
	for _, s := range list {
		budget, days := "-", "-"
		if s.Budget != nil {
			budget = precast.FormatINR(*s.Budget)
		}
		if s.Days != nil {
			days = formatDays(*s.Days)
		}
		rows = append(rows, []string{
			s.ID,
			s.Title,
			fmt.Sprintf("%d", s.Scenario.NumElements),
			formatSignal(s.Scenario.Temperature),
			budget,
			days,
		})
	}
	printTable(w, "Saved scenarios",
		[]string{"ID", "Title", "Elements", "Temp °C", "Budget", "Deadline"}, rows)
}
