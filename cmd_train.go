package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kartoza/precast-yard/internal/models"
	"github.com/kartoza/precast-yard/internal/simulator"
)

func newTrainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train the surrogate models and save them",
		Long: `Sample the analytical yard model, fit the days and cost pipelines and
save them to the model path. Every run is recorded in the training history.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			// only flags given on the command line override the config
			var req models.TrainRequest
			if cmd.Flags().Changed("samples") {
				n, _ := cmd.Flags().GetInt("samples")
				req.Samples = &n
			}
			if cmd.Flags().Changed("seed") {
				seed, _ := cmd.Flags().GetUint64("seed")
				req.Seed = &seed
			}
			if cmd.Flags().Changed("cv") {
				cv, _ := cmd.Flags().GetBool("cv")
				req.CrossValidate = &cv
			}
			if err := req.Validate(); err != nil {
				return err
			}

			sim, err := newSession(cfg)
			if err != nil {
				return err
			}
			defer sim.Close()

			report, err := sim.Train(cmd.Context(), req.Apply(cfg.TrainOptions()))
			if err != nil {
				return err
			}
			if err := sim.Save(cfg.ModelPath); err != nil {
				return fmt.Errorf("saving model: %w", err)
			}

			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), models.TrainResponse{
					TrainingReport:      report,
					TrainingTimeSeconds: report.Seconds(),
				})
			}
			printReport(cmd.OutOrStdout(), report)
			fmt.Fprintln(cmd.OutOrStdout(), noteStyle.Render("Model saved to "+cfg.ModelPath))
			return nil
		},
	}

	cmd.Flags().Int("samples", 4000, "Scenarios to sample (each yields one row per curing method)")
	cmd.Flags().Uint64("seed", 42, "Sampler seed")
	cmd.Flags().Bool("cv", false, "Report k-fold cross-validated R² for both models")

	return cmd
}

func printReport(w io.Writer, r *simulator.TrainingReport) {
	rows := [][]string{
		{"Run", r.ID},
		{"Samples", fmt.Sprintf("%d scenarios, %d rows", r.Samples, r.Rows)},
		{"Seed", fmt.Sprintf("%d", r.Seed)},
		{"Model", fmt.Sprintf("degree %d, alpha %g", r.Degree, r.Alpha)},
		{"Training time", fmt.Sprintf("%.2fs", r.Seconds())},
	}
	if r.DaysCV != nil {
		rows = append(rows, []string{"Days R² (CV)", fmt.Sprintf("%.4f ± %.4f", r.DaysCV.Mean, r.DaysCV.Std)})
	}
	if r.CostCV != nil {
		rows = append(rows, []string{"Cost R² (CV)", fmt.Sprintf("%.4f ± %.4f", r.CostCV.Mean, r.CostCV.Std)})
	}
	printTable(w, "Training run", []string{"Field", "Value"}, rows)
}
