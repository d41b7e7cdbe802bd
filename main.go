package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/kartoza/precast-yard/internal/config"
	"github.com/kartoza/precast-yard/internal/logging"
)

var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "precast-yard",
		Short: "Precast yard curing simulator",
		Long: `precast-yard estimates the schedule and cost of a precast casting yard
under water, steam and chemical curing.

It trains a regression surrogate on an analytical yard model and answers
forward queries (scenario to days and cost), inverse queries (budget to
schedule, deadline to cost) and one-signal sensitivity sweeps.

Environment Variables:
  PRECAST_DATA_DIR    Directory for the saved model and training history
  PRECAST_MODEL_PATH  Saved model file (default: <data dir>/models/precast.gob)
  LOG_LEVEL           debug, info, warn or error`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level, _ := cmd.Flags().GetString("log-level")
			if level == "" {
				level = os.Getenv("LOG_LEVEL")
			}
			// command output owns stdout; logs go to stderr
			slog.SetDefault(logging.New(cmd.ErrOrStderr(), level, os.Getenv("LOG_FORMAT")))
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("data-dir", "", "Data directory (overrides config)")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (overrides LOG_LEVEL)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(),
		newTrainCmd(),
		newEvaluateCmd(),
		newPredictTimeCmd(),
		newPredictCostCmd(),
		newSensitivityCmd(),
		newSignalsCmd(),
		newRunsCmd(),
		newScenariosCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), map[string]string{"version": version})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Precast Yard v%s\n", version)
			return nil
		},
	}
}

// loadConfig resolves configuration from --config, the environment and
// the global flags, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if dir, _ := cmd.Flags().GetString("data-dir"); dir != "" {
		// the model follows the data dir unless it was set explicitly
		if cfg.ModelPath == config.DefaultModelPath(cfg.DataDir) {
			cfg.ModelPath = config.DefaultModelPath(dir)
		}
		cfg.DataDir = dir
	}
	cfg.Version = version
	return cfg, nil
}

func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}
