package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/kartoza/precast-yard/internal/models"
	"github.com/kartoza/precast-yard/internal/precast"
)

func newSignalsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signals",
		Short: "List scenario signals and their ranges",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonOutput(cmd) {
				return printJSON(cmd.OutOrStdout(), models.SignalsResponse{
					Signals:       precast.Signals(),
					CuringMethods: precast.MethodLabels(),
				})
			}

			defaults := precast.DefaultScenario()
			rows := make([][]string, 0, len(precast.Signals()))
			for _, s := range precast.Signals() {
				def, _ := defaults.Value(s.Name)
				upper := formatSignal(s.Max)
				if s.OpenMax {
					upper += "+"
				}
				rows = append(rows, []string{
					"--" + flagName(s.Name),
					string(s.Kind),
					formatSignal(s.Min),
					upper,
					formatSignal(def),
					s.Description,
				})
			}
			printTable(cmd.OutOrStdout(), "Signals",
				[]string{"Flag", "Type", "Min", "Max", "Default", "Description"}, rows)

			labels := precast.MethodLabels()
			codes := make([]string, 0, len(labels))
			for code := range labels {
				codes = append(codes, code)
			}
			sort.Strings(codes)
			methods := make([][]string, 0, len(codes))
			for _, code := range codes {
				methods = append(methods, []string{code, labels[code]})
			}
			fmt.Fprintln(cmd.OutOrStdout())
			printTable(cmd.OutOrStdout(), "Curing methods", []string{"Code", "Method"}, methods)
			return nil
		},
	}
}
