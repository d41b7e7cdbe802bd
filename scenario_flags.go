package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kartoza/precast-yard/internal/precast"
)

// scenarioFlags binds one flag per signal plus an optional YAML scenario file
type scenarioFlags struct {
	file   string
	values map[string]*float64
}

func flagName(signal string) string {
	return strings.ReplaceAll(signal, "_", "-")
}

func bindScenarioFlags(cmd *cobra.Command) *scenarioFlags {
	sf := &scenarioFlags{values: make(map[string]*float64)}
	defaults := precast.DefaultScenario()

	cmd.Flags().StringVar(&sf.file, "scenario", "", "YAML file with scenario fields (flags override it)")
	for _, sig := range precast.Signals() {
		def, _ := defaults.Value(sig.Name)
		sf.values[sig.Name] = cmd.Flags().Float64(flagName(sig.Name), def, sig.Description)
	}
	return sf
}

// resolve layers the default scenario, the scenario file and any flags
// set on the command line, then validates the result.
func (sf *scenarioFlags) resolve(cmd *cobra.Command) (precast.Scenario, error) {
	sc := precast.DefaultScenario()
	if sf.file != "" {
		data, err := os.ReadFile(sf.file)
		if err != nil {
			return sc, fmt.Errorf("reading scenario file: %w", err)
		}
		if err := yaml.Unmarshal(data, &sc); err != nil {
			return sc, fmt.Errorf("parsing scenario file: %w", err)
		}
	}

	for _, name := range precast.SignalNames() {
		if !cmd.Flags().Changed(flagName(name)) {
			continue
		}
		next, ok := sc.With(name, *sf.values[name])
		if !ok {
			return sc, fmt.Errorf("unknown signal %q", name)
		}
		sc = next
	}

	if err := sc.Validate(); err != nil {
		return sc, err
	}
	return sc, nil
}
