package main

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/kartoza/precast-yard/internal/models"
	"github.com/kartoza/precast-yard/internal/precast"
	"github.com/kartoza/precast-yard/internal/simulator"
)

func newSensitivityCmd() *cobra.Command {
	var (
		points     int
		plotPath   string
		plotMetric string
	)

	cmd := &cobra.Command{
		Use:   "sensitivity SIGNAL",
		Short: "Sweep one signal across its range",
		Long: fmt.Sprintf(`Predict days and cost for every curing method while one signal moves
across its declared range and the rest of the scenario stays fixed.

Signals: %s`, strings.Join(precast.SignalNames(), ", ")),
		Args: cobra.ExactArgs(1),
	}
	sf := bindScenarioFlags(cmd)
	cmd.Flags().IntVar(&points, "points", models.DefaultSensitivityPoints,
		fmt.Sprintf("Sweep points (%d-%d)", models.MinSensitivityPoints, models.MaxSensitivityPoints))
	cmd.Flags().StringVar(&plotPath, "plot", "", "Write a PNG chart of the sweep to this path")
	cmd.Flags().StringVar(&plotMetric, "plot-metric", "days", "Metric to chart: days or cost")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		signal := args[0]
		if _, ok := precast.LookupSignal(signal); !ok {
			return fmt.Errorf("unknown signal %q, valid: %s", signal, strings.Join(precast.SignalNames(), ", "))
		}
		if plotMetric != "days" && plotMetric != "cost" {
			return fmt.Errorf("plot-metric must be days or cost, got %q", plotMetric)
		}

		sc, err := sf.resolve(cmd)
		if err != nil {
			return err
		}
		req := models.NewSensitivityRequest()
		req.Scenario = sc
		req.NPoints = points
		if err := req.Validate(); err != nil {
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

		sweep, err := sim.Sensitivity(signal, req.NPoints, sc)
		if err != nil {
			return err
		}

		if plotPath != "" {
			if err := plotSensitivity(plotPath, signal, plotMetric, sweep); err != nil {
				return fmt.Errorf("writing plot: %w", err)
			}
		}

		if jsonOutput(cmd) {
			return printJSON(cmd.OutOrStdout(), models.SensitivityResponse{
				Signal:   signal,
				Points:   sweep,
				Scenario: sc,
			})
		}
		printSensitivity(cmd.OutOrStdout(), signal, sweep)
		if plotPath != "" {
			fmt.Fprintln(cmd.OutOrStdout(), noteStyle.Render("Plot written to "+plotPath))
		}
		return nil
	}

	return cmd
}

func printSensitivity(w io.Writer, signal string, sweep []simulator.SensitivityPoint) {
	rows := make([][]string, 0, len(sweep))
	for _, p := range sweep {
		rows = append(rows, []string{
			formatSignal(p.Value),
			formatDays(p.WaterDays), precast.FormatINR(p.WaterCost),
			formatDays(p.SteamDays), precast.FormatINR(p.SteamCost),
			formatDays(p.ChemicalDays), precast.FormatINR(p.ChemicalCost),
		})
	}
	printTable(w, "Sensitivity to "+signal,
		[]string{signal, "Water days", "Water cost", "Steam days", "Steam cost", "Chemical days", "Chemical cost"},
		rows)
}

var methodColors = map[precast.CuringMethod]color.RGBA{
	precast.Water:    {R: 20, G: 80, B: 200, A: 255},
	precast.Steam:    {R: 200, G: 30, B: 30, A: 255},
	precast.Chemical: {R: 40, G: 140, B: 40, A: 255},
}

// sweepSeries extracts one method's days or cost line from a sweep
func sweepSeries(sweep []simulator.SensitivityPoint, m precast.CuringMethod, metric string) plotter.XYs {
	xys := make(plotter.XYs, len(sweep))
	for i, p := range sweep {
		var days, cost float64
		switch m {
		case precast.Water:
			days, cost = p.WaterDays, p.WaterCost
		case precast.Steam:
			days, cost = p.SteamDays, p.SteamCost
		case precast.Chemical:
			days, cost = p.ChemicalDays, p.ChemicalCost
		}
		xys[i].X = p.Value
		if metric == "cost" {
			xys[i].Y = cost
		} else {
			xys[i].Y = days
		}
	}
	return xys
}

// plotSensitivity writes a PNG with one line per curing method
func plotSensitivity(path, signal, metric string, sweep []simulator.SensitivityPoint) error {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("Predicted %s vs %s", metric, signal)
	p.X.Label.Text = signal
	if metric == "cost" {
		p.Y.Label.Text = "cost (INR)"
	} else {
		p.Y.Label.Text = "days"
	}
	p.Add(plotter.NewGrid())

	for _, m := range precast.Methods() {
		line, points, err := plotter.NewLinePoints(sweepSeries(sweep, m, metric))
		if err != nil {
			return err
		}
		line.Color = methodColors[m]
		line.Width = vg.Points(1.5)
		points.GlyphStyle.Color = methodColors[m]
		points.GlyphStyle.Radius = vg.Points(2)
		p.Add(line, points)
		p.Legend.Add(m.String(), line, points)
	}
	p.Legend.Top = true

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}
