// Package report prints run summaries and listings as tables.
package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/san-kum/quartic/internal/analysis"
	"github.com/san-kum/quartic/internal/automation"
	"github.com/san-kum/quartic/internal/config"
	"github.com/san-kum/quartic/internal/storage"
)

func fmtFloat(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	if math.IsInf(v, 0) {
		return "inf"
	}
	return strconv.FormatFloat(v, 'g', 8, 64)
}

// Summary prints one quantity per row.
func Summary(w io.Writer, s analysis.Summary) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Quantity", "Value"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	data := [][]string{
		{"samples", strconv.Itoa(s.Samples)},
		{"steps", strconv.Itoa(s.Steps)},
		{"rejected", strconv.Itoa(s.Rejected)},
		{"evaluations", strconv.Itoa(s.Evaluations)},
		{"end time", fmtFloat(s.EndTime)},
		{"initial energy", fmtFloat(s.InitialEnergy)},
		{"final energy", fmtFloat(s.FinalEnergy)},
		{"max energy drift", fmtFloat(s.MaxDrift)},
		{"position range", fmt.Sprintf("[%s, %s]", fmtFloat(s.MinPosition), fmtFloat(s.MaxPosition))},
		{"momentum range", fmt.Sprintf("[%s, %s]", fmtFloat(s.MinMomentum), fmtFloat(s.MaxMomentum))},
		{"period (measured)", fmtFloat(s.Period)},
		{"period (exact)", fmtFloat(s.ExactPeriod)},
		{"period error", fmtFloat(s.PeriodError())},
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// Runs lists stored runs, oldest first.
func Runs(w io.Writer, runs []storage.RunMetadata) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "no runs found")
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"ID", "Time", "Integrator", "End", "Samples", "Drift"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, run := range runs {
		data = append(data, []string{
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Integrator,
			fmtFloat(run.Duration),
			strconv.Itoa(run.Samples),
			fmtFloat(run.EnergyDrift),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// Presets lists the named configurations in the given order.
func Presets(w io.Writer, names []string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Preset", "Integrator", "End", "Position", "Momentum"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, name := range names {
		cfg := config.GetPreset(name)
		if cfg == nil {
			continue
		}
		data = append(data, []string{
			name,
			cfg.Integrator,
			fmtFloat(cfg.EndTime),
			fmtFloat(cfg.InitState.Position),
			fmtFloat(cfg.InitState.Momentum),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// Sweep prints one row per amplitude of a period sweep.
func Sweep(w io.Writer, results []automation.SweepResult) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Position", "Energy", "Period", "Exact", "Error", "Drift", "Steps"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, r := range results {
		data = append(data, []string{
			fmtFloat(r.Position),
			fmtFloat(r.Energy),
			fmtFloat(r.Period),
			fmtFloat(r.ExactPeriod),
			fmtFloat(r.PeriodError),
			fmtFloat(r.MaxDrift),
			strconv.Itoa(r.Steps),
		})
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}
