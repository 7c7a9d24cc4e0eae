package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/san-kum/quartic/internal/analysis"
	"github.com/san-kum/quartic/internal/automation"
	"github.com/san-kum/quartic/internal/config"
	"github.com/san-kum/quartic/internal/dynamo"
	"github.com/san-kum/quartic/internal/experiment"
	"github.com/san-kum/quartic/internal/physics"
	"github.com/san-kum/quartic/internal/report"
	"github.com/san-kum/quartic/internal/storage"
	"github.com/san-kum/quartic/internal/viz"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	dataDir  string
	logLevel string

	configFile string
	preset     string
	integrator string
	csvOut     string
	figureOut  string
	phaseOut   string
	parquetOut string
	saveRun    bool
	noView     bool
)

// main exits 1 when the command fails.
func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Error("quartic failed", "err", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "quartic",
		Short: "single particle in a quartic potential",
		Long: "Integrates H = p² + x⁴ from (x, p) = (1, 0) to t = 10, shows position and\n" +
			"momentum against time and writes the trajectory to " + config.DefaultCSV + ".",
		Args:              cobra.NoArgs,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupLogging,
		RunE:              runPipeline,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory for saved runs")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml); list, show and analyze read output.data_dir from it")
	rootCmd.PersistentFlags().BoolVar(&noView, "no-view", false, "print charts instead of opening the viewer")

	rootCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator (rk45, rk4, leapfrog, euler)")
	rootCmd.Flags().StringVar(&csvOut, "out", config.DefaultCSV, "trajectory CSV path")
	rootCmd.Flags().StringVar(&figureOut, "figure", "", "write the time series figure as PNG")
	rootCmd.Flags().StringVar(&phaseOut, "phase", "", "write the phase portrait as PNG")
	rootCmd.Flags().StringVar(&parquetOut, "parquet", "", "write the trajectory as parquet")
	rootCmd.Flags().BoolVar(&saveRun, "save", false, "store the run in the data directory")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "display a saved run (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  showRun,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "energy drift and period of a saved run (latest by default)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  analyzeRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list preset configurations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return report.Presets(os.Stdout, config.ListPresets())
		},
	}

	sweepCmd := &cobra.Command{
		Use:   "sweep [sweep.yaml]",
		Short: "measure the period across a range of amplitudes",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}

	rootCmd.AddCommand(listCmd, showCmd, analyzeCmd, presetsCmd, sweepCmd)
	return rootCmd
}

func setupLogging(cmd *cobra.Command, args []string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: "15:04:05",
	})))
	return nil
}

// resolveConfig layers defaults, preset, config file and changed flags, in
// that order.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("out") {
		cfg.Output.CSV = csvOut
	}
	if flags.Changed("figure") {
		cfg.Output.Figure = figureOut
	}
	if flags.Changed("phase") {
		cfg.Output.Phase = phaseOut
	}
	if flags.Changed("parquet") {
		cfg.Output.Parquet = parquetOut
	}
	if flags.Changed("data") {
		cfg.Output.DataDir = dataDir
	}

	return cfg, cfg.Validate()
}

func runPipeline(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exp := experiment.New(cfg)
	if err := exp.Setup(experiment.NewRegistry(), slog.Default()); err != nil {
		return err
	}

	slog.Info("integrating",
		"name", cfg.Name,
		"integrator", cfg.Integrator,
		"end_time", cfg.EndTime,
		"max_step", cfg.MaxStep,
	)
	start := time.Now()

	result, err := exp.Run(ctx)
	if err != nil {
		return fmt.Errorf("integration failed: %w", err)
	}

	slog.Info("integration finished",
		"samples", result.Len(),
		"steps", result.StepsTaken,
		"rejected", result.Rejected,
		"elapsed", time.Since(start),
	)

	if err := display(cfg.Name, result); err != nil {
		return fmt.Errorf("display failed: %w", err)
	}

	if err := writeOutputs(cfg, exp, result); err != nil {
		return err
	}

	if saveRun {
		st := storage.New(cfg.Output.DataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(cfg.Name, cfg.Integrator, cfg.SimConfig(), result)
		if err != nil {
			return fmt.Errorf("failed to save run: %w", err)
		}
		slog.Info("run saved", "id", runID, "dir", st.Dir())
	}

	summary, err := analysis.Summarize(result, exp.System())
	if err != nil {
		return err
	}
	return report.Summary(os.Stdout, summary)
}

func writeOutputs(cfg *config.Config, exp *experiment.Experiment, result *dynamo.Result) error {
	if err := storage.ExportCSV(cfg.Output.CSV, result); err != nil {
		return err
	}
	slog.Info("wrote trajectory", "path", cfg.Output.CSV, "rows", result.Len())

	if path := cfg.Output.Figure; path != "" {
		if err := viz.SaveFigure(path, result); err != nil {
			return fmt.Errorf("figure: %w", err)
		}
		slog.Info("wrote figure", "path", path)
	}

	if path := cfg.Output.Phase; path != "" {
		if err := viz.SavePhasePortrait(path, result, exp.System()); err != nil {
			return fmt.Errorf("phase portrait: %w", err)
		}
		slog.Info("wrote phase portrait", "path", path)
	}

	if path := cfg.Output.Parquet; path != "" {
		if err := storage.WriteParquet(path, storage.TableFromResult(result)); err != nil {
			return err
		}
		slog.Info("wrote parquet", "path", path)
	}

	return nil
}

// display opens the interactive viewer on a terminal and otherwise prints the
// charts once.
func display(title string, result *dynamo.Result) error {
	if !noView && term.IsTerminal(int(os.Stdout.Fd())) && term.IsTerminal(int(os.Stdin.Fd())) {
		return viz.Show(title, result)
	}

	width := 80
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 40 {
		width = w - 12
	}
	_, err := fmt.Println(viz.Charts(result, width, 10))
	return err
}

// openStore opens the run store named by --data, falling back to
// output.data_dir of the --config file when --data is not set.
func openStore(cmd *cobra.Command) (*storage.Store, error) {
	dir := dataDir
	if configFile != "" && !cmd.Flags().Changed("data") {
		cfg, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if cfg.Output.DataDir != "" {
			dir = cfg.Output.DataDir
		}
	}
	return storage.New(dir), nil
}

func loadRun(cmd *cobra.Command, args []string) (*storage.RunMetadata, *dynamo.Result, error) {
	st, err := openStore(cmd)
	if err != nil {
		return nil, nil, err
	}

	var meta *storage.RunMetadata
	if len(args) == 1 {
		meta, err = st.Load(args[0])
	} else {
		meta, err = st.Latest()
	}
	if err != nil {
		return nil, nil, err
	}

	result, err := st.LoadTrajectory(meta.ID)
	if err != nil {
		return nil, nil, err
	}
	if result.Len() == 0 {
		return nil, nil, errors.New("no data")
	}
	return meta, result, nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st, err := openStore(cmd)
	if err != nil {
		return err
	}
	runs, err := st.List()
	if err != nil {
		return err
	}
	return report.Runs(cmd.OutOrStdout(), runs)
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(cmd, args)
	if err != nil {
		return err
	}
	return display(meta.ID, result)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, result, err := loadRun(cmd, args)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("integrator: %s\n\n", meta.Integrator)

	summary, err := analysis.Summarize(result, physics.NewQuartic())
	if err != nil {
		return err
	}
	if err := report.Summary(os.Stdout, summary); err != nil {
		return err
	}

	if period, err := analysis.DominantPeriod(result.Times, result.Component(0)); err == nil {
		fmt.Printf("\ndominant spectral period: %.4f\n", period)
	}

	fmt.Println("\nphase portrait (x →, p ↑):")
	fmt.Print(analysis.PhaseCanvas(result.Component(0), result.Component(1), 60, 20))
	return nil
}

func runSweep(cmd *cobra.Command, args []string) error {
	sweep := automation.DefaultSweep()
	if len(args) == 1 {
		loaded, err := automation.LoadSweep(args[0])
		if err != nil {
			return err
		}
		sweep = loaded
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	results, err := automation.RunSweep(ctx, sweep, experiment.NewRegistry(), slog.Default())
	if err != nil {
		return err
	}
	return report.Sweep(cmd.OutOrStdout(), results)
}
