package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/log"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/gasbox/internal/analysis"
	"github.com/san-kum/gasbox/internal/config"
	"github.com/san-kum/gasbox/internal/export"
	"github.com/san-kum/gasbox/internal/metrics"
	"github.com/san-kum/gasbox/internal/optim"
	"github.com/san-kum/gasbox/internal/playback"
	"github.com/san-kum/gasbox/internal/scene"
	"github.com/san-kum/gasbox/internal/sim"
	"github.com/san-kum/gasbox/internal/storage"
	"github.com/san-kum/gasbox/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	logLevel   string
	dt         float64
	duration   float64
	seed       int64
	integrator string
	// live view
	speed    float64
	autoplay bool
	theme    string
	// run
	ensemble int
	jsonOut  string
	noSave   bool
	showDist bool
	phase    string
	// sweep
	sweepParams []string
	sweepMetric string
	// export-svg
	svgOut    string
	svgAt     float64
	svgWidth  int
	svgHeight int
	braille   bool
)

// main registers the gasbox commands and executes the root command, exiting
// with status 1 on error.
func main() {
	rootCmd := &cobra.Command{
		Use:           "gasbox",
		Short:         "2-D gas of colliding particles with thermal walls",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".gasbox", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [preset|scene.yaml]",
		Short: "run a scene headless and store the result",
		Args:  cobra.ExactArgs(1),
		RunE:  runSimulation,
	}
	addSceneFlags(runCmd)
	runCmd.Flags().IntVar(&ensemble, "ensemble", 0, "run N copies with consecutive seeds instead")
	runCmd.Flags().StringVar(&jsonOut, "json", "", "also export the run as JSON to this path (- for stdout)")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not write the run to the data directory")
	runCmd.Flags().BoolVar(&showDist, "dist", false, "print the final speed distribution against Maxwell-Boltzmann")
	runCmd.Flags().StringVar(&phase, "phase", "", "print the final phase portrait along x or y")

	liveCmd := &cobra.Command{
		Use:   "live [preset|scene.yaml]",
		Short: "run a scene with the terminal viewer",
		Args:  cobra.ExactArgs(1),
		RunE:  runLive,
	}
	addSceneFlags(liveCmd)
	liveCmd.Flags().Float64Var(&speed, "speed", 1, "real-time multiplier, 0 runs unthrottled")
	liveCmd.Flags().BoolVar(&autoplay, "play", true, "start playing instead of paused")
	liveCmd.Flags().StringVar(&theme, "theme", viz.Themes[0].Name, fmt.Sprintf("color theme %v", viz.ThemeNames()))

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenes",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	dumpCmd := &cobra.Command{
		Use:   "dump [preset] [path]",
		Short: "write a preset as an editable scene file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.GetPreset(args[0])
			if cfg == nil {
				return fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
			}
			return config.Save(args[1], cfg)
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot temperature and energy of a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	svgCmd := &cobra.Command{
		Use:   "export-svg [preset|scene.yaml]",
		Short: "render one frame of a scene to SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  exportSVG,
	}
	addSceneFlags(svgCmd)
	svgCmd.Flags().StringVarP(&svgOut, "out", "o", "frame.svg", "output path (- for stdout)")
	svgCmd.Flags().Float64Var(&svgAt, "at", 0, "simulated time of the frame")
	svgCmd.Flags().IntVar(&svgWidth, "width", 800, "image width")
	svgCmd.Flags().IntVar(&svgHeight, "height", 600, "image height")
	svgCmd.Flags().BoolVar(&braille, "braille", false, "render the terminal canvas instead of true circles")

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset|scene.yaml]",
		Short: "run a scene over a parameter grid and rank by a metric",
		Args:  cobra.ExactArgs(1),
		RunE:  runSweep,
	}
	addSceneFlags(sweepCmd)
	sweepCmd.Flags().StringArrayVarP(&sweepParams, "param", "p", nil,
		fmt.Sprintf("name=v1,v2,... (repeatable; names %v)", config.ParamNames()))
	sweepCmd.Flags().StringVar(&sweepMetric, "metric", "energy_drift", "metric to minimise")

	rootCmd.AddCommand(runCmd, liveCmd, presetsCmd, dumpCmd, listCmd, plotCmd, exportCmd, svgCmd, sweepCmd)

	if err := rootCmd.Execute(); err != nil {
		log.Error("gasbox failed", "err", err)
		os.Exit(1)
	}
}

func addSceneFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	cmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator")
}

func newLogger(w *os.File) (*log.Logger, error) {
	level, err := log.ParseLevel(logLevel)
	if err != nil {
		return nil, err
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          "gasbox",
		ReportTimestamp: true,
	}), nil
}

// loadConfig resolves a preset or scene file and applies the flags the user
// set explicitly. Unset flags leave the file's values alone.
func loadConfig(cmd *cobra.Command, nameOrPath string) (*config.Config, error) {
	cfg, err := config.Resolve(nameOrPath)
	if err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = strings.TrimSuffix(filepath.Base(nameOrPath), filepath.Ext(nameOrPath))
	}
	if cmd.Flags().Changed("dt") {
		cfg.Dt = dt
	}
	if cmd.Flags().Changed("time") {
		cfg.Duration = duration
	}
	if cmd.Flags().Changed("seed") {
		cfg.Seed = seed
	}
	if cmd.Flags().Changed("integrator") {
		cfg.Integrator = integrator
	}
	return cfg, nil
}

func prepare(cmd *cobra.Command, arg string, logger *log.Logger) (*config.Config, *scene.Scene, sim.Options, error) {
	cfg, err := loadConfig(cmd, arg)
	if err != nil {
		return nil, nil, sim.Options{}, err
	}
	sc, err := config.Build(cfg)
	if err != nil {
		return nil, nil, sim.Options{}, err
	}
	opts, err := cfg.EngineOptions(logger)
	if err != nil {
		return nil, nil, sim.Options{}, err
	}
	return cfg, sc, opts, nil
}

func runInfo(cfg *config.Config) storage.RunInfo {
	return storage.RunInfo{
		Scene:      cfg.Name,
		Seed:       cfg.Seed,
		Dt:         cfg.Dt,
		Duration:   cfg.Duration,
		Integrator: cfg.Integrator,
	}
}

func runSimulation(cmd *cobra.Command, args []string) error {
	if phase != "" && phase != "x" && phase != "y" {
		return fmt.Errorf("unknown phase axis %q, want x or y", phase)
	}
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	cfg, sc, opts, err := prepare(cmd, args[0], logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	steps := cfg.Steps()
	warmup := steps / 4
	if ensemble > 0 {
		return runEnsemble(ctx, cfg, sc, opts, steps, warmup)
	}

	eng, err := sim.New(sc, opts)
	if err != nil {
		return err
	}
	for _, m := range metrics.Default(warmup) {
		eng.AddMetric(m)
	}

	logger.Info("running", "scene", cfg.Name, "particles", len(sc.Particles), "walls", len(sc.Walls), "steps", steps)
	result, err := eng.Run(ctx, steps)
	if err != nil {
		var se *sim.SimulationError
		if !errors.As(err, &se) || !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Warn("interrupted", "step", se.Step, "time", se.Time)
	}

	printSummary(result)
	if err := printAnalysis(result.Final); err != nil {
		return err
	}

	info := runInfo(cfg)
	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(info, result)
		if err != nil {
			return err
		}
		fmt.Printf("saved: %s\n", runID)
	}

	switch jsonOut {
	case "":
	case "-":
		return storage.WriteJSON(os.Stdout, info, result)
	default:
		return storage.ExportJSON(jsonOut, info, result)
	}
	return nil
}

func printSummary(result *sim.Result) {
	final := result.Final.Stats
	fmt.Printf("steps:        %d\n", result.StepsTaken)
	fmt.Printf("time:         %.3f\n", result.Final.Time)
	fmt.Printf("particles:    %d\n", final.NumParticles)
	fmt.Printf("temperature:  %.6f\n", final.Temperature)
	fmt.Printf("energy drift: %.3e\n", result.EnergyDrift)
	fmt.Printf("warnings:     %d\n", result.Warnings)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nMETRIC\tVALUE")
	for _, name := range []string{"temperature", "energy_drift", "momentum_drift", "stability"} {
		if v, ok := result.Metrics[name]; ok {
			fmt.Fprintf(w, "%s\t%.6g\n", name, v)
		}
	}
	w.Flush()
}

func printAnalysis(f sim.Frame) error {
	dist := analysis.SpeedDistribution(f.Particles, 16)
	fmt.Printf("maxwell L1:   %.4f\n", dist.L1Error())
	if showDist {
		fmt.Println()
		fmt.Print(dist.ASCII(50))
	}

	switch phase {
	case "":
		return nil
	case "x":
		fmt.Println("\nx vs vx")
		fmt.Print(analysis.PhasePortraitToASCII(analysis.PhaseSpace(f.Particles, analysis.AxisX), 72, 20))
	case "y":
		fmt.Println("\ny vs vy")
		fmt.Print(analysis.PhasePortraitToASCII(analysis.PhaseSpace(f.Particles, analysis.AxisY), 72, 20))
	default:
		return fmt.Errorf("unknown phase axis %q, want x or y", phase)
	}
	return nil
}

func runEnsemble(ctx context.Context, cfg *config.Config, sc *scene.Scene, opts sim.Options, steps, warmup int) error {
	ens := sim.NewEnsemble(sc, opts, ensemble, cfg.Seed, func() []sim.Metric {
		return metrics.Default(warmup)
	})
	results, err := ens.Run(ctx, steps)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SEED\tTEMPERATURE\tDRIFT\tSTABILITY\tWARNINGS")
	sum := 0.0
	for i, res := range results {
		sum += res.Metrics["temperature"]
		fmt.Fprintf(w, "%d\t%.6f\t%.3e\t%.4f\t%d\n",
			cfg.Seed+int64(i),
			res.Metrics["temperature"],
			res.EnergyDrift,
			res.Metrics["stability"],
			res.Warnings,
		)
	}
	fmt.Fprintf(w, "mean\t%.6f\t\t\t\n", sum/float64(len(results)))
	return w.Flush()
}

func runSweep(cmd *cobra.Command, args []string) error {
	if len(sweepParams) == 0 {
		return fmt.Errorf("sweep needs at least one --param")
	}
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	base, err := loadConfig(cmd, args[0])
	if err != nil {
		return err
	}

	names := make([]string, 0, len(sweepParams))
	ranges := make([][]float64, 0, len(sweepParams))
	for _, p := range sweepParams {
		name, vals, err := optim.ParseParam(p)
		if err != nil {
			return err
		}
		if err := base.Clone().Set(name, 0); err != nil {
			return err
		}
		names = append(names, name)
		ranges = append(ranges, vals)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	quiet := logger.With()
	quiet.SetLevel(log.ErrorLevel)
	trial := func(ctx context.Context, params map[string]float64) (map[string]float64, error) {
		cfg := base.Clone()
		for name, v := range params {
			if err := cfg.Set(name, v); err != nil {
				return nil, err
			}
		}
		sc, err := config.Build(cfg)
		if err != nil {
			return nil, err
		}
		opts, err := cfg.EngineOptions(quiet)
		if err != nil {
			return nil, err
		}
		eng, err := sim.New(sc, opts)
		if err != nil {
			return nil, err
		}
		steps := cfg.Steps()
		for _, m := range metrics.Default(steps / 4) {
			eng.AddMetric(m)
		}
		res, err := eng.Run(ctx, steps)
		if err != nil {
			return nil, err
		}
		res.Metrics["warnings"] = float64(res.Warnings)
		logger.Debug("trial done", "params", params, sweepMetric, res.Metrics[sweepMetric])
		return res.Metrics, nil
	}

	g := optim.NewGridSearch(names, ranges)
	logger.Info("sweeping", "scene", base.Name, "points", g.Size(), "metric", sweepMetric)
	best, points, err := g.Search(ctx, trial, sweepMetric)
	if err != nil && len(points) == 0 {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.ToUpper(strings.Join(names, "\t"))+"\t"+strings.ToUpper(sweepMetric)+"\tTEMPERATURE\tWARNINGS")
	for _, p := range points {
		row := make([]string, 0, len(names)+3)
		for _, name := range names {
			row = append(row, strconv.FormatFloat(p.Params[name], 'g', -1, 64))
		}
		if p.Err != nil {
			row = append(row, "error: "+p.Err.Error(), "", "")
		} else {
			row = append(row,
				fmt.Sprintf("%.6g", p.Metrics[sweepMetric]),
				fmt.Sprintf("%.4f", p.Metrics["temperature"]),
				fmt.Sprintf("%.0f", p.Metrics["warnings"]))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if err != nil {
		return err
	}
	fmt.Printf("\nbest: %v (%s = %.6g)\n", best.Params, sweepMetric, best.Metrics[sweepMetric])
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return err
	}
	logFile, err := os.OpenFile(filepath.Join(dataDir, "live.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer logFile.Close()

	logger, err := newLogger(logFile)
	if err != nil {
		return err
	}
	cfg, sc, engOpts, err := prepare(cmd, args[0], logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	opts := playback.DefaultOptions()
	opts.Engine = engOpts
	opts.Autoplay = autoplay
	opts.Speed = speed
	opts.Logger = logger

	sched, err := playback.Start(ctx, sc, opts)
	if err != nil {
		return err
	}
	defer sched.Shutdown()

	model := viz.NewModel(sched, cfg.Name, func() (*scene.Scene, error) {
		return config.Build(cfg)
	}).WithTheme(theme)

	if err := viz.Run(ctx, model); err != nil {
		return err
	}
	sched.Shutdown()
	if err := sched.Wait(); err != nil && !errors.Is(err, playback.ErrStopped) {
		return err
	}
	if n := sched.Dropped(); n > 0 {
		logger.Info("viewer fell behind", "dropped", n)
	}
	return nil
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPARTICLES\tWALLS\tGRAVITY\tINTEG\tDURATION")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		sc, err := config.Build(cfg)
		if err != nil {
			return fmt.Errorf("preset %s: %w", name, err)
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t(%g, %g)\t%s\t%.1fs\n",
			name,
			len(sc.Particles),
			len(sc.Walls),
			sc.Gravity.X, sc.Gravity.Y,
			cfg.Integrator,
			cfg.Duration,
		)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tDURATION\tDT\tINTEG\tN\tWARN")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%d\t%d\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Particles,
			run.Warnings,
		)
	}

	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("samples: %d\n\n", len(samples))

	temperature := make([]float64, len(samples))
	energy := make([]float64, len(samples))
	for i, s := range samples {
		temperature[i] = s.Stats.Temperature
		energy[i] = s.Stats.KineticEnergy
	}

	for _, series := range []struct {
		caption string
		data    []float64
	}{
		{"temperature", temperature},
		{"kinetic energy", energy},
	} {
		graph := asciigraph.Plot(series.data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(series.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportSVG(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	cfg, sc, opts, err := prepare(cmd, args[0], logger)
	if err != nil {
		return err
	}
	eng, err := sim.New(sc, opts)
	if err != nil {
		return err
	}

	steps := 0
	if svgAt > 0 {
		steps = int(math.Round(svgAt / cfg.Dt))
	}
	result, err := eng.Run(cmd.Context(), steps)
	if err != nil {
		return err
	}
	f := result.Final

	var svg string
	if braille {
		canvas := viz.NewCanvas(svgWidth/8, svgHeight/16)
		viz.Draw(canvas, f, viz.Fit(f, 0.1))
		svg = export.CanvasToSVG(canvas, 4)
	} else {
		svgOpts := export.DefaultOptions()
		svgOpts.Width, svgOpts.Height = svgWidth, svgHeight
		svgOpts.Species = sc.Species
		svgOpts.Caption = cfg.Name + "  " + export.Caption(f)
		svg = export.FrameToSVG(f, svgOpts)
	}

	if svgOut == "-" {
		_, err := fmt.Println(svg)
		return err
	}
	if err := os.WriteFile(svgOut, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s (t=%.3f, frame %d)\n", svgOut, f.Time, f.Number)
	return nil
}
