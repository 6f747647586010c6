package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/femsim/internal/config"
	"github.com/san-kum/femsim/internal/integrators"
	"github.com/san-kum/femsim/internal/scene"
	"github.com/san-kum/femsim/internal/sim"
	"github.com/spf13/cobra"
)

// divergenceLimit stops headless runs whose state norm grows past any
// physically plausible scene.
const divergenceLimit = 1e6

var (
	dataDir     string
	logLevel    string
	configFile  string
	dt          float64
	duration    float64
	seed        int64
	integrator  string
	gravity     float64
	recordEvery int
	// run
	traceEvery int
	// plot / analyze
	bodyName  string
	showPhase bool
	// export-json / snapshot
	outPath    string
	frameIndex int
	showTrace  bool
	// live
	themeName string
	gifPath   string
	// sweep
	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int
	// mesh
	meshSize float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "femsim",
		Short:         "tetrahedral soft-body simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLive(cmd, nil)
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".femsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run [preset]",
		Short: "run a scene headless and save the result",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addSceneFlags(runCmd)
	runCmd.Flags().IntVar(&traceEvery, "trace-every", 10, "steps between centroid samples for the frequency estimate")

	liveCmd := &cobra.Command{
		Use:   "live [preset]",
		Short: "run a scene in the terminal viewer",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSceneFlags(liveCmd)
	liveCmd.Flags().StringVar(&themeName, "theme", "cyberpunk", "color theme")
	liveCmd.Flags().StringVar(&gifPath, "gif", "femsim.gif", "where G saves the recording")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot body heights of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&bodyName, "body", "", "body to plot (default all)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "vibration frequency of a body in a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&bodyName, "body", "", "body to analyze (default first)")
	analyzeCmd.Flags().BoolVar(&showPhase, "phase", false, "also draw height against vertical velocity")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file, - for stdout")

	snapshotCmd := &cobra.Command{
		Use:   "snapshot [run_id]",
		Short: "write one saved frame, or a height trace, as SVG",
		Args:  cobra.ExactArgs(1),
		RunE:  snapshotRun,
	}
	snapshotCmd.Flags().IntVar(&frameIndex, "frame", -1, "saved state index, negative counts from the end")
	snapshotCmd.Flags().BoolVar(&showTrace, "trace", false, "plot mean body height over time instead")
	snapshotCmd.Flags().StringVar(&bodyName, "body", "", "body for --trace (default first)")
	snapshotCmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file, - for stdout")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in scenes",
		RunE:  listPresets,
	}

	compareCmd := &cobra.Command{
		Use:   "compare [preset] [integrator...]",
		Short: "run the same scene with several integrators concurrently",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareIntegrators,
	}
	addSceneFlags(compareCmd)

	benchCmd := &cobra.Command{
		Use:   "bench [preset]",
		Short: "measure step throughput against mesh resolution",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchScene,
	}
	addSceneFlags(benchCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep [preset]",
		Short: "dominant vibration frequency across a material parameter",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepParameter,
	}
	addSceneFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "rigidity", "material parameter")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 1e4, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 8e4, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 5, "number of values")

	meshCmd := &cobra.Command{
		Use:   "mesh",
		Short: "inspect or generate .mesh files",
	}
	meshInfoCmd := &cobra.Command{
		Use:   "info [file]",
		Short: "print mesh statistics",
		Args:  cobra.ExactArgs(1),
		RunE:  meshInfo,
	}
	meshBoxCmd := &cobra.Command{
		Use:   "box [nx] [ny] [nz]",
		Short: "write a box mesh",
		Args:  cobra.ExactArgs(3),
		RunE:  meshBox,
	}
	meshBoxCmd.Flags().Float64Var(&meshSize, "size", config.DefaultBoxSize, "cell edge length")
	meshBoxCmd.Flags().StringVarP(&outPath, "out", "o", "-", "output file, - for stdout")
	meshCmd.AddCommand(meshInfoCmd, meshBoxCmd)

	rootCmd.AddCommand(runCmd, liveCmd, listCmd, showCmd, plotCmd, analyzeCmd, exportJSONCmd,
		snapshotCmd, presetsCmd, compareCmd, benchCmd, sweepCmd, meshCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// addSceneFlags registers the flags that override values of the loaded
// scene configuration.
func addSceneFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scene file (yaml)")
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultTimestep, "timestep")
	cmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	cmd.Flags().Int64Var(&seed, "seed", 0, "random seed for mesh jitter")
	cmd.Flags().StringVar(&integrator, "integrator", integrators.DefaultName,
		"integrator ("+strings.Join(integrators.Names(), ", ")+")")
	cmd.Flags().Float64Var(&gravity, "gravity", 1, "gravitational acceleration")
	cmd.Flags().IntVar(&recordEvery, "record-every", config.DefaultRecordEvery, "steps between saved states")
}

func newLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// loadConfig resolves the scene from --config, a preset argument or the
// default preset, then applies any flag the user set explicitly.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, []scene.Option, error) {
	var (
		cfg  *config.Config
		opts []scene.Option
	)
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load config: %w", err)
		}
		if c.Name == "" {
			c.Name = strings.TrimSuffix(filepath.Base(configFile), filepath.Ext(configFile))
		}
		cfg = c
		opts = append(opts, scene.WithBaseDir(filepath.Dir(configFile)))
	case len(args) > 0:
		cfg = config.GetPreset(args[0])
		if cfg == nil {
			return nil, nil, fmt.Errorf("unknown preset: %s (available: %v)", args[0], config.ListPresets())
		}
	default:
		cfg = config.GetPreset("drop")
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Timestep = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("gravity") {
		cfg.Gravity = gravity
	}
	if flags.Changed("record-every") {
		cfg.RecordEvery = recordEvery
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, opts, nil
}

// setup builds the scene and a simulator over it.
func setup(cfg *config.Config, logger *slog.Logger, opts ...scene.Option) (*sim.Simulator, *scene.Scene, error) {
	sc, err := scene.Build(cfg, logger, opts...)
	if err != nil {
		return nil, nil, err
	}
	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return nil, nil, err
	}
	s, err := sim.New(sc.System, integ, cfg.Timestep, logger)
	if err != nil {
		return nil, nil, err
	}
	return s, sc, nil
}
