package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"

	"github.com/san-kum/femsim/internal/analysis"
	"github.com/san-kum/femsim/internal/config"
	"github.com/san-kum/femsim/internal/metrics"
	"github.com/san-kum/femsim/internal/sim"
	"github.com/san-kum/femsim/internal/storage"
	"github.com/san-kum/femsim/internal/viz"
	"github.com/spf13/cobra"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	cfg, opts, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	s, sc, err := setup(cfg, logger, opts...)
	if err != nil {
		return err
	}

	for _, m := range metrics.Default(sc.System) {
		s.AddMetric(m)
	}
	trace := metrics.NewCentroidTrace(sc.Bodies[0].Object, traceEvery)
	s.AddObserver(trace)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s: %d bodies, %d state values, %s\n",
		cfg.Name, len(sc.Bodies), sc.System.StateDim(), cfg.Integrator)
	result, runErr := s.Run(ctx, sim.Config{
		Duration:      cfg.Duration,
		RecordEvery:   cfg.RecordEvery,
		ValidateState: true,
		MaxNorm:       divergenceLimit,
	})
	if result == nil {
		return runErr
	}
	if runErr != nil {
		logger.Warn("run stopped early, saving partial result", "err", runErr)
	}

	st := storage.New(dataDir)
	runID, err := st.Save(storage.NewMetadata(cfg.Name, cfg, sc), cfg, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", result.Wall)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d (%d saved)\n", result.StepsTaken, len(result.States))
	fmt.Printf("energy drift: %.3e\n", result.EnergyDrift)
	if f, _, err := analysis.DominantFrequency(trace.Y, trace.SampleRate()); err == nil {
		fmt.Printf("%s vibration: %.3f hz\n", sc.Bodies[0].Name, f)
	}
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(result.Metrics))
	for name := range result.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %s: %.6g\n", name, result.Metrics[name])
	}

	return runErr
}

func runLive(cmd *cobra.Command, args []string) error {
	// stderr belongs to the viewer while it runs
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	launch := func(name string) (viz.Model, error) {
		var a []string
		if name != "" {
			a = []string{name}
		}
		cfg, opts, err := loadConfig(cmd, a)
		if err != nil {
			return viz.Model{}, err
		}
		s, sc, err := setup(cfg, logger, opts...)
		if err != nil {
			return viz.Model{}, err
		}
		return viz.NewModel(s, sc, cfg.Name).WithTheme(themeName).WithGIFPath(gifPath), nil
	}

	if configFile != "" || len(args) > 0 {
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		m, err := launch(name)
		if err != nil {
			return err
		}
		return viz.Run(m)
	}
	return viz.Run(viz.NewPicker(config.ListPresets(), config.PresetInfo, launch))
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := newTable()
	fmt.Fprintln(w, "NAME\tBODIES\tDURATION\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		cfg := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%d\t%.1fs\t%s\n", name, len(cfg.Bodies), cfg.Duration, config.PresetInfo[name])
	}
	return w.Flush()
}
