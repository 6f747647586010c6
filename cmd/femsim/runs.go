package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/femsim/internal/analysis"
	"github.com/san-kum/femsim/internal/export"
	"github.com/san-kum/femsim/internal/scene"
	"github.com/san-kum/femsim/internal/sim"
	"github.com/san-kum/femsim/internal/storage"
	"github.com/san-kum/femsim/internal/viz"
	"github.com/spf13/cobra"
)

func newTable() *tabwriter.Writer {
	return tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
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

	w := newTable()
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tDURATION\tDT\tINTEG\tSTEPS\tDRIFT")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.1es\t%s\t%d\t%.2e\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Steps,
			run.EnergyDrift,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, _, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("samples: %d\n\n", len(states))

	for _, b := range meta.Bodies {
		if bodyName != "" && b.Name != bodyName {
			continue
		}
		heights, err := storage.MeanHeights(meta, b.Name, states)
		if err != nil {
			return err
		}
		graph := asciigraph.Plot(heights,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(b.Name+" mean node height"),
		)
		fmt.Println(graph)
		fmt.Println()
	}
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	if len(meta.Bodies) == 0 {
		return fmt.Errorf("run %s has no bodies", meta.ID)
	}

	body := bodyName
	if body == "" {
		body = meta.Bodies[0].Name
	}
	heights, err := storage.MeanHeights(meta, body, states)
	if err != nil {
		return err
	}
	if len(times) < 2 || times[len(times)-1] <= times[0] {
		return fmt.Errorf("run %s has too few samples", meta.ID)
	}
	rate := float64(len(times)-1) / (times[len(times)-1] - times[0])

	spectrum, err := analysis.PowerSpectrum(heights, rate)
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("body: %s, %d samples at %.1f/s\n\n", body, len(heights), rate)

	plotData := spectrum.Power[1:]
	if len(plotData) > 8 {
		plotData = plotData[:len(plotData)/2]
	}
	graph := asciigraph.Plot(plotData,
		asciigraph.Height(15),
		asciigraph.Width(80),
		asciigraph.Caption("amplitude spectrum, mean node height"),
	)
	fmt.Println(graph)
	fmt.Println()

	freq, amp, err := analysis.DominantFrequency(heights, rate)
	if err != nil {
		return err
	}
	fmt.Printf("dominant frequency: %.3f hz (amplitude %.3g)\n", freq, amp)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}

	if showPhase {
		portrait := analysis.NewPhasePortrait(heights, analysis.Derivative(heights, times))
		fmt.Println("\nheight vs vertical velocity:")
		fmt.Print(analysis.PhasePortraitToASCII(portrait, 70, 20))
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}

	result := &sim.Result{
		States:      states,
		Times:       times,
		Metrics:     meta.Metrics,
		StepsTaken:  meta.Steps,
		EnergyDrift: meta.EnergyDrift,
	}
	return storage.ExportJSON(outPath, storage.NewExportData(*meta, result))
}

// snapshotRun rebuilds the saved scene, installs one recorded state and
// writes the wireframe as SVG. With --trace it plots the body height
// instead.
func snapshotRun(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	states, times, err := st.LoadStates(args[0])
	if err != nil {
		return err
	}
	if len(states) == 0 {
		return fmt.Errorf("run %s has no saved states", meta.ID)
	}

	out := os.Stdout
	if outPath != "-" {
		f, err := os.Create(outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}

	if showTrace {
		body := bodyName
		if body == "" && len(meta.Bodies) > 0 {
			body = meta.Bodies[0].Name
		}
		heights, err := storage.MeanHeights(meta, body, states)
		if err != nil {
			return err
		}
		return export.TraceSVG(out, times, heights, 800, 400, "#00ffff")
	}

	k := frameIndex
	if k < 0 {
		k += len(states)
	}
	if k < 0 || k >= len(states) {
		return fmt.Errorf("frame %d out of range [0, %d)", frameIndex, len(states))
	}

	cfg, err := st.LoadConfig(args[0])
	if err != nil {
		return err
	}
	sc, err := scene.Build(cfg, logger)
	if err != nil {
		return err
	}
	if err := sc.System.SetState(states[k]); err != nil {
		return fmt.Errorf("run %s does not match its saved scene: %w", meta.ID, err)
	}
	if err := sc.System.AfterStep(); err != nil {
		return err
	}

	surfaces := sc.Surfaces()
	cam := viz.NewCamera()
	cam.Frame(surfaces)
	logger.Debug("snapshot", "run", meta.ID, "frame", k, "time", times[k])
	return export.WireframeSVG(out, viz.WireframeOf(surfaces), cam, 800, 600, "#00ff88")
}
