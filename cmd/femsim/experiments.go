package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/san-kum/femsim/internal/analysis"
	"github.com/san-kum/femsim/internal/config"
	"github.com/san-kum/femsim/internal/geom"
	"github.com/san-kum/femsim/internal/integrators"
	"github.com/san-kum/femsim/internal/mesh"
	"github.com/san-kum/femsim/internal/metrics"
	"github.com/san-kum/femsim/internal/scene"
	"github.com/san-kum/femsim/internal/sim"
	"github.com/spf13/cobra"
)

func compareIntegrators(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	cfg, opts, err := loadConfig(cmd, args[:1])
	if err != nil {
		return err
	}
	names := args[1:]
	if len(names) == 0 {
		names = integrators.Names()
	}

	scenes := make([]*scene.Scene, len(names))
	ensemble := sim.NewEnsemble(func(i int) (*sim.Simulator, error) {
		c := cfg.Clone()
		c.Integrator = names[i]
		s, sc, err := setup(c, logger.With("integrator", names[i]), opts...)
		if err != nil {
			return nil, err
		}
		scenes[i] = sc
		return s, nil
	}, len(names))

	fmt.Printf("comparing integrators for %s (dt=%.1e, duration=%.2fs)\n\n", cfg.Name, cfg.Timestep, cfg.Duration)
	results, runErr := ensemble.Run(context.Background(), sim.Config{
		Duration:      cfg.Duration,
		RecordEvery:   cfg.RecordEvery,
		ValidateState: true,
		MaxNorm:       divergenceLimit,
	})

	w := newTable()
	fmt.Fprintln(w, "INTEGRATOR\tFINAL Y\tENERGY DRIFT\tSTEPS\tTIME")
	for i, name := range names {
		r, sc := results[i], scenes[i]
		if r == nil || sc == nil {
			fmt.Fprintf(w, "%s\tfailed\t\t\t\n", name)
			continue
		}
		fmt.Fprintf(w, "%s\t%.6f\t%.2e\t%d\t%v\n",
			name, sc.Bodies[0].Object.Centroid().Y(), r.EnergyDrift, r.StepsTaken, r.Wall.Round(time.Millisecond))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

var benchResolutions = []int{1, 2, 3, 4}

// benchScene reruns the scene with every simulated box body remeshed at
// increasing resolution over the same extent.
func benchScene(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("time") {
		if err := cmd.Flags().Set("time", "0.05"); err != nil {
			return err
		}
	}
	base, opts, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	fmt.Printf("benchmarking %s, %.2fs of simulated time\n\n", base.Name, base.Duration)
	w := newTable()
	fmt.Fprintln(w, "CELLS\tNODES\tTETS\tINTEG\tSTEPS\tTIME\tSTEPS/SEC")
	for _, n := range benchResolutions {
		for _, name := range integrators.Names() {
			cfg := base.Clone()
			cfg.Integrator = name
			cfg.RecordEvery = 1 << 30
			for i := range cfg.Bodies {
				b := &cfg.Bodies[i]
				if b.Mesh != config.MeshBox {
					continue
				}
				extent := float64(b.Box.NX) * b.Box.Size
				b.Box = config.BoxConfig{NX: n, NY: n, NZ: n, Size: extent / float64(n)}
			}

			s, sc, err := setup(cfg, logger, opts...)
			if err != nil {
				return err
			}
			result, err := s.Run(context.Background(), sim.Config{Duration: cfg.Duration, RecordEvery: cfg.RecordEvery})
			if err != nil {
				return err
			}
			nodes, tets := 0, 0
			for _, b := range sc.Bodies {
				nodes += b.Object.NumNodes()
				tets += b.Object.NumTets()
			}
			fmt.Fprintf(w, "%d\t%d\t%d\t%s\t%d\t%v\t%.0f\n",
				n, nodes, tets, name, result.StepsTaken, result.Wall.Round(time.Microsecond),
				float64(result.StepsTaken)/result.Wall.Seconds())
		}
	}
	return w.Flush()
}

func sweepParameter(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(os.Stderr)
	if err != nil {
		return err
	}
	cfg, opts, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	probe := func(value float64) ([]float64, error) {
		s, sc, err := setup(cfg.Clone(), logger, opts...)
		if err != nil {
			return nil, err
		}
		if err := sc.System.SetParam(sweepParam, value); err != nil {
			return nil, err
		}
		trace := metrics.NewCentroidTrace(sc.Bodies[0].Object, traceEveryFor(cfg))
		s.AddObserver(trace)
		if _, err := s.Run(context.Background(), sim.Config{Duration: cfg.Duration, RecordEvery: 1 << 30, ValidateState: true, MaxNorm: divergenceLimit}); err != nil {
			return nil, err
		}
		f, _, err := analysis.DominantFrequency(trace.Y, trace.SampleRate())
		if err != nil {
			return nil, err
		}
		logger.Info("probe finished", "param", sweepParam, "value", value, "frequency", f)
		return []float64{f}, nil
	}

	points, err := analysis.Sweep(sweepMin, sweepMax, sweepSteps, probe)

	w := newTable()
	fmt.Fprintf(w, "%s\tFREQUENCY\n", sweepParam)
	for _, p := range points {
		fmt.Fprintf(w, "%.4g\t%.3f hz\n", p.Param, p.Values[0])
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if len(points) > 1 {
		fmt.Println()
		fmt.Print(analysis.SweepToASCII(points, 60, 12))
	}
	return err
}

// traceEveryFor samples the centroid about 2000 times per unit of
// simulated time.
func traceEveryFor(cfg *config.Config) int {
	return max(1, int(1/(2000*cfg.Timestep)))
}

func meshInfo(cmd *cobra.Command, args []string) error {
	m, err := mesh.Load(args[0])
	if err != nil {
		return err
	}
	boundary, _, err := geom.ExtractFaces(m.Tets, m.Vertices)
	if err != nil {
		return err
	}
	b := m.Bounds()

	w := newTable()
	fmt.Fprintf(w, "vertices\t%d\n", len(m.Vertices))
	fmt.Fprintf(w, "tets\t%d\n", len(m.Tets))
	fmt.Fprintf(w, "boundary faces\t%d\n", len(boundary))
	fmt.Fprintf(w, "volume\t%.6g\n", m.Volume())
	fmt.Fprintf(w, "bounds\t(%.3g, %.3g, %.3g) - (%.3g, %.3g, %.3g)\n",
		b.Min.X, b.Min.Y, b.Min.Z, b.Max.X, b.Max.Y, b.Max.Z)
	return w.Flush()
}

func meshBox(cmd *cobra.Command, args []string) error {
	var n [3]int
	for i, a := range args {
		v, err := strconv.Atoi(a)
		if err != nil {
			return fmt.Errorf("invalid resolution %q: %w", a, err)
		}
		n[i] = v
	}
	m, err := mesh.Box(n[0], n[1], n[2], meshSize)
	if err != nil {
		return err
	}
	if outPath == "-" {
		return mesh.Write(os.Stdout, m)
	}
	if err := mesh.Save(outPath, m); err != nil {
		return err
	}
	fmt.Printf("wrote %d vertices, %d tets to %s\n", len(m.Vertices), len(m.Tets), outPath)
	return nil
}
