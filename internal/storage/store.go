package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/femsim/internal/config"
	"github.com/san-kum/femsim/internal/dynamo"
	"github.com/san-kum/femsim/internal/fem"
	"github.com/san-kum/femsim/internal/scene"
	"github.com/san-kum/femsim/internal/sim"
)

const (
	metadataFile = "metadata.json"
	statesFile   = "states.csv"
	sceneFile    = "scene.yaml"
)

var ErrNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// BodyMetadata locates one body's segment in the saved state rows.
type BodyMetadata struct {
	Name   string  `json:"name"`
	Offset int     `json:"offset"`
	Nodes  int     `json:"nodes"`
	Tets   int     `json:"tets"`
	Mass   float64 `json:"mass"`
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Scene       string             `json:"scene"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Integrator  string             `json:"integrator"`
	Steps       int                `json:"steps"`
	WallSeconds float64            `json:"wall_seconds"`
	EnergyDrift float64            `json:"energy_drift"`
	Bodies      []BodyMetadata     `json:"bodies"`
	Skipped     []string           `json:"skipped,omitempty"`
	Metrics     map[string]float64 `json:"metrics"`
}

// NewMetadata describes a run of sc configured by cfg.
func NewMetadata(name string, cfg *config.Config, sc *scene.Scene) RunMetadata {
	meta := RunMetadata{
		Scene:      name,
		Seed:       cfg.Seed,
		Dt:         cfg.Timestep,
		Duration:   cfg.Duration,
		Integrator: cfg.Integrator,
	}
	for i, b := range sc.Bodies {
		meta.Bodies = append(meta.Bodies, BodyMetadata{
			Name:   b.Name,
			Offset: sc.System.Offset(i),
			Nodes:  b.Object.NumNodes(),
			Tets:   b.Object.NumTets(),
			Mass:   b.Object.TotalMass(),
		})
	}
	for _, sk := range sc.Report.Skipped {
		meta.Skipped = append(meta.Skipped, sk.Name)
	}
	return meta
}

// Save writes a new run directory holding the metadata, the recorded states
// and, when cfg is non-nil, the scene configuration. It returns the run id.
func (s *Store) Save(meta RunMetadata, cfg *config.Config, result *sim.Result) (string, error) {
	if err := s.Init(); err != nil {
		return "", err
	}

	name := meta.Scene
	if name == "" {
		name = "run"
	}
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", name, now.Unix())
	runDir := filepath.Join(s.baseDir, runID)
	for n := 1; ; n++ {
		err := os.Mkdir(runDir, 0755)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return "", err
		}
		runID = fmt.Sprintf("%s_%d_%d", name, now.Unix(), n)
		runDir = filepath.Join(s.baseDir, runID)
	}

	meta.ID = runID
	meta.Timestamp = now
	meta.Steps = result.StepsTaken
	meta.WallSeconds = result.Wall.Seconds()
	meta.EnergyDrift = result.EnergyDrift
	meta.Metrics = result.Metrics

	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeStates(filepath.Join(runDir, statesFile), result); err != nil {
		return "", err
	}
	if cfg != nil {
		if err := config.Save(filepath.Join(runDir, sceneFile), cfg); err != nil {
			return "", err
		}
	}
	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeStates(path string, result *sim.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if len(result.States) > 0 {
		header := []string{"time"}
		for i := range result.States[0] {
			header = append(header, fmt.Sprintf("x%d", i))
		}
		if err := w.Write(header); err != nil {
			return err
		}

		row := make([]string, 0, len(header))
		for i, x := range result.States {
			row = append(row[:0], formatFloat(result.Times[i]))
			for _, val := range x {
				row = append(row, formatFloat(val))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// List returns the metadata of every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, metadataFile)
	data, err := os.ReadFile(metaPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", metaPath, err)
	}

	return &meta, nil
}

// LoadConfig reads the scene configuration saved with a run.
func (s *Store) LoadConfig(runID string) (*config.Config, error) {
	return config.Load(filepath.Join(s.baseDir, runID, sceneFile))
}

func (s *Store) LoadStates(runID string) ([]dynamo.State, []float64, error) {
	csvPath := filepath.Join(s.baseDir, runID, statesFile)
	file, err := os.Open(csvPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	if len(records) < 2 {
		return []dynamo.State{}, []float64{}, nil
	}

	times := make([]float64, 0, len(records)-1)
	states := make([]dynamo.State, 0, len(records)-1)

	for i := 1; i < len(records); i++ {
		record := records[i]
		if len(record) == 0 {
			continue
		}

		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("storage: %s row %d: %w", statesFile, i, err)
		}

		state := make(dynamo.State, 0, len(record)-1)
		for j := 1; j < len(record); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("storage: %s row %d col %d: %w", statesFile, i, j, err)
			}
			state = append(state, val)
		}
		times = append(times, t)
		states = append(states, state)
	}

	return states, times, nil
}

// MeanHeights returns one body's average node height for every saved row.
// Lumped masses are not stored, so nodes are weighted equally.
func MeanHeights(meta *RunMetadata, body string, states []dynamo.State) ([]float64, error) {
	for _, b := range meta.Bodies {
		if b.Name != body {
			continue
		}
		out := make([]float64, len(states))
		for k, x := range states {
			end := b.Offset + b.Nodes*fem.NodeStateDim
			if end > len(x) {
				return nil, fmt.Errorf("%w: row %d has %d values, body %q needs %d",
					dynamo.ErrDimensionMismatch, k, len(x), body, end)
			}
			sum := 0.0
			for i := b.Offset + 1; i < end; i += fem.NodeStateDim {
				sum += x[i]
			}
			out[k] = sum / float64(b.Nodes)
		}
		return out, nil
	}
	return nil, fmt.Errorf("storage: run %s has no body %q", meta.ID, body)
}
