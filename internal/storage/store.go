package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/san-kum/quartic/internal/dynamo"
)

const (
	metadataFile   = "metadata.json"
	trajectoryFile = "trajectory.csv"
)

// Store keeps finished runs under baseDir, one directory per run.
type Store struct {
	baseDir string
	now     func() time.Time
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir, now: time.Now}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir() string { return s.baseDir }

type RunMetadata struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Timestamp    time.Time          `json:"timestamp"`
	Integrator   string             `json:"integrator"`
	Duration     float64            `json:"duration"`
	MaxStep      float64            `json:"max_step"`
	Rtol         float64            `json:"rtol"`
	Atol         float64            `json:"atol"`
	InitialState []float64          `json:"initial_state"`
	Samples      int                `json:"samples"`
	Steps        int                `json:"steps"`
	Rejected     int                `json:"rejected"`
	Evaluations  int                `json:"evaluations"`
	EnergyDrift  float64            `json:"energy_drift"`
	Metrics      map[string]float64 `json:"metrics"`
}

// Save writes the metadata and trajectory of a finished run and returns its
// run id.
func (s *Store) Save(name, integrator string, cfg dynamo.Config, result *dynamo.Result) (string, error) {
	ts := s.now()
	runID := fmt.Sprintf("%s_%d", name, ts.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	var x0 []float64
	if result.Len() > 0 {
		x0 = result.States[0].Clone()
	}

	meta := RunMetadata{
		ID:           runID,
		Name:         name,
		Timestamp:    ts,
		Integrator:   integrator,
		Duration:     cfg.Duration,
		MaxStep:      cfg.MaxStep,
		Rtol:         cfg.Rtol,
		Atol:         cfg.Atol,
		InitialState: x0,
		Samples:      result.Len(),
		Steps:        result.StepsTaken,
		Rejected:     result.Rejected,
		Evaluations:  result.Evaluations,
		EnergyDrift:  result.EnergyDrift,
		Metrics:      result.Metrics,
	}

	if err := writeMetadata(filepath.Join(runDir, metadataFile), meta); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}
	if err := ExportCSV(filepath.Join(runDir, trajectoryFile), result); err != nil {
		os.RemoveAll(runDir)
		return "", err
	}

	return runID, nil
}

func writeMetadata(path string, meta RunMetadata) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		f.Close()
		return fmt.Errorf("cannot write metadata: %w", err)
	}
	return f.Close()
}

// List returns the stored runs, oldest first. Directories without readable
// metadata are skipped.
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

	slices.SortFunc(runs, func(a, b RunMetadata) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.baseDir, runID, metadataFile))
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// Latest returns the most recently saved run.
func (s *Store) Latest() (*RunMetadata, error) {
	runs, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no runs in %s", s.baseDir)
	}
	return &runs[len(runs)-1], nil
}

// LoadTrajectory reads back the stored trajectory of a run together with the
// statistics recorded in its metadata.
func (s *Store) LoadTrajectory(runID string) (*dynamo.Result, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	table, err := ImportCSV(filepath.Join(s.baseDir, runID, trajectoryFile))
	if err != nil {
		return nil, err
	}

	res := table.Result()
	res.StepsTaken = meta.Steps
	res.Rejected = meta.Rejected
	res.Evaluations = meta.Evaluations
	res.EnergyDrift = meta.EnergyDrift
	for k, v := range meta.Metrics {
		res.Metrics[k] = v
	}
	return res, nil
}
