package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/san-kum/gasbox/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

var framesHeader = []string{"number", "time", "particles", "kinetic_energy", "temperature", "px", "py", "warnings"}

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

type RunMetadata struct {
	ID          string             `json:"id"`
	Scene       string             `json:"scene"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	Dt          float64            `json:"dt"`
	Duration    float64            `json:"duration"`
	Integrator  string             `json:"integrator"`
	Particles   int                `json:"particles"`
	Walls       int                `json:"walls"`
	Steps       int                `json:"steps"`
	Warnings    int                `json:"warnings"`
	EnergyDrift float64            `json:"energy_drift"`
	Metrics     map[string]float64 `json:"metrics"`
}

// RunInfo describes the run being saved.
type RunInfo struct {
	Scene      string
	Seed       int64
	Dt         float64
	Duration   float64
	Integrator string
}

// Save writes metadata.json, frames.csv with one row per sample and
// particles.csv with the final particle states. The run id is returned.
func (s *Store) Save(info RunInfo, result *sim.Result) (string, error) {
	if result == nil {
		return "", fmt.Errorf("storage: nil result")
	}
	ts := s.now()
	runID := fmt.Sprintf("%s_%d", info.Scene, ts.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Scene:       info.Scene,
		Timestamp:   ts,
		Seed:        info.Seed,
		Dt:          info.Dt,
		Duration:    info.Duration,
		Integrator:  info.Integrator,
		Particles:   len(result.Final.Particles),
		Walls:       len(result.Final.Walls),
		Steps:       result.StepsTaken,
		Warnings:    result.Warnings,
		EnergyDrift: result.EnergyDrift,
		Metrics:     result.Metrics,
	}

	if err := writeJSON(filepath.Join(runDir, "metadata.json"), meta); err != nil {
		return "", err
	}
	if err := writeFrames(filepath.Join(runDir, "frames.csv"), result.Samples); err != nil {
		return "", err
	}
	if err := writeParticles(filepath.Join(runDir, "particles.csv"), result.Final); err != nil {
		return "", err
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeFrames(path string, samples []sim.Sample) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(framesHeader); err != nil {
		return err
	}
	for _, smp := range samples {
		row := []string{
			strconv.FormatUint(smp.Number, 10),
			formatFloat(smp.Time),
			strconv.Itoa(smp.Stats.NumParticles),
			formatFloat(smp.Stats.KineticEnergy),
			formatFloat(smp.Stats.Temperature),
			formatFloat(smp.Stats.Momentum.X),
			formatFloat(smp.Stats.Momentum.Y),
			strconv.Itoa(smp.Warnings),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeParticles(path string, frame sim.Frame) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"id", "species", "mass", "radius", "x", "y", "vx", "vy"}); err != nil {
		return err
	}
	for _, p := range frame.Particles {
		row := []string{
			strconv.Itoa(p.ID),
			strconv.Itoa(p.Species),
			formatFloat(p.Mass),
			formatFloat(p.Radius),
			formatFloat(p.Position.X),
			formatFloat(p.Position.Y),
			formatFloat(p.Velocity.X),
			formatFloat(p.Velocity.Y),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 10, 64)
}

// List returns the stored runs, newest first. Directories without readable
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

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.After(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadSamples reads frames.csv back. Rows that fail to parse are an error,
// unlike the lenient directory scan in List.
func (s *Store) LoadSamples(runID string) ([]sim.Sample, error) {
	csvPath := filepath.Join(s.baseDir, runID, "frames.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = len(framesHeader)

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return []sim.Sample{}, nil
	}

	samples := make([]sim.Sample, 0, len(records)-1)
	for i, record := range records[1:] {
		smp, err := parseSample(record)
		if err != nil {
			return nil, fmt.Errorf("storage: %s row %d: %w", csvPath, i+2, err)
		}
		samples = append(samples, smp)
	}
	return samples, nil
}

func parseSample(record []string) (sim.Sample, error) {
	var smp sim.Sample
	var err error
	if smp.Number, err = strconv.ParseUint(record[0], 10, 64); err != nil {
		return smp, err
	}
	if smp.Stats.NumParticles, err = strconv.Atoi(record[2]); err != nil {
		return smp, err
	}
	if smp.Warnings, err = strconv.Atoi(record[7]); err != nil {
		return smp, err
	}

	floats := make([]float64, 5)
	for i, col := range []int{1, 3, 4, 5, 6} {
		if floats[i], err = strconv.ParseFloat(record[col], 64); err != nil {
			return smp, err
		}
	}
	smp.Time = floats[0]
	smp.Stats.KineticEnergy = floats[1]
	smp.Stats.Temperature = floats[2]
	smp.Stats.Momentum = r2.Vec{X: floats[3], Y: floats[4]}
	return smp, nil
}
