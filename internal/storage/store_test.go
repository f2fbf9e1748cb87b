package storage

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/san-kum/gasbox/internal/scene"
	"github.com/san-kum/gasbox/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

func testResult() *sim.Result {
	final := sim.Frame{
		Number: 1,
		Step:   1,
		Time:   0.01,
		Particles: []scene.Particle{
			{ID: 0, Position: r2.Vec{X: 1, Y: 2}, Velocity: r2.Vec{X: 0.5}, Mass: 1, Radius: 0.1},
		},
		Walls: []scene.Wall{scene.NewWall(r2.Vec{}, r2.Vec{X: 1})},
	}
	return &sim.Result{
		Samples: []sim.Sample{
			{Number: 0, Time: 0, Stats: scene.Stats{NumParticles: 1, KineticEnergy: 0.125, Temperature: 0.125, Momentum: r2.Vec{X: 0.5}}},
			{Number: 1, Time: 0.01, Stats: scene.Stats{NumParticles: 1, KineticEnergy: 0.125, Temperature: 0.125, Momentum: r2.Vec{X: 0.5, Y: -0.25}}, Warnings: 2},
		},
		Final:      final,
		Metrics:    map[string]float64{"temperature": 0.125},
		StepsTaken: 1,
		Warnings:   2,
	}
}

var testInfo = RunInfo{Scene: "box", Seed: 42, Dt: 0.01, Duration: 0.01, Integrator: "euler"}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(testInfo, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if runID == "" {
		t.Fatal("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Scene != "box" {
		t.Errorf("expected scene 'box', got '%s'", meta.Scene)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Particles != 1 || meta.Walls != 1 {
		t.Errorf("expected 1 particle and 1 wall, got %d and %d", meta.Particles, meta.Walls)
	}
	if meta.Warnings != 2 {
		t.Errorf("expected 2 warnings, got %d", meta.Warnings)
	}
	if meta.Metrics["temperature"] != 0.125 {
		t.Errorf("expected temperature 0.125, got %f", meta.Metrics["temperature"])
	}

	samples, err := st.LoadSamples(runID)
	if err != nil {
		t.Fatalf("load samples failed: %v", err)
	}
	if len(samples) != 2 {
		t.Fatalf("expected 2 samples, got %d", len(samples))
	}
	got := samples[1]
	if got.Number != 1 || got.Time != 0.01 || got.Warnings != 2 {
		t.Errorf("sample = %+v", got)
	}
	if got.Stats.Momentum != (r2.Vec{X: 0.5, Y: -0.25}) {
		t.Errorf("momentum = %v", got.Stats.Momentum)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, name := range []string{"old", "new"} {
		ts := base.Add(time.Duration(i) * time.Minute)
		st.now = func() time.Time { return ts }
		info := testInfo
		info.Scene = name
		if _, err := st.Save(info, testResult()); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Scene != "new" {
		t.Errorf("expected newest first, got %s", runs[0].Scene)
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil || len(runs) != 0 {
		t.Errorf("List() = %v, %v", runs, err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save(testInfo, testResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	for _, name := range []string{"metadata.json", "frames.csv", "particles.csv"} {
		if _, err := os.Stat(filepath.Join(tmpDir, runID, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestLoadSamplesRejectsBadRow(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	runDir := filepath.Join(tmpDir, "broken")
	if err := os.MkdirAll(runDir, 0755); err != nil {
		t.Fatal(err)
	}
	data := "number,time,particles,kinetic_energy,temperature,px,py,warnings\n0,abc,1,1,1,0,0,0\n"
	if err := os.WriteFile(filepath.Join(runDir, "frames.csv"), []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := st.LoadSamples("broken"); err == nil {
		t.Error("expected parse error")
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, testInfo, testResult()); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if data.Scene != "box" || data.Steps != 1 {
		t.Errorf("data = %+v", data)
	}
	if len(data.Times) != 2 || len(data.Temperature) != 2 {
		t.Errorf("expected 2 points, got %d and %d", len(data.Times), len(data.Temperature))
	}
}

func TestExportJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	if err := ExportJSON(path, testInfo, testResult()); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("export file missing: %v", err)
	}
}
