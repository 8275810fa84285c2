package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/celestial"
	"github.com/san-kum/orrery/internal/sim"
)

func runResult(t *testing.T) *sim.Result {
	t.Helper()
	sys := celestial.New()
	sys.AddBody(celestial.Spec{Name: "Sun", Mass: 1000, Fixed: true, SpinRate: 0.001})
	sys.AddBody(celestial.Spec{Name: "Earth", Mass: 1, Position: r3.Vec{X: 100}, SpinRate: 0.01})
	sys.AddBody(celestial.Spec{Name: "Moon", Mass: 0.0123, Parent: "Earth", OrbitRadius: 10, OrbitSpeed: 0.01})
	if err := sys.InitCircularOrbits(); err != nil {
		t.Fatal(err)
	}

	result, err := sim.New(sys).Run(context.Background(), sim.Config{Dt: 0.1, Steps: 20, SampleEvery: 10})
	if err != nil {
		t.Fatal(err)
	}
	result.Metrics["energy"] = 1.5
	return result
}

var info = RunInfo{Scene: "test", Seed: 42, G: 0.001, Dt: 0.1, Steps: 20, Scheme: "kdk"}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	result := runResult(t)
	runID, err := st.Save(info, result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if meta.Scene != "test" {
		t.Errorf("expected scene 'test', got '%s'", meta.Scene)
	}
	if meta.Seed != 42 {
		t.Errorf("expected seed 42, got %d", meta.Seed)
	}
	if meta.Metrics["energy"] != 1.5 {
		t.Errorf("expected energy 1.5, got %f", meta.Metrics["energy"])
	}
	if meta.StepsTaken != 20 || len(meta.Bodies) != 3 {
		t.Errorf("unexpected metadata %+v", meta)
	}

	traj, err := st.LoadStates(runID)
	if err != nil {
		t.Fatalf("load states failed: %v", err)
	}

	if len(traj.Times) != 3 {
		t.Errorf("expected 3 samples, got %d", len(traj.Times))
	}
	if traj.Names[2] != "Moon" {
		t.Errorf("names = %v", traj.Names)
	}

	last := result.Samples[len(result.Samples)-1]
	i := len(traj.Times) - 1
	if traj.Steps[i] != 20 || traj.Times[i] != last.Time {
		t.Errorf("last sample step %d t=%v", traj.Steps[i], traj.Times[i])
	}
	for b := range traj.Names {
		if traj.Positions[i][b] != last.Positions[b] || traj.Velocities[i][b] != last.Velocities[b] {
			t.Errorf("%s state not preserved exactly", traj.Names[b])
		}
		if traj.Spins[i][b] != last.Spins[b] {
			t.Errorf("%s spin not preserved", traj.Names[b])
		}
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

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
	if _, err := st.Latest(); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Latest() on empty store = %v", err)
	}

	result := runResult(t)
	first, _ := st.Save(info, result)
	second, err := st.Save(RunInfo{Scene: "other"}, result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].ID != first {
		t.Errorf("runs not ordered by time: %s, %s", runs[0].ID, runs[1].ID)
	}

	latest, err := st.Latest()
	if err != nil || latest.ID != second {
		t.Errorf("Latest() = %v, %v", latest, err)
	}
}

func TestStoreList_MissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "missing"))
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

	runID, err := st.Save(info, runResult(t))
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	metaPath := filepath.Join(runDir, "metadata.json")
	csvPath := filepath.Join(runDir, "states.csv")

	if _, err := os.Stat(metaPath); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}

	if _, err := os.Stat(csvPath); os.IsNotExist(err) {
		t.Error("states.csv not created")
	}
}

func TestLoadStates_Malformed(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)
	os.MkdirAll(filepath.Join(tmpDir, "bad"), 0755)
	os.WriteFile(filepath.Join(tmpDir, "bad", "states.csv"), []byte("step,time,A_x\n0,0,1\n"), 0644)

	if _, err := st.LoadStates("bad"); !errors.Is(err, ErrMalformed) {
		t.Errorf("expected ErrMalformed, got %v", err)
	}
}

func TestTrajectorySeries(t *testing.T) {
	st := New(t.TempDir())
	runID, _ := st.Save(info, runResult(t))
	traj, _ := st.LoadStates(runID)

	earth, ok := traj.Index("Earth")
	if !ok {
		t.Fatal("Earth not found")
	}
	r, err := traj.Series(earth, "r")
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range r {
		if v < 99.9 || v > 100.1 {
			t.Errorf("Earth radius %v", v)
		}
	}

	if _, err := traj.Series(earth, "w"); err == nil {
		t.Error("expected error for unknown coordinate")
	}
	if _, err := traj.Series(99, "x"); err == nil {
		t.Error("expected error for out-of-range body")
	}
	if _, ok := traj.Index("Pluto"); ok {
		t.Error("Index(Pluto) should fail")
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	runID, _ := st.Save(info, runResult(t))
	meta, _ := st.Load(runID)
	traj, _ := st.LoadStates(runID)

	path := filepath.Join(t.TempDir(), "export.json")
	if err := ExportJSON(path, meta, traj); err != nil {
		t.Fatal(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		t.Fatal(err)
	}
	if data.ID != runID || len(data.Bodies) != 3 || len(data.Times) != 3 {
		t.Errorf("unexpected export %+v", data)
	}
	moon := data.Bodies[2]
	if moon.Name != "Moon" || len(moon.Positions) != 3 {
		t.Errorf("moon export = %+v", moon)
	}

	var buf bytes.Buffer
	if err := WriteJSON(&buf, NewExportData(meta, traj)); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(bytes.TrimSpace(buf.Bytes()), bytes.TrimSpace(raw)) {
		t.Error("WriteJSON and ExportJSON disagree")
	}
}
