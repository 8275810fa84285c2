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
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orrery/internal/sim"
)

// columns written per body, in order.
var bodyColumns = []string{"x", "y", "z", "vx", "vy", "vz", "spin"}

var ErrMalformed = errors.New("storage: malformed states file")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunInfo describes how a run was configured.
type RunInfo struct {
	Scene  string
	Seed   int64
	G      float64
	Dt     float64
	Steps  int
	Scheme string
}

type RunMetadata struct {
	ID          string             `json:"id"`
	Scene       string             `json:"scene"`
	Timestamp   time.Time          `json:"timestamp"`
	Seed        int64              `json:"seed"`
	G           float64            `json:"g"`
	Dt          float64            `json:"dt"`
	Steps       int                `json:"steps"`
	StepsTaken  int                `json:"steps_taken"`
	Scheme      string             `json:"scheme"`
	Bodies      []string           `json:"bodies"`
	EnergyDrift float64            `json:"energy_drift"`
	Metrics     map[string]float64 `json:"metrics"`
	Errors      []string           `json:"errors,omitempty"`
}

// Trajectory is the sampled history of a stored run.
type Trajectory struct {
	Names      []string
	Steps      []int
	Times      []float64
	Positions  [][]r3.Vec
	Velocities [][]r3.Vec
	Spins      [][]float64
}

// Series returns one coordinate of one body across all samples. Coordinate
// is one of x, y, z, vx, vy, vz, spin or r (distance from the origin).
func (t *Trajectory) Series(body int, coord string) ([]float64, error) {
	if body < 0 || body >= len(t.Names) {
		return nil, fmt.Errorf("body index %d out of range", body)
	}
	out := make([]float64, len(t.Times))
	for i := range t.Times {
		p, v := t.Positions[i][body], t.Velocities[i][body]
		switch coord {
		case "x":
			out[i] = p.X
		case "y":
			out[i] = p.Y
		case "z":
			out[i] = p.Z
		case "vx":
			out[i] = v.X
		case "vy":
			out[i] = v.Y
		case "vz":
			out[i] = v.Z
		case "spin":
			out[i] = t.Spins[i][body]
		case "r":
			out[i] = r3.Norm(p)
		default:
			return nil, fmt.Errorf("unknown coordinate %q", coord)
		}
	}
	return out, nil
}

// Index finds a body by name.
func (t *Trajectory) Index(name string) (int, bool) {
	for i, n := range t.Names {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

func (s *Store) Save(info RunInfo, result *sim.Result) (string, error) {
	now := time.Now()
	runID := fmt.Sprintf("%s_%d", info.Scene, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:          runID,
		Scene:       info.Scene,
		Timestamp:   now,
		Seed:        info.Seed,
		G:           info.G,
		Dt:          info.Dt,
		Steps:       info.Steps,
		StepsTaken:  result.StepsTaken,
		Scheme:      info.Scheme,
		Bodies:      result.Names,
		EnergyDrift: result.EnergyDrift,
		Metrics:     result.Metrics,
	}
	for _, err := range result.Errors {
		meta.Errors = append(meta.Errors, err.Error())
	}

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvPath := filepath.Join(runDir, "states.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)
	if err := writeSamples(w, result.Names, result.Samples); err != nil {
		return "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}

	return runID, nil
}

func writeSamples(w *csv.Writer, names []string, samples []sim.Sample) error {
	header := []string{"step", "time"}
	for _, name := range names {
		for _, col := range bodyColumns {
			header = append(header, name+"_"+col)
		}
	}
	if err := w.Write(header); err != nil {
		return err
	}

	format := func(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }
	for _, smp := range samples {
		row := make([]string, 0, len(header))
		row = append(row, strconv.Itoa(smp.Step), format(smp.Time))
		for i := range names {
			p, v := smp.Positions[i], smp.Velocities[i]
			row = append(row,
				format(p.X), format(p.Y), format(p.Z),
				format(v.X), format(v.Y), format(v.Z),
				format(smp.Spins[i]),
			)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

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

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
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

// Latest returns the most recent run.
func (s *Store) Latest() (*RunMetadata, error) {
	runs, err := s.List()
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, os.ErrNotExist
	}
	return &runs[len(runs)-1], nil
}

func (s *Store) LoadStates(runID string) (*Trajectory, error) {
	csvPath := filepath.Join(s.baseDir, runID, "states.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrMalformed)
	}

	header := records[0]
	width := len(bodyColumns)
	if len(header) < 2 || (len(header)-2)%width != 0 {
		return nil, fmt.Errorf("%w: %d columns", ErrMalformed, len(header))
	}

	n := (len(header) - 2) / width
	traj := &Trajectory{Names: make([]string, n)}
	for i := 0; i < n; i++ {
		traj.Names[i] = strings.TrimSuffix(header[2+i*width], "_x")
	}

	for line, record := range records[1:] {
		vals := make([]float64, len(record))
		for j, field := range record {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: %v", ErrMalformed, line+2, err)
			}
			vals[j] = v
		}

		pos := make([]r3.Vec, n)
		vel := make([]r3.Vec, n)
		spin := make([]float64, n)
		for i := 0; i < n; i++ {
			c := vals[2+i*width:]
			pos[i] = r3.Vec{X: c[0], Y: c[1], Z: c[2]}
			vel[i] = r3.Vec{X: c[3], Y: c[4], Z: c[5]}
			spin[i] = c[6]
		}

		traj.Steps = append(traj.Steps, int(vals[0]))
		traj.Times = append(traj.Times, vals[1])
		traj.Positions = append(traj.Positions, pos)
		traj.Velocities = append(traj.Velocities, vel)
		traj.Spins = append(traj.Spins, spin)
	}

	return traj, nil
}
