package storage

import (
	"encoding/json"
	"io"
	"os"

	"gonum.org/v1/gonum/spatial/r3"
)

type ExportBody struct {
	Name       string       `json:"name"`
	Positions  [][3]float64 `json:"positions"`
	Velocities [][3]float64 `json:"velocities"`
	Spins      []float64    `json:"spins"`
}

type ExportData struct {
	ID          string             `json:"id"`
	Scene       string             `json:"scene"`
	Scheme      string             `json:"scheme"`
	G           float64            `json:"g"`
	Dt          float64            `json:"dt"`
	Steps       []int              `json:"steps"`
	Times       []float64          `json:"times"`
	Bodies      []ExportBody       `json:"bodies"`
	EnergyDrift float64            `json:"energy_drift"`
	Metrics     map[string]float64 `json:"metrics"`
}

func triple(v r3.Vec) [3]float64 { return [3]float64{v.X, v.Y, v.Z} }

// NewExportData regroups a trajectory per body.
func NewExportData(meta *RunMetadata, traj *Trajectory) ExportData {
	data := ExportData{
		ID:          meta.ID,
		Scene:       meta.Scene,
		Scheme:      meta.Scheme,
		G:           meta.G,
		Dt:          meta.Dt,
		Steps:       traj.Steps,
		Times:       traj.Times,
		Bodies:      make([]ExportBody, len(traj.Names)),
		EnergyDrift: meta.EnergyDrift,
		Metrics:     meta.Metrics,
	}

	for b, name := range traj.Names {
		eb := ExportBody{
			Name:       name,
			Positions:  make([][3]float64, len(traj.Times)),
			Velocities: make([][3]float64, len(traj.Times)),
			Spins:      make([]float64, len(traj.Times)),
		}
		for i := range traj.Times {
			eb.Positions[i] = triple(traj.Positions[i][b])
			eb.Velocities[i] = triple(traj.Velocities[i][b])
			eb.Spins[i] = traj.Spins[i][b]
		}
		data.Bodies[b] = eb
	}
	return data
}

func WriteJSON(w io.Writer, data ExportData) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}

func ExportJSON(path string, meta *RunMetadata, traj *Trajectory) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return WriteJSON(file, NewExportData(meta, traj))
}
