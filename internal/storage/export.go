package storage

import (
	"encoding/json"
	"io"

	"github.com/san-kum/plasmakit/internal/plasma"
)

type ExportData struct {
	ID        string            `json:"id,omitempty"`
	Species   plasma.Species    `json:"species"`
	Pusher    string            `json:"pusher"`
	Config    *plasma.Config    `json:"config,omitempty"`
	Steps     int               `json:"steps"`
	Units     map[string]string `json:"units"`
	Metrics   map[string]Float  `json:"metrics"`
	Times     []float64         `json:"times"`
	Positions [][]plasma.Vec3   `json:"x"`
	Velocity  [][]plasma.Vec3   `json:"v"`
	BField    [][]plasma.Vec3   `json:"B"`
	EField    [][]plasma.Vec3   `json:"E"`
}

// ExportJSON writes a solution, with optional run metadata, as one JSON
// document.
func ExportJSON(w io.Writer, meta *RunMetadata, sol *plasma.Solution) error {
	data := ExportData{
		Species:   sol.Species,
		Pusher:    sol.Pusher,
		Steps:     sol.Steps,
		Units:     sol.Units,
		Metrics:   toFloats(sol.Metrics),
		Times:     sol.Times,
		Positions: sol.X,
		Velocity:  sol.V,
		BField:    sol.B,
		EField:    sol.E,
	}
	if meta != nil {
		data.ID = meta.ID
		cfg := meta.Config
		data.Config = &cfg
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
