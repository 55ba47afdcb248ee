// Package storage persists tracker runs as a metadata.json plus solution.csv
// pair per run directory.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/renameio/v2"
	"github.com/google/uuid"

	"github.com/san-kum/plasmakit/internal/plasma"
)

const (
	metadataFile = "metadata.json"
	solutionFile = "solution.csv"
	fitFile      = "fit.json"
)

var (
	ErrRunNotFound = errors.New("storage: run not found")
	ErrCorrupt     = errors.New("storage: corrupt run data")
)

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string {
	return filepath.Join(s.baseDir, runID)
}

type RunMetadata struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Timestamp time.Time         `json:"timestamp"`
	Species   plasma.Species    `json:"species"`
	Pusher    string            `json:"pusher"`
	Field     string            `json:"field,omitempty"`
	Config    plasma.Config     `json:"config"`
	Particles int               `json:"particles"`
	Snapshots int               `json:"snapshots"`
	Steps     int               `json:"steps"`
	Metrics   map[string]Float  `json:"metrics"`
	Units     map[string]string `json:"units"`
}

// Save writes a run under a fresh <name>_<id> directory and returns its ID.
func (s *Store) Save(name, field string, cfg plasma.Config, sol *plasma.Solution) (string, error) {
	name = sanitize(name)
	runID := fmt.Sprintf("%s_%s", name, uuid.NewString()[:8])
	runDir := s.Dir(runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:        runID,
		Name:      name,
		Timestamp: time.Now().UTC(),
		Species:   sol.Species,
		Pusher:    sol.Pusher,
		Field:     field,
		Config:    cfg,
		Particles: sol.NumParticles(),
		Snapshots: sol.Len(),
		Steps:     sol.Steps,
		Metrics:   toFloats(sol.Metrics),
		Units:     sol.Units,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}
	if err := writeSolution(filepath.Join(runDir, solutionFile), sol); err != nil {
		return "", err
	}
	return runID, nil
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

	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].Timestamp.Before(runs[j].Timestamp)
	})
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	var meta RunMetadata
	if err := readJSON(filepath.Join(s.Dir(runID), metadataFile), &meta); err != nil {
		return nil, fmt.Errorf("load %s: %w", runID, err)
	}
	return &meta, nil
}

// LoadSolution reads a stored run back into a Solution.
func (s *Store) LoadSolution(runID string) (*plasma.Solution, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(s.Dir(runID), solutionFile))
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", runID, notFound(err))
	}
	defer f.Close()

	sol := plasma.NewSolution(meta.Species, meta.Pusher, meta.Snapshots)
	if err := readSolution(f, sol, meta.Particles); err != nil {
		return nil, fmt.Errorf("load %s: %w", runID, err)
	}
	sol.Steps = meta.Steps
	for k, v := range meta.Metrics {
		sol.Metrics[k] = float64(v)
	}
	if meta.Units != nil {
		sol.Units = meta.Units
	}
	return sol, nil
}

func toFloats(m map[string]float64) map[string]Float {
	out := make(map[string]Float, len(m))
	for k, v := range m {
		out[k] = Float(v)
	}
	return out
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return renameio.WriteFile(path, append(data, '\n'), 0644)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return notFound(err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrCorrupt, filepath.Base(path), err)
	}
	return nil
}

func notFound(err error) error {
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %v", ErrRunNotFound, err)
	}
	return err
}

func sanitize(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "run"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return '_'
	}, name)
}
