package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/san-kum/plasmakit/internal/analysis"
	"github.com/san-kum/plasmakit/internal/plasma"
)

func testSolution() *plasma.Solution {
	sol := plasma.NewSolution(plasma.Proton, "boris", 3)
	x := []plasma.Vec3{{0, 0, 0}, {1e-3, 0, 0}}
	v := []plasma.Vec3{{1e5, 0, 0}, {0, 1e5, 1.0 / 3}}
	b := []plasma.Vec3{{0, 0, 1}, {0, 0, 1}}
	e := []plasma.Vec3{{}, {0, 1e3, 0}}
	for i := 0; i < 3; i++ {
		sol.Record(float64(i)*1e-9, x, v, b, e)
		x[0][0] += 1e-4
		v[1][2] *= 0.1
	}
	sol.Steps = 2
	sol.Metrics["energy_drift"] = 1.25e-12
	return sol
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	sol := testSolution()
	cfg := plasma.DefaultConfig()
	runID, err := st.Save("gyration", "uniform", cfg, sol)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "gyration_") {
		t.Errorf("run id %q does not carry the run name", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Pusher != "boris" || meta.Field != "uniform" {
		t.Errorf("metadata = %s/%s, want boris/uniform", meta.Pusher, meta.Field)
	}
	if meta.Particles != 2 || meta.Snapshots != 3 {
		t.Errorf("particles=%d snapshots=%d, want 2 and 3", meta.Particles, meta.Snapshots)
	}
	if diff := cmp.Diff(cfg, meta.Config); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}

	got, err := st.LoadSolution(runID)
	if err != nil {
		t.Fatalf("load solution failed: %v", err)
	}
	if diff := cmp.Diff(sol, got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("solution round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	for _, name := range []string{"first", "second", "third"} {
		if _, err := st.Save(name, "", plasma.DefaultConfig(), testSolution()); err != nil {
			t.Fatalf("save %s failed: %v", name, err)
		}
	}
	// stray entries are skipped
	if err := os.MkdirAll(filepath.Join(st.baseDir, "not-a-run"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(runs))
	}
	for i := 1; i < len(runs); i++ {
		if runs[i].Timestamp.Before(runs[i-1].Timestamp) {
			t.Errorf("runs not sorted by timestamp at %d", i)
		}
	}
}

func TestStoreListMissingDir(t *testing.T) {
	st := New(filepath.Join(t.TempDir(), "absent"))
	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected no runs, got %d", len(runs))
	}
}

func TestStoreNotFound(t *testing.T) {
	st := New(t.TempDir())

	if _, err := st.Load("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("Load: expected ErrRunNotFound, got %v", err)
	}
	if _, err := st.LoadSolution("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("LoadSolution: expected ErrRunNotFound, got %v", err)
	}
	if err := st.SaveFit("missing", FitReport{}); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("SaveFit: expected ErrRunNotFound, got %v", err)
	}
}

func TestStoreCorruptMetadata(t *testing.T) {
	st := New(t.TempDir())
	dir := st.Dir("broken")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, metadataFile), []byte("{"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := st.Load("broken"); !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestFitReportRoundTrip(t *testing.T) {
	st := New(t.TempDir())
	if err := st.Init(); err != nil {
		t.Fatal(err)
	}
	runID, err := st.Save("fit", "", plasma.DefaultConfig(), testSolution())
	if err != nil {
		t.Fatal(err)
	}

	// two points and two parameters leave no degrees of freedom
	fit, err := analysis.CurveFit(analysis.Linear{}, []float64{0, 1}, []float64{1, 3}, analysis.FitOptions{})
	if err != nil {
		t.Fatalf("curve fit failed: %v", err)
	}
	if !math.IsInf(fit.ParamErrors[0], 1) {
		t.Fatalf("expected infinite parameter error, got %g", fit.ParamErrors[0])
	}

	report := NewFitReport(fit, "x", 0)
	if err := st.SaveFit(runID, report); err != nil {
		t.Fatalf("save fit failed: %v", err)
	}
	loaded, err := st.LoadFit(runID)
	if err != nil {
		t.Fatalf("load fit failed: %v", err)
	}
	if diff := cmp.Diff(report, *loaded, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("fit report mismatch (-want +got):\n%s", diff)
	}

	rebuilt, err := loaded.Fit()
	if err != nil {
		t.Fatalf("rebuild failed: %v", err)
	}
	if got := rebuilt.Eval(2); math.Abs(got-5) > 1e-6 {
		t.Errorf("rebuilt fit f(2) = %g, want 5", got)
	}
	if !math.IsInf(rebuilt.Covariance.At(0, 1), 1) {
		t.Errorf("covariance lost its infinity: %g", rebuilt.Covariance.At(0, 1))
	}
}

func TestFitReportWrongArity(t *testing.T) {
	r := FitReport{Function: "linear", Params: []float64{1}}
	if _, err := r.Fit(); !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestFloatJSON(t *testing.T) {
	tests := []struct {
		in   Float
		want string
	}{
		{1.5, `1.5`},
		{Float(math.Inf(1)), `"+Inf"`},
		{Float(math.Inf(-1)), `"-Inf"`},
		{Float(math.NaN()), `"NaN"`},
		{1e-300, `1e-300`},
	}

	for _, tt := range tests {
		data, err := json.Marshal(tt.in)
		if err != nil {
			t.Fatalf("marshal %v: %v", tt.in, err)
		}
		if string(data) != tt.want {
			t.Errorf("marshal %v = %s, want %s", tt.in, data, tt.want)
		}

		var back Float
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if diff := cmp.Diff(float64(tt.in), float64(back), cmpopts.EquateNaNs()); diff != "" {
			t.Errorf("round trip %s: %s", data, diff)
		}
	}

	var f Float
	if err := json.Unmarshal([]byte(`"fast"`), &f); !errors.Is(err, ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"gyration", "gyration"},
		{"  ", "run"},
		{"exb drift/2", "exb_drift_2"},
		{"mirror-v1", "mirror-v1"},
	}
	for _, tt := range tests {
		if got := sanitize(tt.in); got != tt.want {
			t.Errorf("sanitize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExportJSON(t *testing.T) {
	sol := testSolution()
	meta := &RunMetadata{ID: "gyration_1234abcd", Config: plasma.DefaultConfig()}

	var buf bytes.Buffer
	if err := ExportJSON(&buf, meta, sol); err != nil {
		t.Fatalf("export failed: %v", err)
	}

	var data ExportData
	if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if data.ID != meta.ID {
		t.Errorf("id = %q, want %q", data.ID, meta.ID)
	}
	if diff := cmp.Diff(sol.X, data.Positions); diff != "" {
		t.Errorf("positions mismatch (-want +got):\n%s", diff)
	}
	if data.Config == nil || data.Config.Dt != meta.Config.Dt {
		t.Errorf("config not exported: %+v", data.Config)
	}
}
