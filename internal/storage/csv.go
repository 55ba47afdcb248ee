package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/google/renameio/v2"

	"github.com/san-kum/plasmakit/internal/plasma"
)

var csvHeader = []string{
	"snapshot", "time", "particle",
	"x", "y", "z",
	"vx", "vy", "vz",
	"Bx", "By", "Bz",
	"Ex", "Ey", "Ez",
}

// writeSolution stores one row per snapshot and particle. Floats use the
// shortest representation that parses back to the same value.
func writeSolution(path string, sol *plasma.Solution) (err error) {
	pending, err := renameio.NewPendingFile(path)
	if err != nil {
		return fmt.Errorf("create pending %s: %w", solutionFile, err)
	}
	defer func() {
		if cerr := pending.Cleanup(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	w := csv.NewWriter(pending)
	if err := w.Write(csvHeader); err != nil {
		return err
	}

	row := make([]string, len(csvHeader))
	for s, t := range sol.Times {
		for p := range sol.X[s] {
			row[0] = strconv.Itoa(s)
			row[1] = formatFloat(t)
			row[2] = strconv.Itoa(p)
			col := 3
			for _, vec := range []plasma.Vec3{sol.X[s][p], sol.V[s][p], sol.B[s][p], sol.E[s][p]} {
				for _, c := range vec {
					row[col] = formatFloat(c)
					col++
				}
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
	return pending.CloseAtomicallyReplace()
}

func readSolution(r io.Reader, sol *plasma.Solution, particles int) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvHeader)
	cr.ReuseRecord = true

	if _, err := cr.Read(); err != nil {
		return fmt.Errorf("%w: missing header: %v", ErrCorrupt, err)
	}

	var (
		x, v, b, e []plasma.Vec3
		current    = -1
		now        float64
	)
	flush := func() {
		if current >= 0 {
			sol.Record(now, x, v, b, e)
		}
		x, v, b, e = x[:0], v[:0], b[:0], e[:0]
	}

	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return fmt.Errorf("%w: line %d: %v", ErrCorrupt, line, err)
		}

		snap, err := strconv.Atoi(rec[0])
		if err != nil {
			return fmt.Errorf("%w: line %d: snapshot %q", ErrCorrupt, line, rec[0])
		}
		vals := make([]float64, len(rec)-3)
		for i := range vals {
			if vals[i], err = strconv.ParseFloat(rec[i+3], 64); err != nil {
				return fmt.Errorf("%w: line %d column %s: %v", ErrCorrupt, line, csvHeader[i+3], err)
			}
		}
		t, err := strconv.ParseFloat(rec[1], 64)
		if err != nil {
			return fmt.Errorf("%w: line %d: time %q", ErrCorrupt, line, rec[1])
		}

		if snap != current {
			flush()
			current, now = snap, t
		}
		x = append(x, plasma.Vec3{vals[0], vals[1], vals[2]})
		v = append(v, plasma.Vec3{vals[3], vals[4], vals[5]})
		b = append(b, plasma.Vec3{vals[6], vals[7], vals[8]})
		e = append(e, plasma.Vec3{vals[9], vals[10], vals[11]})
	}
	flush()

	for i, row := range sol.X {
		if particles > 0 && len(row) != particles {
			return fmt.Errorf("%w: snapshot %d has %d particles, want %d", ErrCorrupt, i, len(row), particles)
		}
	}
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
