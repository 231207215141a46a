package climate

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/floats"
)

// normalization and trim windows on the surface-temperature ensemble
const (
	refStart  = 1850 // reference mean start
	refEnd    = 1900 // reference mean end, exclusive
	trimStart = 1900
	trimEnd   = 2300 // inclusive
)

// SATSeries is one scenario's surface air temperature ensemble,
// expressed as anomalies from each member's own 1850-1899 mean and
// trimmed to 1900-2300 (year × member).
type SATSeries struct {
	Scenario string
	Years    []int
	SAT      *sparse.DenseArray
	Nens     int
}

// GetSAT reads the scenario's surface temperature ensemble from a
// climate data file holding a years axis and one
// <scenario>_surface_temperature(years, members) variable per scenario,
// then normalizes and trims it.
func GetSAT(climateFile, scenario string) (*SATSeries, error) {
	f, err := os.Open(climateFile)
	if err != nil {
		return nil, fmt.Errorf("climate.GetSAT failed: %v", err)
	}
	defer f.Close()
	ff, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("climate.GetSAT %s: %v", climateFile, err)
	}

	v := scenario + "_surface_temperature"
	dims := ff.Header.Lengths(v)
	if len(dims) != 2 {
		return nil, fmt.Errorf("climate.GetSAT: scenario %s not found in climate data file %s", scenario, climateFile)
	}
	nyr, nens := dims[0], dims[1]

	ydims := ff.Header.Lengths("years")
	if len(ydims) != 1 || ydims[0] != nyr {
		return nil, fmt.Errorf("climate.GetSAT %s: years axis does not match %s", climateFile, v)
	}
	years, err := readVar(ff, "years", nyr)
	if err != nil {
		return nil, fmt.Errorf("climate.GetSAT %s: %v", climateFile, err)
	}
	sat, err := readVar(ff, v, nyr*nens)
	if err != nil {
		return nil, fmt.Errorf("climate.GetSAT %s: %v", climateFile, err)
	}

	idx := func(year int) (int, error) {
		for i, y := range years {
			if y == float64(year) {
				return i, nil
			}
		}
		return 0, fmt.Errorf("climate.GetSAT: year %d not in %s years axis", year, climateFile)
	}
	ir0, err := idx(refStart)
	if err != nil {
		return nil, err
	}
	ir1, err := idx(refEnd)
	if err != nil {
		return nil, err
	}
	it0, err := idx(trimStart)
	if err != nil {
		return nil, err
	}
	it1, err := idx(trimEnd)
	if err != nil {
		return nil, err
	}

	// per-member mean over the reference window
	ave := make([]float64, nens)
	for i := ir0; i < ir1; i++ {
		floats.Add(ave, sat[i*nens:(i+1)*nens])
	}
	floats.Scale(1/float64(ir1-ir0), ave)

	nt := it1 + 1 - it0
	s := &SATSeries{Scenario: scenario, Years: make([]int, nt), Nens: nens, SAT: sparse.ZerosDense(nt, nens)}
	for i := 0; i < nt; i++ {
		s.Years[i] = int(years[it0+i])
		row := s.SAT.Elements[i*nens : (i+1)*nens]
		copy(row, sat[(it0+i)*nens:(it0+i+1)*nens])
		floats.Sub(row, ave)
	}
	return s, nil
}

// Integrated sums each member's anomaly over years lo <= y < hi,
// returning one integrated value (°C·yr) per member.
func (s *SATSeries) Integrated(lo, hi int) []float64 {
	o := make([]float64, s.Nens)
	for i, y := range s.Years {
		if y >= lo && y < hi {
			floats.Add(o, s.SAT.Elements[i*s.Nens:(i+1)*s.Nens])
		}
	}
	return o
}

func readVar(ff *cdf.File, v string, n int) ([]float64, error) {
	r := ff.Reader(v, nil, nil)
	buf := r.Zero(n)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("reading %s: %v", v, err)
	}
	o := make([]float64, n)
	switch b := buf.(type) {
	case []float32:
		for i, val := range b {
			o[i] = float64(val)
		}
	case []float64:
		copy(o, b)
	case []int32:
		for i, val := range b {
			o[i] = float64(val)
		}
	default:
		return nil, fmt.Errorf("variable %s: unsupported storage type %T", v, buf)
	}
	return o, nil
}
