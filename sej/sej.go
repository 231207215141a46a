package sej

import (
	"fmt"
	"os"
	"sort"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"
	"github.com/maseology/mmaths"
)

// anchorYear pins every trajectory to zero; mass change accumulates from
// here.
const anchorYear = 2000.

// variable rows of the expert-judgement sample cube
const (
	gisRow  = 18
	waisRow = 19
	eaisRow = 20
)

// Table is a structured-expert-judgement core table: per-branch cubes of
// cumulative ice-sheet contribution trajectories (member × variable ×
// year), in mm sea-level equivalent.
type Table struct {
	fp    string
	Years []float64
	cores map[string]*sparse.DenseArray
}

// Load reads a core table from a NetCDF file holding the years axis and
// one 3-dimensional variable per branch core (e.g. corefileH, corefileL).
func Load(fp string) (*Table, error) {
	f, err := os.Open(fp)
	if err != nil {
		return nil, fmt.Errorf("sej.Load failed: %v", err)
	}
	defer f.Close()
	ff, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("sej.Load %s: %v", fp, err)
	}

	years, err := readVar(ff, "years")
	if err != nil {
		return nil, fmt.Errorf("sej.Load %s: %v", fp, err)
	}
	if !sort.Float64sAreSorted(years) {
		return nil, fmt.Errorf("sej.Load %s: years axis must be ascending", fp)
	}

	t := &Table{fp: fp, Years: years, cores: map[string]*sparse.DenseArray{}}
	for _, v := range ff.Header.Variables() {
		dims := ff.Header.Lengths(v)
		if len(dims) != 3 {
			continue
		}
		if dims[2] != len(years) {
			return nil, fmt.Errorf("sej.Load %s: core %s year axis length %d does not match years (%d)", fp, v, dims[2], len(years))
		}
		vals, err := readVar(ff, v)
		if err != nil {
			return nil, fmt.Errorf("sej.Load %s: %v", fp, err)
		}
		c := sparse.ZerosDense(dims...)
		copy(c.Elements, vals)
		t.cores[v] = c
	}
	if len(t.cores) == 0 {
		return nil, fmt.Errorf("sej.Load %s: no core variables found", fp)
	}
	return t, nil
}

// Cores lists the branch core keys present in the table.
func (t *Table) Cores() []string {
	kk := make([]string, 0, len(t.cores))
	for k := range t.cores {
		kk = append(kk, k)
	}
	sort.Strings(kk)
	return kk
}

// Members returns the member count of a branch core, zero if absent.
func (t *Table) Members(key string) int {
	c, ok := t.cores[key]
	if !ok {
		return 0
	}
	return c.Shape[0]
}

// Ensemble holds one branch core's trajectories centered to a baseyear
// and subset to the target years, per ice sheet (member × year).
type Ensemble struct {
	Key                  string
	Baseyear             int
	Years                []int
	Gis, Wais, Eais, Ais *sparse.DenseArray
}

// Members returns the ensemble member count.
func (e *Ensemble) Members() int { return e.Gis.Shape[0] }

// Extract centers the branch core's GIS, WAIS and EAIS trajectories to
// the baseyear and subsets them to the target years. The baseyear
// reference interpolates each member's trajectory anchored at zero in
// 2000; at or before 2000 the reference is zero, beyond the final year
// it holds the final value. Every target year must exist on the raw
// years axis. AIS is derived as EAIS+WAIS.
func (t *Table) Extract(key string, targyears []int, baseyear int) (*Ensemble, error) {
	core, ok := t.cores[key]
	if !ok {
		return nil, fmt.Errorf("sej.Extract: core %s not found in %s (have %v)", key, t.fp, t.Cores())
	}
	if core.Shape[1] <= eaisRow {
		return nil, fmt.Errorf("sej.Extract: core %s has %d variable rows, need at least %d", key, core.Shape[1], eaisRow+1)
	}

	yidx := make([]int, len(targyears))
	for i, ty := range targyears {
		j := -1
		for k, y := range t.Years {
			if y == float64(ty) {
				j = k
				break
			}
		}
		if j < 0 {
			return nil, fmt.Errorf("sej.Extract: target year %d not in core table years", ty)
		}
		yidx[i] = j
	}

	e := &Ensemble{Key: key, Baseyear: baseyear, Years: append([]int{}, targyears...)}
	e.Gis = t.extractRow(core, gisRow, yidx, baseyear)
	e.Wais = t.extractRow(core, waisRow, yidx, baseyear)
	e.Eais = t.extractRow(core, eaisRow, yidx, baseyear)
	e.Ais = e.Eais.Copy()
	e.Ais.AddDense(e.Wais)
	return e, nil
}

func (t *Table) extractRow(core *sparse.DenseArray, row int, yidx []int, baseyear int) *sparse.DenseArray {
	nm, ny := core.Shape[0], len(t.Years)
	o := sparse.ZerosDense(nm, len(yidx))
	series := make([]float64, ny)
	for m := 0; m < nm; m++ {
		for k := 0; k < ny; k++ {
			series[k] = core.Get(m, row, k)
		}
		ref := refVal(t.Years, series, float64(baseyear))
		for j, k := range yidx {
			o.Set(series[k]-ref, m, j)
		}
	}
	return o
}

// refVal interpolates a member trajectory to the baseyear over the years
// axis with a synthetic (2000, 0) anchor prepended.
func refVal(years, series []float64, baseyear float64) float64 {
	if baseyear <= anchorYear {
		return 0
	}
	px, pv := anchorYear, 0.
	for i, y := range years {
		if y <= px {
			px, pv = y, series[i]
			continue
		}
		if baseyear <= y {
			return mmaths.LinearTransform(pv, series[i], (baseyear-px)/(y-px))
		}
		px, pv = y, series[i]
	}
	return pv
}

// readVar reads a whole variable, accepting float, double or int storage.
func readVar(ff *cdf.File, v string) ([]float64, error) {
	dims := ff.Header.Lengths(v)
	if len(dims) == 0 {
		return nil, fmt.Errorf("variable %s not in file", v)
	}
	n := 1
	for _, d := range dims {
		n *= d
	}
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
