package bamber19

import (
	"encoding/gob"
	"fmt"
	"os"
	"sort"

	"github.com/ctessum/sparse"
	"gonum.org/v1/gonum/stat"
)

// Projection is the global sample cube for one run: per-sheet sea-level
// contributions (sample × target year), mm.
type Projection struct {
	Scenario string
	Baseyear int
	Years    []int

	Eais, Wais, Ais, Gis *sparse.DenseArray

	SampleIdx []int  // drawn member indices
	UseHigh   []bool // branch mask; nil outside temperature-driven runs
}

// NSamps returns the sample count of the cube.
func (p *Projection) NSamps() int { return p.Gis.Shape[0] }

// Sheet returns one ice sheet's (sample × year) trajectories.
func (p *Projection) Sheet(name string) (*sparse.DenseArray, error) {
	switch name {
	case SheetEAIS:
		return p.Eais, nil
	case SheetWAIS:
		return p.Wais, nil
	case SheetAIS:
		return p.Ais, nil
	case SheetGIS:
		return p.Gis, nil
	}
	_, err := sheetIndex(name)
	return nil, err
}

func (p *Projection) CheckAndPrint() {
	fmt.Println("Projection summary:")
	fmt.Printf(" scenario: %s  baseyear: %d  samples: %d  years: %d-%d\n",
		p.Scenario, p.Baseyear, p.NSamps(), p.Years[0], p.Years[len(p.Years)-1])
	if p.UseHigh != nil {
		nh := 0
		for _, h := range p.UseHigh {
			if h {
				nh++
			}
		}
		fmt.Printf(" temperature-driven: %d of %d samples from the high core\n", nh, len(p.UseHigh))
	}
	jf := len(p.Years) - 1
	fmt.Printf(" %d quantiles (mm): [q05 q50 q95]\n", p.Years[jf])
	for _, s := range sheetOrder {
		a, _ := p.Sheet(s)
		q05, q50, q95 := quantiles(a, jf)
		fmt.Printf("  %4s: %8.1f %8.1f %8.1f\n", s, q05, q50, q95)
	}
}

// quantiles summarizes one target-year column of a (sample × year) cube.
func quantiles(a *sparse.DenseArray, j int) (q05, q50, q95 float64) {
	n := a.Shape[0]
	col := make([]float64, n)
	for s := 0; s < n; s++ {
		col[s] = a.Get(s, j)
	}
	sort.Float64s(col)
	q05 = stat.Quantile(0.05, stat.Empirical, col, nil)
	q50 = stat.Quantile(0.50, stat.Empirical, col, nil)
	q95 = stat.Quantile(0.95, stat.Empirical, col, nil)
	return
}

// Matches reports whether a cached projection agrees with the run
// configuration it is about to serve.
func (p *Projection) Matches(cfg *Config) bool {
	if p.Scenario != cfg.Scenario || p.Baseyear != cfg.Baseyear {
		return false
	}
	ty := cfg.TargYears()
	if len(ty) != len(p.Years) {
		return false
	}
	for i, y := range ty {
		if p.Years[i] != y {
			return false
		}
	}
	return true
}

func (p *Projection) SaveGob(fp string) error {
	f, err := os.Create(fp)
	if err != nil {
		return fmt.Errorf(" Projection.SaveGob %v", err)
	}
	if err := gob.NewEncoder(f).Encode(p); err != nil {
		return fmt.Errorf(" Projection.SaveGob %v", err)
	}
	f.Close()
	return nil
}

func LoadGobProjection(fp string) (*Projection, error) {
	var p Projection
	f, err := os.Open(fp)
	if err != nil {
		return nil, err
	}
	if err := gob.NewDecoder(f).Decode(&p); err != nil {
		return nil, err
	}
	f.Close()
	return &p, nil
}
