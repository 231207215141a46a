package bamber19

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/ctessum/cdf"
	"github.com/maseology/mmio"

	"github.com/fact-sealevel/bamber19-icesheets/sites"
)

// WriteGlobal writes the listed sheets' global cubes to
// <dir>/<pipelineID>_<SHEET>_globalsl.nc.
func (p *Projection) WriteGlobal(dir, pipelineID string, sheets []string) error {
	for _, s := range sheets {
		fp := filepath.Join(dir, fmt.Sprintf("%s_%s_globalsl.nc", pipelineID, s))
		if err := p.WriteGlobalSheet(fp, s); err != nil {
			return err
		}
	}
	return nil
}

// WriteGlobalSheet writes one sheet's (sample × year) cube with a
// degenerate location axis. An empty path skips the sheet.
func (p *Projection) WriteGlobalSheet(fp, sheet string) error {
	if fp == "" {
		return nil
	}
	a, err := p.Sheet(sheet)
	if err != nil {
		return fmt.Errorf("WriteGlobalSheet: %v", err)
	}

	h := cdf.NewHeader([]string{"samples", "years", "locations"}, []int{p.NSamps(), len(p.Years), 1})
	h.AddVariable("sea_level_change", []string{"samples", "years", "locations"}, []float32{0})
	h.AddAttribute("sea_level_change", "units", "mm")
	h.AddVariable("lat", []string{"locations"}, []float32{0})
	h.AddVariable("lon", []string{"locations"}, []float32{0})
	h.AddVariable("years", []string{"years"}, []int32{0})
	h.AddVariable("samples", []string{"samples"}, []int32{0})
	h.AddVariable("locations", []string{"locations"}, []int32{0})
	h.AddAttribute("", "description", fmt.Sprintf("Global SLR contribution from %s from the Bamber et al. 2019 IPCC AR6 workflow", sheet))
	h.AddAttribute("", "history", "Created "+time.Now().Format(time.ANSIC))
	h.AddAttribute("", "source", "SLR Framework: Bamber icesheet workflow")
	h.AddAttribute("", "scenario", p.Scenario)
	h.AddAttribute("", "baseyear", []int32{int32(p.Baseyear)})
	h.Define()

	ff, err := os.Create(fp)
	if err != nil {
		return fmt.Errorf("WriteGlobalSheet failed: %v", err)
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h)
	if err != nil {
		return fmt.Errorf("WriteGlobalSheet %s: %v", fp, err)
	}

	inf := float32(math.Inf(1))
	if err := putAll(f, fp,
		ncvar{"sea_level_change", toF32(a.Elements)},
		ncvar{"lat", []float32{inf}},
		ncvar{"lon", []float32{inf}},
		ncvar{"years", toI32(p.Years)},
		ncvar{"samples", rangeI32(p.NSamps())},
		ncvar{"locations", []int32{-1}},
	); err != nil {
		return err
	}
	return cdf.UpdateNumRecs(ff)
}

// WriteLocal writes the listed sheets' localized cubes to
// <dir>/<pipelineID>_<SHEET>_localsl.nc.
func (l *LocalSet) WriteLocal(dir, pipelineID string, sheets []string) error {
	for _, s := range sheets {
		fp := filepath.Join(dir, fmt.Sprintf("%s_%s_localsl.nc", pipelineID, s))
		if err := l.WriteLocalSheet(fp, s); err != nil {
			return err
		}
	}
	return nil
}

// WriteLocalSheet writes one sheet's (sample × year × site) cube. An
// empty path skips the sheet.
func (l *LocalSet) WriteLocalSheet(fp, sheet string) error {
	if fp == "" {
		return nil
	}
	a, err := l.Sheet(sheet)
	if err != nil {
		return fmt.Errorf("WriteLocalSheet: %v", err)
	}
	nsmp, nyr, ns := a.Shape[0], a.Shape[1], a.Shape[2]

	h := cdf.NewHeader([]string{"samples", "years", "locations"}, []int{nsmp, nyr, ns})
	h.AddVariable("sea_level_change", []string{"samples", "years", "locations"}, []float32{0})
	h.AddAttribute("sea_level_change", "units", "mm")
	h.AddAttribute("sea_level_change", "missing_value", []float32{float32(math.NaN())})
	h.AddVariable("lat", []string{"locations"}, []float64{0})
	h.AddVariable("lon", []string{"locations"}, []float64{0})
	h.AddVariable("years", []string{"years"}, []int32{0})
	h.AddVariable("samples", []string{"samples"}, []int32{0})
	h.AddVariable("locations", []string{"locations"}, []int32{0})
	h.AddAttribute("", "description", "Local SLR contributions from icesheets according to Bamber Icesheet workflow")
	h.AddAttribute("", "history", "Created "+time.Now().Format(time.ANSIC))
	h.AddAttribute("", "source", "SLR Framework: Bamber icesheet workflow")
	h.AddAttribute("", "scenario", l.Scenario)
	h.AddAttribute("", "baseyear", []int32{int32(l.Baseyear)})
	h.Define()

	ff, err := os.Create(fp)
	if err != nil {
		return fmt.Errorf("WriteLocalSheet failed: %v", err)
	}
	defer ff.Close()
	f, err := cdf.Create(ff, h)
	if err != nil {
		return fmt.Errorf("WriteLocalSheet %s: %v", fp, err)
	}

	if err := putAll(f, fp,
		ncvar{"sea_level_change", toF32(a.Elements)},
		ncvar{"lat", sites.Lats(l.Sites)},
		ncvar{"lon", sites.Lons(l.Sites)},
		ncvar{"years", toI32(l.Years)},
		ncvar{"samples", rangeI32(nsmp)},
		ncvar{"locations", toI32(sites.IDs(l.Sites))},
	); err != nil {
		return err
	}
	return cdf.UpdateNumRecs(ff)
}

// WriteSampleIndices records the drawn member index, and the branch flag
// when temperature-driven, behind every sample row.
func (p *Projection) WriteSampleIndices(fp string) error {
	csvw := mmio.NewCSVwriter(fp)
	defer csvw.Close()
	if err := csvw.WriteHead("sample,member,usehigh"); err != nil {
		return fmt.Errorf("WriteSampleIndices failed: %v", err)
	}
	for s, m := range p.SampleIdx {
		uh := 0
		if p.UseHigh != nil && p.UseHigh[s] {
			uh = 1
		}
		csvw.WriteLine(s, m, uh)
	}
	return nil
}

type ncvar struct {
	name string
	data interface{}
}

func putAll(f *cdf.File, fp string, vv ...ncvar) error {
	for _, v := range vv {
		end := f.Header.Lengths(v.name)
		start := make([]int, len(end))
		w := f.Writer(v.name, start, end)
		if _, err := w.Write(v.data); err != nil {
			return fmt.Errorf("writing %s to %s: %v", v.name, fp, err)
		}
	}
	return nil
}

func toF32(v []float64) []float32 {
	o := make([]float32, len(v))
	for i, e := range v {
		o[i] = float32(e)
	}
	return o
}

func toI32(v []int) []int32 {
	o := make([]int32, len(v))
	for i, e := range v {
		o[i] = int32(e)
	}
	return o
}

func rangeI32(n int) []int32 {
	o := make([]int32, n)
	for i := range o {
		o[i] = int32(i)
	}
	return o
}
