package bamber19

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/cdf"
	"github.com/stretchr/testify/require"
)

const coreRows = 21

// writeCoreFile builds a core table with trajectories f(member, row, yearindex).
func writeCoreFile(t *testing.T, years []float64, nmemb int, cores map[string]func(m, v, k int) float64) string {
	t.Helper()
	h := cdf.NewHeader([]string{"members", "variables", "years"}, []int{nmemb, coreRows, len(years)})
	h.AddVariable("years", []string{"years"}, []float64{0})
	for key := range cores {
		h.AddVariable(key, []string{"members", "variables", "years"}, []float32{0})
	}
	h.Define()

	fp := filepath.Join(t.TempDir(), "core.nc")
	ff, err := os.Create(fp)
	require.NoError(t, err)
	defer ff.Close()
	cf, err := cdf.Create(ff, h)
	require.NoError(t, err)

	put := func(v string, vals interface{}) {
		end := cf.Header.Lengths(v)
		start := make([]int, len(end))
		w := cf.Writer(v, start, end)
		_, err := w.Write(vals)
		require.NoError(t, err)
	}
	put("years", years)
	for key, f := range cores {
		vals := make([]float32, nmemb*coreRows*len(years))
		for m := 0; m < nmemb; m++ {
			for v := 0; v < coreRows; v++ {
				for k := range years {
					vals[(m*coreRows+v)*len(years)+k] = float32(f(m, v, k))
				}
			}
		}
		put(key, vals)
	}
	require.NoError(t, cdf.UpdateNumRecs(ff))
	return fp
}

// writeClimateFile builds a surface-temperature ensemble spanning
// 1850-2300 annually with temperature f(year, member).
func writeClimateFile(t *testing.T, scenario string, nens int, f func(year, m int) float64) string {
	t.Helper()
	years := make([]float64, 0, 2300-1850+1)
	for y := 1850; y <= 2300; y++ {
		years = append(years, float64(y))
	}
	h := cdf.NewHeader([]string{"years", "members"}, []int{len(years), nens})
	h.AddVariable("years", []string{"years"}, []float64{0})
	h.AddVariable(scenario+"_surface_temperature", []string{"years", "members"}, []float32{0})
	h.Define()

	fp := filepath.Join(t.TempDir(), "climate.nc")
	ff, err := os.Create(fp)
	require.NoError(t, err)
	defer ff.Close()
	cf, err := cdf.Create(ff, h)
	require.NoError(t, err)

	put := func(v string, vals interface{}) {
		end := cf.Header.Lengths(v)
		start := make([]int, len(end))
		w := cf.Writer(v, start, end)
		_, err := w.Write(vals)
		require.NoError(t, err)
	}
	put("years", years)
	vals := make([]float32, len(years)*nens)
	for i, y := range years {
		for m := 0; m < nens; m++ {
			vals[i*nens+m] = float32(f(int(y), m))
		}
	}
	put(scenario+"_surface_temperature", vals)
	require.NoError(t, cdf.UpdateNumRecs(ff))
	return fp
}

// writeFprintDir builds one constant-valued fingerprint grid per file name.
func writeFprintDir(t *testing.T, vals map[string]float64) string {
	t.Helper()
	dir := t.TempDir()
	lats := []float64{-90, 0, 90}
	lons := []float64{0, 120, 240}
	for name, val := range vals {
		h := cdf.NewHeader([]string{"lat", "lon"}, []int{len(lats), len(lons)})
		h.AddVariable("lat", []string{"lat"}, []float64{0})
		h.AddVariable("lon", []string{"lon"}, []float64{0})
		h.AddVariable("fp", []string{"lat", "lon"}, []float32{0})
		h.Define()

		ff, err := os.Create(filepath.Join(dir, name))
		require.NoError(t, err)
		cf, err := cdf.Create(ff, h)
		require.NoError(t, err)
		put := func(v string, data interface{}) {
			end := cf.Header.Lengths(v)
			start := make([]int, len(end))
			w := cf.Writer(v, start, end)
			_, err := w.Write(data)
			require.NoError(t, err)
		}
		put("lat", lats)
		put("lon", lons)
		fpv := make([]float32, len(lats)*len(lons))
		for i := range fpv {
			fpv[i] = float32(val)
		}
		put("fp", fpv)
		require.NoError(t, cdf.UpdateNumRecs(ff))
		require.NoError(t, ff.Close())
	}
	return dir
}

func writeLocations(t *testing.T) string {
	t.Helper()
	fp := filepath.Join(t.TempDir(), "location.lst")
	lst := "# name id lat lon\nNew_York\t12\t40.70\t-74.01\nSewells_Point\t299\t36.95\t-76.33\n"
	require.NoError(t, os.WriteFile(fp, []byte(lst), 0644))
	return fp
}

func decadeYears() []float64 {
	years := make([]float64, 0, 11)
	for y := 2000; y <= 2100; y += 10 {
		years = append(years, float64(y))
	}
	return years
}

func TestPipelineRunFixedScenario(t *testing.T) {
	corefp := writeCoreFile(t, decadeYears(), 5, map[string]func(m, v, k int) float64{
		"corefileH": func(m, v, k int) float64 { return float64(1000*m + 10*v + k) },
	})

	cfg := DefaultConfig()
	cfg.PipelineID = "t1"
	cfg.Scenario = "rcp85"
	cfg.NSamps = 20
	cfg.Seed = 42
	cfg.CoreFile = corefp
	cfg.LocationFile = writeLocations(t)
	cfg.FprintDir = writeFprintDir(t, map[string]float64{
		"fprint_gis.nc":  2,
		"fprint_wais.nc": 3,
		"fprint_eais.nc": 0.5,
	})
	cfg.OutputDir = t.TempDir()

	pl, err := NewPipeline(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, pl.Run())

	for _, s := range cfg.Sheets {
		_, err := os.Stat(filepath.Join(cfg.OutputDir, "t1_"+s+"_globalsl.nc"))
		require.NoError(t, err)
		_, err = os.Stat(filepath.Join(cfg.OutputDir, "t1_"+s+"_localsl.nc"))
		require.NoError(t, err)
	}

	prj, err := LoadGobProjection(filepath.Join(cfg.OutputDir, "t1.projection.gob"))
	require.NoError(t, err)
	require.Equal(t, "rcp85", prj.Scenario)
	require.Equal(t, 20, prj.NSamps())
	require.Nil(t, prj.UseHigh)
	require.Len(t, prj.SampleIdx, 20)
	for s, m := range prj.SampleIdx {
		require.GreaterOrEqual(t, m, 0)
		require.Less(t, m, 5)
		// row 18 of the drawn member at target year 2020 (table index 2)
		require.InDelta(t, float64(1000*m+180+2), prj.Gis.Get(s, 0), 1e-6)
	}

	ff := openNC(t, filepath.Join(cfg.OutputDir, "t1_GIS_globalsl.nc"))
	require.Equal(t, []int{20, 9, 1}, ff.Header.Lengths("sea_level_change"))
	require.Equal(t, "rcp85", ff.Header.GetAttribute("", "scenario").(string))
	slc := readBack(t, ff, "sea_level_change", 20*9).([]float32)
	for i, e := range prj.Gis.Elements {
		require.Equal(t, float32(e), slc[i])
	}

	// localized values scale the global trajectory by the site fingerprint
	lf := openNC(t, filepath.Join(cfg.OutputDir, "t1_GIS_localsl.nc"))
	require.Equal(t, []int{20, 9, 2}, lf.Header.Lengths("sea_level_change"))
	lslc := readBack(t, lf, "sea_level_change", 20*9*2).([]float32)
	for i, e := range prj.Gis.Elements {
		require.InDelta(t, 2*e, float64(lslc[2*i]), 1e-3)
		require.InDelta(t, 2*e, float64(lslc[2*i+1]), 1e-3)
	}

	b, err := os.ReadFile(filepath.Join(cfg.OutputDir, "t1.sampleindices.csv"))
	require.NoError(t, err)
	require.NotEmpty(t, b)
}

func TestPipelineRunTemperatureDriven(t *testing.T) {
	corefp := writeCoreFile(t, decadeYears(), 4, map[string]func(m, v, k int) float64{
		"corefileL": func(m, v, k int) float64 { return float64(1000*m + 10*v + k) },
		"corefileH": func(m, v, k int) float64 { return float64(100000 + 1000*m + 10*v + k) },
	})
	// members 0-2 run cold and stay on the low core, members 3-5 run hot
	climfp := writeClimateFile(t, "ssp585", 6, func(year, m int) float64 {
		if year < 1900 {
			return 0
		}
		if m < 3 {
			return 0.5
		}
		return 3
	})

	cfg := DefaultConfig()
	cfg.PipelineID = "t2"
	cfg.Scenario = "ssp585"
	cfg.NSamps = 3 // ignored: the climate ensemble fixes the sample count
	cfg.Seed = 7
	cfg.CoreFile = corefp
	cfg.ClimateFile = climfp
	cfg.OutputDir = t.TempDir()
	cfg.LocationFile = ""

	pl, err := NewPipeline(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, pl.Run())

	prj, err := LoadGobProjection(filepath.Join(cfg.OutputDir, "t2.projection.gob"))
	require.NoError(t, err)
	require.Equal(t, "ssp585", prj.Scenario)
	require.Equal(t, 6, prj.NSamps())
	require.Equal(t, []bool{false, false, false, true, true, true}, prj.UseHigh)

	for s := 0; s < 6; s++ {
		m := prj.SampleIdx[s]
		require.GreaterOrEqual(t, m, 0)
		require.Less(t, m, 4)
		want := float64(1000*m + 180 + 2)
		if prj.UseHigh[s] {
			want += 100000
		}
		require.InDelta(t, want, prj.Gis.Get(s, 0), 1e-6)
	}

	_, err = os.Stat(filepath.Join(cfg.OutputDir, "t2_GIS_localsl.nc"))
	require.True(t, os.IsNotExist(err))

	ff := openNC(t, filepath.Join(cfg.OutputDir, "t2_GIS_globalsl.nc"))
	require.Equal(t, []int{6, 9, 1}, ff.Header.Lengths("sea_level_change"))
	require.Equal(t, "ssp585", ff.Header.GetAttribute("", "scenario").(string))
}

func TestPipelineRunProjectionCache(t *testing.T) {
	corefp := writeCoreFile(t, decadeYears(), 3, map[string]func(m, v, k int) float64{
		"corefileH": func(m, v, k int) float64 { return float64(m + v + k) },
	})

	cfg := DefaultConfig()
	cfg.PipelineID = "t3"
	cfg.Scenario = "rcp85"
	cfg.NSamps = 8
	cfg.CoreFile = corefp
	cfg.OutputDir = t.TempDir()
	cfg.LocationFile = ""

	pl, err := NewPipeline(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, pl.Run())

	// a matching cache serves the second run even without the core table
	require.NoError(t, os.Remove(corefp))
	pl2, err := NewPipeline(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, pl2.Run())

	// a configuration change invalidates the cache and forces a rebuild,
	// which fails now that the core table is gone
	cfg.PyearEnd = 2090
	pl3, err := NewPipeline(cfg, nil)
	require.NoError(t, err)
	require.Error(t, pl3.Run())
}

func TestPipelineProjectDeterministic(t *testing.T) {
	corefp := writeCoreFile(t, decadeYears(), 6, map[string]func(m, v, k int) float64{
		"corefileL": func(m, v, k int) float64 { return float64(7*m + v + k) },
	})

	cfg := DefaultConfig()
	cfg.Scenario = "rcp26"
	cfg.NSamps = 12
	cfg.Seed = 1234
	cfg.CoreFile = corefp
	cfg.OutputDir = t.TempDir()

	pl1, err := NewPipeline(cfg, nil)
	require.NoError(t, err)
	p1, err := pl1.Project()
	require.NoError(t, err)

	pl2, err := NewPipeline(cfg, nil)
	require.NoError(t, err)
	p2, err := pl2.Project()
	require.NoError(t, err)

	require.Equal(t, p1.SampleIdx, p2.SampleIdx)
	require.Equal(t, p1.Gis.Elements, p2.Gis.Elements)
	require.Equal(t, p1.Ais.Elements, p2.Ais.Elements)
}
