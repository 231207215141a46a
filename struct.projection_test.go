package bamber19

import (
	"path/filepath"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/stretchr/testify/require"
)

func TestProjectionGobRoundTrip(t *testing.T) {
	p := prjFixture(3, []int{2020, 2050, 2100})
	p.SampleIdx = []int{4, 0, 2}
	p.UseHigh = []bool{true, false, true}

	fp := filepath.Join(t.TempDir(), "run.projection.gob")
	require.NoError(t, p.SaveGob(fp))

	q, err := LoadGobProjection(fp)
	require.NoError(t, err)
	require.Equal(t, p.Scenario, q.Scenario)
	require.Equal(t, p.Baseyear, q.Baseyear)
	require.Equal(t, p.Years, q.Years)
	require.Equal(t, p.SampleIdx, q.SampleIdx)
	require.Equal(t, p.UseHigh, q.UseHigh)
	for _, nm := range sheetOrder {
		a, err := p.Sheet(nm)
		require.NoError(t, err)
		b, err := q.Sheet(nm)
		require.NoError(t, err)
		require.Equal(t, a.Shape, b.Shape, nm)
		require.Equal(t, a.Elements, b.Elements, nm)
	}
}

func TestLoadGobProjectionMissing(t *testing.T) {
	_, err := LoadGobProjection(filepath.Join(t.TempDir(), "nope.gob"))
	require.Error(t, err)
}

func TestProjectionSheet(t *testing.T) {
	p := prjFixture(2, []int{2020})
	for nm, want := range map[string]*sparse.DenseArray{
		SheetEAIS: p.Eais,
		SheetWAIS: p.Wais,
		SheetAIS:  p.Ais,
		SheetGIS:  p.Gis,
	} {
		a, err := p.Sheet(nm)
		require.NoError(t, err)
		require.Same(t, want, a, nm)
	}

	_, err := p.Sheet("PIG")
	require.Error(t, err)
	require.Contains(t, err.Error(), "PIG")
}

func TestProjectionMatches(t *testing.T) {
	p := prjFixture(2, []int{2020, 2030, 2040})
	cfg := DefaultConfig()
	cfg.Scenario = "ssp585"
	cfg.Baseyear = 2000
	cfg.PyearStart, cfg.PyearEnd, cfg.PyearStep = 2020, 2040, 10
	require.True(t, p.Matches(&cfg))

	mod := cfg
	mod.Scenario = "rcp26"
	require.False(t, p.Matches(&mod))

	mod = cfg
	mod.Baseyear = 2005
	require.False(t, p.Matches(&mod))

	mod = cfg
	mod.PyearEnd = 2050
	require.False(t, p.Matches(&mod))
}

func TestQuantiles(t *testing.T) {
	a := sparse.ZerosDense(100, 1)
	for s := 0; s < 100; s++ {
		a.Set(float64(s+1), s, 0)
	}
	q05, q50, q95 := quantiles(a, 0)
	require.Equal(t, 5.0, q05)
	require.Equal(t, 50.0, q50)
	require.Equal(t, 95.0, q95)
}

func TestProjectionCheckAndPrint(t *testing.T) {
	p := prjFixture(4, []int{2020, 2100})
	p.UseHigh = []bool{true, false, false, true}
	p.CheckAndPrint()
}
