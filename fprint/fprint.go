package fprint

import (
	"fmt"
	"math"
	"os"
	"sort"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"

	"github.com/fact-sealevel/bamber19-icesheets/sites"
)

// Grid is a static sea-level fingerprint on a regular latitude-longitude
// grid. Latitudes ascend; longitudes ascend on [0,360).
type Grid struct {
	Lats, Lons []float64
	FP         *sparse.DenseArray // (lat × lon), unitless scale factor
}

// Load reads a fingerprint grid from a NetCDF file holding variables
// lat, lon and fp(lat, lon).
func Load(fp string) (*Grid, error) {
	f, err := os.Open(fp)
	if err != nil {
		return nil, fmt.Errorf("fprint.Load failed: %v", err)
	}
	defer f.Close()
	ff, err := cdf.Open(f)
	if err != nil {
		return nil, fmt.Errorf("fprint.Load %s: %v", fp, err)
	}

	lats, err := readVector(ff, "lat")
	if err != nil {
		return nil, fmt.Errorf("fprint.Load %s: %v", fp, err)
	}
	lons, err := readVector(ff, "lon")
	if err != nil {
		return nil, fmt.Errorf("fprint.Load %s: %v", fp, err)
	}
	dims := ff.Header.Lengths("fp")
	if len(dims) != 2 {
		return nil, fmt.Errorf("fprint.Load %s: variable fp must be 2-dimensional (lat, lon)", fp)
	}
	if dims[0] != len(lats) || dims[1] != len(lons) {
		return nil, fmt.Errorf("fprint.Load %s: fp shape (%d,%d) does not match lat (%d) and lon (%d)", fp, dims[0], dims[1], len(lats), len(lons))
	}
	vals, err := readVar(ff, "fp", dims[0]*dims[1])
	if err != nil {
		return nil, fmt.Errorf("fprint.Load %s: %v", fp, err)
	}
	g := &Grid{Lats: lats, Lons: lons, FP: sparse.ZerosDense(dims...)}
	copy(g.FP.Elements, vals)
	if !sort.Float64sAreSorted(g.Lats) || !sort.Float64sAreSorted(g.Lons) {
		return nil, fmt.Errorf("fprint.Load %s: lat and lon axes must be ascending", fp)
	}
	return g, nil
}

// At evaluates the fingerprint at a geographic point by bilinear
// interpolation. Longitudes are normalized to the [0,360) convention and
// wrap across the antimeridian seam. Latitudes outside the grid return NaN.
func (g *Grid) At(lat, lon float64) float64 {
	for lon < 0 {
		lon += 360
	}
	for lon >= 360 {
		lon -= 360
	}

	j0, j1, fy, ok := bracket(g.Lats, lat)
	if !ok {
		return math.NaN()
	}

	nx := len(g.Lons)
	var i0, i1 int
	var fx float64
	if lon < g.Lons[0] || lon > g.Lons[nx-1] {
		// periodic seam between the last and first columns
		i0, i1 = nx-1, 0
		span := g.Lons[0] + 360 - g.Lons[nx-1]
		d := lon - g.Lons[nx-1]
		if d < 0 {
			d += 360
		}
		fx = d / span
	} else {
		i0, i1, fx, _ = bracket(g.Lons, lon)
	}

	v00 := g.FP.Get(j0, i0)
	v01 := g.FP.Get(j0, i1)
	v10 := g.FP.Get(j1, i0)
	v11 := g.FP.Get(j1, i1)
	return (1-fy)*((1-fx)*v00+fx*v01) + fy*((1-fx)*v10+fx*v11)
}

// Assign evaluates the fingerprint grid at fp for every site, in site
// order.
func Assign(fp string, ss []sites.Site) ([]float64, error) {
	g, err := Load(fp)
	if err != nil {
		return nil, err
	}
	o := make([]float64, len(ss))
	for i, s := range ss {
		o[i] = g.At(s.Loc.Y, s.Loc.X)
	}
	return o, nil
}

// bracket locates x on the ascending axis, returning the bounding indices
// and the fractional position between them. ok is false outside the axis.
func bracket(axis []float64, x float64) (i0, i1 int, frac float64, ok bool) {
	n := len(axis)
	if n == 0 || x < axis[0] || x > axis[n-1] {
		return 0, 0, 0, false
	}
	i := sort.SearchFloat64s(axis, x)
	if i < n && axis[i] == x {
		return i, i, 0, true
	}
	i0, i1 = i-1, i
	frac = (x - axis[i0]) / (axis[i1] - axis[i0])
	return i0, i1, frac, true
}

func readVector(ff *cdf.File, v string) ([]float64, error) {
	dims := ff.Header.Lengths(v)
	if len(dims) != 1 {
		return nil, fmt.Errorf("variable %s not found or not 1-dimensional", v)
	}
	return readVar(ff, v, dims[0])
}

// readVar reads n values of a variable, accepting float or double storage.
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
