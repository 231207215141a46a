package bamber19

import (
	"fmt"
	"math/rand"

	"github.com/ctessum/sparse"

	"github.com/fact-sealevel/bamber19-icesheets/sej"
)

// drawIndices draws nsamps member indices from m members.
func drawIndices(rng *rand.Rand, m, nsamps int, replace bool) ([]int, error) {
	if m <= 0 {
		return nil, fmt.Errorf("resample: no members to draw from")
	}
	if replace {
		ii := make([]int, nsamps)
		for i := range ii {
			ii[i] = rng.Intn(m)
		}
		return ii, nil
	}
	if nsamps > m {
		return nil, fmt.Errorf("resample: %d samples requested without replacement but only %d members available", nsamps, m)
	}
	return rng.Perm(m)[:nsamps], nil
}

// gather copies the drawn member rows of a (member × year) ensemble into
// a (sample × year) cube.
func gather(a *sparse.DenseArray, ii []int) *sparse.DenseArray {
	ny := a.Shape[1]
	o := sparse.ZerosDense(len(ii), ny)
	for s, m := range ii {
		copy(o.Elements[s*ny:(s+1)*ny], a.Elements[m*ny:(m+1)*ny])
	}
	return o
}

// Resample draws the global sample cube from a single branch core. One
// index sequence drives all four sheets, keeping them jointly sampled.
func Resample(ens *sej.Ensemble, scenario string, nsamps int, replace bool, rng *rand.Rand) (*Projection, error) {
	ii, err := drawIndices(rng, ens.Members(), nsamps, replace)
	if err != nil {
		return nil, err
	}
	return &Projection{
		Scenario:  scenario,
		Baseyear:  ens.Baseyear,
		Years:     append([]int{}, ens.Years...),
		Eais:      gather(ens.Eais, ii),
		Wais:      gather(ens.Wais, ii),
		Ais:       gather(ens.Ais, ii),
		Gis:       gather(ens.Gis, ii),
		SampleIdx: ii,
	}, nil
}

// ResampleBranches draws the temperature-driven cube. Every sample row
// starts from the low core at its drawn index; rows flagged by the
// branch mask are then overwritten in place with the high core's
// trajectory at the same index, across all four sheets. The mask length
// fixes the sample count.
func ResampleBranches(lo, hi *sej.Ensemble, useHigh []bool, scenario string, replace bool, rng *rand.Rand) (*Projection, error) {
	if lo.Members() != hi.Members() {
		return nil, fmt.Errorf("resample: branch cores disagree on member count (%d vs %d)", lo.Members(), hi.Members())
	}
	if len(lo.Years) != len(hi.Years) {
		return nil, fmt.Errorf("resample: branch cores disagree on target years")
	}
	if lo.Baseyear != hi.Baseyear {
		return nil, fmt.Errorf("resample: branch cores disagree on baseyear")
	}
	ii, err := drawIndices(rng, lo.Members(), len(useHigh), replace)
	if err != nil {
		return nil, err
	}
	p := &Projection{
		Scenario:  scenario,
		Baseyear:  lo.Baseyear,
		Years:     append([]int{}, lo.Years...),
		Eais:      gather(lo.Eais, ii),
		Wais:      gather(lo.Wais, ii),
		Ais:       gather(lo.Ais, ii),
		Gis:       gather(lo.Gis, ii),
		SampleIdx: ii,
		UseHigh:   append([]bool{}, useHigh...),
	}
	for s, high := range useHigh {
		if !high {
			continue
		}
		overwriteRow(p.Eais, hi.Eais, s, ii[s])
		overwriteRow(p.Wais, hi.Wais, s, ii[s])
		overwriteRow(p.Ais, hi.Ais, s, ii[s])
		overwriteRow(p.Gis, hi.Gis, s, ii[s])
	}
	return p, nil
}

func overwriteRow(dst, src *sparse.DenseArray, s, m int) {
	ny := dst.Shape[1]
	copy(dst.Elements[s*ny:(s+1)*ny], src.Elements[m*ny:(m+1)*ny])
}
