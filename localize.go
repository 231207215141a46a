package bamber19

import (
	"fmt"

	"github.com/ctessum/sparse"
	"github.com/gosuri/uiprogress"

	"github.com/fact-sealevel/bamber19-icesheets/sites"
)

// Localize applies per-site fingerprints to the global cube, site chunk
// by site chunk, forming the (sample × year × site) local cubes. AIS is
// the elementwise sum of the localized EAIS and WAIS. The result does
// not depend on the chunk size.
func Localize(p *Projection, ss []sites.Site, fpGis, fpWais, fpEais []float64, chunk int) (*LocalSet, error) {
	ns := len(ss)
	if ns == 0 {
		return nil, fmt.Errorf("localize: no sites")
	}
	if len(fpGis) != ns || len(fpWais) != ns || len(fpEais) != ns {
		return nil, fmt.Errorf("localize: fingerprint vectors must cover all %d sites", ns)
	}
	if chunk <= 0 {
		chunk = ns
	}

	nsmp, nyr := p.NSamps(), len(p.Years)
	l := &LocalSet{
		Scenario: p.Scenario,
		Baseyear: p.Baseyear,
		Years:    append([]int{}, p.Years...),
		Sites:    append([]sites.Site{}, ss...),
		Eais:     sparse.ZerosDense(nsmp, nyr, ns),
		Wais:     sparse.ZerosDense(nsmp, nyr, ns),
		Gis:      sparse.ZerosDense(nsmp, nyr, ns),
	}

	nch := (ns + chunk - 1) / chunk
	uiprogress.Start()
	bar := uiprogress.AddBar(nch).AppendCompleted().PrependElapsed()
	for c0 := 0; c0 < ns; c0 += chunk {
		c1 := c0 + chunk
		if c1 > ns {
			c1 = ns
		}
		outerChunk(l.Gis, p.Gis, fpGis, c0, c1)
		outerChunk(l.Wais, p.Wais, fpWais, c0, c1)
		outerChunk(l.Eais, p.Eais, fpEais, c0, c1)
		bar.Incr()
	}
	uiprogress.Stop()

	l.Ais = l.Eais.Copy()
	l.Ais.AddDense(l.Wais)
	return l, nil
}

// outerChunk fills out[:, :, c0:c1] with the outer product of the global
// trajectories and the fingerprint scale factors.
func outerChunk(out, global *sparse.DenseArray, fp []float64, c0, c1 int) {
	nsmp, nyr, ns := out.Shape[0], out.Shape[1], out.Shape[2]
	for s := 0; s < nsmp; s++ {
		for y := 0; y < nyr; y++ {
			g := global.Elements[s*nyr+y]
			base := (s*nyr + y) * ns
			for k := c0; k < c1; k++ {
				out.Elements[base+k] = g * fp[k]
			}
		}
	}
}
