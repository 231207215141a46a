package bamber19

import (
	"fmt"
	"math"

	"github.com/ctessum/sparse"

	"github.com/fact-sealevel/bamber19-icesheets/sites"
)

// LocalSet is the localized sample cube: per-sheet sea-level change
// (sample × target year × site), mm. Sites outside fingerprint coverage
// hold NaN.
type LocalSet struct {
	Scenario string
	Baseyear int
	Years    []int
	Sites    []sites.Site

	Eais, Wais, Ais, Gis *sparse.DenseArray
}

// Sheet returns one ice sheet's (sample × year × site) cube.
func (l *LocalSet) Sheet(name string) (*sparse.DenseArray, error) {
	switch name {
	case SheetEAIS:
		return l.Eais, nil
	case SheetWAIS:
		return l.Wais, nil
	case SheetAIS:
		return l.Ais, nil
	case SheetGIS:
		return l.Gis, nil
	}
	_, err := sheetIndex(name)
	return nil, err
}

func (l *LocalSet) CheckAndPrint() {
	fmt.Println("Localized summary:")
	fmt.Printf(" scenario: %s  baseyear: %d  samples: %d  years: %d-%d  sites: %d\n",
		l.Scenario, l.Baseyear, l.Gis.Shape[0], l.Years[0], l.Years[len(l.Years)-1], len(l.Sites))
	nnan := 0
	for _, v := range l.Gis.Elements {
		if math.IsNaN(v) {
			nnan++
		}
	}
	if nnan > 0 {
		fmt.Printf(" %d of %d cells outside fingerprint coverage\n", nnan, len(l.Gis.Elements))
	}
}
