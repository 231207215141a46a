package sites

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/maseology/mmio"
)

// Site is a point location at which localized sea-level change is evaluated.
type Site struct {
	Name string
	ID   int
	Loc  geom.Point // Loc.X: longitude, Loc.Y: latitude
}

// ReadList parses a whitespace-delimited location list with one site per
// line: name id lat lon. Blank lines and lines beginning with '#' are
// skipped.
func ReadList(fp string) ([]Site, error) {
	lns, err := mmio.ReadTextLines(fp)
	if err != nil {
		return nil, fmt.Errorf("sites.ReadList failed: %v", err)
	}
	var ss []Site
	for i, ln := range lns {
		ln = strings.TrimSpace(ln)
		if len(ln) == 0 || strings.HasPrefix(ln, "#") {
			continue
		}
		flds := strings.Fields(ln)
		if len(flds) < 4 {
			return nil, fmt.Errorf("sites.ReadList: line %d: need 4 fields (name id lat lon), found %d", i+1, len(flds))
		}
		id, err := strconv.Atoi(flds[1])
		if err != nil {
			return nil, fmt.Errorf("sites.ReadList: line %d: invalid site id %q", i+1, flds[1])
		}
		lat, err := strconv.ParseFloat(flds[2], 64)
		if err != nil {
			return nil, fmt.Errorf("sites.ReadList: line %d: invalid latitude %q", i+1, flds[2])
		}
		lon, err := strconv.ParseFloat(flds[3], 64)
		if err != nil {
			return nil, fmt.Errorf("sites.ReadList: line %d: invalid longitude %q", i+1, flds[3])
		}
		ss = append(ss, Site{Name: flds[0], ID: id, Loc: geom.Point{X: lon, Y: lat}})
	}
	if len(ss) == 0 {
		return nil, fmt.Errorf("sites.ReadList: no sites found in %s", fp)
	}
	return ss, nil
}

// Lats returns the site latitudes in list order.
func Lats(ss []Site) []float64 {
	o := make([]float64, len(ss))
	for i, s := range ss {
		o[i] = s.Loc.Y
	}
	return o
}

// Lons returns the site longitudes in list order.
func Lons(ss []Site) []float64 {
	o := make([]float64, len(ss))
	for i, s := range ss {
		o[i] = s.Loc.X
	}
	return o
}

// IDs returns the site identifiers in list order.
func IDs(ss []Site) []int {
	o := make([]int, len(ss))
	for i, s := range ss {
		o[i] = s.ID
	}
	return o
}
