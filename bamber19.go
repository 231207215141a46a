package bamber19

import "fmt"

// ice-sheet component labels, in output order
const (
	SheetEAIS = "EAIS"
	SheetWAIS = "WAIS"
	SheetAIS  = "AIS"
	SheetGIS  = "GIS"
)

var sheetOrder = []string{SheetEAIS, SheetWAIS, SheetAIS, SheetGIS}

func sheetIndex(s string) (int, error) {
	for i, n := range sheetOrder {
		if n == s {
			return i, nil
		}
	}
	return -1, fmt.Errorf("unknown ice sheet %q (want EAIS, WAIS, AIS or GIS)", s)
}

func countTrue(bb []bool) int {
	n := 0
	for _, b := range bb {
		if b {
			n++
		}
	}
	return n
}
