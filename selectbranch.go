package bamber19

import (
	"math"
	"math/rand"

	"github.com/fact-sealevel/bamber19-icesheets/climate"
)

// integrated-temperature calibration anchors (°C·yr over 2000-2099):
// the low-emissions storyline integrates to 142.5, the high to 242.5
var isatMarker = [2]float64{142.5, 242.5}

// branch-probability integration window
const (
	integStart = 2000
	integEnd   = 2100 // exclusive
)

// BranchWeights converts each climate ensemble member's integrated
// temperature anomaly into its probability of being projected with the
// high-emissions core, clamped to [0,1].
func BranchWeights(sat *climate.SATSeries) []float64 {
	isat := sat.Integrated(integStart, integEnd)
	w := make([]float64, len(isat))
	for i, s := range isat {
		w[i] = math.Min(1, math.Max(0, (s-isatMarker[0])/(isatMarker[1]-isatMarker[0])))
	}
	return w
}

// SelectBranch draws one uniform per climate ensemble member; true marks
// members to be projected with the high-emissions core. The draw count
// fixes the run's sample count.
func SelectBranch(sat *climate.SATSeries, rng *rand.Rand) []bool {
	ww := BranchWeights(sat)
	mask := make([]bool, len(ww))
	for i, w := range ww {
		mask[i] = rng.Float64() < w
	}
	return mask
}
