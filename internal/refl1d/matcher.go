package refl1d

import (
	"math"
	"sort"
)

// Empirically chosen matcher constants. The acceptance threshold and the
// preference for the R-value score over the Q-range score are fixed for
// reproducible dataset selection; do not tune them.
const (
	// matchThreshold is the maximum combined score accepted as a match.
	matchThreshold = 0.5
	// qRangeEpsilon guards divide-by-zero in the Q-range score.
	qRangeEpsilon = 1e-10
	// rValueEpsilon guards divide-by-zero in the relative R error.
	rValueEpsilon = 1e-12
)

// Match is the outcome of dataset auto-detection. Index is always a usable
// experiment index: when no candidate scores under the threshold, Confident
// is false and Index falls back to 0.
type Match struct {
	Index     int
	Score     float64
	Confident bool
}

// MatchDataset scores every experiment in the model against a reduced curve
// and selects the best match. The first candidate encountered wins exact
// ties.
func MatchDataset(reducedQ, reducedR []float64, experiments []Experiment) Match {
	best := Match{Index: 0, Score: math.Inf(1)}
	for i, exp := range experiments {
		score := combinedScore(reducedQ, reducedR, exp.Probe)
		if score < best.Score {
			best.Index = i
			best.Score = score
		}
	}
	if best.Score < matchThreshold {
		best.Confident = true
		return best
	}
	return Match{Index: 0, Score: best.Score, Confident: false}
}

// combinedScore prefers the mean relative R error and falls back to the
// Q-range score when the curves do not overlap in Q.
func combinedScore(reducedQ, reducedR []float64, probe Probe) float64 {
	if rScore := rValueScore(reducedQ, reducedR, probe.Q, probe.R); !math.IsInf(rScore, 1) {
		return rScore
	}
	return qRangeScore(reducedQ, probe.Q)
}

func qRangeScore(reducedQ, probeQ []float64) float64 {
	if len(reducedQ) == 0 || len(probeQ) == 0 {
		return math.Inf(1)
	}
	redMin, redMax := minMax(reducedQ)
	probeMin, probeMax := minMax(probeQ)
	return math.Abs(redMin-probeMin)/math.Max(redMin, qRangeEpsilon) +
		math.Abs(redMax-probeMax)/math.Max(redMax, qRangeEpsilon)
}

// rValueScore interpolates the probe R at every reduced Q point inside the
// probe's Q span and returns the mean relative error, or +Inf when no points
// overlap.
func rValueScore(reducedQ, reducedR, probeQ, probeR []float64) float64 {
	if len(reducedQ) == 0 || len(reducedQ) != len(reducedR) ||
		len(probeQ) < 2 || len(probeQ) != len(probeR) {
		return math.Inf(1)
	}

	points := make([]probePoint, len(probeQ))
	for i := range probeQ {
		points[i] = probePoint{probeQ[i], probeR[i]}
	}
	sort.Slice(points, func(i, j int) bool { return points[i].q < points[j].q })

	span := [2]float64{points[0].q, points[len(points)-1].q}
	total := 0.0
	matched := 0
	for i, q := range reducedQ {
		if q < span[0] || q > span[1] {
			continue
		}
		r := interpolateAt(q, points)
		total += math.Abs(r-reducedR[i]) / math.Max(math.Abs(reducedR[i]), rValueEpsilon)
		matched++
	}
	if matched == 0 {
		return math.Inf(1)
	}
	return total / float64(matched)
}

type probePoint struct{ q, r float64 }

func interpolateAt(q float64, points []probePoint) float64 {
	idx := sort.Search(len(points), func(i int) bool { return points[i].q >= q })
	if idx == 0 {
		return points[0].r
	}
	if idx >= len(points) {
		return points[len(points)-1].r
	}
	lo, hi := points[idx-1], points[idx]
	if hi.q == lo.q {
		return lo.r
	}
	t := (q - lo.q) / (hi.q - lo.q)
	return lo.r + t*(hi.r-lo.r)
}

func minMax(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
