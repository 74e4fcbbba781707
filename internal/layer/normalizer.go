package layer

import (
	"fmt"
	"math"
)

const normalizerEpsilon = 1e-8

// Normalizer standardizes its input against exponentially-decayed running
// statistics: output = (x - mean) / sd. Forward folds the current input into
// the running mean and running sum-of-squares at the average rate;
// SetParams snapshots them into the mean/sd actually used for
// standardization and is the only operation that moves those.
//
// Backward returns grad/sd plus a nudging term, scaled by the normalizer
// factor, that pulls the input toward the running mean and the deviation
// scale toward sd = 1. The nudge is a regularizer, not part of the
// derivative of Calc.
type Normalizer struct {
	size             int
	averageFactor    float64
	normalizerFactor float64

	runningMean []float64
	runningSq   []float64
	mean        []float64
	sd          []float64

	output []float64
	gradIn []float64
}

// NewNormalizer creates a normalizer over vectors of the given size.
// averageFactor is the exponential decay rate of the running statistics,
// normalizerFactor the strength of the backward nudge.
func NewNormalizer(size int, averageFactor, normalizerFactor float64) *Normalizer {
	if size <= 0 {
		panic(fmt.Sprintf("normalizer: invalid size %d", size))
	}
	if averageFactor <= 0 || averageFactor > 1 {
		panic(fmt.Sprintf("normalizer: average factor %v outside (0, 1]", averageFactor))
	}
	n := &Normalizer{
		size:             size,
		averageFactor:    averageFactor,
		normalizerFactor: normalizerFactor,
		runningMean:      make([]float64, size),
		runningSq:        make([]float64, size),
		mean:             make([]float64, size),
		sd:               make([]float64, size),
		output:           make([]float64, size),
		gradIn:           make([]float64, size),
	}
	for i := range n.sd {
		n.sd[i] = 1
	}
	return n
}

func (n *Normalizer) checkSize(x []float64) {
	if len(x) != n.size {
		panic(fmt.Sprintf("normalizer: input length %d, configured for %d", len(x), n.size))
	}
}

// Calc standardizes x against the current mean/sd snapshot.
func (n *Normalizer) Calc(x []float64) []float64 {
	n.checkSize(x)
	for i, v := range x {
		n.output[i] = (v - n.mean[i]) / n.sd[i]
	}
	return n.output
}

// Forward folds x into the running statistics, then standardizes it.
func (n *Normalizer) Forward(x []float64) []float64 {
	n.checkSize(x)
	for i, v := range x {
		n.runningMean[i] += n.averageFactor * (v - n.runningMean[i])
		n.runningSq[i] += n.averageFactor * (v*v - n.runningSq[i])
	}
	return n.Calc(x)
}

// Backward computes grad/sd plus the configured nudge toward the running
// mean and unit deviation.
func (n *Normalizer) Backward(x, grad []float64) []float64 {
	n.checkSize(x)
	for i, g := range grad {
		dev := x[i] - n.mean[i]
		nudge := n.normalizerFactor * (dev + (n.sd[i]-1)*dev/n.sd[i])
		n.gradIn[i] = g/n.sd[i] + nudge
	}
	return n.gradIn
}

// Params returns an empty view: the statistics are not optimizer-updated.
func (n *Normalizer) Params() []float64 { return nil }

// SetParams recomputes mean = runningMean and sd = sqrt(runningSq - mean^2)
// from the running statistics. It takes no external values.
func (n *Normalizer) SetParams(p []float64) {
	copy(n.mean, n.runningMean)
	for i := range n.sd {
		variance := n.runningSq[i] - n.mean[i]*n.mean[i]
		if variance < normalizerEpsilon {
			variance = normalizerEpsilon
		}
		n.sd[i] = math.Sqrt(variance)
	}
}

// Gradients returns an empty view.
func (n *Normalizer) Gradients() []float64 { return nil }

// Mean returns the standardization mean currently in effect.
func (n *Normalizer) Mean() []float64 { return n.mean }

// SD returns the standardization deviation currently in effect.
func (n *Normalizer) SD() []float64 { return n.sd }
