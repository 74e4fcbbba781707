package layer

import "fmt"

// Dropout implements inverted dropout: Forward samples a Bernoulli(keepProb)
// mask per element and rescales kept activations by 1/keepProb so expected
// magnitude matches the no-dropout output. Calc is the identity; masking
// only happens on the training path.
type Dropout struct {
	noParams
	keepProb float64

	mask   []float64
	output []float64
	gradIn []float64

	rng *RNG
}

// NewDropout creates a dropout layer. keepProb is the probability an
// element survives; 1.0 makes the layer an identity on both passes.
func NewDropout(keepProb float64) *Dropout {
	if keepProb <= 0 || keepProb > 1 {
		panic(fmt.Sprintf("dropout: keep probability %v outside (0, 1]", keepProb))
	}
	return &Dropout{keepProb: keepProb, rng: NewRNG(42)}
}

// Seed reseeds the mask generator (used for reproducible runs).
func (d *Dropout) Seed(seed uint64) { d.rng = NewRNG(seed) }

// Calc is the identity: no masking outside of Forward.
func (d *Dropout) Calc(x []float64) []float64 {
	d.output = ensure(d.output, len(x))
	copy(d.output, x)
	return d.output
}

// Forward samples a fresh mask and applies it with the 1/keepProb rescale.
func (d *Dropout) Forward(x []float64) []float64 {
	d.output = ensure(d.output, len(x))
	d.mask = ensure(d.mask, len(x))
	scale := 1 / d.keepProb
	for i, v := range x {
		if d.keepProb == 1 || d.rng.RandFloat() < d.keepProb {
			d.mask[i] = 1
			d.output[i] = v * scale
		} else {
			d.mask[i] = 0
			d.output[i] = 0
		}
	}
	return d.output
}

// Backward routes the gradient through the mask recorded by Forward,
// rescaled by the same 1/keepProb factor.
func (d *Dropout) Backward(x, grad []float64) []float64 {
	if len(d.mask) != len(grad) {
		panic(fmt.Sprintf("dropout: backward without matching forward (mask %d, grad %d)", len(d.mask), len(grad)))
	}
	d.gradIn = ensure(d.gradIn, len(grad))
	scale := 1 / d.keepProb
	for i, g := range grad {
		d.gradIn[i] = g * d.mask[i] * scale
	}
	return d.gradIn
}
