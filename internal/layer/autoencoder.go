package layer

import "fmt"

// Autoencoder is a two-branch composite: an encode sub-layer driven on a
// noise-perturbed copy of the input and a decode sub-layer chained on the
// clean encoded path. Its parameter and gradient views are the two
// sub-layers' views concatenated in encode-then-decode order, and SetParams
// splits the incoming flat vector by each branch's own parameter count.
// The same wiring generalizes to arbitrary static layer stacks.
type Autoencoder struct {
	encoder Layer
	decoder Layer

	// noise scales the Gaussian perturbation injected before the encoder.
	noise float64
	rng   *RNG

	noisy  []float64
	hidden []float64
}

// NewAutoencoder composes an encoder and decoder with the given input
// corruption level. A noise of 0 disables the perturbation.
func NewAutoencoder(encoder, decoder Layer, noise float64) *Autoencoder {
	if noise < 0 {
		panic(fmt.Sprintf("autoencoder: invalid noise %v", noise))
	}
	return &Autoencoder{
		encoder: encoder,
		decoder: decoder,
		noise:   noise,
		rng:     NewRNG(42),
	}
}

// Seed reseeds the noise generator.
func (a *Autoencoder) Seed(seed uint64) { a.rng = NewRNG(seed) }

// Encoder returns the encode branch.
func (a *Autoencoder) Encoder() Layer { return a.encoder }

// Decoder returns the decode branch.
func (a *Autoencoder) Decoder() Layer { return a.decoder }

// Calc runs the clean path: decode(encode(x)), no perturbation.
func (a *Autoencoder) Calc(x []float64) []float64 {
	return a.decoder.Calc(a.encoder.Calc(x))
}

// Forward perturbs a copy of the input, drives the encoder on it, and the
// decoder on the undisturbed encoded result. The noisy copy and the hidden
// vector are the recorded state Backward needs.
func (a *Autoencoder) Forward(x []float64) []float64 {
	a.noisy = ensure(a.noisy, len(x))
	copy(a.noisy, x)
	if a.noise > 0 {
		for i := range a.noisy {
			a.noisy[i] += a.noise * a.rng.RandNorm()
		}
	}
	h := a.encoder.Forward(a.noisy)
	a.hidden = ensure(a.hidden, len(h))
	copy(a.hidden, h)
	return a.decoder.Forward(a.hidden)
}

// Backward chains the decoder's gradient into the encoder, using the
// recorded hidden vector and noisy input as each branch's forward input.
func (a *Autoencoder) Backward(x, grad []float64) []float64 {
	if len(a.noisy) != len(x) {
		panic(fmt.Sprintf("autoencoder: backward without matching forward (recorded %d, input %d)", len(a.noisy), len(x)))
	}
	hiddenGrad := a.decoder.Backward(a.hidden, grad)
	return a.encoder.Backward(a.noisy, hiddenGrad)
}

// Params concatenates the encoder's and decoder's parameter views.
func (a *Autoencoder) Params() []float64 {
	enc, dec := a.encoder.Params(), a.decoder.Params()
	params := make([]float64, 0, len(enc)+len(dec))
	params = append(params, enc...)
	params = append(params, dec...)
	return params
}

// SetParams splits the flat vector by each branch's declared parameter
// count before delegating.
func (a *Autoencoder) SetParams(p []float64) {
	n := len(a.encoder.Params())
	m := len(a.decoder.Params())
	if len(p) != n+m {
		panic(fmt.Sprintf("autoencoder: parameter vector length %d, branches have %d", len(p), n+m))
	}
	a.encoder.SetParams(p[:n])
	a.decoder.SetParams(p[n:])
}

// Gradients concatenates the encoder's and decoder's gradient views.
func (a *Autoencoder) Gradients() []float64 {
	enc, dec := a.encoder.Gradients(), a.decoder.Gradients()
	grads := make([]float64, 0, len(enc)+len(dec))
	grads = append(grads, enc...)
	grads = append(grads, dec...)
	return grads
}
