// Package layer provides neural network layer implementations.
//
// Every layer owns its scratch buffers (outputs, gradient accumulators,
// masks) and reuses them across calls, so the hot path allocates nothing
// once shapes have settled. Layers process one sample at a time and are not
// safe for concurrent use; a Backward call is only valid directly after a
// Forward call with the same input on the same instance.
package layer

// Layer is the module contract every layer implements.
type Layer interface {
	// Calc computes the layer's output without any gradient bookkeeping.
	// Calling it twice with the same input yields the same output.
	Calc(x []float64) []float64

	// Forward computes the same output as Calc but additionally records
	// whatever internal state Backward will need (a dropout mask, argmax
	// indices, injected noise).
	Forward(x []float64) []float64

	// Backward computes the gradient with respect to the input given the
	// input of the immediately preceding Forward call and the gradient
	// with respect to the output. Parameter gradients accumulate into the
	// layer's gradient buffers.
	Backward(x, grad []float64) []float64

	// Params returns a flat view over all learnable state.
	Params() []float64

	// SetParams overwrites the learnable state from a flat vector and
	// zeroes the gradient accumulators.
	SetParams(p []float64)

	// Gradients returns a flat view over the accumulated gradients,
	// matching Params element for element.
	Gradients() []float64
}

// zero clears a buffer in place.
func zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// ensure returns buf resized to n, reusing its backing array when possible.
func ensure(buf []float64, n int) []float64 {
	if cap(buf) < n {
		return make([]float64, n)
	}
	return buf[:n]
}
