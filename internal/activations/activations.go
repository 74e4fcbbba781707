// Package activations provides the scalar activation primitives the
// elementwise layers are built on.
package activations

import "math"

// Activation is an activation function with derivative.
type Activation interface {
	// Activate computes f(x)
	Activate(x float64) float64

	// Derivative computes f'(x)
	Derivative(x float64) float64
}

// Sigmoid activation function.
type Sigmoid struct{}

// sigmoid computes the logistic function.
func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Activate computes sigmoid(x)
func (s Sigmoid) Activate(x float64) float64 {
	return sigmoid(x)
}

// Derivative computes sigmoid(x) * (1 - sigmoid(x))
func (s Sigmoid) Derivative(x float64) float64 {
	sigma := sigmoid(x)
	return sigma * (1 - sigma)
}

// Tanh activation function.
type Tanh struct{}

// Activate computes tanh(x)
func (t Tanh) Activate(x float64) float64 {
	return math.Tanh(x)
}

// Derivative computes 1 - tanh(x)^2
func (t Tanh) Derivative(x float64) float64 {
	tanhX := math.Tanh(x)
	return 1 - tanhX*tanhX
}

// LeakyReLU activation function with a configurable negative slope.
type LeakyReLU struct {
	Alpha float64 // Slope for x < 0
}

// NewLeakyReLU creates a LeakyReLU with the given alpha value.
func NewLeakyReLU(alpha float64) *LeakyReLU {
	return &LeakyReLU{Alpha: alpha}
}

// Activate computes x if x >= 0, else alpha*x
func (l *LeakyReLU) Activate(x float64) float64 {
	if x < 0 {
		return l.Alpha * x
	}
	return x
}

// Derivative returns 1 if x >= 0, else alpha
func (l *LeakyReLU) Derivative(x float64) float64 {
	if x < 0 {
		return l.Alpha
	}
	return 1
}
