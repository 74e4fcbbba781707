// Package opt provides the parameter-update side of the module contract:
// optimizers consume the flat Params/Gradients views of a layer and hand an
// updated flat vector back to SetParams.
package opt

import "math"

// Optimizer updates parameters based on gradients.
type Optimizer interface {
	// Step computes updated parameters from the current values and the
	// accumulated gradients. Returns a new slice with updated values.
	Step(params, gradients []float64) []float64
}

// SGD is stochastic gradient descent with optional momentum.
type SGD struct {
	LearningRate float64
	Momentum     float64

	velocity []float64
}

// Step computes params - lr * (gradients folded through momentum).
func (s *SGD) Step(params, gradients []float64) []float64 {
	if s.velocity == nil {
		s.velocity = make([]float64, len(params))
	}
	result := make([]float64, len(params))
	for i := range params {
		s.velocity[i] = s.Momentum*s.velocity[i] + gradients[i]
		result[i] = params[i] - s.LearningRate*s.velocity[i]
	}
	return result
}

// Adam optimizer with bias-corrected first and second moments.
type Adam struct {
	LearningRate float64
	Beta1        float64 // Exponential decay rate for first moment
	Beta2        float64 // Exponential decay rate for second moment
	Epsilon      float64 // Small constant for numerical stability

	m, v []float64
	t    int
}

// NewAdam creates an Adam optimizer with the usual defaults.
func NewAdam(learningRate float64) *Adam {
	return &Adam{
		LearningRate: learningRate,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-8,
	}
}

// Step computes updated parameters using Adam.
func (a *Adam) Step(params, gradients []float64) []float64 {
	if a.m == nil {
		a.m = make([]float64, len(params))
		a.v = make([]float64, len(params))
	}
	a.t++
	c1 := 1 - math.Pow(a.Beta1, float64(a.t))
	c2 := 1 - math.Pow(a.Beta2, float64(a.t))
	result := make([]float64, len(params))
	for i := range params {
		g := gradients[i]
		a.m[i] = a.Beta1*a.m[i] + (1-a.Beta1)*g
		a.v[i] = a.Beta2*a.v[i] + (1-a.Beta2)*g*g
		mHat := a.m[i] / c1
		vHat := a.v[i] / c2
		result[i] = params[i] - a.LearningRate*mHat/(math.Sqrt(vHat)+a.Epsilon)
	}
	return result
}
