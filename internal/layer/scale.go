package layer

// Scale applies an affine elementwise transform: output = x*factor + constant.
// Either part may be absent, in which case it acts as the identity for that
// part (factor 1, constant 0).
type Scale struct {
	noParams
	factor   float64
	constant float64

	output []float64
	gradIn []float64
}

// NewScale creates a scale layer with both a factor and a constant.
func NewScale(factor, constant float64) *Scale {
	return &Scale{factor: factor, constant: constant}
}

// NewScaleFactor creates a scale layer with only a multiplicative factor.
func NewScaleFactor(factor float64) *Scale { return NewScale(factor, 0) }

// NewScaleConstant creates a scale layer with only an additive constant.
func NewScaleConstant(constant float64) *Scale { return NewScale(1, constant) }

// Calc computes x*factor + constant.
func (s *Scale) Calc(x []float64) []float64 {
	s.output = ensure(s.output, len(x))
	for i, v := range x {
		s.output[i] = v*s.factor + s.constant
	}
	return s.output
}

// Forward computes x*factor + constant.
func (s *Scale) Forward(x []float64) []float64 { return s.Calc(x) }

// Backward scales the gradient by the factor; the constant has no gradient.
func (s *Scale) Backward(x, grad []float64) []float64 {
	s.gradIn = ensure(s.gradIn, len(grad))
	for i, g := range grad {
		s.gradIn[i] = g * s.factor
	}
	return s.gradIn
}
