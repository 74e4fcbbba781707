// Package net provides layer composition: a sequential stack and the
// explicit layer registry used to construct layers from a closed tag set.
package net

import (
	"fmt"

	"github.com/astoeckley/cortex/internal/layer"
)

// Stack chains layers in order. It implements the same module contract as
// a single layer, so stacks nest inside composites and other stacks.
type Stack struct {
	layers []layer.Layer

	// inputs[i] holds a copy of what layer i consumed during the last
	// Forward, fed back to its Backward.
	inputs [][]float64
}

// NewStack creates a sequential stack over the given layers.
func NewStack(layers ...layer.Layer) *Stack {
	if len(layers) == 0 {
		panic("net: empty stack")
	}
	return &Stack{
		layers: layers,
		inputs: make([][]float64, len(layers)),
	}
}

// Layers returns the stacked layers in forward order.
func (s *Stack) Layers() []layer.Layer { return s.layers }

// Calc chains Calc through every layer.
func (s *Stack) Calc(x []float64) []float64 {
	curr := x
	for _, l := range s.layers {
		curr = l.Calc(curr)
	}
	return curr
}

// Forward chains Forward through every layer, recording each layer's input
// for the backward pass.
func (s *Stack) Forward(x []float64) []float64 {
	curr := x
	for i, l := range s.layers {
		if cap(s.inputs[i]) < len(curr) {
			s.inputs[i] = make([]float64, len(curr))
		}
		s.inputs[i] = s.inputs[i][:len(curr)]
		copy(s.inputs[i], curr)
		curr = l.Forward(curr)
	}
	return curr
}

// Backward chains the gradient from the last layer to the first, feeding
// each layer the input recorded by the matching Forward.
func (s *Stack) Backward(x, grad []float64) []float64 {
	if s.inputs[0] == nil {
		panic("net: stack backward without forward")
	}
	curr := grad
	for i := len(s.layers) - 1; i >= 0; i-- {
		curr = s.layers[i].Backward(s.inputs[i], curr)
	}
	return curr
}

// Params concatenates every layer's parameter view in forward order.
func (s *Stack) Params() []float64 {
	var params []float64
	for _, l := range s.layers {
		params = append(params, l.Params()...)
	}
	return params
}

// SetParams splits the flat vector by each layer's declared parameter count
// before delegating.
func (s *Stack) SetParams(p []float64) {
	off := 0
	for _, l := range s.layers {
		n := len(l.Params())
		if off+n > len(p) {
			panic(fmt.Sprintf("net: parameter vector length %d too short at offset %d", len(p), off))
		}
		l.SetParams(p[off : off+n])
		off += n
	}
	if off != len(p) {
		panic(fmt.Sprintf("net: parameter vector length %d, stack has %d", len(p), off))
	}
}

// Gradients concatenates every layer's gradient view in forward order.
func (s *Stack) Gradients() []float64 {
	var grads []float64
	for _, l := range s.layers {
		grads = append(grads, l.Gradients()...)
	}
	return grads
}
