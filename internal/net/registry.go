package net

import (
	"fmt"

	"github.com/astoeckley/cortex/internal/backend"
	"github.com/astoeckley/cortex/internal/conv"
	"github.com/astoeckley/cortex/internal/layer"
)

// Kind tags a constructible layer type. The set is closed: only the kinds
// enumerated here can be built through a registry.
type Kind string

// The closed tag set.
const (
	KindLogistic   Kind = "logistic"
	KindTanH       Kind = "tanh"
	KindReLU       Kind = "relu"
	KindSoftmax    Kind = "softmax"
	KindDropout    Kind = "dropout"
	KindScale      Kind = "scale"
	KindNormalizer Kind = "normalizer"
	KindTopK       Kind = "top-k"
	KindAffine     Kind = "affine"
	KindConv2D     Kind = "convolutional"
	KindMaxPool2D  Kind = "max-pooling"
)

// Options carries the constructor arguments a factory may need. Only the
// fields relevant to the requested kind are read.
type Options struct {
	In, Out     int         // affine dims; normalizer size uses In
	Geometry    conv.Config // convolution / pooling geometry
	OutChannels int         // convolution output channels
	KeepProb    float64     // dropout keep probability
	Negval      float64     // rectifier negative-side slope
	Factor      float64     // scale factor
	Constant    float64     // scale constant
	K           int         // top-k retention count
	Average     float64     // normalizer running-average rate
	Normalizer  float64     // normalizer nudge strength
}

// Factory builds one layer from options.
type Factory func(o Options) layer.Layer

// Registry maps the closed tag set to factory functions. It is constructed
// explicitly and passed to whatever needs it; there is no package-level
// registry state, and nothing registers after construction.
type Registry struct {
	factories map[Kind]Factory
}

// NewRegistry builds a registry populated with every known kind, binding
// the parameterized layers to the given backend.
func NewRegistry(b *backend.Backend) *Registry {
	return &Registry{factories: map[Kind]Factory{
		KindLogistic:   func(o Options) layer.Layer { return layer.NewLogistic() },
		KindTanH:       func(o Options) layer.Layer { return layer.NewTanH() },
		KindReLU:       func(o Options) layer.Layer { return layer.NewReLU(o.Negval) },
		KindSoftmax:    func(o Options) layer.Layer { return layer.NewSoftmax() },
		KindDropout:    func(o Options) layer.Layer { return layer.NewDropout(o.KeepProb) },
		KindScale:      func(o Options) layer.Layer { return layer.NewScale(o.Factor, o.Constant) },
		KindNormalizer: func(o Options) layer.Layer { return layer.NewNormalizer(o.In, o.Average, o.Normalizer) },
		KindTopK:       func(o Options) layer.Layer { return layer.NewTopK(o.K) },
		KindAffine:     func(o Options) layer.Layer { return layer.NewAffine(o.In, o.Out, b) },
		KindConv2D:     func(o Options) layer.Layer { return layer.NewConv2D(o.Geometry, o.OutChannels, b) },
		KindMaxPool2D:  func(o Options) layer.Layer { return layer.NewMaxPool2D(o.Geometry) },
	}}
}

// Kinds returns the number of registered kinds.
func (r *Registry) Kinds() int { return len(r.factories) }

// Build constructs a layer of the given kind, or fails for a tag outside
// the closed set.
func (r *Registry) Build(kind Kind, o Options) (layer.Layer, error) {
	f, ok := r.factories[kind]
	if !ok {
		return nil, fmt.Errorf("net: unknown layer kind %q", kind)
	}
	return f(o), nil
}
