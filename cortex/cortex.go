// Package cortex re-exports the layer engine's common types and
// constructors for easier access.
package cortex

import (
	"github.com/astoeckley/cortex/internal/backend"
	"github.com/astoeckley/cortex/internal/conv"
	"github.com/astoeckley/cortex/internal/layer"
	"github.com/astoeckley/cortex/internal/net"
	"github.com/astoeckley/cortex/internal/opt"
)

type (
	Layer     = layer.Layer
	Config    = conv.Config
	Backend   = backend.Backend
	Stack     = net.Stack
	Registry  = net.Registry
	Kind      = net.Kind
	Options   = net.Options
	Optimizer = opt.Optimizer
	SGD       = opt.SGD
	Adam      = opt.Adam
)

// Detect probes the hardware and returns the default backend.
func Detect() *Backend {
	return backend.Detect()
}

// NewStack creates a sequential layer stack.
func NewStack(layers ...Layer) *Stack {
	return net.NewStack(layers...)
}

// NewRegistry creates the enumerated layer registry bound to a backend.
func NewRegistry(b *Backend) *Registry {
	return net.NewRegistry(b)
}

// Layers
func Affine(in, out int, b *Backend) *layer.Affine {
	return layer.NewAffine(in, out, b)
}

func Conv2D(cfg Config, outChannels int, b *Backend) *layer.Conv2D {
	return layer.NewConv2D(cfg, outChannels, b)
}

func MaxPool2D(cfg Config) *layer.MaxPool2D {
	return layer.NewMaxPool2D(cfg)
}

func Logistic() *layer.Logistic { return layer.NewLogistic() }

func TanH() *layer.TanH { return layer.NewTanH() }

func ReLU(negval float64) *layer.ReLU { return layer.NewReLU(negval) }

func Softmax() *layer.Softmax { return layer.NewSoftmax() }

func Dropout(keepProb float64) *layer.Dropout { return layer.NewDropout(keepProb) }

func Scale(factor, constant float64) *layer.Scale { return layer.NewScale(factor, constant) }

func Normalizer(size int, averageFactor, normalizerFactor float64) *layer.Normalizer {
	return layer.NewNormalizer(size, averageFactor, normalizerFactor)
}

func TopK(k int) *layer.TopK { return layer.NewTopK(k) }

func Autoencoder(encoder, decoder Layer, noise float64) *layer.Autoencoder {
	return layer.NewAutoencoder(encoder, decoder, noise)
}

// NewAdam creates an Adam optimizer with the usual defaults.
func NewAdam(learningRate float64) *Adam {
	return opt.NewAdam(learningRate)
}
