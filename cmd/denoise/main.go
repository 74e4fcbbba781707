package main

import (
	"fmt"

	"github.com/astoeckley/cortex/cortex"
)

// Trains a small denoising autoencoder on random binary patterns: the
// encoder sees a noise-corrupted copy of each pattern, the decoder learns
// to reconstruct the clean one.
func main() {
	fmt.Println("=== Denoising Autoencoder Example ===")

	b := cortex.Detect()
	const (
		size   = 8
		hidden = 4
		noise  = 0.2
	)

	encoder := cortex.NewStack(cortex.Affine(size, hidden, b), cortex.TanH())
	decoder := cortex.NewStack(cortex.Affine(hidden, size, b), cortex.Logistic())
	model := cortex.Autoencoder(encoder, decoder, noise)
	optimizer := cortex.NewAdam(0.01)

	// Fixed set of binary patterns to memorize.
	patterns := [][]float64{
		{1, 0, 1, 0, 1, 0, 1, 0},
		{0, 1, 0, 1, 0, 1, 0, 1},
		{1, 1, 0, 0, 1, 1, 0, 0},
		{0, 0, 1, 1, 0, 0, 1, 1},
	}

	gradOut := make([]float64, size)
	for epoch := 0; epoch < 3000; epoch++ {
		totalLoss := 0.0
		for _, x := range patterns {
			pred := model.Forward(x)
			for i := range gradOut {
				diff := pred[i] - x[i]
				totalLoss += diff * diff
				gradOut[i] = 2 * diff
			}
			model.Backward(x, gradOut)
			model.SetParams(optimizer.Step(model.Params(), model.Gradients()))
		}
		if epoch%300 == 0 {
			fmt.Printf("epoch %4d  loss %.6f\n", epoch, totalLoss/float64(len(patterns)*size))
		}
	}

	fmt.Println("Clean-path reconstructions:")
	for _, x := range patterns {
		pred := model.Calc(x)
		fmt.Printf("  in  %v\n  out [", x)
		for i, v := range pred {
			if i > 0 {
				fmt.Print(" ")
			}
			fmt.Printf("%.2f", v)
		}
		fmt.Println("]")
	}
}
