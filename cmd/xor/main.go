package main

import (
	"fmt"

	"github.com/astoeckley/cortex/cortex"
)

func main() {
	fmt.Println("=== XOR Training Example ===")

	b := cortex.Detect()
	fmt.Printf("Backend: %s\n", b.Capabilities())

	// 2 inputs -> 4 hidden -> 1 output. XOR needs the hidden layer.
	model := cortex.NewStack(
		cortex.Affine(2, 4, b),
		cortex.TanH(),
		cortex.Affine(4, 1, b),
		cortex.Logistic(),
	)
	optimizer := &cortex.SGD{LearningRate: 0.5, Momentum: 0.9}

	trainX := [][]float64{{0, 0}, {0, 1}, {1, 0}, {1, 1}}
	trainY := []float64{0, 1, 1, 0}

	gradOut := make([]float64, 1)
	for epoch := 0; epoch < 2000; epoch++ {
		totalLoss := 0.0
		for i, x := range trainX {
			pred := model.Forward(x)
			diff := pred[0] - trainY[i]
			totalLoss += diff * diff
			// MSE gradient with respect to the prediction.
			gradOut[0] = 2 * diff
			model.Backward(x, gradOut)
			model.SetParams(optimizer.Step(model.Params(), model.Gradients()))
		}
		if epoch%200 == 0 {
			fmt.Printf("epoch %4d  loss %.6f\n", epoch, totalLoss/float64(len(trainX)))
		}
	}

	fmt.Println("Predictions:")
	for i, x := range trainX {
		pred := model.Calc(x)
		fmt.Printf("  %v -> %.3f (want %.0f)\n", x, pred[0], trainY[i])
	}
}
