// Package nn implements a small multilayer perceptron classifier that can be
// trained one epoch at a time and resumed from a saved snapshot.
package nn

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNotFitted is returned when predicting with a model that has never been fitted.
	ErrNotFitted = errors.New("nn: model is not fitted yet")
	// ErrDiverged is returned when an epoch produces a non-finite loss.
	ErrDiverged = errors.New("nn: training diverged (non-finite loss)")
)

// Classifier is a model that can be fitted in increments and evaluated.
type Classifier interface {
	// SupportsIncrementalFit reports whether FitEpoch keeps the weights of
	// earlier calls instead of reinitializing them.
	SupportsIncrementalFit() bool
	// FitEpoch performs exactly one pass over X.
	FitEpoch(X mat.Matrix, y []int) error
	Predict(X mat.Matrix) ([]int, error)
}

// Accuracy returns the fraction of positions where yPred equals yTrue.
func Accuracy(yTrue, yPred []int) (float64, error) {
	if len(yTrue) != len(yPred) {
		return 0, fmt.Errorf("accuracy: %d labels but %d predictions", len(yTrue), len(yPred))
	}
	if len(yTrue) == 0 {
		return 0, errors.New("accuracy: no samples")
	}
	var right int
	for i := range yTrue {
		if yTrue[i] == yPred[i] {
			right++
		}
	}
	return float64(right) / float64(len(yTrue)), nil
}
