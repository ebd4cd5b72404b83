package nn

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	Identity = "identity"
	Logistic = "logistic"
	Tanh     = "tanh"
	ReLU     = "relu"
	Softmax  = "softmax"
)

func validHidden(name string) error {
	switch name {
	case Identity, Logistic, Tanh, ReLU:
		return nil
	}
	return fmt.Errorf("nn: unknown activation %q (want identity, logistic, tanh or relu)", name)
}

// activate applies name to Z in place.
func activate(name string, Z *mat.Dense) {
	switch name {
	case Identity:
	case Logistic:
		Z.Apply(func(_, _ int, v float64) float64 { return 1 / (1 + math.Exp(-v)) }, Z)
	case Tanh:
		Z.Apply(func(_, _ int, v float64) float64 { return math.Tanh(v) }, Z)
	case ReLU:
		Z.Apply(func(_, _ int, v float64) float64 { return math.Max(v, 0) }, Z)
	case Softmax:
		r, _ := Z.Dims()
		for i := 0; i < r; i++ {
			row := Z.RawRowView(i)
			floats.AddConst(-floats.Max(row), row)
			for j, v := range row {
				row[j] = math.Exp(v)
			}
			floats.Scale(1/floats.Sum(row), row)
		}
	}
}

// derivative multiplies delta in place by the activation derivative,
// expressed in terms of the activation output A.
func derivative(name string, A, delta *mat.Dense) {
	switch name {
	case Identity:
	case Logistic:
		delta.Apply(func(i, j int, d float64) float64 {
			a := A.At(i, j)
			return d * a * (1 - a)
		}, delta)
	case Tanh:
		delta.Apply(func(i, j int, d float64) float64 {
			a := A.At(i, j)
			return d * (1 - a*a)
		}, delta)
	case ReLU:
		delta.Apply(func(i, j int, d float64) float64 {
			if A.At(i, j) <= 0 {
				return 0
			}
			return d
		}, delta)
	}
}
