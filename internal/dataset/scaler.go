package dataset

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// StandardScaler removes the column mean and scales to unit variance.
// Columns with zero variance are left unscaled.
type StandardScaler struct {
	Mean  []float64
	Scale []float64
}

// Fit computes per-column mean and population standard deviation.
func (s *StandardScaler) Fit(X mat.Matrix) {
	_, c := X.Dims()
	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	var col []float64
	for j := 0; j < c; j++ {
		col = mat.Col(col, j, X)
		m, sd := stat.PopMeanStdDev(col, nil)
		if sd == 0 {
			sd = 1
		}
		s.Mean[j] = m
		s.Scale[j] = sd
	}
}

// Transform standardizes X in place.
func (s *StandardScaler) Transform(X *mat.Dense) {
	X.Apply(func(_, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)
}

// FitTransform fits on X and standardizes it in place.
func (s *StandardScaler) FitTransform(X *mat.Dense) {
	s.Fit(X)
	s.Transform(X)
}
