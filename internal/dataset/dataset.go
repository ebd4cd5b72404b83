// Package dataset provides the bundled Iris data and the preprocessing that
// every training run applies to it: standardization and a seeded split.
package dataset

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/mat"
)

//go:embed iris.csv
var irisCSV []byte

// Seed fixes the train/test partition across invocations.
const Seed = 42

// TestSize is the held-out fraction.
const TestSize = 0.2

// Dataset is a labeled feature matrix.
type Dataset struct {
	X            *mat.Dense
	Y            []int
	FeatureNames []string
	ClassNames   []string
}

// LoadIris parses the embedded 150-sample, 4-feature, 3-class Iris table.
func LoadIris() (*Dataset, error) {
	r := csv.NewReader(bytes.NewReader(irisCSV))
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read iris: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("read iris: no samples")
	}
	header := rows[0]
	nFeatures := len(header) - 1
	body := rows[1:]
	data := make([]float64, 0, len(body)*nFeatures)
	y := make([]int, len(body))
	for i, row := range body {
		if len(row) != nFeatures+1 {
			return nil, fmt.Errorf("read iris: row %d has %d fields", i+1, len(row))
		}
		for _, f := range row[:nFeatures] {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("read iris: row %d: %w", i+1, err)
			}
			data = append(data, v)
		}
		c, err := strconv.Atoi(row[nFeatures])
		if err != nil {
			return nil, fmt.Errorf("read iris: row %d label: %w", i+1, err)
		}
		y[i] = c
	}
	return &Dataset{
		X:            mat.NewDense(len(body), nFeatures, data),
		Y:            y,
		FeatureNames: append([]string(nil), header[:nFeatures]...),
		ClassNames:   []string{"setosa", "versicolor", "virginica"},
	}, nil
}

// Prepare loads Iris, standardizes it with statistics of the whole matrix,
// and splits it with the fixed seed.
func Prepare() (Split, error) {
	ds, err := LoadIris()
	if err != nil {
		return Split{}, err
	}
	var sc StandardScaler
	sc.FitTransform(ds.X)
	s, err := TrainTestSplit(ds.X, ds.Y, TestSize, Seed)
	if err != nil {
		return Split{}, err
	}
	s.FeatureNames, s.ClassNames = ds.FeatureNames, ds.ClassNames
	return s, nil
}
