package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// Split is a fixed train/test partition.
type Split struct {
	XTrain *mat.Dense
	YTrain []int
	XTest  *mat.Dense
	YTest  []int

	// TestIndex holds the original row of each test sample.
	TestIndex []int

	FeatureNames []string
	ClassNames   []string
}

// TrainTestSplit shuffles row indices with seed and takes the first
// ceil(testSize*n) as the test partition.
func TrainTestSplit(X *mat.Dense, y []int, testSize float64, seed uint64) (Split, error) {
	n, c := X.Dims()
	if n != len(y) {
		return Split{}, fmt.Errorf("split: %d rows but %d labels", n, len(y))
	}
	if testSize <= 0 || testSize >= 1 {
		return Split{}, fmt.Errorf("split: test size %v outside (0, 1)", testSize)
	}
	nTest := int(math.Ceil(testSize * float64(n)))
	if nTest >= n {
		return Split{}, fmt.Errorf("split: %d samples leave no training data", n)
	}
	rng := rand.New(rand.NewPCG(seed, seed))
	perm := rng.Perm(n)
	testIdx, trainIdx := perm[:nTest], perm[nTest:]
	return Split{
		XTrain:    gather(X, trainIdx, c),
		YTrain:    gatherLabels(y, trainIdx),
		XTest:     gather(X, testIdx, c),
		YTest:     gatherLabels(y, testIdx),
		TestIndex: append([]int(nil), testIdx...),
	}, nil
}

func gather(X *mat.Dense, idx []int, cols int) *mat.Dense {
	out := mat.NewDense(len(idx), cols, nil)
	for i, r := range idx {
		out.SetRow(i, X.RawRowView(r))
	}
	return out
}

func gatherLabels(y []int, idx []int) []int {
	out := make([]int, len(idx))
	for i, r := range idx {
		out[i] = y[r]
	}
	return out
}
