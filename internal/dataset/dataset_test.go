package dataset

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func TestLoadIrisShape(t *testing.T) {
	ds, err := LoadIris()
	if err != nil {
		t.Fatal(err)
	}
	r, c := ds.X.Dims()
	if r != 150 || c != 4 {
		t.Fatalf("dims: %dx%d", r, c)
	}
	counts := map[int]int{}
	for _, v := range ds.Y {
		counts[v]++
	}
	if len(counts) != 3 || counts[0] != 50 || counts[1] != 50 || counts[2] != 50 {
		t.Fatalf("class counts: %v", counts)
	}
	if ds.X.At(0, 0) != 5.1 || ds.X.At(149, 3) != 1.8 {
		t.Fatalf("unexpected corner values %v %v", ds.X.At(0, 0), ds.X.At(149, 3))
	}
}

func TestStandardScalerZeroMeanUnitVariance(t *testing.T) {
	ds, err := LoadIris()
	if err != nil {
		t.Fatal(err)
	}
	var sc StandardScaler
	sc.FitTransform(ds.X)
	var col []float64
	for j := 0; j < 4; j++ {
		col = mat.Col(col, j, ds.X)
		m, sd := stat.PopMeanStdDev(col, nil)
		if math.Abs(m) > 1e-12 || math.Abs(sd-1) > 1e-12 {
			t.Fatalf("column %d: mean=%v std=%v", j, m, sd)
		}
	}
}

func TestStandardScalerConstantColumn(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 7, 2, 7, 3, 7})
	var sc StandardScaler
	sc.FitTransform(X)
	for i := 0; i < 3; i++ {
		if X.At(i, 1) != 0 {
			t.Fatalf("constant column should center to 0, got %v", X.At(i, 1))
		}
	}
	if sc.Scale[1] != 1 {
		t.Fatalf("zero variance scale should be 1, got %v", sc.Scale[1])
	}
}

func TestPrepareIsDeterministic(t *testing.T) {
	a, err := Prepare()
	if err != nil {
		t.Fatal(err)
	}
	b, err := Prepare()
	if err != nil {
		t.Fatal(err)
	}
	if len(a.YTrain) != 120 || len(a.YTest) != 30 {
		t.Fatalf("sizes: %d/%d", len(a.YTrain), len(a.YTest))
	}
	for i := range a.TestIndex {
		if a.TestIndex[i] != b.TestIndex[i] {
			t.Fatalf("partition differs at %d", i)
		}
	}
	if !mat.Equal(a.XTest, b.XTest) || !mat.Equal(a.XTrain, b.XTrain) {
		t.Fatal("feature partitions differ between runs")
	}
	if len(a.FeatureNames) != 4 || a.FeatureNames[0] != "sepal_length" || len(a.ClassNames) != 3 {
		t.Fatalf("names: %v %v", a.FeatureNames, a.ClassNames)
	}
}

func TestSplitIsDisjointAndComplete(t *testing.T) {
	n := 10
	X := mat.NewDense(n, 1, nil)
	y := make([]int, n)
	for i := 0; i < n; i++ {
		X.Set(i, 0, float64(i))
		y[i] = i
	}
	s, err := TrainTestSplit(X, y, 0.25, Seed)
	if err != nil {
		t.Fatal(err)
	}
	if len(s.YTest) != 3 || len(s.YTrain) != 7 {
		t.Fatalf("sizes: %d/%d", len(s.YTrain), len(s.YTest))
	}
	seen := map[int]bool{}
	for i, v := range append(append([]int{}, s.YTrain...), s.YTest...) {
		if seen[v] {
			t.Fatalf("sample %d appears twice (pos %d)", v, i)
		}
		seen[v] = true
	}
	if len(seen) != n {
		t.Fatalf("missing samples: %v", seen)
	}
	for i, v := range s.YTest {
		if s.XTest.At(i, 0) != float64(v) {
			t.Fatalf("features and labels misaligned at %d", i)
		}
	}
}

func TestSplitRejectsBadInput(t *testing.T) {
	X := mat.NewDense(4, 1, nil)
	if _, err := TrainTestSplit(X, []int{0, 1, 2}, 0.2, Seed); err == nil {
		t.Fatal("expected length mismatch error")
	}
	if _, err := TrainTestSplit(X, []int{0, 1, 2, 3}, 1.5, Seed); err == nil {
		t.Fatal("expected test size error")
	}
}
