package nn

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Options configure a new MLP. Zero fields take the values of DefaultOptions.
type Options struct {
	HiddenLayerSizes []int
	Activation       string
	LearningRateInit float64
	Alpha            float64 // L2 penalty
	BatchSize        int     // 0 means min(200, n)
	Beta1            float64
	Beta2            float64
	Epsilon          float64
	Seed             uint64
}

// DefaultOptions mirror the usual MLP classifier defaults: one hidden layer
// of 100 relu units trained with Adam.
func DefaultOptions() Options {
	return Options{
		HiddenLayerSizes: []int{100},
		Activation:       ReLU,
		LearningRateInit: 0.001,
		Alpha:            0.0001,
		Beta1:            0.9,
		Beta2:            0.999,
		Epsilon:          1e-8,
		Seed:             42,
	}
}

// MLP is a fully connected feedforward classifier trained with Adam on
// log-loss. Weights are created on the first FitEpoch, once the feature
// count and the class set are known, and kept across later calls.
type MLP struct {
	opts Options

	classes   []int
	nFeatures int
	outAct    string
	weights   []*mat.Dense // fanIn x fanOut per layer
	biases    [][]float64

	nIter     int
	lossCurve []float64
}

// New returns an unfitted MLP. Options are not validated here; invalid
// values are reported by the first FitEpoch.
func New(opts Options) *MLP {
	d := DefaultOptions()
	if opts.HiddenLayerSizes == nil {
		opts.HiddenLayerSizes = d.HiddenLayerSizes
	}
	if opts.Activation == "" {
		opts.Activation = d.Activation
	}
	if opts.Beta1 == 0 {
		opts.Beta1 = d.Beta1
	}
	if opts.Beta2 == 0 {
		opts.Beta2 = d.Beta2
	}
	if opts.Epsilon == 0 {
		opts.Epsilon = d.Epsilon
	}
	opts.HiddenLayerSizes = slices.Clone(opts.HiddenLayerSizes)
	return &MLP{opts: opts}
}

func (m *MLP) SupportsIncrementalFit() bool { return true }

func (m *MLP) HiddenLayerSizes() []int   { return slices.Clone(m.opts.HiddenLayerSizes) }
func (m *MLP) Activation() string        { return m.opts.Activation }
func (m *MLP) LearningRateInit() float64 { return m.opts.LearningRateInit }
func (m *MLP) Classes() []int            { return slices.Clone(m.classes) }
func (m *MLP) Fitted() bool              { return len(m.weights) > 0 }

// NIter is the number of epochs fitted over the model's whole lifetime,
// including runs before it was saved.
func (m *MLP) NIter() int { return m.nIter }

// LossCurve holds the training loss of every epoch in NIter order.
func (m *MLP) LossCurve() []float64 { return slices.Clone(m.lossCurve) }

func (m *MLP) validate() error {
	for _, s := range m.opts.HiddenLayerSizes {
		if s <= 0 {
			return fmt.Errorf("nn: hidden layer sizes must be > 0, got %v", m.opts.HiddenLayerSizes)
		}
	}
	if err := validHidden(m.opts.Activation); err != nil {
		return err
	}
	if !(m.opts.LearningRateInit > 0) {
		return fmt.Errorf("nn: learning rate must be > 0, got %v", m.opts.LearningRateInit)
	}
	if m.opts.Alpha < 0 {
		return fmt.Errorf("nn: alpha must be >= 0, got %v", m.opts.Alpha)
	}
	if m.opts.BatchSize < 0 {
		return fmt.Errorf("nn: batch size must be >= 0, got %d", m.opts.BatchSize)
	}
	return nil
}

// initialize draws Glorot-uniform weights and biases.
func (m *MLP) initialize(nFeatures int, classes []int, rng *rand.Rand) {
	m.nFeatures = nFeatures
	m.classes = classes
	nOut := len(classes)
	m.outAct = Softmax
	if nOut == 2 {
		nOut = 1
		m.outAct = Logistic
	}
	sizes := append(append([]int{nFeatures}, m.opts.HiddenLayerSizes...), nOut)
	factor := 6.0
	if m.opts.Activation == Logistic {
		factor = 2
	}
	m.weights = make([]*mat.Dense, len(sizes)-1)
	m.biases = make([][]float64, len(sizes)-1)
	for i := range m.weights {
		fanIn, fanOut := sizes[i], sizes[i+1]
		bound := math.Sqrt(factor / float64(fanIn+fanOut))
		w := make([]float64, fanIn*fanOut)
		for k := range w {
			w[k] = (2*rng.Float64() - 1) * bound
		}
		b := make([]float64, fanOut)
		for k := range b {
			b[k] = (2*rng.Float64() - 1) * bound
		}
		m.weights[i] = mat.NewDense(fanIn, fanOut, w)
		m.biases[i] = b
	}
	m.nIter = 0
	m.lossCurve = nil
}

// FitEpoch runs one epoch of minibatch Adam over (X, y). The optimizer state
// and the shuffling source are recreated on every call from the fixed seed;
// only the weights carry over.
func (m *MLP) FitEpoch(X mat.Matrix, y []int) error {
	n, f := X.Dims()
	if n == 0 {
		return errors.New("nn: empty training set")
	}
	if n != len(y) {
		return fmt.Errorf("nn: %d samples but %d labels", n, len(y))
	}
	rng := rand.New(rand.NewPCG(m.opts.Seed, m.opts.Seed))
	if !m.Fitted() {
		if err := m.validate(); err != nil {
			return err
		}
		classes := slices.Compact(slices.Sorted(slices.Values(y)))
		if len(classes) < 2 {
			return fmt.Errorf("nn: need at least 2 classes, got %v", classes)
		}
		m.initialize(f, classes, rng)
	} else if f != m.nFeatures {
		return fmt.Errorf("nn: model expects %d features, got %d", m.nFeatures, f)
	}

	Y, err := m.encodeLabels(y)
	if err != nil {
		return err
	}
	Xd := mat.DenseCopyOf(X)

	batch := m.opts.BatchSize
	if batch == 0 || batch > n {
		batch = min(200, n)
	}
	opt := newAdam(m.params(), m.opts.LearningRateInit, m.opts.Beta1, m.opts.Beta2, m.opts.Epsilon)
	perm := rng.Perm(n)

	var accumulated float64
	for start := 0; start < n; start += batch {
		end := min(start+batch, n)
		idx := perm[start:end]
		loss, grads := m.backprop(rows(Xd, idx), rows(Y, idx))
		opt.step(m.params(), grads)
		accumulated += loss * float64(len(idx))
	}
	loss := accumulated / float64(n)
	if math.IsNaN(loss) || math.IsInf(loss, 0) {
		return ErrDiverged
	}
	m.nIter++
	m.lossCurve = append(m.lossCurve, loss)
	return nil
}

// Predict returns the most probable class of each row.
func (m *MLP) Predict(X mat.Matrix) ([]int, error) {
	P, err := m.output(X)
	if err != nil {
		return nil, err
	}
	r, _ := P.Dims()
	out := make([]int, r)
	for i := 0; i < r; i++ {
		row := P.RawRowView(i)
		if m.outAct == Logistic {
			if row[0] > 0.5 {
				out[i] = m.classes[1]
			} else {
				out[i] = m.classes[0]
			}
			continue
		}
		out[i] = m.classes[floats.MaxIdx(row)]
	}
	return out, nil
}

// predictProba returns class probabilities, one column per class.
func (m *MLP) predictProba(X mat.Matrix) (*mat.Dense, error) {
	P, err := m.output(X)
	if err != nil {
		return nil, err
	}
	if m.outAct != Logistic {
		return P, nil
	}
	r, _ := P.Dims()
	out := mat.NewDense(r, 2, nil)
	for i := 0; i < r; i++ {
		p := P.At(i, 0)
		out.Set(i, 0, 1-p)
		out.Set(i, 1, p)
	}
	return out, nil
}

func (m *MLP) output(X mat.Matrix) (*mat.Dense, error) {
	if !m.Fitted() {
		return nil, ErrNotFitted
	}
	if _, f := X.Dims(); f != m.nFeatures {
		return nil, fmt.Errorf("nn: model expects %d features, got %d", m.nFeatures, f)
	}
	acts := m.forward(mat.DenseCopyOf(X))
	return acts[len(acts)-1], nil
}

// forward returns the input followed by every layer's activation.
func (m *MLP) forward(X *mat.Dense) []*mat.Dense {
	acts := make([]*mat.Dense, len(m.weights)+1)
	acts[0] = X
	last := len(m.weights) - 1
	for i, W := range m.weights {
		var Z mat.Dense
		Z.Mul(acts[i], W)
		r, _ := Z.Dims()
		for k := 0; k < r; k++ {
			floats.Add(Z.RawRowView(k), m.biases[i])
		}
		name := m.opts.Activation
		if i == last {
			name = m.outAct
		}
		activate(name, &Z)
		acts[i+1] = &Z
	}
	return acts
}

// backprop returns the penalized batch loss and the gradients of every
// weight matrix and bias vector, laid out like params.
func (m *MLP) backprop(X, Y *mat.Dense) (float64, [][]float64) {
	n, _ := X.Dims()
	nf := float64(n)
	acts := m.forward(X)
	P := acts[len(acts)-1]

	loss := m.logLoss(Y, P)
	var sq float64
	for _, W := range m.weights {
		for _, w := range W.RawMatrix().Data {
			sq += w * w
		}
	}
	loss += 0.5 * m.opts.Alpha * sq / nf

	grads := make([][]float64, 2*len(m.weights))
	delta := new(mat.Dense)
	delta.Sub(P, Y)
	for i := len(m.weights) - 1; i >= 0; i-- {
		var gW mat.Dense
		gW.Mul(acts[i].T(), delta)
		gW.Apply(func(r, c int, v float64) float64 {
			return (v + m.opts.Alpha*m.weights[i].At(r, c)) / nf
		}, &gW)
		_, cols := delta.Dims()
		gb := make([]float64, cols)
		for k := 0; k < n; k++ {
			floats.Add(gb, delta.RawRowView(k))
		}
		floats.Scale(1/nf, gb)
		grads[2*i] = gW.RawMatrix().Data
		grads[2*i+1] = gb
		if i > 0 {
			next := new(mat.Dense)
			next.Mul(delta, m.weights[i].T())
			derivative(m.opts.Activation, acts[i], next)
			delta = next
		}
	}
	return loss, grads
}

func (m *MLP) logLoss(Y, P *mat.Dense) float64 {
	const eps = 2.220446049250313e-16
	r, c := P.Dims()
	var sum float64
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			p := math.Min(math.Max(P.At(i, j), eps), 1-eps)
			t := Y.At(i, j)
			if t != 0 {
				sum -= t * math.Log(p)
			}
			if m.outAct == Logistic && t != 1 {
				sum -= (1 - t) * math.Log(1-p)
			}
		}
	}
	return sum / float64(r)
}

// params returns views over every weight matrix and bias vector.
func (m *MLP) params() [][]float64 {
	ps := make([][]float64, 0, 2*len(m.weights))
	for i, W := range m.weights {
		ps = append(ps, W.RawMatrix().Data, m.biases[i])
	}
	return ps
}

func (m *MLP) encodeLabels(y []int) (*mat.Dense, error) {
	pos := make(map[int]int, len(m.classes))
	for i, c := range m.classes {
		pos[c] = i
	}
	cols := len(m.classes)
	if m.outAct == Logistic {
		cols = 1
	}
	Y := mat.NewDense(len(y), cols, nil)
	for i, label := range y {
		j, ok := pos[label]
		if !ok {
			return nil, fmt.Errorf("nn: label %d not in fitted classes %v", label, m.classes)
		}
		if m.outAct == Logistic {
			Y.Set(i, 0, float64(j))
		} else {
			Y.Set(i, j, 1)
		}
	}
	return Y, nil
}

func rows(X *mat.Dense, idx []int) *mat.Dense {
	_, c := X.Dims()
	out := mat.NewDense(len(idx), c, nil)
	for i, r := range idx {
		out.SetRow(i, X.RawRowView(r))
	}
	return out
}
