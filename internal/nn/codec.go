package nn

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"

	"gonum.org/v1/gonum/mat"
)

const (
	// FormatName identifies a serialized MLP.
	FormatName = "nastrain.mlp"
	// FormatVersion is bumped whenever the snapshot layout changes.
	FormatVersion = 1
)

// ErrUnsupportedFormat is returned by Decode for foreign or newer snapshots.
var ErrUnsupportedFormat = errors.New("nn: unsupported model format")

type snapshot struct {
	Format       string          `json:"format"`
	Version      int             `json:"version"`
	Architecture architecture    `json:"architecture"`
	Optimizer    optimizerParams `json:"optimizer"`
	Classes      []int           `json:"classes,omitempty"`
	Layers       []layerParams   `json:"layers,omitempty"`
	NIter        int             `json:"n_iter"`
	LossCurve    []float64       `json:"loss_curve,omitempty"`
}

type architecture struct {
	HiddenLayerSizes []int  `json:"hidden_layer_sizes"`
	Activation       string `json:"activation"`
	OutActivation    string `json:"out_activation,omitempty"`
	NFeatures        int    `json:"n_features"`
}

type optimizerParams struct {
	Solver           string  `json:"solver"`
	LearningRateInit float64 `json:"learning_rate_init"`
	Alpha            float64 `json:"alpha"`
	BatchSize        int     `json:"batch_size"`
	Beta1            float64 `json:"beta_1"`
	Beta2            float64 `json:"beta_2"`
	Epsilon          float64 `json:"epsilon"`
	Seed             uint64  `json:"seed"`
}

type layerParams struct {
	FanIn   int       `json:"fan_in"`
	FanOut  int       `json:"fan_out"`
	Weights []float64 `json:"weights"` // row-major fanIn x fanOut
	Biases  []float64 `json:"biases"`
}

// Encode writes the full model state as a versioned JSON document.
func (m *MLP) Encode(w io.Writer) error {
	s := snapshot{
		Format:  FormatName,
		Version: FormatVersion,
		Architecture: architecture{
			HiddenLayerSizes: m.HiddenLayerSizes(),
			Activation:       m.opts.Activation,
			OutActivation:    m.outAct,
			NFeatures:        m.nFeatures,
		},
		Optimizer: optimizerParams{
			Solver:           "adam",
			LearningRateInit: m.opts.LearningRateInit,
			Alpha:            m.opts.Alpha,
			BatchSize:        m.opts.BatchSize,
			Beta1:            m.opts.Beta1,
			Beta2:            m.opts.Beta2,
			Epsilon:          m.opts.Epsilon,
			Seed:             m.opts.Seed,
		},
		Classes:   m.Classes(),
		NIter:     m.nIter,
		LossCurve: m.LossCurve(),
	}
	for i, W := range m.weights {
		r, c := W.Dims()
		s.Layers = append(s.Layers, layerParams{
			FanIn:   r,
			FanOut:  c,
			Weights: slices.Clone(W.RawMatrix().Data),
			Biases:  slices.Clone(m.biases[i]),
		})
	}
	return json.NewEncoder(w).Encode(s)
}

// Decode reads a model written by Encode.
func Decode(r io.Reader) (*MLP, error) {
	var s snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("nn: decode model: %w", err)
	}
	if s.Format != FormatName || s.Version != FormatVersion {
		return nil, fmt.Errorf("%w: %q version %d", ErrUnsupportedFormat, s.Format, s.Version)
	}
	if s.Optimizer.Solver != "adam" {
		return nil, fmt.Errorf("%w: solver %q", ErrUnsupportedFormat, s.Optimizer.Solver)
	}
	hidden := s.Architecture.HiddenLayerSizes
	if hidden == nil {
		hidden = []int{}
	}
	m := New(Options{
		HiddenLayerSizes: hidden,
		Activation:       s.Architecture.Activation,
		LearningRateInit: s.Optimizer.LearningRateInit,
		Alpha:            s.Optimizer.Alpha,
		BatchSize:        s.Optimizer.BatchSize,
		Beta1:            s.Optimizer.Beta1,
		Beta2:            s.Optimizer.Beta2,
		Epsilon:          s.Optimizer.Epsilon,
		Seed:             s.Optimizer.Seed,
	})
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("nn: corrupt model: %w", err)
	}
	m.nIter = s.NIter
	m.lossCurve = s.LossCurve
	if len(s.Layers) == 0 {
		return m, nil
	}
	if err := s.checkShapes(); err != nil {
		return nil, err
	}
	m.nFeatures = s.Architecture.NFeatures
	m.outAct = s.Architecture.OutActivation
	m.classes = s.Classes
	for _, l := range s.Layers {
		m.weights = append(m.weights, mat.NewDense(l.FanIn, l.FanOut, l.Weights))
		m.biases = append(m.biases, l.Biases)
	}
	return m, nil
}

func (s snapshot) checkShapes() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("nn: corrupt model: "+format, args...)
	}
	a := s.Architecture
	if len(s.Layers) != len(a.HiddenLayerSizes)+1 {
		return bad("%d layers for %d hidden sizes", len(s.Layers), len(a.HiddenLayerSizes))
	}
	nOut := len(s.Classes)
	switch {
	case a.OutActivation == Logistic && nOut == 2:
		nOut = 1
	case a.OutActivation == Softmax && nOut > 2:
	default:
		return bad("output %q with %d classes", a.OutActivation, nOut)
	}
	fanIn := a.NFeatures
	for i, l := range s.Layers {
		fanOut := nOut
		if i < len(a.HiddenLayerSizes) {
			fanOut = a.HiddenLayerSizes[i]
		}
		if fanIn <= 0 || fanOut <= 0 || l.FanIn != fanIn || l.FanOut != fanOut {
			return bad("layer %d is %dx%d, want %dx%d", i, l.FanIn, l.FanOut, fanIn, fanOut)
		}
		if len(l.Weights) != fanIn*fanOut || len(l.Biases) != fanOut {
			return bad("layer %d has %d weights and %d biases", i, len(l.Weights), len(l.Biases))
		}
		fanIn = fanOut
	}
	return nil
}
