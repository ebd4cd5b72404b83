// Package trainer runs the warm-start training loop: one epoch per step,
// held-out accuracy after each, and early stopping on a plateau.
package trainer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"nastrain/internal/dataset"
	"nastrain/internal/logging"
	"nastrain/internal/metrics"
	"nastrain/internal/nn"
)

const (
	MaxEpochs = 50
	Patience  = 5
)

// ErrNotIncremental is returned for models that reinitialize on every fit.
var ErrNotIncremental = errors.New("trainer: model does not support incremental fit")

// EpochResult describes one finished epoch.
type EpochResult struct {
	Epoch    int
	Accuracy float64
	Improved bool
	State    TrainingState
	Duration time.Duration
}

type Options struct {
	MaxEpochs int // 0 means MaxEpochs
	Patience  int // 0 means Patience
	// Out receives the metric protocol lines. Nil means os.Stdout.
	Out io.Writer
	// OnEpoch, if set, is called after every epoch. An error aborts the run.
	OnEpoch func(EpochResult) error
}

// Run trains m on split until the patience runs out or the epoch budget is
// spent. Every epoch writes "accuracy=<value>" to opts.Out; an early stop
// also writes "Early stopping at epoch <n>". Any error aborts immediately.
func Run(m nn.Classifier, split dataset.Split, opts Options) (TrainingState, error) {
	var state TrainingState
	if !m.SupportsIncrementalFit() {
		return state, ErrNotIncremental
	}
	if opts.MaxEpochs == 0 {
		opts.MaxEpochs = MaxEpochs
	}
	if opts.Patience == 0 {
		opts.Patience = Patience
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	progress := rate.Sometimes{First: 1, Interval: time.Second}

	for state.Epoch < opts.MaxEpochs {
		start := time.Now()
		if err := m.FitEpoch(split.XTrain, split.YTrain); err != nil {
			return state, fmt.Errorf("epoch %d: fit: %w", state.Epoch+1, err)
		}
		pred, err := m.Predict(split.XTest)
		if err != nil {
			return state, fmt.Errorf("epoch %d: predict: %w", state.Epoch+1, err)
		}
		acc, err := nn.Accuracy(split.YTest, pred)
		if err != nil {
			return state, fmt.Errorf("epoch %d: %w", state.Epoch+1, err)
		}
		if _, err := fmt.Fprintf(out, "accuracy=%s\n", FormatAccuracy(acc)); err != nil {
			return state, err
		}

		var improved bool
		state, improved = state.Observe(acc, opts.Patience)
		metrics.ObserveEpoch(start, acc, state.BestAccuracy)
		progress.Do(func() {
			logging.Info("epoch", map[string]any{
				"epoch": state.Epoch, "accuracy": acc, "best": state.BestAccuracy, "wait": state.Wait,
			})
		})
		if opts.OnEpoch != nil {
			res := EpochResult{Epoch: state.Epoch, Accuracy: acc, Improved: improved, State: state, Duration: time.Since(start)}
			if err := opts.OnEpoch(res); err != nil {
				return state, fmt.Errorf("epoch %d: %w", state.Epoch, err)
			}
		}

		if state.Status == StoppedEarly {
			if _, err := fmt.Fprintf(out, "Early stopping at epoch %d\n", state.Epoch); err != nil {
				return state, err
			}
			return state, nil
		}
	}
	state.Status = StoppedMaxEpochs
	return state, nil
}

// FormatAccuracy renders acc the way the metric collector expects: shortest
// round-trip digits, always with a decimal point ("1.0", not "1").
func FormatAccuracy(acc float64) string {
	s := strconv.FormatFloat(acc, 'f', -1, 64)
	if !strings.ContainsAny(s, ".NI") {
		s += ".0"
	}
	return s
}
