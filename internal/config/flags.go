package config

import (
	"errors"
	"flag"
	"io"
)

// ErrMissingExportPath is returned when --export_path is not supplied.
var ErrMissingExportPath = errors.New("the following arguments are required: --export_path")

// Hyperparameters are the per-run settings supplied by the search harness.
// Values are passed through without range checks; the model rejects
// unusable ones when it is first fitted.
type Hyperparameters struct {
	Layers     int
	Units      int
	Activation string
	LR         float64
	ExportPath string
}

// HiddenLayerSizes returns Layers copies of Units.
func (h Hyperparameters) HiddenLayerSizes() []int {
	if h.Layers <= 0 {
		return []int{}
	}
	sizes := make([]int, h.Layers)
	for i := range sizes {
		sizes[i] = h.Units
	}
	return sizes
}

// Options are the ambient flags that are not hyperparameters.
type Options struct {
	ConfigPath string
}

// ParseFlags parses the command line. Usage text and parse errors are
// written to output.
func ParseFlags(name string, args []string, output io.Writer) (Hyperparameters, Options, error) {
	var hp Hyperparameters
	var opts Options
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.IntVar(&hp.Layers, "layers", 1, "number of hidden layers")
	fs.IntVar(&hp.Units, "units", 32, "units per hidden layer")
	fs.StringVar(&hp.Activation, "activation", "relu", "hidden activation: identity, logistic, tanh, relu")
	fs.Float64Var(&hp.LR, "lr", 0.01, "initial learning rate")
	fs.StringVar(&hp.ExportPath, "export_path", "", "directory holding model.json (required)")
	fs.StringVar(&opts.ConfigPath, "config", "", "optional YAML runtime config")
	if err := fs.Parse(args); err != nil {
		return hp, opts, err
	}
	if hp.ExportPath == "" {
		fs.Usage()
		return hp, opts, ErrMissingExportPath
	}
	return hp, opts, nil
}
