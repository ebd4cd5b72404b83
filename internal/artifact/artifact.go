// Package artifact owns the model file inside an export directory: it
// reloads a previous run's model or builds a fresh one, and writes the
// trained model back.
package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"nastrain/internal/config"
	"nastrain/internal/nn"
)

// FileName is the model file inside the export directory.
const FileName = "model.json"

// Seed fixes weight initialization of fresh models.
const Seed = 42

// Alpha is the L2 penalty of fresh models.
const Alpha = 0.0001

// Source tells whether LoadOrCreate reloaded or built the model.
type Source string

const (
	Fresh    Source = "fresh"
	Reloaded Source = "reloaded"
)

// Path returns the model file location for exportPath.
func Path(exportPath string) string {
	return filepath.Join(exportPath, FileName)
}

// LoadOrCreate returns the model saved under exportPath if there is one,
// ignoring hp entirely, and otherwise a new model built from hp. A file that
// exists but cannot be decoded is an error.
func LoadOrCreate(exportPath string, hp config.Hyperparameters) (*nn.MLP, Source, error) {
	path := Path(exportPath)
	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nn.New(nn.Options{
			HiddenLayerSizes: hp.HiddenLayerSizes(),
			Activation:       hp.Activation,
			LearningRateInit: hp.LR,
			Alpha:            Alpha,
			Seed:             Seed,
		}), Fresh, nil
	case err != nil:
		return nil, "", fmt.Errorf("open model: %w", err)
	}
	defer f.Close()
	m, err := nn.Decode(f)
	if err != nil {
		return nil, "", fmt.Errorf("load %s: %w", path, err)
	}
	return m, Reloaded, nil
}

// Persist writes m to exportPath, creating the directory if needed and
// overwriting any previous model in place.
func Persist(exportPath string, m *nn.MLP) error {
	if err := os.MkdirAll(exportPath, 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	f, err := os.Create(Path(exportPath))
	if err != nil {
		return fmt.Errorf("create model file: %w", err)
	}
	if err := m.Encode(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write model: %w", err)
	}
	return f.Close()
}
