package artifact

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"nastrain/internal/config"
	"nastrain/internal/dataset"
)

func TestLoadOrCreateFresh(t *testing.T) {
	for _, hp := range []config.Hyperparameters{
		{Layers: 1, Units: 4, Activation: "relu", LR: 0.01},
		{Layers: 3, Units: 16, Activation: "tanh", LR: 0.001},
	} {
		hp.ExportPath = t.TempDir()
		m, src, err := LoadOrCreate(hp.ExportPath, hp)
		if err != nil {
			t.Fatal(err)
		}
		if src != Fresh {
			t.Fatalf("source: %s", src)
		}
		sizes := m.HiddenLayerSizes()
		if len(sizes) != hp.Layers {
			t.Fatalf("got %d layers want %d", len(sizes), hp.Layers)
		}
		for _, s := range sizes {
			if s != hp.Units {
				t.Fatalf("layer size %d want %d", s, hp.Units)
			}
		}
		if m.Activation() != hp.Activation || m.LearningRateInit() != hp.LR {
			t.Fatalf("hyperparameters not applied: %s %v", m.Activation(), m.LearningRateInit())
		}
	}
}

func TestPersistThenReloadIgnoresNewHyperparameters(t *testing.T) {
	split, err := dataset.Prepare()
	if err != nil {
		t.Fatal(err)
	}
	dir := filepath.Join(t.TempDir(), "a", "b")
	first := config.Hyperparameters{Layers: 1, Units: 4, Activation: "relu", LR: 0.01, ExportPath: dir}
	m, _, err := LoadOrCreate(dir, first)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := m.FitEpoch(split.XTrain, split.YTrain); err != nil {
			t.Fatal(err)
		}
	}
	if err := Persist(dir, m); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(Path(dir)); err != nil {
		t.Fatalf("model file missing: %v", err)
	}

	second := config.Hyperparameters{Layers: 4, Units: 64, Activation: "logistic", LR: 0.5, ExportPath: dir}
	got, src, err := LoadOrCreate(dir, second)
	if err != nil {
		t.Fatal(err)
	}
	if src != Reloaded {
		t.Fatalf("source: %s", src)
	}
	if sizes := got.HiddenLayerSizes(); len(sizes) != 1 || sizes[0] != 4 {
		t.Fatalf("reloaded architecture overridden: %v", sizes)
	}
	if got.Activation() != "relu" || got.LearningRateInit() != 0.01 || got.NIter() != 3 {
		t.Fatalf("reloaded state overridden: %s %v %d", got.Activation(), got.LearningRateInit(), got.NIter())
	}
	want, _ := m.Predict(split.XTest)
	have, err := got.Predict(split.XTest)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(want, have) {
		t.Fatal("reloaded model predicts differently")
	}
}

func TestLoadOrCreateCorruptFileIsFatal(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(Path(dir), []byte("{truncated"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadOrCreate(dir, config.Hyperparameters{Layers: 1, Units: 4, Activation: "relu", LR: 0.01}); err == nil {
		t.Fatal("expected decode error, got fresh model")
	}
}

func TestLoadOrCreateRejectsTamperedHyperparameters(t *testing.T) {
	split, err := dataset.Prepare()
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	hp := config.Hyperparameters{Layers: 1, Units: 4, Activation: "relu", LR: 0.01, ExportPath: dir}
	m, _, err := LoadOrCreate(dir, hp)
	if err != nil {
		t.Fatal(err)
	}
	if err := m.FitEpoch(split.XTrain, split.YTrain); err != nil {
		t.Fatal(err)
	}
	if err := Persist(dir, m); err != nil {
		t.Fatal(err)
	}
	raw, err := os.ReadFile(Path(dir))
	if err != nil {
		t.Fatal(err)
	}
	tampered := strings.Replace(string(raw), `"activation":"relu"`, `"activation":"sigmoid"`, 1)
	tampered = strings.Replace(tampered, `"learning_rate_init":0.01`, `"learning_rate_init":-5`, 1)
	if tampered == string(raw) {
		t.Fatal("model file layout changed, nothing replaced")
	}
	if err := os.WriteFile(Path(dir), []byte(tampered), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, err := LoadOrCreate(dir, hp); err == nil {
		t.Fatal("expected error for a model with invalid hyperparameters")
	}
}

func TestPersistOverwrites(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(Path(dir), []byte("old contents that are much longer than needed"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, _, err := LoadOrCreate(t.TempDir(), config.Hyperparameters{Layers: 1, Units: 2, Activation: "relu", LR: 0.01})
	if err != nil {
		t.Fatal(err)
	}
	if err := Persist(dir, m); err != nil {
		t.Fatal(err)
	}
	if _, src, err := LoadOrCreate(dir, config.Hyperparameters{}); err != nil || src != Reloaded {
		t.Fatalf("reload after overwrite: %v %s", err, src)
	}
}
