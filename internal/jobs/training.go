package jobs

import (
	"context"
	"fmt"
	"io"
	"time"

	"nastrain/internal/artifact"
	"nastrain/internal/cmdlog"
	"nastrain/internal/config"
	"nastrain/internal/dataset"
	"nastrain/internal/logging"
	"nastrain/internal/metrics"
	"nastrain/internal/nn"
	"nastrain/internal/store/history"
	"nastrain/internal/trainer"
)

// Result summarizes a completed training run.
type Result struct {
	Source    artifact.Source
	State     trainer.TrainingState
	ModelPath string
	NIter     int   // lifetime epochs of the saved model
	RunID     int64 // history row, 0 when history is disabled
}

// RunTraining prepares the data, loads or creates the model under
// hp.ExportPath, trains it with early stopping and writes it back. Protocol
// lines go to out. Nothing is persisted when training fails.
func RunTraining(ctx context.Context, cfg config.Config, hp config.Hyperparameters, out io.Writer) (Result, error) {
	res := Result{ModelPath: artifact.Path(hp.ExportPath)}

	var db *history.DB
	if cfg.Storage.HistoryDB != "" {
		var err error
		if db, err = history.Open(cfg.Storage.HistoryDB); err != nil {
			metrics.IncRun("failed")
			return res, fmt.Errorf("open history: %w", err)
		}
		defer db.Close()
	}

	var split dataset.Split
	if err := cmdlog.Run("prepare", func() error {
		var err error
		split, err = dataset.Prepare()
		return err
	}); err != nil {
		metrics.IncRun("failed")
		return res, err
	}
	logging.Info("dataset_ready", map[string]any{
		"train": len(split.YTrain), "test": len(split.YTest),
		"features": split.FeatureNames, "classes": split.ClassNames,
	})

	var model *nn.MLP
	if err := cmdlog.Run("load", func() error {
		var err error
		model, res.Source, err = artifact.LoadOrCreate(hp.ExportPath, hp)
		return err
	}); err != nil {
		metrics.IncRun("failed")
		return res, err
	}
	metrics.IncModelLoad(string(res.Source))
	logging.Info("model_ready", map[string]any{
		"source":     res.Source,
		"hidden":     model.HiddenLayerSizes(),
		"activation": model.Activation(),
		"lr":         model.LearningRateInit(),
		"n_iter":     model.NIter(),
	})

	if db != nil {
		id, err := db.BeginRun(ctx, history.Run{
			StartedAt:  time.Now().UTC(),
			ExportPath: hp.ExportPath,
			Source:     string(res.Source),
			Layers:     hp.Layers,
			Units:      hp.Units,
			Activation: hp.Activation,
			LR:         hp.LR,
		})
		if err != nil {
			metrics.IncRun("failed")
			return res, fmt.Errorf("record run: %w", err)
		}
		res.RunID = id
	}
	finish := func(outcome string) {
		metrics.IncRun(outcome)
		if db == nil {
			return
		}
		if err := db.FinishRun(ctx, res.RunID, outcome, res.State.BestAccuracy, res.State.Epoch); err != nil {
			logging.Warn("history_finish_error", map[string]any{"error": err.Error()})
		}
	}

	opts := trainer.Options{Out: out}
	if db != nil {
		opts.OnEpoch = func(r trainer.EpochResult) error {
			return db.PutEpoch(ctx, res.RunID, history.Epoch{Epoch: r.Epoch, Accuracy: r.Accuracy, Improved: r.Improved})
		}
	}
	if err := cmdlog.Run("train", func() error {
		var err error
		res.State, err = trainer.Run(model, split, opts)
		return err
	}); err != nil {
		finish("failed")
		return res, err
	}

	if err := cmdlog.Run("persist", func() error {
		return artifact.Persist(hp.ExportPath, model)
	}); err != nil {
		finish("failed")
		return res, err
	}
	res.NIter = model.NIter()
	if _, err := fmt.Fprintf(out, "Model exported to %s\n", hp.ExportPath); err != nil {
		return res, err
	}
	logging.Info("run_complete", map[string]any{
		"status": res.State.Status.String(), "epochs": res.State.Epoch, "best": res.State.BestAccuracy, "n_iter": res.NIter,
	})
	finish(res.State.Status.String())
	return res, nil
}
