package cmdlog

import (
	"nastrain/internal/logging"
	"nastrain/internal/metrics"
)

// Run executes one pipeline stage, counting and logging its outcome.
func Run(stage string, f func() error) error {
	metrics.IncStageRun(stage)
	err := f()
	if err != nil {
		metrics.IncStageError(stage)
		logging.Error(stage+"_error", map[string]any{"error": err.Error()})
	} else {
		logging.Info(stage+"_ok", nil)
	}
	return err
}
