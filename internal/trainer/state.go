package trainer

// Status is the phase of a training run.
type Status int

const (
	Running Status = iota
	StoppedEarly
	StoppedMaxEpochs
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case StoppedEarly:
		return "stopped_early"
	case StoppedMaxEpochs:
		return "max_epochs"
	}
	return "unknown"
}

// TrainingState is the early-stopping bookkeeping of one run. It is not
// persisted; a reloaded model starts over from the zero state.
type TrainingState struct {
	Epoch        int     // epochs completed in this run
	BestAccuracy float64 // never decreases
	Wait         int     // consecutive epochs without strict improvement
	Status       Status
}

// Observe folds one epoch's accuracy into the state. Only a strictly greater
// accuracy counts as improvement; ties increment Wait.
func (s TrainingState) Observe(accuracy float64, patience int) (next TrainingState, improved bool) {
	next = s
	next.Epoch++
	if accuracy > s.BestAccuracy {
		next.BestAccuracy = accuracy
		next.Wait = 0
		improved = true
	} else {
		next.Wait++
	}
	if next.Wait >= patience {
		next.Status = StoppedEarly
	}
	return next, improved
}
