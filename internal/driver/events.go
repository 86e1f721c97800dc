package driver

// Stage identifies where a root currently is in the lint pipeline.
type Stage uint8

const (
	StageQueued Stage = iota
	StageAssemble
	StageLint
)

// Status qualifies a stage transition.
type Status uint8

const (
	StatusQueued Status = iota
	StatusWorking
	StatusDone
	StatusError
)

// Event is a progress notification for one analysis root. An empty File
// addresses the run as a whole.
type Event struct {
	File   string
	Stage  Stage
	Status Status
}

// ProgressFromStage maps a stage to a rough completion fraction for
// progress rendering.
func ProgressFromStage(stage Stage) float64 {
	switch stage {
	case StageAssemble:
		return 0.3
	case StageLint:
		return 0.8
	}
	return 0.0
}

// StatusLabel renders a stage/status pair for display.
func StatusLabel(stage Stage, status Status) string {
	switch status {
	case StatusQueued:
		return "queued"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	case StatusWorking:
		switch stage {
		case StageAssemble:
			return "assembling"
		case StageLint:
			return "linting"
		}
	}
	return ""
}
