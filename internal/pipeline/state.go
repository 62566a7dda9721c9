package pipeline

import (
	"errors"
	"fmt"
)

// State is a pipeline stage.
type State string

const (
	StateSelecting      State = "selecting"
	StateGenerating     State = "generating"
	StateUploadingImage State = "uploading_image"
	StateUploadingAudio State = "uploading_audio"
	StateComposing      State = "composing"
	StatePublishing     State = "publishing"
	StateRenderingVideo State = "rendering_video"
	StateUploadingVideo State = "uploading_video"
	StateCleaningUp     State = "cleaning_up"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// Severity says whether a stage failure stops the run.
type Severity int

const (
	Fatal Severity = iota
	Degrading
)

func (s Severity) String() string {
	switch s {
	case Fatal:
		return "fatal"
	case Degrading:
		return "degrading"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// StageError records which stage failed and how badly.
type StageError struct {
	Stage    State
	Severity Severity
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s (%s): %v", e.Stage, e.Severity, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func fatal(stage State, err error) *StageError {
	return &StageError{Stage: stage, Severity: Fatal, Err: err}
}

func degrading(stage State, err error) *StageError {
	return &StageError{Stage: stage, Severity: Degrading, Err: err}
}

// AsStageError extracts a *StageError from err.
func AsStageError(err error) (*StageError, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}
