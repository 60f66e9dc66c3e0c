package engine

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by Export wraps exactly one of them.
var (
	ErrPrecondition = errors.New("precondition failed")
	ErrExternalTool = errors.New("external tool failed")
	ErrCleanup      = errors.New("cleanup failed")
	ErrUnexpected   = errors.New("unexpected error")
)

// Stage names, in pipeline order.
const (
	StageInit      = "init"
	StageGem       = "gem"
	StageToolchain = "toolchain"
	StageCode      = "code"
	StageAssets    = "assets"
	StageBundle    = "bundle"
	StageLayout    = "layout"
	StageArchive   = "archive"
	StageCleanup   = "cleanup"
)

// PipelineError is the failure surfaced by an export run
type PipelineError struct {
	Stage string
	Kind  error
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s stage: %v: %v", e.Stage, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *PipelineError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func preconditionError(stage string, err error) *PipelineError {
	return &PipelineError{Stage: stage, Kind: ErrPrecondition, Err: err}
}

func toolError(stage string, err error) *PipelineError {
	return &PipelineError{Stage: stage, Kind: ErrExternalTool, Err: err}
}

func unexpectedError(stage string, err error) *PipelineError {
	return &PipelineError{Stage: stage, Kind: ErrUnexpected, Err: err}
}

// classify wraps err for stage unless it already is a PipelineError.
func classify(stage string, err error) error {
	if err == nil {
		return nil
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		return err
	}
	return unexpectedError(stage, err)
}
