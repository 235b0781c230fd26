package processor

import (
	"fmt"

	"github.com/pkg/errors"
)

// Stage names the pipeline step that produced a fatal error.
type Stage string

const (
	StageInput    Stage = "input"
	StageScaffold Stage = "scaffold"
	StageResolve  Stage = "resolve"
	StageFetch    Stage = "fetch"
	StageCompose  Stage = "compose"
	StageAssemble Stage = "assemble"
)

// ErrEmptyScript is returned when a generation is requested with no segments.
var ErrEmptyScript = errors.New("script has no segments")

// StageError wraps a fatal pipeline failure with the stage and, when the
// failure belongs to one segment, its 1-based index.
type StageError struct {
	Stage   Stage
	Segment int
	Err     error
}

func (e *StageError) Error() string {
	if e.Segment > 0 {
		return fmt.Sprintf("video generation failed at %s (segment %d): %v", e.Stage, e.Segment, e.Err)
	}
	return fmt.Sprintf("video generation failed at %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// CompositionError reports a segment that could not be turned into a clip.
type CompositionError struct {
	Segment int
	Slide   string
	Err     error
}

func (e *CompositionError) Error() string {
	return fmt.Sprintf("compose segment %d (%s): %v", e.Segment, e.Slide, e.Err)
}

func (e *CompositionError) Unwrap() error {
	return e.Err
}

// AssemblyError reports a failure writing the final video.
type AssemblyError struct {
	Output string
	Err    error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("assemble %s: %v", e.Output, e.Err)
}

func (e *AssemblyError) Unwrap() error {
	return e.Err
}
