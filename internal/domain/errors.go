package domain

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for the domain layer. These provide consistent, checkable
// errors for the failures a conversion run can end with.
var (
	ErrInvalidSettings  = errors.New("invalid style settings")
	ErrUnknownStrategy  = errors.New("unknown rendering strategy")
	ErrUnknownFormat    = errors.New("unknown output format")
	ErrWriterClosed     = errors.New("cue writer already closed")
	ErrLayoutInvariant  = errors.New("layout invariant violated")
	ErrFormatMismatch   = errors.New("output format does not match strategy")
	ErrUnsupportedInput = errors.New("unsupported chat log record")
)

// LayoutError reports a scrolling step whose computed cue is empty or holds a
// fully consumed message. It carries everything needed to reproduce the step.
type LayoutError struct {
	Author    string
	Body      string
	Offset    time.Duration
	Direction Direction
	// Lines is the message's line count and Rows the number of rows on screen.
	Lines int
	Rows  int
	Step  int
	// StepDuration and Pitch are the time and row increments per step.
	StepDuration time.Duration
	Pitch        int
	// Want is the number of lines the step should show; Got is what the
	// keep/shave composition produced.
	Want   int
	Got    int
	Reason string
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("%s: %s (author=%q offset=%s direction=%s lines=%d rows=%d step=%d step_duration=%s pitch=%d want=%d got=%d body=%q)",
		ErrLayoutInvariant, e.Reason, e.Author, e.Offset, e.Direction, e.Lines, e.Rows, e.Step,
		e.StepDuration, e.Pitch, e.Want, e.Got, e.Body)
}

func (e *LayoutError) Unwrap() error {
	return ErrLayoutInvariant
}
