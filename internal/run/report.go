// Package run tracks the outcome of one pass over the frame list.
package run

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// FrameError is a failure scoped to one frame.
type FrameError struct {
	Frame string
	Err   error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("%s: %v", e.Frame, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

type Report struct {
	ID        string
	Started   time.Time
	Succeeded []string
	Failed    []*FrameError
}

func NewReport(started time.Time) *Report {
	return &Report{ID: uuid.NewString(), Started: started}
}

func (r *Report) Success(frame string) {
	r.Succeeded = append(r.Succeeded, frame)
}

// Fail records the failure and returns it as a *FrameError.
func (r *Report) Fail(frame string, err error) *FrameError {
	fe := &FrameError{Frame: frame, Err: err}
	r.Failed = append(r.Failed, fe)
	return fe
}

// Err combines every recorded failure, or returns nil when all frames succeeded.
func (r *Report) Err() error {
	if len(r.Failed) == 0 {
		return nil
	}
	var errs error
	for _, fe := range r.Failed {
		errs = multierr.Append(errs, fe)
	}
	return fmt.Errorf("run %s completed with %d failed frame(s): %w", r.ID, len(r.Failed), errs)
}
