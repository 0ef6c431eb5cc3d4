package pipeline

import (
	"fmt"
	"time"
)

// Status tracks the lifecycle of a stage within one execution pass.
type Status int

const (
	StatusPending Status = iota
	StatusRunning
	StatusCompleted
	StatusFailed
	StatusSkipped
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Context is the mutable key/value map threaded through stage execution
// within one run. Stages pass data to later stages exclusively through it.
type Context map[string]any

// Handler is the unit of work for a stage. It reads prior results from the
// context and returns its own result, which the pipeline writes back under
// "<name>_result" and "last_result".
type Handler func(ctx Context) (any, error)

// Stage is a named step in a pipeline with a status lifecycle.
type Stage struct {
	Name        string
	Description string
	Handler     Handler
	// Required is metadata for external consumers. The engine does not
	// skip optional stages and a failing optional stage still aborts
	// the run.
	Required    bool
	Status      Status
	Result      any
	Err         string
	StartedAt   time.Time
	CompletedAt time.Time
}

// run executes the stage against the shared context. CompletedAt is set
// whether the handler succeeds, fails, or panics.
func (s *Stage) run(ctx Context) (out any, err error) {
	s.Status = StatusRunning
	s.StartedAt = time.Now()

	defer func() {
		s.CompletedAt = time.Now()
		if r := recover(); r != nil {
			err = fmt.Errorf("stage %s panicked: %v", s.Name, r)
			s.Status = StatusFailed
			s.Err = err.Error()
			out = nil
		}
	}()

	out, err = s.Handler(ctx)
	if err != nil {
		s.Status = StatusFailed
		s.Err = err.Error()
		return nil, err
	}

	s.Status = StatusCompleted
	s.Result = out
	return out, nil
}

// reset returns the stage to its pre-run state.
func (s *Stage) reset() {
	s.Status = StatusPending
	s.Result = nil
	s.Err = ""
	s.StartedAt = time.Time{}
	s.CompletedAt = time.Time{}
}

// StageOption configures a stage at registration time.
type StageOption func(*Stage)

// WithDescription sets the stage description shown in status output.
func WithDescription(desc string) StageOption {
	return func(s *Stage) {
		s.Description = desc
	}
}

// Optional marks a stage as not required. This is recorded metadata only.
func Optional() StageOption {
	return func(s *Stage) {
		s.Required = false
	}
}
