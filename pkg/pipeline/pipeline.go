// Package pipeline implements a deterministic, single-threaded execution
// pipeline: an ordered list of named stages run against one shared mutable
// context. Execution order equals registration order, stage results flow to
// later stages through context keys, and the first failure aborts the run.
package pipeline

import (
	"fmt"
	"strings"
	"time"
)

// ExecutionResult is the immutable outcome of one Execute call.
type ExecutionResult struct {
	Success        bool
	Output         any
	Err            string
	DurationMS     float64
	StepsCompleted int
}

// RunRecord is one entry in the append-only execution history.
type RunRecord struct {
	Timestamp      time.Time
	DurationMS     float64
	StepsCompleted int
	Success        bool
	Err            string
}

// Pipeline executes stages in registration order against a shared context.
// A Pipeline is reusable: Execute resets all per-stage state before running
// and starts the context fresh from the supplied initial values.
type Pipeline struct {
	stages  []*Stage
	history []RunRecord
	ctx     Context
}

// New creates an empty pipeline.
func New() *Pipeline {
	return &Pipeline{ctx: Context{}}
}

// AddStage registers a stage and returns the pipeline for chaining.
// Duplicate names are allowed; each occurrence executes independently.
func (p *Pipeline) AddStage(name string, handler Handler, opts ...StageOption) *Pipeline {
	stage := &Stage{
		Name:     name,
		Handler:  handler,
		Required: true,
	}
	for _, opt := range opts {
		opt(stage)
	}
	p.stages = append(p.stages, stage)
	return p
}

// Execute runs every stage in order against a context seeded from initial.
// After each successful stage its result is written to the context under
// "<name>_result" and "last_result". The first failing stage aborts the run;
// remaining stages stay pending. Side effects of completed stages are not
// rolled back. Every call appends one history record, success or not.
func (p *Pipeline) Execute(initial Context) ExecutionResult {
	start := time.Now()

	p.ctx = Context{}
	for k, v := range initial {
		p.ctx[k] = v
	}

	for _, stage := range p.stages {
		stage.reset()
	}

	var finalOutput any
	completed := 0

	for _, stage := range p.stages {
		result, err := stage.run(p.ctx)
		if err != nil {
			durationMS := float64(time.Since(start)) / float64(time.Millisecond)
			p.history = append(p.history, RunRecord{
				Timestamp:      start,
				DurationMS:     durationMS,
				StepsCompleted: completed,
				Success:        false,
				Err:            err.Error(),
			})
			return ExecutionResult{
				Success:        false,
				Err:            err.Error(),
				DurationMS:     durationMS,
				StepsCompleted: completed,
			}
		}

		p.ctx[stage.Name+"_result"] = result
		p.ctx["last_result"] = result
		finalOutput = result
		completed++
	}

	durationMS := float64(time.Since(start)) / float64(time.Millisecond)
	p.history = append(p.history, RunRecord{
		Timestamp:      start,
		DurationMS:     durationMS,
		StepsCompleted: completed,
		Success:        true,
	})

	return ExecutionResult{
		Success:        true,
		Output:         finalOutput,
		DurationMS:     durationMS,
		StepsCompleted: completed,
	}
}

// Stages returns the registered stages in execution order.
func (p *Pipeline) Stages() []*Stage {
	return p.stages
}

// History returns a copy of the execution history.
func (p *Pipeline) History() []RunRecord {
	out := make([]RunRecord, len(p.history))
	copy(out, p.history)
	return out
}

// Context returns a copy of the context from the most recent run.
func (p *Pipeline) Context() Context {
	out := make(Context, len(p.ctx))
	for k, v := range p.ctx {
		out[k] = v
	}
	return out
}

// Reset clears per-stage state and the context without touching history.
func (p *Pipeline) Reset() {
	for _, stage := range p.stages {
		stage.reset()
	}
	p.ctx = Context{}
}

// StatusString renders the pipeline's stages and their current status.
func (p *Pipeline) StatusString() string {
	var sb strings.Builder
	sb.WriteString("Pipeline Status:\n")

	for i, stage := range p.stages {
		icon := statusIcon(stage.Status)
		fmt.Fprintf(&sb, "\n  %s %d. %s", icon, i+1, stage.Name)
		if stage.Description != "" {
			fmt.Fprintf(&sb, "\n      %s", stage.Description)
		}
	}

	return sb.String()
}

func statusIcon(s Status) string {
	switch s {
	case StatusRunning:
		return "◐"
	case StatusCompleted:
		return "●"
	case StatusFailed:
		return "✗"
	default:
		return "○"
	}
}
