package pipeline

import (
	"errors"
	"strings"
	"testing"
)

func TestExecuteRunsStagesInOrder(t *testing.T) {
	p := New()
	p.AddStage("a", func(ctx Context) (any, error) {
		return "1", nil
	}).AddStage("b", func(ctx Context) (any, error) {
		prev, _ := ctx["a_result"].(string)
		return prev + "2", nil
	})

	result := p.Execute(Context{})
	if !result.Success {
		t.Fatalf("execute failed: %s", result.Err)
	}
	if result.Output != "12" {
		t.Fatalf("unexpected output: %v", result.Output)
	}
	if result.StepsCompleted != 2 {
		t.Fatalf("expected 2 steps completed, got %d", result.StepsCompleted)
	}

	ctx := p.Context()
	if ctx["a_result"] != "1" || ctx["b_result"] != "12" {
		t.Fatalf("context missing stage results: %v", ctx)
	}
	if ctx["last_result"] != "12" {
		t.Fatalf("last_result should track most recent stage, got %v", ctx["last_result"])
	}
}

func TestExecuteAbortsOnFirstFailure(t *testing.T) {
	ran := []string{}
	p := New()
	p.AddStage("first", func(ctx Context) (any, error) {
		ran = append(ran, "first")
		return "ok", nil
	}).AddStage("second", func(ctx Context) (any, error) {
		ran = append(ran, "second")
		return nil, errors.New("boom")
	}).AddStage("third", func(ctx Context) (any, error) {
		ran = append(ran, "third")
		return "never", nil
	})

	result := p.Execute(Context{})
	if result.Success {
		t.Fatal("expected failure")
	}
	if result.StepsCompleted != 1 {
		t.Fatalf("expected 1 step completed, got %d", result.StepsCompleted)
	}
	if !strings.Contains(result.Err, "boom") {
		t.Fatalf("unexpected error: %s", result.Err)
	}
	if len(ran) != 2 {
		t.Fatalf("third stage should not run: %v", ran)
	}

	stages := p.Stages()
	if stages[1].Status != StatusFailed {
		t.Fatalf("second stage status = %s", stages[1].Status)
	}
	if stages[2].Status != StatusPending {
		t.Fatalf("third stage status = %s, want pending", stages[2].Status)
	}
	if stages[1].CompletedAt.IsZero() {
		t.Fatal("failed stage should still record completion time")
	}
}

func TestExecuteResetsBetweenRuns(t *testing.T) {
	p := New()
	p.AddStage("echo", func(ctx Context) (any, error) {
		return ctx["seed"], nil
	})

	first := p.Execute(Context{"seed": "one", "extra": true})
	if !first.Success {
		t.Fatalf("first run failed: %s", first.Err)
	}

	second := p.Execute(Context{"seed": "two"})
	if !second.Success {
		t.Fatalf("second run failed: %s", second.Err)
	}
	if second.Output != "two" {
		t.Fatalf("unexpected output: %v", second.Output)
	}

	ctx := p.Context()
	if _, leaked := ctx["extra"]; leaked {
		t.Fatal("context carried state over from previous run")
	}
}

func TestExecuteRecoversHandlerPanic(t *testing.T) {
	p := New()
	p.AddStage("panics", func(ctx Context) (any, error) {
		panic("unexpected")
	})

	result := p.Execute(Context{})
	if result.Success {
		t.Fatal("expected failure from panicking handler")
	}
	if !strings.Contains(result.Err, "panicked") {
		t.Fatalf("unexpected error: %s", result.Err)
	}
}

func TestDuplicateStageNamesRunIndependently(t *testing.T) {
	calls := 0
	p := New()
	handler := func(ctx Context) (any, error) {
		calls++
		return calls, nil
	}
	p.AddStage("same", handler).AddStage("same", handler)

	result := p.Execute(Context{})
	if !result.Success || result.StepsCompleted != 2 {
		t.Fatalf("expected both occurrences to run: %+v", result)
	}
	if result.Output != 2 {
		t.Fatalf("unexpected output: %v", result.Output)
	}
}

func TestHistoryAppendsEveryRun(t *testing.T) {
	p := New()
	p.AddStage("flaky", func(ctx Context) (any, error) {
		if fail, _ := ctx["fail"].(bool); fail {
			return nil, errors.New("requested failure")
		}
		return "ok", nil
	})

	p.Execute(Context{})
	p.Execute(Context{"fail": true})

	history := p.History()
	if len(history) != 2 {
		t.Fatalf("expected 2 history records, got %d", len(history))
	}
	if !history[0].Success || history[1].Success {
		t.Fatalf("unexpected history outcomes: %+v", history)
	}
	if history[1].Err == "" {
		t.Fatal("failed run should record its error")
	}
}

func TestStatusString(t *testing.T) {
	p := New()
	p.AddStage("ready", func(ctx Context) (any, error) { return nil, nil },
		WithDescription("prepares input"))

	status := p.StatusString()
	if !strings.Contains(status, "1. ready") {
		t.Fatalf("missing stage line: %q", status)
	}
	if !strings.Contains(status, "prepares input") {
		t.Fatalf("missing description: %q", status)
	}
}
