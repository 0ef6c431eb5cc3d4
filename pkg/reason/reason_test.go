package reason

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/zen-systems/promptdock/pkg/adapter"
)

func scripted(response string, err error) *adapter.MockAdapter {
	mock := adapter.NewMockAdapter()
	mock.GenerateFunc = func(req adapter.Request) (string, error) {
		return response, err
	}
	return mock
}

func TestInterpretIntentParsesJSON(t *testing.T) {
	mock := scripted(`Here you go: {"type": "goal", "action": "learn go", "details": "beginner"}`, nil)
	r := New(mock, "mock-1", nil)

	intent := r.InterpretIntent(context.Background(), "I want to learn Go", "")
	if intent.Type != "goal" {
		t.Fatalf("intent type = %q, want goal", intent.Type)
	}
	if intent.Action != "learn go" {
		t.Fatalf("intent action = %q", intent.Action)
	}
	if intent.Details != "beginner" {
		t.Fatalf("intent details = %q", intent.Details)
	}
}

func TestInterpretIntentFallsBackOnGarbage(t *testing.T) {
	mock := scripted("I cannot help with that", nil)
	r := New(mock, "mock-1", nil)

	intent := r.InterpretIntent(context.Background(), "hello there", "")
	if intent.Type != "question" {
		t.Fatalf("fallback type = %q, want question", intent.Type)
	}
	if intent.Action != "hello there" {
		t.Fatalf("fallback action = %q, want original input", intent.Action)
	}
}

func TestInterpretIntentFallsBackOnAdapterError(t *testing.T) {
	mock := scripted("", errors.New("network down"))
	r := New(mock, "mock-1", nil)

	intent := r.InterpretIntent(context.Background(), "do the thing", "")
	if intent.Type != "question" || intent.Action != "do the thing" {
		t.Fatalf("unexpected fallback intent: %+v", intent)
	}
}

func TestGeneratePlanParsesNumberedList(t *testing.T) {
	mock := scripted("1. Install the toolchain\n2. Write a hello world\nnot a step\n3. Add tests", nil)
	r := New(mock, "mock-1", nil)

	steps := r.GeneratePlan(context.Background(), "learn go", "")
	if len(steps) != 3 {
		t.Fatalf("expected 3 steps, got %v", steps)
	}
	if steps[0] != "Install the toolchain" {
		t.Fatalf("first step = %q", steps[0])
	}
	if steps[2] != "Add tests" {
		t.Fatalf("third step = %q", steps[2])
	}
}

func TestGeneratePlanFallsBack(t *testing.T) {
	mock := scripted("no numbered output here", nil)
	r := New(mock, "mock-1", nil)

	steps := r.GeneratePlan(context.Background(), "ship it", "")
	if len(steps) != 1 || steps[0] != "Complete: ship it" {
		t.Fatalf("unexpected fallback plan: %v", steps)
	}
}

func TestReasonPropagatesAdapterError(t *testing.T) {
	mock := scripted("", errors.New("quota exceeded"))
	r := New(mock, "mock-1", nil)

	_, err := r.Reason(context.Background(), "hi", "", 0.7)
	if err == nil || !strings.Contains(err.Error(), "quota") {
		t.Fatalf("expected adapter error, got %v", err)
	}
}

func TestWithTemperatureOverridesCallDefaults(t *testing.T) {
	var seen []float64
	mock := adapter.NewMockAdapter()
	mock.GenerateFunc = func(req adapter.Request) (string, error) {
		seen = append(seen, req.Temperature)
		return "fine", nil
	}
	r := New(mock, "mock-1", nil, WithTemperature(0.9))

	r.InterpretIntent(context.Background(), "hi", "")
	if _, err := r.GenerateResponse(context.Background(), "hi", ""); err != nil {
		t.Fatalf("generate response: %v", err)
	}

	if len(seen) != 2 || seen[0] != 0.9 || seen[1] != 0.9 {
		t.Fatalf("temperatures sent = %v, want [0.9 0.9]", seen)
	}
}

func TestDefaultTemperaturesWhenUnset(t *testing.T) {
	var seen []float64
	mock := adapter.NewMockAdapter()
	mock.GenerateFunc = func(req adapter.Request) (string, error) {
		seen = append(seen, req.Temperature)
		return "fine", nil
	}
	r := New(mock, "mock-1", nil)

	r.InterpretIntent(context.Background(), "hi", "")
	if _, err := r.GenerateResponse(context.Background(), "hi", ""); err != nil {
		t.Fatalf("generate response: %v", err)
	}

	if len(seen) != 2 || seen[0] != 0.3 || seen[1] != 0.7 {
		t.Fatalf("temperatures sent = %v, want [0.3 0.7]", seen)
	}
}

func TestNewDefaultsToFirstAdapterModel(t *testing.T) {
	r := New(adapter.NewMockAdapter(), "", nil)
	if r.Model() != "mock-1" {
		t.Fatalf("model = %q, want mock-1", r.Model())
	}
}
