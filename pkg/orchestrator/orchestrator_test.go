package orchestrator

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zen-systems/promptdock/pkg/adapter"
	"github.com/zen-systems/promptdock/pkg/memory"
	"github.com/zen-systems/promptdock/pkg/reason"
)

// scriptedAdapter routes by prompt content: intent prompts get a canned
// intent JSON, plan prompts a numbered list, everything else a fixed answer.
func scriptedAdapter(intentJSON string) *adapter.MockAdapter {
	m := adapter.NewMockAdapter()
	m.GenerateFunc = func(req adapter.Request) (string, error) {
		switch {
		case strings.Contains(req.Prompt, "determine their intent"):
			return intentJSON, nil
		case strings.Contains(req.Prompt, "Create a plan"):
			return "1. First step\n2. Second step\n3. Third step", nil
		default:
			return "scripted answer", nil
		}
	}
	return m
}

func newTestOrchestrator(t *testing.T, intentJSON string) *Orchestrator {
	t.Helper()
	r := reason.New(scriptedAdapter(intentJSON), "mock-1", nil)
	return New(r)
}

func TestProcessQuestion(t *testing.T) {
	o := newTestOrchestrator(t, `{"type":"question","action":"what is Go"}`)
	out, err := o.Process(context.Background(), "what is Go?")
	if err != nil {
		t.Fatal(err)
	}
	if out != "scripted answer" {
		t.Fatalf("output = %q", out)
	}
	if o.Scopes().Session.MessageCount != 1 {
		t.Fatalf("message count = %d", o.Scopes().Session.MessageCount)
	}
}

func TestProcessGoalBuildsPlan(t *testing.T) {
	o := newTestOrchestrator(t, `{"type":"goal","action":"ship the release"}`)
	out, err := o.Process(context.Background(), "I want to ship the release")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Goal: ship the release") {
		t.Fatalf("missing goal: %q", out)
	}
	if !strings.Contains(out, "1. First step") || !strings.Contains(out, "3. Third step") {
		t.Fatalf("missing plan steps: %q", out)
	}
}

func TestExecuteStepAdvancesPlan(t *testing.T) {
	o := newTestOrchestrator(t, `{"type":"goal","action":"refactor"}`)
	ctx := context.Background()

	if out, _ := o.ExecuteStep(ctx); !strings.Contains(out, "No active plan") {
		t.Fatalf("expected no-plan message, got %q", out)
	}

	if _, err := o.Process(ctx, "refactor the parser"); err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 3; i++ {
		out, err := o.ExecuteStep(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(out, "Step "+string(rune('0'+i))+"/3") {
			t.Fatalf("step %d output = %q", i, out)
		}
	}

	out, _ := o.ExecuteStep(ctx)
	if !strings.Contains(out, "Plan complete") {
		t.Fatalf("expected completion, got %q", out)
	}
}

func TestProcessCommandBlockedByGuardrails(t *testing.T) {
	o := newTestOrchestrator(t, `{"type":"command","action":"shell_exec","details":"rm -rf /"}`)
	out, err := o.Process(context.Background(), "run rm -rf /")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Action blocked by guardrails") {
		t.Fatalf("expected block, got %q", out)
	}
	if len(o.Guards().Violations()) == 0 {
		t.Fatal("expected a logged violation")
	}
}

func TestProcessCommandInvokesTool(t *testing.T) {
	o := newTestOrchestrator(t, `{"type":"command","action":"echo","details":"hello"}`)
	out, err := o.Process(context.Background(), "echo hello")
	if err != nil {
		t.Fatal(err)
	}
	if out != "Echo: hello" {
		t.Fatalf("output = %q", out)
	}
}

func TestMemoryToolsRoundTrip(t *testing.T) {
	fs, err := memory.NewFileStore(filepath.Join(t.TempDir(), "memory.json"))
	if err != nil {
		t.Fatal(err)
	}
	r := reason.New(scriptedAdapter(`{"type":"question"}`), "mock-1", nil)
	o := New(r, WithPersistentMemory(fs))

	tools := o.Tools()
	res := tools.Invoke("remember", map[string]any{"key": "lang", "value": "Go", "category": "facts"})
	if !res.Success {
		t.Fatalf("remember failed: %s", res.Err)
	}

	res = tools.Invoke("recall", map[string]any{"key": "lang"})
	if !res.Success || res.Output != "Go" {
		t.Fatalf("recall = %+v", res)
	}

	res = tools.Invoke("search_memory", map[string]any{"query": "lang"})
	if !res.Success || !strings.Contains(res.Output.(string), "lang = Go") {
		t.Fatalf("search = %+v", res)
	}

	res = tools.Invoke("forget", map[string]any{"key": "lang"})
	if !res.Success {
		t.Fatalf("forget failed: %s", res.Err)
	}
	res = tools.Invoke("recall", map[string]any{"key": "lang"})
	if !strings.Contains(res.Output.(string), "Nothing stored") {
		t.Fatalf("recall after forget = %+v", res)
	}
}

func TestRememberBlockedForOversizeValue(t *testing.T) {
	o := newTestOrchestrator(t, `{"type":"question"}`)
	res := o.Tools().Invoke("remember", map[string]any{
		"key":   "big",
		"value": strings.Repeat("x", 10001),
	})
	if res.Success {
		t.Fatal("expected oversize store to be blocked")
	}
	if !strings.Contains(res.Err, "blocked") {
		t.Fatalf("error = %q", res.Err)
	}
}

func TestStandardPipelineRunsAllStages(t *testing.T) {
	o := newTestOrchestrator(t, `{"type":"question","action":"ask"}`)

	p := o.NewPipeline(context.Background(), "what is a goroutine?")
	result := p.Execute(nil)
	if !result.Success {
		t.Fatalf("pipeline failed: %s", result.Err)
	}
	if result.StepsCompleted != 5 {
		t.Fatalf("steps completed = %d, want 5", result.StepsCompleted)
	}

	summary, ok := result.Output.(map[string]any)
	if !ok {
		t.Fatalf("output type %T", result.Output)
	}
	if summary["action"] != "generate_response" {
		t.Fatalf("action = %v", summary["action"])
	}
	if summary["output"] != "scripted answer" {
		t.Fatalf("output = %v", summary["output"])
	}
	if o.Scopes().Session.MessageCount != 1 {
		t.Fatalf("message count = %d", o.Scopes().Session.MessageCount)
	}
}

func TestStandardPipelinePlansForGoals(t *testing.T) {
	o := newTestOrchestrator(t, `{"type":"goal","action":"write docs"}`)

	result := o.NewPipeline(context.Background(), "write the docs").Execute(nil)
	if !result.Success {
		t.Fatalf("pipeline failed: %s", result.Err)
	}
	summary := result.Output.(map[string]any)
	if summary["action"] != "create_plan" {
		t.Fatalf("action = %v", summary["action"])
	}
	text, _ := summary["output"].(string)
	if !strings.Contains(text, "Goal: write docs") || !strings.Contains(text, "2. Second step") {
		t.Fatalf("plan text = %q", text)
	}
}

func TestRunReturnsPipelineOutput(t *testing.T) {
	o := newTestOrchestrator(t, `{"type":"question","action":"ask"}`)

	out, err := o.Run(context.Background(), "what is a channel?")
	if err != nil {
		t.Fatal(err)
	}
	if out != "scripted answer" {
		t.Fatalf("output = %q", out)
	}
	if o.Scopes().Session.MessageCount != 1 {
		t.Fatalf("message count = %d", o.Scopes().Session.MessageCount)
	}
}

func TestRunAppliesGuardrailsToCommands(t *testing.T) {
	o := newTestOrchestrator(t, `{"type":"command","action":"shell_exec","details":"rm -rf /"}`)

	out, err := o.Run(context.Background(), "run rm -rf /")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Action blocked by guardrails") {
		t.Fatalf("expected block, got %q", out)
	}
	if len(o.Guards().Violations()) == 0 {
		t.Fatal("expected a logged violation")
	}
	if len(o.Errors().Unresolved()) != 1 {
		t.Fatalf("expected one tracked error, got %d", len(o.Errors().Unresolved()))
	}
}

func TestRunGoalArmsPlanForNext(t *testing.T) {
	o := newTestOrchestrator(t, `{"type":"goal","action":"refactor"}`)
	ctx := context.Background()

	out, err := o.Run(ctx, "refactor the parser")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Goal: refactor") {
		t.Fatalf("missing goal: %q", out)
	}

	step, err := o.ExecuteStep(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(step, "Step 1/3") {
		t.Fatalf("next after pipeline goal = %q", step)
	}
}

func TestTrackedErrorsReachReasoningContext(t *testing.T) {
	var systems []string
	m := adapter.NewMockAdapter()
	m.GenerateFunc = func(req adapter.Request) (string, error) {
		systems = append(systems, req.System)
		if strings.Contains(req.Prompt, "determine their intent") {
			return `{"type":"question","action":"ask"}`, nil
		}
		return "scripted answer", nil
	}
	o := New(reason.New(m, "mock-1", nil))

	o.Errors().Track("guardrail", "shell_exec denied: destructive command", "run rm -rf /")

	if _, err := o.Run(context.Background(), "what went wrong?"); err != nil {
		t.Fatal(err)
	}

	if len(systems) == 0 {
		t.Fatal("no reasoning calls recorded")
	}
	for _, sys := range systems {
		if !strings.Contains(sys, "Recent Errors to Avoid:") ||
			!strings.Contains(sys, "[guardrail] shell_exec denied") {
			t.Fatalf("context missing tracked error:\n%s", sys)
		}
	}
}

func TestStatusSummaries(t *testing.T) {
	o := newTestOrchestrator(t, `{"type":"question"}`)
	status := o.Status()
	for _, want := range []string{"Adapter:", "Rules:", "Tools:", "Memory:"} {
		if !strings.Contains(status, want) {
			t.Fatalf("status missing %q:\n%s", want, status)
		}
	}
	if !strings.Contains(o.GuardrailStatus(), "No violations recorded") {
		t.Fatalf("guardrail status = %q", o.GuardrailStatus())
	}
}
