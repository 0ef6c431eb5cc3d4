// Package reason centralizes all LLM interaction behind a narrow
// collaborator: free-form reasoning, intent interpretation, plan
// generation, and response generation. Callers receive explicit values or
// errors; no reasoning failure propagates as anything but an error.
package reason

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	json "github.com/goccy/go-json"

	"github.com/zen-systems/promptdock/pkg/adapter"
)

// Intent is the structured interpretation of a user instruction.
type Intent struct {
	Type    string `json:"type"` // question, command, goal, clarification
	Action  string `json:"action"`
	Details string `json:"details"`
}

// Reasoner routes all reasoning through one adapter and model.
type Reasoner struct {
	adapter     adapter.Adapter
	model       string
	logger      *slog.Logger
	temperature float64
}

// Option configures a Reasoner.
type Option func(*Reasoner)

// WithTemperature overrides the per-call default temperatures. Zero
// keeps the defaults (0.3 for structured calls, 0.7 for responses).
func WithTemperature(t float64) Option {
	return func(r *Reasoner) {
		r.temperature = t
	}
}

// New creates a reasoner bound to an adapter and model.
func New(a adapter.Adapter, model string, logger *slog.Logger, opts ...Option) *Reasoner {
	if logger == nil {
		logger = slog.Default()
	}
	if model == "" {
		if models := a.Models(); len(models) > 0 {
			model = models[0]
		}
	}
	r := &Reasoner{adapter: a, model: model, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// temp picks the configured temperature, falling back to the call's
// default when none is set.
func (r *Reasoner) temp(def float64) float64 {
	if r.temperature > 0 {
		return r.temperature
	}
	return def
}

// Model returns the model the reasoner is bound to.
func (r *Reasoner) Model() string {
	return r.model
}

// AdapterName returns the name of the underlying adapter.
func (r *Reasoner) AdapterName() string {
	return r.adapter.Name()
}

// Reason sends a prompt with optional context to the model.
func (r *Reasoner) Reason(ctx context.Context, prompt, contextStr string, temperature float64) (string, error) {
	response, err := r.adapter.Generate(ctx, adapter.Request{
		Model:       r.model,
		System:      contextStr,
		Prompt:      prompt,
		Temperature: temperature,
	})
	if err != nil {
		r.logger.Warn("reasoning call failed",
			"adapter", r.adapter.Name(),
			"model", r.model,
			"transient", adapter.IsTransient(err),
			"error", err)
		return "", err
	}
	return response, nil
}

// InterpretIntent classifies a user instruction. A reasoning or parse
// failure yields the fallback question intent, never an error.
func (r *Reasoner) InterpretIntent(ctx context.Context, input, contextStr string) Intent {
	prompt := fmt.Sprintf(`Analyze this user input and determine their intent.

User input: %s

Return a JSON object with:
- "type": one of ["question", "command", "goal", "clarification"]
- "action": what they want to do
- "details": any specific details

Only return the JSON, nothing else.`, input)

	response, err := r.Reason(ctx, prompt, contextStr, r.temp(0.3))
	if err != nil {
		return fallbackIntent(input)
	}

	intent, ok := parseIntent(response)
	if !ok {
		r.logger.Debug("intent response was not parseable JSON", "response", response)
		return fallbackIntent(input)
	}
	return intent
}

func fallbackIntent(input string) Intent {
	return Intent{Type: "question", Action: input}
}

// parseIntent extracts the first JSON object from the response.
func parseIntent(response string) (Intent, bool) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start < 0 || end <= start {
		return Intent{}, false
	}

	var raw struct {
		Type    string `json:"type"`
		Action  string `json:"action"`
		Details any    `json:"details"`
	}
	if err := json.Unmarshal([]byte(response[start:end+1]), &raw); err != nil {
		return Intent{}, false
	}
	if raw.Type == "" {
		return Intent{}, false
	}

	details := ""
	if raw.Details != nil {
		details = fmt.Sprintf("%v", raw.Details)
	}
	return Intent{Type: raw.Type, Action: raw.Action, Details: details}, true
}

// GeneratePlan asks the model for a numbered step list toward a goal.
// An unparseable response yields a single completion step.
func (r *Reasoner) GeneratePlan(ctx context.Context, goal, contextStr string) []string {
	prompt := fmt.Sprintf(`Create a plan to achieve this goal:

Goal: %s

Return a numbered list of 3-5 concrete steps.
Only return the list, nothing else.`, goal)

	response, err := r.Reason(ctx, prompt, contextStr, r.temp(0.3))
	if err != nil {
		return []string{"Complete: " + goal}
	}

	steps := parseSteps(response)
	if len(steps) == 0 {
		return []string{"Complete: " + goal}
	}
	return steps
}

// parseSteps pulls step text out of numbered lines ("1. do the thing").
func parseSteps(response string) []string {
	var steps []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || !unicode.IsDigit(rune(line[0])) {
			continue
		}
		if _, rest, found := strings.Cut(line, "."); found {
			if step := strings.TrimSpace(rest); step != "" {
				steps = append(steps, step)
			}
		}
	}
	return steps
}

// DecideAction asks the model to pick one of the offered options.
func (r *Reasoner) DecideAction(ctx context.Context, situation string, options []string, contextStr string) (string, error) {
	var sb strings.Builder
	for _, opt := range options {
		fmt.Fprintf(&sb, "- %s\n", opt)
	}

	prompt := fmt.Sprintf(`Given this situation, choose the best option.

Situation: %s

Options:
%s
Return only the chosen option text, nothing else.`, situation, sb.String())

	response, err := r.Reason(ctx, prompt, contextStr, r.temp(0.3))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}

// GenerateResponse answers a query as a helpful coding assistant.
func (r *Reasoner) GenerateResponse(ctx context.Context, query, contextStr string) (string, error) {
	prompt := fmt.Sprintf(`You are a helpful coding assistant. Answer this query:

%s

Be concise and provide code examples when appropriate.`, query)

	return r.Reason(ctx, prompt, contextStr, r.temp(0.7))
}
