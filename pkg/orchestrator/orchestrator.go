// Package orchestrator composes the reasoner, guardrails, memory, tools, and
// the context hierarchy to answer a single textual instruction.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zen-systems/promptdock/pkg/feedback"
	"github.com/zen-systems/promptdock/pkg/guard"
	"github.com/zen-systems/promptdock/pkg/memory"
	"github.com/zen-systems/promptdock/pkg/reason"
	"github.com/zen-systems/promptdock/pkg/scope"
	"github.com/zen-systems/promptdock/pkg/tool"
)

// Orchestrator routes user input through intent interpretation, guardrail
// checks, tool invocation, and memory. One instance serves one session.
type Orchestrator struct {
	reasoner   *reason.Reasoner
	guards     *guard.Engine
	session    *memory.SessionStore
	persistent *memory.FileStore
	tools      *tool.Registry
	scopes     *scope.Hierarchy
	errors     *feedback.Tracker
	logger     *slog.Logger

	plan     []string
	planGoal string
	planStep int
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithGuards replaces the default rule engine.
func WithGuards(e *guard.Engine) Option {
	return func(o *Orchestrator) { o.guards = e }
}

// WithPersistentMemory attaches a file-backed store.
func WithPersistentMemory(fs *memory.FileStore) Option {
	return func(o *Orchestrator) { o.persistent = fs }
}

// WithTools replaces the default tool registry.
func WithTools(r *tool.Registry) Option {
	return func(o *Orchestrator) { o.tools = r }
}

// WithScopes replaces the default context hierarchy.
func WithScopes(h *scope.Hierarchy) Option {
	return func(o *Orchestrator) { o.scopes = h }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// New creates an orchestrator around a reasoner. All collaborators are
// injected; defaults are created for any not supplied.
func New(r *reason.Reasoner, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		reasoner: r,
		session:  memory.NewSessionStore(),
		scopes:   scope.NewHierarchy(),
		errors:   feedback.NewTracker(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.guards == nil {
		o.guards = guard.DefaultEngine()
	}
	if o.tools == nil {
		o.tools = tool.DefaultRegistry(o.logger)
	}
	o.registerMemoryTools()
	return o
}

// Process handles one user instruction end to end: interpret intent, route
// by type, and return display text. Reasoning failures surface as text, not
// errors; only unexpected internal failures return a non-nil error.
func (o *Orchestrator) Process(ctx context.Context, input string) (string, error) {
	o.scopes.Session.IncrementMessages()

	intent := o.reasoner.InterpretIntent(ctx, input, o.fullContext())
	o.logger.Debug("interpreted intent", "type", intent.Type, "action", intent.Action)

	switch intent.Type {
	case "command":
		return o.handleCommand(ctx, input, intent)
	case "goal":
		return o.handleGoal(ctx, input, intent)
	default:
		return o.handleQuestion(ctx, input)
	}
}

func (o *Orchestrator) handleCommand(ctx context.Context, input string, intent reason.Intent) (string, error) {
	actionCtx := guard.ActionFor(intent.Action).WithValue(intent.Details)

	verdict, messages := o.guards.Check(actionCtx)
	if verdict == guard.Deny {
		o.scopes.Session.IncrementErrors()
		o.errors.Track("guardrail", intent.Action+" denied: "+strings.Join(messages, "; "), input)
		return "Action blocked by guardrails:\n" + strings.Join(messages, "\n"), nil
	}

	var warnings string
	if verdict == guard.Warn {
		warnings = strings.Join(messages, "\n") + "\n"
	}

	if _, ok := o.tools.Get(intent.Action); ok {
		result := o.tools.Invoke(intent.Action, tool.Args{"message": intent.Details, "key": intent.Details, "query": intent.Details})
		if !result.Success {
			o.errors.Track("tool", intent.Action+": "+result.Err, input)
			return warnings + "Tool failed: " + result.Err, nil
		}
		return warnings + fmt.Sprintf("%v", result.Output), nil
	}

	response, err := o.reasoner.GenerateResponse(ctx, input, o.fullContext())
	if err != nil {
		o.errors.Track("reasoning", err.Error(), input)
		return warnings + "Reasoning error: " + err.Error(), nil
	}
	return warnings + response, nil
}

func (o *Orchestrator) handleGoal(ctx context.Context, input string, intent reason.Intent) (string, error) {
	goal := intent.Action
	if goal == "" {
		goal = input
	}

	steps := o.reasoner.GeneratePlan(ctx, goal, o.fullContext())

	o.plan = steps
	o.planGoal = goal
	o.planStep = 0
	o.scopes.SetTask(goal, "", goal)
	o.scopes.Task.Steps = steps

	var sb strings.Builder
	fmt.Fprintf(&sb, "Goal: %s\n\nPlan:\n", goal)
	for i, step := range steps {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, step)
	}
	sb.WriteString("\nUse 'next' to execute each step.")
	return sb.String(), nil
}

func (o *Orchestrator) handleQuestion(ctx context.Context, input string) (string, error) {
	response, err := o.reasoner.GenerateResponse(ctx, input, o.fullContext())
	if err != nil {
		o.errors.Track("reasoning", err.Error(), input)
		return "Reasoning error: " + err.Error(), nil
	}
	return response, nil
}

// ExecuteStep advances the active plan by one step, asking the reasoner to
// carry it out against the current context.
func (o *Orchestrator) ExecuteStep(ctx context.Context) (string, error) {
	if len(o.plan) == 0 {
		return "No active plan. State a goal first.", nil
	}
	if o.planStep >= len(o.plan) {
		return "Plan complete: " + o.planGoal, nil
	}

	step := o.plan[o.planStep]
	prompt := fmt.Sprintf("Execute step %d of the plan for goal %q: %s", o.planStep+1, o.planGoal, step)
	response, err := o.reasoner.GenerateResponse(ctx, prompt, o.fullContext())
	if err != nil {
		o.errors.Track("reasoning", err.Error(), step)
		return "Reasoning error: " + err.Error(), nil
	}

	o.planStep++
	o.scopes.Task.CurrentStep = o.planStep
	if o.planStep >= len(o.plan) {
		o.scopes.Task.Complete()
		return fmt.Sprintf("Step %d/%d: %s\n\n%s\n\nPlan complete.", o.planStep, len(o.plan), step, response), nil
	}
	return fmt.Sprintf("Step %d/%d: %s\n\n%s", o.planStep, len(o.plan), step, response), nil
}

// registerMemoryTools wires the memory stores into the tool registry, with
// guardrail checks on the mutating operations.
func (o *Orchestrator) registerMemoryTools() {
	o.tools.Register(tool.Tool{
		Name:        "remember",
		Description: "Stores a value in session memory",
		Parameters:  map[string]string{"key": "string", "value": "string", "category": "string"},
		Handler: func(args tool.Args) (any, error) {
			key, value := args.String("key"), args.String("value")
			actionCtx := guard.ActionFor("store").WithValue(value)
			if verdict, messages := o.guards.Check(actionCtx); verdict == guard.Deny {
				return nil, fmt.Errorf("blocked: %s", strings.Join(messages, "; "))
			}
			category := args.String("category")
			if category == "" {
				category = "general"
			}
			if err := o.session.Store(key, value, category); err != nil {
				return nil, err
			}
			if o.persistent != nil {
				if err := o.persistent.Store(key, value, category); err != nil {
					return nil, err
				}
			}
			return "Remembered: " + key, nil
		},
	})

	o.tools.Register(tool.Tool{
		Name:        "recall",
		Description: "Retrieves a value from memory",
		Parameters:  map[string]string{"key": "string"},
		Handler: func(args tool.Args) (any, error) {
			key := args.String("key")
			if v := o.session.Retrieve(key, nil); v != nil {
				return v, nil
			}
			if o.persistent != nil {
				if v := o.persistent.Retrieve(key, nil); v != nil {
					return v, nil
				}
			}
			return "Nothing stored under: " + key, nil
		},
	})

	o.tools.Register(tool.Tool{
		Name:                 "forget",
		Description:          "Deletes a key from memory",
		Parameters:           map[string]string{"key": "string"},
		RequiresConfirmation: true,
		Handler: func(args tool.Args) (any, error) {
			key := args.String("key")
			removed := o.session.Delete(key)
			if o.persistent != nil && o.persistent.Delete(key) {
				removed = true
			}
			if !removed {
				return "Nothing stored under: " + key, nil
			}
			return "Forgot: " + key, nil
		},
	})

	o.tools.Register(tool.Tool{
		Name:        "search_memory",
		Description: "Searches memory keys and values",
		Parameters:  map[string]string{"query": "string"},
		Handler: func(args tool.Args) (any, error) {
			query := args.String("query")
			matches := o.session.Search(query)
			if o.persistent != nil {
				matches = append(matches, o.persistent.Search(query)...)
			}
			if len(matches) == 0 {
				return "No matches for: " + query, nil
			}
			var sb strings.Builder
			fmt.Fprintf(&sb, "%d match(es):", len(matches))
			for _, m := range matches {
				fmt.Fprintf(&sb, "\n  %s = %v", m.Key, m.Value)
			}
			return sb.String(), nil
		},
	})
}

// fullContext renders everything the reasoner should see: scope layers,
// both memory stores, and any unresolved tracked errors.
func (o *Orchestrator) fullContext() string {
	parts := []string{o.scopes.FullContext(), o.session.ContextString()}
	if o.persistent != nil {
		parts = append(parts, o.persistent.ContextString())
	}
	if len(o.errors.Unresolved()) > 0 {
		parts = append(parts, o.errors.ContextString())
	}
	return strings.Join(parts, "\n\n")
}

// Tools exposes the registry, e.g. for the CLI to list.
func (o *Orchestrator) Tools() *tool.Registry { return o.tools }

// Guards exposes the rule engine.
func (o *Orchestrator) Guards() *guard.Engine { return o.guards }

// Scopes exposes the context hierarchy.
func (o *Orchestrator) Scopes() *scope.Hierarchy { return o.scopes }

// SessionMemory exposes the ephemeral store.
func (o *Orchestrator) SessionMemory() *memory.SessionStore { return o.session }

// PersistentMemory exposes the file-backed store; nil when not configured.
func (o *Orchestrator) PersistentMemory() *memory.FileStore { return o.persistent }

// Errors exposes the error tracker.
func (o *Orchestrator) Errors() *feedback.Tracker { return o.errors }

// Status renders a one-screen summary of the orchestrator's state.
func (o *Orchestrator) Status() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Adapter:  %s (%s)\n", o.reasoner.AdapterName(), o.reasoner.Model())
	fmt.Fprintf(&sb, "Session:  %s (%d messages)\n", o.scopes.Session.ID, o.scopes.Session.MessageCount)
	fmt.Fprintf(&sb, "Rules:    %d registered, %d violation(s)\n", len(o.guards.Rules()), len(o.guards.Violations()))
	fmt.Fprintf(&sb, "Tools:    %d registered\n", len(o.tools.List()))
	keys := o.session.Keys("")
	fmt.Fprintf(&sb, "Memory:   %d session key(s)", len(keys))
	if o.persistent != nil {
		fmt.Fprintf(&sb, ", %d persistent key(s)", len(o.persistent.Keys("")))
	}
	if unresolved := o.errors.Unresolved(); len(unresolved) > 0 {
		fmt.Fprintf(&sb, "\nErrors:   %d unresolved", len(unresolved))
	}
	if len(o.plan) > 0 {
		fmt.Fprintf(&sb, "\nPlan:     %q at step %d/%d", o.planGoal, o.planStep, len(o.plan))
	}
	return sb.String()
}

// GuardrailStatus renders the rule set and recent violations.
func (o *Orchestrator) GuardrailStatus() string {
	var sb strings.Builder
	sb.WriteString("Registered rules:\n")
	for _, r := range o.guards.Rules() {
		fmt.Fprintf(&sb, "  [%s] %s (%s): %s\n", r.Severity, r.Name, r.Category, r.Description)
	}
	violations := o.guards.Violations()
	if len(violations) == 0 {
		sb.WriteString("No violations recorded.")
		return sb.String()
	}
	fmt.Fprintf(&sb, "%d violation(s):\n", len(violations))
	for _, v := range violations {
		fmt.Fprintf(&sb, "  %s %s %s: %s\n", v.Timestamp.Format("15:04:05"), v.Action, v.Rule, v.Context)
	}
	return strings.TrimRight(sb.String(), "\n")
}
