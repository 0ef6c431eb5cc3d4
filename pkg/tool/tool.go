// Package tool manages the assistant's invokable actions: registration,
// lookup, invocation with logging, and a default set.
package tool

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Args carries keyword arguments for a tool invocation.
type Args map[string]any

// String returns the named argument as a string.
func (a Args) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Handler executes a tool against its arguments.
type Handler func(args Args) (any, error)

// Tool is an invokable action with identifying metadata.
type Tool struct {
	Name                 string
	Description          string
	Handler              Handler
	Parameters           map[string]string
	RequiresConfirmation bool
}

// Result is the outcome of one invocation.
type Result struct {
	Success bool
	Output  any
	Err     string
}

// LogEntry records one invocation, with truncated result text.
type LogEntry struct {
	Tool      string
	Args      string
	Status    string // "success" or "error"
	Result    string
	Err       string
	Timestamp time.Time
}

const logResultLimit = 100

// Registry holds the available tools and the invocation log.
type Registry struct {
	tools  map[string]Tool
	order  []string
	log    []LogEntry
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logger,
	}
}

// Register adds or replaces a tool by name.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Get returns a tool by name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// List returns all tools in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Invoke runs a tool by name. Every invocation is logged, success or not;
// a panicking handler is reported as a failed result.
func (r *Registry) Invoke(name string, args Args) Result {
	t, ok := r.tools[name]
	if !ok {
		return Result{Success: false, Err: "Unknown tool: " + name}
	}

	entry := LogEntry{
		Tool:      name,
		Args:      truncateLog(fmt.Sprintf("%v", map[string]any(args))),
		Timestamp: time.Now(),
	}

	output, err := invoke(t, args)
	if err != nil {
		entry.Status = "error"
		entry.Err = err.Error()
		r.log = append(r.log, entry)
		r.logger.Warn("tool invocation failed", "tool", name, "error", err)
		return Result{Success: false, Err: err.Error()}
	}

	entry.Status = "success"
	entry.Result = truncateLog(fmt.Sprintf("%v", output))
	r.log = append(r.log, entry)
	r.logger.Debug("tool invoked", "tool", name)
	return Result{Success: true, Output: output}
}

func invoke(t Tool, args Args) (output any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			output = nil
			err = fmt.Errorf("tool %s panicked: %v", t.Name, rec)
		}
	}()
	return t.Handler(args)
}

// ExecutionLog returns a copy of the invocation log.
func (r *Registry) ExecutionLog() []LogEntry {
	out := make([]LogEntry, len(r.log))
	copy(out, r.log)
	return out
}

// ClearLog empties the invocation log.
func (r *Registry) ClearLog() {
	r.log = nil
}

func truncateLog(s string) string {
	if len(s) <= logResultLimit {
		return s
	}
	return s[:logResultLimit]
}

// DefaultRegistry creates a registry with the built-in tools.
func DefaultRegistry(logger *slog.Logger) *Registry {
	r := NewRegistry(logger)

	r.Register(Tool{
		Name:        "echo",
		Description: "Echoes back the input message",
		Parameters:  map[string]string{"message": "string"},
		Handler: func(args Args) (any, error) {
			return "Echo: " + args.String("message"), nil
		},
	})

	r.Register(Tool{
		Name:        "help",
		Description: "Shows available tools",
		Handler: func(args Args) (any, error) {
			var sb strings.Builder
			sb.WriteString("Available tools:")
			for _, t := range r.List() {
				fmt.Fprintf(&sb, "\n  - %s: %s", t.Name, t.Description)
			}
			return sb.String(), nil
		},
	})

	return r
}
