// Package guard evaluates action contexts against a set of independent
// rules and aggregates the outcomes under a deny-overrides-warn-overrides-
// allow policy. Rules constrain what the assistant may do; a deny verdict
// must be checked by the caller before performing the guarded action.
package guard

import (
	"fmt"
	"time"
)

// Verdict is the outcome of a rule check.
type Verdict int

const (
	Allow Verdict = iota
	Warn
	Deny
)

// String returns the lowercase verdict name.
func (v Verdict) String() string {
	switch v {
	case Allow:
		return "allow"
	case Warn:
		return "warn"
	case Deny:
		return "deny"
	default:
		return "unknown"
	}
}

// ActionContext describes a proposed action for rule evaluation.
type ActionContext map[string]any

// Action returns the "action" key as a string.
func (c ActionContext) Action() string {
	s, _ := c["action"].(string)
	return s
}

// Confirmed reports whether the action was explicitly confirmed.
func (c ActionContext) Confirmed() bool {
	b, _ := c["confirmed"].(bool)
	return b
}

// Path returns the "file_path" key as a string.
func (c ActionContext) Path() string {
	s, _ := c["file_path"].(string)
	return s
}

// Value returns the "value" key.
func (c ActionContext) Value() any {
	return c["value"]
}

// ActionFor builds an action context with a consistent structure.
func ActionFor(action string) ActionContext {
	return ActionContext{"action": action, "confirmed": false}
}

// WithPath sets the file path under evaluation.
func (c ActionContext) WithPath(path string) ActionContext {
	c["file_path"] = path
	return c
}

// WithValue sets the value under evaluation.
func (c ActionContext) WithValue(value any) ActionContext {
	c["value"] = value
	return c
}

// AsConfirmed marks the action as explicitly confirmed.
func (c ActionContext) AsConfirmed() ActionContext {
	c["confirmed"] = true
	return c
}

// Predicate checks one action context and returns a verdict.
type Predicate func(ActionContext) Verdict

// Rule is a single guardrail: an independent, order-insensitive predicate
// with identifying metadata.
type Rule struct {
	Name        string
	Description string
	Category    string
	Severity    string // low, medium, high, critical
	Check       Predicate
}

// Violation is one entry in the unbounded violation log.
type Violation struct {
	Timestamp time.Time
	Rule      string
	Category  string
	Severity  string
	Action    string // "denied" or "warned"
	Context   string // action context snapshot, truncated
}

const contextSnapshotLimit = 200

// Engine holds the registered rules and the violation log.
type Engine struct {
	rules      []Rule
	violations []Violation
}

// NewEngine creates an engine with no rules.
func NewEngine() *Engine {
	return &Engine{}
}

// AddRule registers a rule. Evaluation order follows registration order.
func (e *Engine) AddRule(r Rule) {
	e.rules = append(e.rules, r)
}

// RemoveRule removes a rule by exact name and reports whether one was removed.
func (e *Engine) RemoveRule(name string) bool {
	kept := e.rules[:0]
	removed := false
	for _, r := range e.rules {
		if r.Name == name {
			removed = true
			continue
		}
		kept = append(kept, r)
	}
	e.rules = kept
	return removed
}

// Check evaluates every rule against the action context and aggregates the
// verdicts: any deny forces the overall verdict to deny; any warn upgrades
// allow to warn. A panicking predicate is reported as an advisory message
// and does not escalate the overall verdict. Deny and warn outcomes are
// appended to the violation log in rule-registration order.
func (e *Engine) Check(ctx ActionContext) (Verdict, []string) {
	overall := Allow
	var messages []string

	for _, rule := range e.rules {
		verdict, err := evalRule(rule, ctx)
		if err != nil {
			messages = append(messages, fmt.Sprintf("Rule %s error: %v", rule.Name, err))
			continue
		}

		switch verdict {
		case Deny:
			messages = append(messages, fmt.Sprintf("BLOCKED by %s: %s", rule.Name, rule.Description))
			overall = Deny
			e.logViolation(rule, ctx, "denied")
		case Warn:
			messages = append(messages, fmt.Sprintf("WARNING from %s: %s", rule.Name, rule.Description))
			if overall != Deny {
				overall = Warn
			}
			e.logViolation(rule, ctx, "warned")
		}
	}

	return overall, messages
}

func evalRule(rule Rule, ctx ActionContext) (verdict Verdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			verdict = Allow
			err = fmt.Errorf("%v", r)
		}
	}()
	return rule.Check(ctx), nil
}

func (e *Engine) logViolation(rule Rule, ctx ActionContext, action string) {
	snapshot := fmt.Sprintf("%v", map[string]any(ctx))
	if len(snapshot) > contextSnapshotLimit {
		snapshot = snapshot[:contextSnapshotLimit]
	}
	e.violations = append(e.violations, Violation{
		Timestamp: time.Now(),
		Rule:      rule.Name,
		Category:  rule.Category,
		Severity:  rule.Severity,
		Action:    action,
		Context:   snapshot,
	})
}

// Violations returns a copy of the violation log.
func (e *Engine) Violations() []Violation {
	out := make([]Violation, len(e.violations))
	copy(out, e.violations)
	return out
}

// ClearViolations empties the violation log.
func (e *Engine) ClearViolations() {
	e.violations = nil
}

// Rules returns the registered rules in registration order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, len(e.rules))
	copy(out, e.rules)
	return out
}

// RulesByCategory returns the rules in a category.
func (e *Engine) RulesByCategory(category string) []Rule {
	var out []Rule
	for _, r := range e.rules {
		if r.Category == category {
			out = append(out, r)
		}
	}
	return out
}
