// Package feedback tracks failures so later prompts can steer around them.
// Unresolved errors are rendered into the reasoning context; the assistant
// sees what recently went wrong and avoids repeating it.
package feedback

import (
	"strings"
	"time"
)

// Entry is one tracked error.
type Entry struct {
	Type       string // e.g. "guardrail", "reasoning", "tool"
	Message    string
	Context    string
	Timestamp  time.Time
	Resolved   bool
	Resolution string
}

const defaultMaxEntries = 50

// Tracker keeps a bounded list of errors, oldest dropped first.
type Tracker struct {
	entries    []Entry
	maxEntries int
}

// NewTracker creates a tracker with the default capacity.
func NewTracker() *Tracker {
	return &Tracker{maxEntries: defaultMaxEntries}
}

// Track records a new error and returns the stored entry.
func (t *Tracker) Track(errType, message, context string) Entry {
	entry := Entry{
		Type:      errType,
		Message:   message,
		Context:   context,
		Timestamp: time.Now(),
	}
	t.entries = append(t.entries, entry)
	if len(t.entries) > t.maxEntries {
		t.entries = t.entries[len(t.entries)-t.maxEntries:]
	}
	return entry
}

// Resolve marks the entry at index as resolved and reports whether the
// index was valid.
func (t *Tracker) Resolve(index int, resolution string) bool {
	if index < 0 || index >= len(t.entries) {
		return false
	}
	t.entries[index].Resolved = true
	t.entries[index].Resolution = resolution
	return true
}

// Unresolved returns the errors not yet marked resolved.
func (t *Tracker) Unresolved() []Entry {
	var out []Entry
	for _, e := range t.entries {
		if !e.Resolved {
			out = append(out, e)
		}
	}
	return out
}

// ByType returns the errors of one type.
func (t *Tracker) ByType(errType string) []Entry {
	var out []Entry
	for _, e := range t.entries {
		if e.Type == errType {
			out = append(out, e)
		}
	}
	return out
}

// ContextString renders the last unresolved errors for prompt injection.
func (t *Tracker) ContextString() string {
	unresolved := t.Unresolved()
	if len(unresolved) == 0 {
		return "No tracked errors."
	}
	if len(unresolved) > 5 {
		unresolved = unresolved[len(unresolved)-5:]
	}

	lines := []string{"Recent Errors to Avoid:"}
	for _, e := range unresolved {
		lines = append(lines, "  - ["+e.Type+"] "+e.Message)
	}
	return strings.Join(lines, "\n")
}

// Stats summarizes the tracked errors.
func (t *Tracker) Stats() map[string]any {
	types := make(map[string]bool)
	resolved := 0
	for _, e := range t.entries {
		types[e.Type] = true
		if e.Resolved {
			resolved++
		}
	}
	typeList := make([]string, 0, len(types))
	for _, e := range t.entries {
		if types[e.Type] {
			typeList = append(typeList, e.Type)
			types[e.Type] = false
		}
	}
	return map[string]any{
		"total":      len(t.entries),
		"unresolved": len(t.entries) - resolved,
		"resolved":   resolved,
		"types":      typeList,
	}
}
