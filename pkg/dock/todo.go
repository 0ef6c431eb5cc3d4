package dock

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// Item is one checkbox entry from the TODO file.
type Item struct {
	Text     string
	Done     bool
	Priority string // "high", "normal", or "low"
	Line     int
}

var checkboxRe = regexp.MustCompile(`^-\s*\[([ xX])\]\s*(.*)$`)

// TodoList reads and updates a markdown checkbox list, typically TODO.md.
type TodoList struct {
	path string
}

// NewTodoList creates a list backed by the given markdown file.
func NewTodoList(path string) *TodoList {
	return &TodoList{path: path}
}

// Path returns the backing file path.
func (t *TodoList) Path() string { return t.path }

// Items parses the checkbox entries. A missing file yields an empty list.
func (t *TodoList) Items() ([]Item, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var items []Item
	for i, line := range strings.Split(string(data), "\n") {
		m := checkboxRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		text := strings.TrimSpace(m[2])
		items = append(items, Item{
			Text:     text,
			Done:     m[1] == "x" || m[1] == "X",
			Priority: priorityOf(text),
			Line:     i + 1,
		})
	}
	return items, nil
}

func priorityOf(text string) string {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "[high]") || strings.Contains(lower, "urgent"):
		return "high"
	case strings.Contains(lower, "[low]"):
		return "low"
	default:
		return "normal"
	}
}

// Add appends an unchecked item, creating the file with a header if needed.
func (t *TodoList) Add(text string) error {
	var content string
	data, err := os.ReadFile(t.path)
	switch {
	case os.IsNotExist(err):
		content = "# TODO\n\n"
	case err != nil:
		return err
	default:
		content = string(data)
		if !strings.HasSuffix(content, "\n") {
			content += "\n"
		}
	}
	content += "- [ ] " + text + "\n"
	return os.WriteFile(t.path, []byte(content), 0o644)
}

// Complete marks the first pending item whose text contains match.
func (t *TodoList) Complete(match string) (bool, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		return false, err
	}

	lines := strings.Split(string(data), "\n")
	for i, line := range lines {
		m := checkboxRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil || m[1] != " " {
			continue
		}
		if strings.Contains(strings.ToLower(m[2]), strings.ToLower(match)) {
			lines[i] = strings.Replace(line, "[ ]", "[x]", 1)
			return true, os.WriteFile(t.path, []byte(strings.Join(lines, "\n")), 0o644)
		}
	}
	return false, nil
}

// Raw returns the file contents as-is. Used as the todo://list resource.
func (t *TodoList) Raw() (string, error) {
	data, err := os.ReadFile(t.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "No TODO file found.", nil
		}
		return "", err
	}
	return string(data), nil
}

// ContextString renders pending items for prompt injection.
func (t *TodoList) ContextString() string {
	items, err := t.Items()
	if err != nil {
		return fmt.Sprintf("[TODO]\nUnavailable: %v", err)
	}

	var pending []Item
	for _, it := range items {
		if !it.Done {
			pending = append(pending, it)
		}
	}
	if len(pending) == 0 {
		return "[TODO]\nNothing pending."
	}

	lines := []string{fmt.Sprintf("[TODO] (%d pending)", len(pending))}
	for _, it := range pending {
		marker := "  - "
		if it.Priority == "high" {
			marker = "  ! "
		}
		lines = append(lines, marker+it.Text)
	}
	return strings.Join(lines, "\n")
}
