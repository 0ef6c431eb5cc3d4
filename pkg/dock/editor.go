package dock

import (
	"fmt"
	"strings"
)

// Editor tracks what the user is looking at: the active file, open files,
// and the current selection. State is fed in by the host (REPL or IDE
// bridge) rather than observed directly.
type Editor struct {
	activeFile string
	openFiles  []string
	selection  string
	cursorLine int
}

// NewEditor creates an editor tracker with no open files.
func NewEditor() *Editor {
	return &Editor{}
}

// Open records a file as open and makes it active.
func (e *Editor) Open(path string) {
	for _, f := range e.openFiles {
		if f == path {
			e.activeFile = path
			return
		}
	}
	e.openFiles = append(e.openFiles, path)
	e.activeFile = path
}

// Close removes a file from the open set.
func (e *Editor) Close(path string) {
	for i, f := range e.openFiles {
		if f == path {
			e.openFiles = append(e.openFiles[:i], e.openFiles[i+1:]...)
			break
		}
	}
	if e.activeFile == path {
		e.activeFile = ""
		if len(e.openFiles) > 0 {
			e.activeFile = e.openFiles[len(e.openFiles)-1]
		}
	}
}

// Select records the current text selection and cursor position.
func (e *Editor) Select(text string, line int) {
	e.selection = text
	e.cursorLine = line
}

// ClearSelection drops the current selection.
func (e *Editor) ClearSelection() {
	e.selection = ""
	e.cursorLine = 0
}

// ActiveFile returns the file currently in focus.
func (e *Editor) ActiveFile() string { return e.activeFile }

// OpenFiles returns the open file set in open order.
func (e *Editor) OpenFiles() []string {
	out := make([]string, len(e.openFiles))
	copy(out, e.openFiles)
	return out
}

// Selection returns the current selection text.
func (e *Editor) Selection() string { return e.selection }

// ContextString renders editor state for prompt injection.
func (e *Editor) ContextString() string {
	if e.activeFile == "" && len(e.openFiles) == 0 {
		return "[EDITOR]\nNo files open."
	}

	lines := []string{"[EDITOR]"}
	if e.activeFile != "" {
		lines = append(lines, "Active file: "+e.activeFile)
	}
	if len(e.openFiles) > 1 {
		lines = append(lines, "Open files: "+strings.Join(e.openFiles, ", "))
	}
	if e.selection != "" {
		sel := e.selection
		if len(sel) > 200 {
			sel = sel[:200] + "..."
		}
		lines = append(lines, fmt.Sprintf("Selection (line %d):\n%s", e.cursorLine, sel))
	}
	return strings.Join(lines, "\n")
}
