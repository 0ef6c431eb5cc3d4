package scope

import "strings"

// Hierarchy combines the context layers. More specific layers extend the
// more general ones; the rendered result is what gets injected into prompts.
type Hierarchy struct {
	Global  *Global
	Project *Project
	Task    *Task
	Session *Session
}

// NewHierarchy creates a hierarchy with defaults and a fresh session.
func NewHierarchy() *Hierarchy {
	return &Hierarchy{
		Global:  NewGlobal(),
		Project: &Project{},
		Task:    &Task{},
		Session: NewSession(),
	}
}

// SetProject configures the project layer.
func (h *Hierarchy) SetProject(name, language, framework string) {
	h.Project.Name = name
	h.Project.Language = language
	h.Project.Framework = framework
}

// SetTask replaces the task layer with a started task.
func (h *Hierarchy) SetTask(title, description, goal string) {
	h.Task = NewTask(title, description, goal)
	h.Task.Start()
}

// NewSession starts a fresh session layer.
func (h *Hierarchy) NewSession() {
	h.Session = NewSession()
}

// FullContext renders every layer, most general first.
func (h *Hierarchy) FullContext() string {
	return strings.Join([]string{
		h.Global.PromptString(),
		h.Project.PromptString(),
		h.Task.PromptString(),
		h.Session.PromptString(),
	}, "\n\n")
}

// ForScope renders layers up to the named scope: "global", "project",
// "task", or "session" (everything).
func (h *Hierarchy) ForScope(scope string) string {
	parts := []string{h.Global.PromptString()}

	switch scope {
	case "project":
		parts = append(parts, h.Project.PromptString())
	case "task":
		parts = append(parts, h.Project.PromptString(), h.Task.PromptString())
	case "session":
		parts = append(parts, h.Project.PromptString(), h.Task.PromptString(), h.Session.PromptString())
	}

	return strings.Join(parts, "\n\n")
}
