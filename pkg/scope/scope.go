// Package scope organizes prompt context into a hierarchy of layers, from
// most general to most specific: global, project, task, session. The
// rendered layers are concatenated and injected into reasoning prompts.
package scope

import (
	"fmt"
	"strings"
	"time"
)

// Global holds system-wide settings that apply to all operations.
type Global struct {
	SystemName string
	Version    string
	ModelName  string
	SafeMode   bool
	Verbose    bool
}

// NewGlobal creates the default global context.
func NewGlobal() *Global {
	return &Global{
		SystemName: "promptdock",
		Version:    "0.6.0",
		SafeMode:   true,
	}
}

// PromptString renders the layer for prompt injection.
func (g *Global) PromptString() string {
	return fmt.Sprintf(`[GLOBAL CONTEXT]
System: %s v%s
Model: %s
Safe Mode: %s
Verbose: %s`,
		g.SystemName, g.Version, g.ModelName,
		onOff(g.SafeMode, "Enabled", "Disabled"),
		onOff(g.Verbose, "On", "Off"))
}

// Project holds context specific to the current codebase.
type Project struct {
	Name        string
	Description string
	Language    string
	Framework   string
	RootPath    string
}

// PromptString renders the layer for prompt injection.
func (p *Project) PromptString() string {
	if p.Name == "" {
		return "[PROJECT CONTEXT]\nNo project configured."
	}

	lines := []string{
		"[PROJECT CONTEXT]",
		"Project: " + p.Name,
	}
	if p.Description != "" {
		lines = append(lines, "Description: "+p.Description)
	}
	if p.Language != "" {
		lines = append(lines, "Language: "+p.Language)
	}
	if p.Framework != "" {
		lines = append(lines, "Framework: "+p.Framework)
	}
	return strings.Join(lines, "\n")
}

// TaskStatus tracks the lifecycle of the active task.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskBlocked    TaskStatus = "blocked"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

// Task holds the current task being worked on.
type Task struct {
	Title       string
	Description string
	Goal        string
	Status      TaskStatus
	Steps       []string
	CurrentStep int
	StartedAt   time.Time
	CompletedAt time.Time
}

// NewTask creates a pending task.
func NewTask(title, description, goal string) *Task {
	return &Task{
		Title:       title,
		Description: description,
		Goal:        goal,
		Status:      TaskPending,
	}
}

// Start marks the task in progress.
func (t *Task) Start() {
	t.Status = TaskInProgress
	t.StartedAt = time.Now()
}

// Complete marks the task completed.
func (t *Task) Complete() {
	t.Status = TaskCompleted
	t.CompletedAt = time.Now()
}

// Progress renders step progress, e.g. "2/5 steps".
func (t *Task) Progress() string {
	if len(t.Steps) == 0 {
		return "No steps defined"
	}
	return fmt.Sprintf("%d/%d steps", t.CurrentStep, len(t.Steps))
}

// PromptString renders the layer for prompt injection.
func (t *Task) PromptString() string {
	if t.Title == "" {
		return "[TASK CONTEXT]\nNo active task."
	}

	lines := []string{
		"[TASK CONTEXT]",
		"Task: " + t.Title,
		"Status: " + string(t.Status),
	}
	if t.Goal != "" {
		lines = append(lines, "Goal: "+t.Goal)
	}
	if len(t.Steps) > 0 {
		lines = append(lines, "Progress: "+t.Progress())
		if t.CurrentStep < len(t.Steps) {
			lines = append(lines, "Current Step: "+t.Steps[t.CurrentStep])
		}
	}
	return strings.Join(lines, "\n")
}

func onOff(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}
