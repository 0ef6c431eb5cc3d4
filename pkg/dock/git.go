package dock

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const gitTimeout = 5 * time.Second

// Git reports repository state by shelling out to the git binary.
type Git struct {
	dir string
}

// NewGit creates a reporter for the repository at dir.
func NewGit(dir string) *Git {
	return &Git{dir: dir}
}

func (g *Git) run(args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), gitTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.dir
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("git %s: %w", args[0], err)
	}
	return strings.TrimSpace(string(out)), nil
}

// IsRepo reports whether dir is inside a git work tree.
func (g *Git) IsRepo() bool {
	out, err := g.run("rev-parse", "--is-inside-work-tree")
	return err == nil && out == "true"
}

// Branch returns the current branch name.
func (g *Git) Branch() (string, error) {
	return g.run("rev-parse", "--abbrev-ref", "HEAD")
}

// Status returns the porcelain status, one line per changed path.
func (g *Git) Status() ([]string, error) {
	out, err := g.run("status", "--porcelain")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// RecentCommits returns up to n one-line commit summaries, newest first.
func (g *Git) RecentCommits(n int) ([]string, error) {
	out, err := g.run("log", fmt.Sprintf("-%d", n), "--oneline")
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// Diff returns the unstaged diff, truncated to limit bytes.
func (g *Git) Diff(limit int) (string, error) {
	out, err := g.run("diff")
	if err != nil {
		return "", err
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit] + "\n... (truncated)"
	}
	return out, nil
}

// StatusText renders a short repository summary, used both for prompts and
// as the git://status resource.
func (g *Git) StatusText() string {
	if !g.IsRepo() {
		return "Not a git repository."
	}
	var sb strings.Builder
	if branch, err := g.Branch(); err == nil {
		fmt.Fprintf(&sb, "Branch: %s\n", branch)
	}
	changes, err := g.Status()
	if err != nil {
		fmt.Fprintf(&sb, "Status unavailable: %v", err)
		return sb.String()
	}
	if len(changes) == 0 {
		sb.WriteString("Working tree clean.")
	} else {
		fmt.Fprintf(&sb, "%d changed file(s):\n", len(changes))
		for _, c := range changes {
			sb.WriteString("  " + c + "\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

// CommitsText renders recent commits, used as the git://commits resource.
func (g *Git) CommitsText(n int) string {
	if !g.IsRepo() {
		return "Not a git repository."
	}
	commits, err := g.RecentCommits(n)
	if err != nil {
		return fmt.Sprintf("Log unavailable: %v", err)
	}
	if len(commits) == 0 {
		return "No commits yet."
	}
	return strings.Join(commits, "\n")
}

// ContextString renders the git layer for prompt injection.
func (g *Git) ContextString() string {
	return "[GIT]\n" + g.StatusText()
}
