package guard

import (
	"fmt"
	"strings"
)

var sensitiveTokens = []string{
	".env", "password", "secret", "key", "token",
	"credential", "private", ".pem", ".key",
}

var systemPrefixes = []string{
	"/etc/", "/usr/", "/bin/", "/sbin/",
	`C:\Windows`, `C:\Program Files`,
	"/System/", "/Library/",
}

const maxStoredValueLen = 10000

// DefaultEngine creates an engine with the default safety rules.
func DefaultEngine() *Engine {
	e := NewEngine()

	e.AddRule(Rule{
		Name:        "no_silent_delete",
		Description: "Prevent file deletion without explicit confirmation",
		Category:    "actions",
		Severity:    "high",
		Check: func(ctx ActionContext) Verdict {
			if ctx.Action() == "delete_file" && !ctx.Confirmed() {
				return Deny
			}
			return Allow
		},
	})

	e.AddRule(Rule{
		Name:        "no_shell_exec",
		Description: "Prevent direct shell command execution",
		Category:    "system",
		Severity:    "critical",
		Check: func(ctx ActionContext) Verdict {
			if ctx.Action() == "shell_exec" {
				return Deny
			}
			return Allow
		},
	})

	e.AddRule(Rule{
		Name:        "sensitive_file_warning",
		Description: "Warn when accessing potentially sensitive files",
		Category:    "data",
		Severity:    "medium",
		Check: func(ctx ActionContext) Verdict {
			if isSensitivePath(ctx.Path()) {
				return Warn
			}
			return Allow
		},
	})

	e.AddRule(Rule{
		Name:        "no_system_modification",
		Description: "Prevent modification of system files",
		Category:    "system",
		Severity:    "critical",
		Check: func(ctx ActionContext) Verdict {
			if ctx.Action() == "write_file" && isSystemPath(ctx.Path()) {
				return Deny
			}
			return Allow
		},
	})

	e.AddRule(Rule{
		Name:        "memory_size_limit",
		Description: "Limit size of stored memory values",
		Category:    "data",
		Severity:    "low",
		Check: func(ctx ActionContext) Verdict {
			if ctx.Action() != "store" {
				return Allow
			}
			if value := ctx.Value(); value != nil {
				if len(fmt.Sprintf("%v", value)) > maxStoredValueLen {
					return Deny
				}
			}
			return Allow
		},
	})

	return e
}

func isSensitivePath(path string) bool {
	if path == "" {
		return false
	}
	lower := strings.ToLower(path)
	for _, token := range sensitiveTokens {
		if strings.Contains(lower, token) {
			return true
		}
	}
	return false
}

func isSystemPath(path string) bool {
	for _, prefix := range systemPrefixes {
		if strings.Contains(path, prefix) {
			return true
		}
	}
	return false
}
