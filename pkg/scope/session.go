package scope

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session holds per-session state. It resets on restart.
type Session struct {
	ID           string
	StartedAt    time.Time
	UserName     string
	Topics       []string
	MessageCount int
	ErrorCount   int
}

// NewSession creates a session with a fresh identifier.
func NewSession() *Session {
	return &Session{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
	}
}

// AddTopic records a discussed topic once.
func (s *Session) AddTopic(topic string) {
	for _, t := range s.Topics {
		if t == topic {
			return
		}
	}
	s.Topics = append(s.Topics, topic)
}

// IncrementMessages bumps the processed-message counter.
func (s *Session) IncrementMessages() {
	s.MessageCount++
}

// IncrementErrors bumps the error counter.
func (s *Session) IncrementErrors() {
	s.ErrorCount++
}

// Duration renders the elapsed session time, e.g. "3m 12s".
func (s *Session) Duration() string {
	elapsed := time.Since(s.StartedAt)
	return fmt.Sprintf("%dm %ds", int(elapsed.Minutes()), int(elapsed.Seconds())%60)
}

// PromptString renders the layer for prompt injection.
func (s *Session) PromptString() string {
	lines := []string{
		"[SESSION CONTEXT]",
		"Session: " + s.ID,
		"Duration: " + s.Duration(),
		fmt.Sprintf("Messages: %d", s.MessageCount),
	}
	if s.UserName != "" {
		lines = append(lines, "User: "+s.UserName)
	}
	if len(s.Topics) > 0 {
		recent := s.Topics
		if len(recent) > 5 {
			recent = recent[len(recent)-5:]
		}
		lines = append(lines, "Topics: "+strings.Join(recent, ", "))
	}
	return strings.Join(lines, "\n")
}
