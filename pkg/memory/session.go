package memory

import (
	"fmt"
	"strings"
	"time"
)

// Entry is a record in the session store.
type Entry struct {
	Key       string
	Value     any
	Category  string
	Timestamp string
	// TTL in seconds; zero means permanent. Recorded but not enforced.
	TTL int
}

// Op is one entry in the session store's operation history.
type Op struct {
	Action    string // "store", "delete", "clear"
	Key       string
	Category  string
	Count     int
	Timestamp string
}

// SessionStore holds records in process memory for the lifetime of the
// owning orchestrator. It keeps an append-only operation history.
type SessionStore struct {
	entries      map[string]*Entry
	order        []string
	history      []Op
	sessionStart string
}

// NewSessionStore creates an empty session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		entries:      make(map[string]*Entry),
		sessionStart: time.Now().Format(time.RFC3339),
	}
}

// Store writes a value under key.
func (s *SessionStore) Store(key string, value any, category string) error {
	return s.StoreTTL(key, value, category, 0)
}

// StoreTTL writes a value with a time-to-live hint in seconds.
func (s *SessionStore) StoreTTL(key string, value any, category string, ttl int) error {
	now := time.Now().Format(time.RFC3339)
	if _, exists := s.entries[key]; !exists {
		s.order = append(s.order, key)
	}
	s.entries[key] = &Entry{
		Key:       key,
		Value:     value,
		Category:  category,
		Timestamp: now,
		TTL:       ttl,
	}
	s.history = append(s.history, Op{
		Action:    "store",
		Key:       key,
		Category:  category,
		Timestamp: now,
	})
	return nil
}

// Retrieve returns the stored value, or def when absent.
func (s *SessionStore) Retrieve(key string, def any) any {
	if entry, ok := s.entries[key]; ok {
		return entry.Value
	}
	return def
}

// Delete removes a key and reports whether anything was removed.
func (s *SessionStore) Delete(key string) bool {
	if _, ok := s.entries[key]; !ok {
		return false
	}
	delete(s.entries, key)
	s.removeFromOrder(key)
	s.history = append(s.history, Op{
		Action:    "delete",
		Key:       key,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	return true
}

// Keys lists keys in insertion order, optionally filtered by category.
func (s *SessionStore) Keys(category string) []string {
	var out []string
	for _, key := range s.order {
		if category == "" || s.entries[key].Category == category {
			out = append(out, key)
		}
	}
	return out
}

// Categories lists the distinct categories in use, in first-seen order.
func (s *SessionStore) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, key := range s.order {
		cat := s.entries[key].Category
		if !seen[cat] {
			seen[cat] = true
			out = append(out, cat)
		}
	}
	return out
}

// Search matches the query against keys and string values.
func (s *SessionStore) Search(query string) []Match {
	lower := strings.ToLower(query)
	var out []Match
	for _, key := range s.order {
		entry := s.entries[key]
		if strings.Contains(strings.ToLower(key), lower) {
			out = append(out, Match{Key: key, Value: entry.Value})
			continue
		}
		if str, ok := entry.Value.(string); ok && strings.Contains(strings.ToLower(str), lower) {
			out = append(out, Match{Key: key, Value: entry.Value})
		}
	}
	return out
}

// ContextString renders the store grouped by category with truncated values.
func (s *SessionStore) ContextString() string {
	if len(s.entries) == 0 {
		return "Memory is empty."
	}

	var sb strings.Builder
	sb.WriteString("Current Memory:")

	for _, category := range s.Categories() {
		fmt.Fprintf(&sb, "\n\n[%s]", strings.ToUpper(category))
		for _, key := range s.Keys(category) {
			value := fmt.Sprintf("%v", s.entries[key].Value)
			fmt.Fprintf(&sb, "\n  %s: %s", key, truncate(value, 100))
		}
	}

	return sb.String()
}

// Clear removes entries, optionally only those in a category.
func (s *SessionStore) Clear(category string) (int, error) {
	var count int
	if category == "" {
		count = len(s.entries)
		s.entries = make(map[string]*Entry)
		s.order = nil
	} else {
		for _, key := range s.Keys(category) {
			delete(s.entries, key)
			s.removeFromOrder(key)
			count++
		}
	}
	s.history = append(s.history, Op{
		Action:    "clear",
		Category:  category,
		Count:     count,
		Timestamp: time.Now().Format(time.RFC3339),
	})
	return count, nil
}

// Snapshot summarizes the store's state for prompts or debugging.
func (s *SessionStore) Snapshot() map[string]any {
	categories := make(map[string]int)
	entries := make(map[string]any)
	for _, key := range s.order {
		entry := s.entries[key]
		categories[entry.Category]++
		entries[key] = map[string]any{
			"value":     entry.Value,
			"category":  entry.Category,
			"timestamp": entry.Timestamp,
		}
	}
	return map[string]any{
		"session_start": s.sessionStart,
		"entry_count":   len(s.entries),
		"categories":    categories,
		"entries":       entries,
	}
}

// History returns a copy of the operation history.
func (s *SessionStore) History() []Op {
	out := make([]Op, len(s.history))
	copy(out, s.history)
	return out
}

func (s *SessionStore) removeFromOrder(key string) {
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			return
		}
	}
}
