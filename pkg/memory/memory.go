// Package memory provides the key/value stores backing the assistant's
// state: an ephemeral session store and a file-backed persistent store
// sharing one read/write contract.
package memory

// Match is one search hit: a key and its stored value.
type Match struct {
	Key   string
	Value any
}

// Store is the contract shared by the ephemeral and persistent stores.
type Store interface {
	// Store writes a value under key, creating or updating the record.
	Store(key string, value any, category string) error

	// Retrieve returns the stored value, or def when the key is absent.
	Retrieve(key string, def any) any

	// Delete removes a key and reports whether anything was removed.
	Delete(key string) bool

	// Keys lists keys in insertion order, optionally filtered by
	// category (empty string means all).
	Keys(category string) []string

	// Categories lists the distinct categories in use.
	Categories() []string

	// Search matches the query case-insensitively against keys and
	// string values, returning hits in insertion order.
	Search(query string) []Match

	// ContextString renders the store as grouped, truncated text
	// suitable for prompt injection.
	ContextString() string

	// Clear removes entries, optionally only those in a category,
	// and returns the number removed.
	Clear(category string) (int, error)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
