package memory

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

// Record is a persisted memory record. The whole record map is serialized
// to a single JSON file after every mutating operation.
type Record struct {
	Key         string `json:"key"`
	Value       any    `json:"value"`
	Category    string `json:"category"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
	AccessCount int    `json:"access_count"`
}

// FileStore is the persistent memory store. State survives restarts via a
// single JSON file: the full map is reloaded on construction and rewritten
// after every mutation. Retrieve is itself a mutation (it bumps the access
// count), so reads also rewrite the file. There is no locking; the store
// assumes a single actor.
type FileStore struct {
	path    string
	records map[string]*Record
	order   []string
}

// NewFileStore opens (or creates) a store backed by the given file path.
// A missing or malformed file is treated as an empty store.
func NewFileStore(path string) (*FileStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create memory directory: %w", err)
		}
	}
	s := &FileStore{
		path:    path,
		records: make(map[string]*Record),
	}
	s.load()
	return s, nil
}

// Path returns the backing file path.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}
	records := make(map[string]*Record)
	if err := json.Unmarshal(data, &records); err != nil {
		return
	}
	s.records = records
	// JSON objects carry no order; iterate sorted by key for determinism.
	s.order = make([]string, 0, len(records))
	for key := range records {
		s.order = append(s.order, key)
	}
	sort.Strings(s.order)
}

func (s *FileStore) save() error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode memory: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		return fmt.Errorf("write memory file: %w", err)
	}
	return nil
}

// Store writes a value under key and rewrites the backing file.
func (s *FileStore) Store(key string, value any, category string) error {
	now := time.Now().Format(time.RFC3339)
	if record, exists := s.records[key]; exists {
		record.Value = value
		record.Category = category
		record.UpdatedAt = now
	} else {
		s.records[key] = &Record{
			Key:       key,
			Value:     value,
			Category:  category,
			CreatedAt: now,
			UpdatedAt: now,
		}
		s.order = append(s.order, key)
	}
	return s.save()
}

// Retrieve returns the stored value, or def when absent. A hit increments
// the record's access count and rewrites the file.
func (s *FileStore) Retrieve(key string, def any) any {
	record, ok := s.records[key]
	if !ok {
		return def
	}
	record.AccessCount++
	record.UpdatedAt = time.Now().Format(time.RFC3339)
	if err := s.save(); err != nil {
		// A failed bookkeeping write must not hide the value.
		return record.Value
	}
	return record.Value
}

// Delete removes a key, rewrites the file, and reports whether anything
// was removed.
func (s *FileStore) Delete(key string) bool {
	if _, ok := s.records[key]; !ok {
		return false
	}
	delete(s.records, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	_ = s.save()
	return true
}

// Keys lists keys in iteration order, optionally filtered by category.
func (s *FileStore) Keys(category string) []string {
	var out []string
	for _, key := range s.order {
		if category == "" || s.records[key].Category == category {
			out = append(out, key)
		}
	}
	return out
}

// Categories lists the distinct categories in use.
func (s *FileStore) Categories() []string {
	seen := make(map[string]bool)
	var out []string
	for _, key := range s.order {
		cat := s.records[key].Category
		if !seen[cat] {
			seen[cat] = true
			out = append(out, cat)
		}
	}
	return out
}

// Search matches the query case-insensitively against keys and string values.
func (s *FileStore) Search(query string) []Match {
	lower := strings.ToLower(query)
	var out []Match
	for _, key := range s.order {
		record := s.records[key]
		if strings.Contains(strings.ToLower(key), lower) {
			out = append(out, Match{Key: key, Value: record.Value})
			continue
		}
		if str, ok := record.Value.(string); ok && strings.Contains(strings.ToLower(str), lower) {
			out = append(out, Match{Key: key, Value: record.Value})
		}
	}
	return out
}

// ContextString renders the store grouped by category with truncated values.
func (s *FileStore) ContextString() string {
	if len(s.records) == 0 {
		return "Persistent memory is empty."
	}

	var sb strings.Builder
	sb.WriteString("Persistent Memory:")

	for _, category := range s.Categories() {
		fmt.Fprintf(&sb, "\n\n[%s]", strings.ToUpper(category))
		for _, key := range s.Keys(category) {
			value := fmt.Sprintf("%v", s.records[key].Value)
			fmt.Fprintf(&sb, "\n  %s: %s", key, truncate(value, 80))
		}
	}

	return sb.String()
}

// Clear removes entries, optionally only those in a category, and rewrites
// the file.
func (s *FileStore) Clear(category string) (int, error) {
	var count int
	if category == "" {
		count = len(s.records)
		s.records = make(map[string]*Record)
		s.order = nil
	} else {
		for _, key := range s.Keys(category) {
			delete(s.records, key)
			count++
		}
		kept := s.order[:0]
		for _, key := range s.order {
			if _, ok := s.records[key]; ok {
				kept = append(kept, key)
			}
		}
		s.order = kept
	}
	return count, s.save()
}

// Stats summarizes the store: entry count, categories, and the most
// frequently accessed keys.
func (s *FileStore) Stats() map[string]any {
	type accessed struct {
		Key   string `json:"key"`
		Count int    `json:"count"`
	}
	most := make([]accessed, 0, len(s.records))
	for key, record := range s.records {
		most = append(most, accessed{Key: key, Count: record.AccessCount})
	}
	sort.Slice(most, func(i, j int) bool {
		if most[i].Count != most[j].Count {
			return most[i].Count > most[j].Count
		}
		return most[i].Key < most[j].Key
	})
	if len(most) > 5 {
		most = most[:5]
	}
	return map[string]any{
		"total_entries": len(s.records),
		"categories":    s.Categories(),
		"storage_file":  s.path,
		"most_accessed": most,
	}
}

// Export writes the full record map to another file.
func (s *FileStore) Export(path string) error {
	data, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode memory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Import merges records from another file and returns the number imported.
func (s *FileStore) Import(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read import file: %w", err)
	}
	records := make(map[string]*Record)
	if err := json.Unmarshal(data, &records); err != nil {
		return 0, fmt.Errorf("decode import file: %w", err)
	}
	count := 0
	for key, record := range records {
		if _, exists := s.records[key]; !exists {
			s.order = append(s.order, key)
		}
		s.records[key] = record
		count++
	}
	return count, s.save()
}
