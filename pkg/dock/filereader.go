// Package dock provides workspace-facing context providers: project files,
// git state, the TODO list, editor state, and codebase structure. Each
// provider renders a ContextString suitable for prompt injection.
package dock

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var readableExtensions = map[string]bool{
	".go":   true,
	".md":   true,
	".txt":  true,
	".json": true,
	".yaml": true,
	".yml":  true,
	".toml": true,
	".mod":  true,
	".sum":  true,
	".sh":   true,
	".py":   true,
	".js":   true,
	".ts":   true,
	".html": true,
	".css":  true,
	".sql":  true,
}

const maxReadBytes = 64 * 1024

// ReadRecord notes one file read for the session.
type ReadRecord struct {
	Path string
	Size int
	At   time.Time
}

// FileReader reads project files under a root directory, tracking what was
// read so the assistant can reference recent files.
type FileReader struct {
	root    string
	history []ReadRecord
}

// NewFileReader creates a reader rooted at dir.
func NewFileReader(dir string) *FileReader {
	return &FileReader{root: dir}
}

// Root returns the reader's root directory.
func (f *FileReader) Root() string { return f.root }

// Read returns the contents of a file relative to the root. Only known text
// extensions are allowed, and paths may not escape the root.
func (f *FileReader) Read(relPath string) (string, error) {
	full := filepath.Join(f.root, relPath)

	abs, err := filepath.Abs(full)
	if err != nil {
		return "", err
	}
	rootAbs, err := filepath.Abs(f.root)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(abs, rootAbs+string(filepath.Separator)) && abs != rootAbs {
		return "", fmt.Errorf("path escapes project root: %s", relPath)
	}

	ext := strings.ToLower(filepath.Ext(full))
	if !readableExtensions[ext] {
		return "", fmt.Errorf("unsupported file type: %s", ext)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return "", err
	}
	if len(data) > maxReadBytes {
		data = data[:maxReadBytes]
	}

	f.history = append(f.history, ReadRecord{Path: relPath, Size: len(data), At: time.Now()})
	return string(data), nil
}

// List returns readable files directly under a subdirectory of the root.
func (f *FileReader) List(relDir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(f.root, relDir))
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if readableExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			out = append(out, filepath.Join(relDir, e.Name()))
		}
	}
	return out, nil
}

// History returns the files read this session, most recent last.
func (f *FileReader) History() []ReadRecord {
	out := make([]ReadRecord, len(f.history))
	copy(out, f.history)
	return out
}

// ContextString renders recently read files for prompt injection.
func (f *FileReader) ContextString() string {
	if len(f.history) == 0 {
		return "[FILES]\nNo files read this session."
	}
	lines := []string{"[FILES]", "Recently read:"}
	recent := f.history
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	for _, r := range recent {
		lines = append(lines, fmt.Sprintf("  %s (%d bytes)", r.Path, r.Size))
	}
	return strings.Join(lines, "\n")
}
