package dock

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

var languageByExt = map[string]string{
	".go":   "Go",
	".py":   "Python",
	".js":   "JavaScript",
	".ts":   "TypeScript",
	".md":   "Markdown",
	".yaml": "YAML",
	".yml":  "YAML",
	".json": "JSON",
	".sh":   "Shell",
	".sql":  "SQL",
	".html": "HTML",
	".css":  "CSS",
}

var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"__pycache__":  true,
	".venv":        true,
}

// LanguageStat aggregates files and lines for one language.
type LanguageStat struct {
	Language string
	Files    int
	Lines    int
}

// Analysis summarizes a codebase walk.
type Analysis struct {
	Root       string
	TotalFiles int
	TotalLines int
	Languages  []LanguageStat
}

// Analyzer walks a project tree and summarizes its composition.
type Analyzer struct {
	root string
}

// NewAnalyzer creates an analyzer rooted at dir.
func NewAnalyzer(dir string) *Analyzer {
	return &Analyzer{root: dir}
}

// Analyze walks the tree, counting files and lines per language. Vendored
// and VCS directories are skipped.
func (a *Analyzer) Analyze() (*Analysis, error) {
	stats := make(map[string]*LanguageStat)
	result := &Analysis{Root: a.root}

	err := filepath.WalkDir(a.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		lang, ok := languageByExt[strings.ToLower(filepath.Ext(path))]
		if !ok {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		lines := bytes.Count(data, []byte{'\n'})
		if len(data) > 0 && data[len(data)-1] != '\n' {
			lines++
		}

		s := stats[lang]
		if s == nil {
			s = &LanguageStat{Language: lang}
			stats[lang] = s
		}
		s.Files++
		s.Lines += lines
		result.TotalFiles++
		result.TotalLines += lines
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, s := range stats {
		result.Languages = append(result.Languages, *s)
	}
	sort.Slice(result.Languages, func(i, j int) bool {
		return result.Languages[i].Lines > result.Languages[j].Lines
	})
	return result, nil
}

// Text renders the analysis as a short report.
func (an *Analysis) Text() string {
	if an.TotalFiles == 0 {
		return "No source files found."
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d file(s), %d line(s)\n", an.TotalFiles, an.TotalLines)
	for _, s := range an.Languages {
		fmt.Fprintf(&sb, "  %-12s %4d file(s) %7d line(s)\n", s.Language, s.Files, s.Lines)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// ContextString renders the analysis for prompt injection.
func (a *Analyzer) ContextString() string {
	an, err := a.Analyze()
	if err != nil {
		return fmt.Sprintf("[CODEBASE]\nUnavailable: %v", err)
	}
	return "[CODEBASE]\n" + an.Text()
}
