package dock

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestTodoParsesCheckboxes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "TODO.md")
	writeFile(t, path, "# TODO\n\n- [ ] write docs [high]\n- [x] ship release\n- [ ] tidy up [low]\nnot a checkbox\n")

	list := NewTodoList(path)
	items, err := list.Items()
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
	if items[0].Done || !items[1].Done {
		t.Fatalf("done flags wrong: %+v", items)
	}
	if items[0].Priority != "high" || items[1].Priority != "normal" || items[2].Priority != "low" {
		t.Fatalf("priorities wrong: %+v", items)
	}
}

func TestTodoAddCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "TODO.md")
	list := NewTodoList(path)

	if err := list.Add("first item"); err != nil {
		t.Fatal(err)
	}
	items, err := list.Items()
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Text != "first item" || items[0].Done {
		t.Fatalf("unexpected items: %+v", items)
	}

	raw, err := list.Raw()
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(raw, "# TODO") {
		t.Fatalf("missing header: %q", raw)
	}
}

func TestTodoComplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "TODO.md")
	writeFile(t, path, "- [ ] write docs\n- [ ] write tests\n")

	list := NewTodoList(path)
	ok, err := list.Complete("tests")
	if err != nil || !ok {
		t.Fatalf("complete failed: ok=%v err=%v", ok, err)
	}

	items, _ := list.Items()
	if !items[1].Done || items[0].Done {
		t.Fatalf("wrong item completed: %+v", items)
	}

	ok, err = list.Complete("nonexistent")
	if err != nil || ok {
		t.Fatalf("expected no match: ok=%v err=%v", ok, err)
	}
}

func TestTodoMissingFile(t *testing.T) {
	list := NewTodoList(filepath.Join(t.TempDir(), "absent.md"))
	items, err := list.Items()
	if err != nil || items != nil {
		t.Fatalf("missing file should be empty: %v %v", items, err)
	}
	if !strings.Contains(list.ContextString(), "Nothing pending") {
		t.Fatalf("context = %q", list.ContextString())
	}
}

func TestFileReaderAllowsKnownExtensions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.go"), "package main\n")
	writeFile(t, filepath.Join(dir, "binary.exe"), "MZ")

	fr := NewFileReader(dir)
	content, err := fr.Read("main.go")
	if err != nil {
		t.Fatal(err)
	}
	if content != "package main\n" {
		t.Fatalf("content = %q", content)
	}

	if _, err := fr.Read("binary.exe"); err == nil {
		t.Fatal("expected rejection of unknown extension")
	}

	if len(fr.History()) != 1 {
		t.Fatalf("history = %+v", fr.History())
	}
}

func TestFileReaderRejectsEscape(t *testing.T) {
	fr := NewFileReader(t.TempDir())
	if _, err := fr.Read("../../etc/passwd"); err == nil {
		t.Fatal("expected path escape rejection")
	}
}

func TestEditorTracksState(t *testing.T) {
	e := NewEditor()
	if !strings.Contains(e.ContextString(), "No files open") {
		t.Fatalf("empty context = %q", e.ContextString())
	}

	e.Open("a.go")
	e.Open("b.go")
	e.Select("func main()", 10)

	ctx := e.ContextString()
	if !strings.Contains(ctx, "Active file: b.go") {
		t.Fatalf("missing active file: %q", ctx)
	}
	if !strings.Contains(ctx, "func main()") {
		t.Fatalf("missing selection: %q", ctx)
	}

	e.Close("b.go")
	if e.ActiveFile() != "a.go" {
		t.Fatalf("active after close = %q", e.ActiveFile())
	}
}

func TestAnalyzerCountsLanguages(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "main.go"), "package main\n\nfunc main() {}\n")
	writeFile(t, filepath.Join(dir, "README.md"), "# hi\n")
	if err := os.MkdirAll(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, ".git", "config.md"), "skipped\n")

	an, err := NewAnalyzer(dir).Analyze()
	if err != nil {
		t.Fatal(err)
	}
	if an.TotalFiles != 2 {
		t.Fatalf("total files = %d, want 2", an.TotalFiles)
	}
	if an.Languages[0].Language != "Go" {
		t.Fatalf("dominant language = %q", an.Languages[0].Language)
	}
	if !strings.Contains(an.Text(), "Go") {
		t.Fatalf("report = %q", an.Text())
	}
}
