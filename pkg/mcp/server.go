package mcp

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/zen-systems/promptdock/pkg/dock"
)

const maxLineBytes = 1024 * 1024

// Server serves project resources and tools over newline-delimited
// JSON-RPC. One response line is written per request line.
type Server struct {
	git      *dock.Git
	todos    *dock.TodoList
	files    *dock.FileReader
	analyzer *dock.Analyzer
	logger   *slog.Logger
}

// NewServer creates a server rooted at a project directory.
func NewServer(root string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		git:      dock.NewGit(root),
		todos:    dock.NewTodoList(root + "/TODO.md"),
		files:    dock.NewFileReader(root),
		analyzer: dock.NewAnalyzer(root),
		logger:   logger,
	}
}

// Run reads request lines from in and writes one response line each to out,
// until in is exhausted. Empty lines are skipped; unparseable lines yield a
// parse-error response with id null.
func (s *Server) Run(in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	encoder := json.NewEncoder(out)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req Request
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			s.logger.Warn("unparseable request line", "error", err)
			if err := encoder.Encode(failure(nil, CodeParseError, "Parse error")); err != nil {
				return err
			}
			continue
		}

		if err := encoder.Encode(s.Handle(req)); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// Handle dispatches one request to its method handler.
func (s *Server) Handle(req Request) Response {
	s.logger.Debug("handling request", "method", req.Method)

	var (
		result any
		err    error
	)
	switch req.Method {
	case "initialize":
		result = s.initialize()
	case "resources/list":
		result = map[string]any{"resources": s.resources()}
	case "resources/read":
		result, err = s.readResource(req.Params)
	case "tools/list":
		result = map[string]any{"tools": s.tools()}
	case "tools/call":
		result, err = s.callTool(req.Params)
	default:
		return failure(req.ID, CodeMethodNotFound, "Method not found: "+req.Method)
	}

	if err != nil {
		return failure(req.ID, CodeInternalError, err.Error())
	}
	return success(req.ID, result)
}

func (s *Server) initialize() map[string]any {
	return map[string]any{
		"protocolVersion": protocolVersion,
		"capabilities": map[string]any{
			"resources": map[string]any{},
			"tools":     map[string]any{},
		},
		"serverInfo": map[string]any{
			"name":    "promptdock-server",
			"version": "1.0.0",
		},
	}
}

func (s *Server) resources() []Resource {
	return []Resource{
		{URI: "git://status", Name: "Git Status", Description: "Current branch and changed files", MimeType: "text/plain"},
		{URI: "git://commits", Name: "Recent Commits", Description: "Last 10 commits, one per line", MimeType: "text/plain"},
		{URI: "todo://list", Name: "TODO List", Description: "Contents of TODO.md", MimeType: "text/markdown"},
	}
}

func (s *Server) readResource(params map[string]any) (any, error) {
	uri, _ := params["uri"].(string)

	var text string
	switch uri {
	case "git://status":
		text = s.git.StatusText()
	case "git://commits":
		text = s.git.CommitsText(10)
	case "todo://list":
		raw, err := s.todos.Raw()
		if err != nil {
			return nil, err
		}
		text = raw
	default:
		return nil, fmt.Errorf("unknown resource: %s", uri)
	}

	return map[string]any{
		"contents": []map[string]any{
			{"uri": uri, "text": text},
		},
	}, nil
}

func (s *Server) tools() []ToolInfo {
	stringParam := func(name, desc string) map[string]any {
		return map[string]any{
			"type": "object",
			"properties": map[string]any{
				name: map[string]any{"type": "string", "description": desc},
			},
			"required": []string{name},
		}
	}
	return []ToolInfo{
		{Name: "add_todo", Description: "Appends an item to the TODO list", InputSchema: stringParam("text", "The item text")},
		{Name: "read_file", Description: "Reads a project file", InputSchema: stringParam("path", "Path relative to the project root")},
		{Name: "analyze_codebase", Description: "Summarizes files and lines per language", InputSchema: map[string]any{"type": "object", "properties": map[string]any{}}},
	}
}

func (s *Server) callTool(params map[string]any) (any, error) {
	name, _ := params["name"].(string)
	args, _ := params["arguments"].(map[string]any)

	var text string
	switch name {
	case "add_todo":
		item, _ := args["text"].(string)
		if item == "" {
			return nil, fmt.Errorf("add_todo requires a text argument")
		}
		if err := s.todos.Add(item); err != nil {
			return nil, err
		}
		text = "Added: " + item
	case "read_file":
		path, _ := args["path"].(string)
		content, err := s.files.Read(path)
		if err != nil {
			return nil, err
		}
		text = content
	case "analyze_codebase":
		analysis, err := s.analyzer.Analyze()
		if err != nil {
			return nil, err
		}
		text = analysis.Text()
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}

	return map[string]any{
		"content": []map[string]any{
			{"type": "text", "text": text},
		},
	}, nil
}
