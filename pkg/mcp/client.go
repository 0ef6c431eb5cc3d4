package mcp

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"strings"

	json "github.com/goccy/go-json"
)

// Client talks to a server subprocess over its stdin/stdout, one request
// line and one response line at a time. Requests are strictly sequential.
type Client struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Scanner
	nextID int
}

// NewClient prepares a client for the given server command. Connect must be
// called before issuing requests.
func NewClient(command string, args ...string) *Client {
	return &Client{cmd: exec.Command(command, args...)}
}

// Connect starts the server subprocess and performs the initialize
// handshake, returning the server info.
func (c *Client) Connect() (map[string]any, error) {
	stdin, err := c.cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	stdout, err := c.cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := c.cmd.Start(); err != nil {
		return nil, fmt.Errorf("starting server: %w", err)
	}

	c.stdin = stdin
	c.stdout = bufio.NewScanner(stdout)
	c.stdout.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	return c.Call("initialize", map[string]any{
		"protocolVersion": protocolVersion,
		"clientInfo":      map[string]any{"name": "promptdock-client", "version": "1.0.0"},
	})
}

// Disconnect closes the server's stdin and waits for it to exit.
func (c *Client) Disconnect() error {
	if c.stdin != nil {
		c.stdin.Close()
	}
	if c.cmd.Process != nil {
		return c.cmd.Wait()
	}
	return nil
}

// Call sends one request and reads its response. A server-side error comes
// back as a Go error carrying the JSON-RPC code and message.
func (c *Client) Call(method string, params map[string]any) (map[string]any, error) {
	c.nextID++
	id, _ := json.Marshal(c.nextID)

	line, err := json.Marshal(Request{JSONRPC: "2.0", ID: id, Method: method, Params: params})
	if err != nil {
		return nil, err
	}
	if _, err := c.stdin.Write(append(line, '\n')); err != nil {
		return nil, fmt.Errorf("writing request: %w", err)
	}

	if !c.stdout.Scan() {
		if err := c.stdout.Err(); err != nil {
			return nil, fmt.Errorf("reading response: %w", err)
		}
		return nil, fmt.Errorf("server closed the connection")
	}

	var resp struct {
		JSONRPC string         `json:"jsonrpc"`
		ID      any            `json:"id"`
		Result  map[string]any `json:"result"`
		Error   *Error         `json:"error"`
	}
	if err := json.Unmarshal(c.stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("unparseable response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("server error %d: %s", resp.Error.Code, resp.Error.Message)
	}
	return resp.Result, nil
}

// ListResources returns the server's resource descriptors.
func (c *Client) ListResources() ([]map[string]any, error) {
	result, err := c.Call("resources/list", map[string]any{})
	if err != nil {
		return nil, err
	}
	return anySlice(result["resources"]), nil
}

// ReadResource returns the text contents of one resource.
func (c *Client) ReadResource(uri string) (string, error) {
	result, err := c.Call("resources/read", map[string]any{"uri": uri})
	if err != nil {
		return "", err
	}
	return firstText(result, "contents"), nil
}

// ListTools returns the server's tool descriptors.
func (c *Client) ListTools() ([]map[string]any, error) {
	result, err := c.Call("tools/list", map[string]any{})
	if err != nil {
		return nil, err
	}
	return anySlice(result["tools"]), nil
}

// CallTool invokes a server tool and returns its text output.
func (c *Client) CallTool(name string, arguments map[string]any) (string, error) {
	result, err := c.Call("tools/call", map[string]any{"name": name, "arguments": arguments})
	if err != nil {
		return "", err
	}
	return firstText(result, "content"), nil
}

func anySlice(v any) []map[string]any {
	items, _ := v.([]any)
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

// firstText joins the "text" fields of the named content list.
func firstText(result map[string]any, key string) string {
	var texts []string
	for _, item := range anySlice(result[key]) {
		if t, ok := item["text"].(string); ok {
			texts = append(texts, t)
		}
	}
	return strings.Join(texts, "\n")
}
