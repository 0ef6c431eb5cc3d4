package adapter

import "context"

// Request describes one reasoning call.
type Request struct {
	Model       string
	System      string // context injected ahead of the prompt, may be empty
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Adapter defines the interface for LLM provider adapters.
type Adapter interface {
	// Generate sends a request to the model and returns the response text.
	Generate(ctx context.Context, req Request) (string, error)

	// Name returns the adapter's identifier.
	Name() string

	// Models returns the list of supported models.
	Models() []string
}

const defaultMaxTokens = 1024

// compose folds the system context into a single prompt string for
// providers called with one user message.
func compose(req Request) string {
	if req.System == "" {
		return req.Prompt
	}
	return "Context:\n" + req.System + "\n\n" + req.Prompt
}

func maxTokens(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return defaultMaxTokens
}
