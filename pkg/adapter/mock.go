package adapter

import (
	"context"
	"fmt"
)

// MockAdapter returns deterministic responses for local runs and tests.
type MockAdapter struct {
	responses       map[string]string
	defaultResponse string

	// GenerateFunc, when set, overrides the canned response lookup.
	GenerateFunc func(req Request) (string, error)
}

// NewMockAdapter creates a mock adapter with a default response.
func NewMockAdapter() *MockAdapter {
	return &MockAdapter{
		responses:       make(map[string]string),
		defaultResponse: "mock response:",
	}
}

// NewMockAdapterWithResponses creates a mock adapter with predefined
// responses keyed by exact prompt.
func NewMockAdapterWithResponses(responses map[string]string, defaultResponse string) *MockAdapter {
	if defaultResponse == "" {
		defaultResponse = "mock response:"
	}
	return &MockAdapter{responses: responses, defaultResponse: defaultResponse}
}

// Name returns the adapter identifier.
func (a *MockAdapter) Name() string {
	return "mock"
}

// Models returns the list of supported mock models.
func (a *MockAdapter) Models() []string {
	return []string{"mock-1"}
}

// Generate returns a deterministic response for the request.
func (a *MockAdapter) Generate(_ context.Context, req Request) (string, error) {
	if a.GenerateFunc != nil {
		return a.GenerateFunc(req)
	}
	if response, ok := a.responses[req.Prompt]; ok {
		return response, nil
	}
	return fmt.Sprintf("%s\n%s", a.defaultResponse, req.Prompt), nil
}
