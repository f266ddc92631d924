package analysis

import "context"

// Provider issues one model request and returns the raw text completion.
// Implementations handle transport and retry; they do not parse the payload.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// MockProvider returns a canned completion. Used in tests and offline demos.
type MockProvider struct {
	Response string
	Err      error
	Prompts  []string
}

func (m *MockProvider) Complete(ctx context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Response, nil
}
