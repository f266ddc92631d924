package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// OpenAIProvider talks to an OpenAI-compatible chat-completions gateway.
// Transient failures (network errors, 5xx, 429) are retried with exponential
// backoff; other 4xx responses fail immediately.
type OpenAIProvider struct {
	BaseURL string
	APIKey  string
	Model   string

	// Client defaults to a 60s-timeout client when nil.
	Client *http.Client

	// MaxElapsed bounds the whole retry loop. Zero means 45 seconds.
	MaxElapsed time.Duration
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if p.BaseURL == "" || p.APIKey == "" {
		return "", fmt.Errorf("analysis: provider not configured")
	}

	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	body, err := json.Marshal(chatRequest{
		Model:       p.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: 0.0,
	})
	if err != nil {
		return "", err
	}

	var content string
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+p.APIKey)

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)

		switch {
		case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("analysis: gateway %d: %s", resp.StatusCode, truncateBody(raw))
		case resp.StatusCode >= 400:
			return backoff.Permanent(fmt.Errorf("analysis: gateway %d: %s", resp.StatusCode, truncateBody(raw)))
		}

		var parsed chatResponse
		if err := json.Unmarshal(raw, &parsed); err != nil {
			return backoff.Permanent(fmt.Errorf("analysis: decode response: %w", err))
		}
		if len(parsed.Choices) == 0 {
			return backoff.Permanent(fmt.Errorf("analysis: empty completion"))
		}
		content = parsed.Choices[0].Message.Content
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = p.MaxElapsed
	if bo.MaxElapsedTime == 0 {
		bo.MaxElapsedTime = 45 * time.Second
	}
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		return "", err
	}
	return content, nil
}

func truncateBody(b []byte) string {
	const max = 200
	if len(b) > max {
		return string(b[:max]) + "..."
	}
	return string(b)
}
