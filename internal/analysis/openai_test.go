package analysis

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func completionBody(content string) string {
	return `{"choices":[{"message":{"content":"` + content + `"}}]}`
}

func TestOpenAIProvider_RetriesTransientFailure(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionBody("{}")))
	}))
	defer srv.Close()

	p := &OpenAIProvider{BaseURL: srv.URL, APIKey: "test-key", Model: "gpt-4o-mini", MaxElapsed: 5 * time.Second}
	out, err := p.Complete(context.Background(), "prompt")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if out != "{}" {
		t.Fatalf("out = %q", out)
	}
	if hits != 2 {
		t.Fatalf("hits = %d, want retry then success", hits)
	}
}

func TestOpenAIProvider_ClientErrorIsNotRetried(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer srv.Close()

	p := &OpenAIProvider{BaseURL: srv.URL, APIKey: "wrong", Model: "gpt-4o-mini", MaxElapsed: 5 * time.Second}
	_, err := p.Complete(context.Background(), "prompt")
	if err == nil {
		t.Fatal("expected error")
	}
	if hits != 1 {
		t.Fatalf("hits = %d, 401 must not be retried", hits)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Fatalf("err = %v", err)
	}
}

func TestOpenAIProvider_Unconfigured(t *testing.T) {
	p := &OpenAIProvider{}
	if _, err := p.Complete(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error for missing config")
	}
}
