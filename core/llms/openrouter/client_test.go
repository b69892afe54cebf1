package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AustinNg0321/PulseCall/core/llms"
)

func testClient(serverURL string) *Client {
	return &Client{
		apiKey:     "test-key",
		model:      defaultModel,
		maxTokens:  defaultMaxTokens,
		referer:    "http://localhost:3000",
		title:      "PulseCall",
		url:        serverURL,
		httpClient: &http.Client{Timeout: time.Second},
	}
}

func completionResponse(content string) string {
	return `{"choices": [{"message": {"role": "assistant", "content": ` + marshalString(content) + `}}]}`
}

func marshalString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func TestGenerate(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)

		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("expected bearer auth, got %q", got)
		}
		if got := r.Header.Get("HTTP-Referer"); got != "http://localhost:3000" {
			t.Errorf("expected referer header, got %q", got)
		}
		if got := r.Header.Get("X-Title"); got != "PulseCall" {
			t.Errorf("expected title header, got %q", got)
		}

		var body requestBody
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("expected decodable body, got %v", err)
		}
		if body.Model != defaultModel {
			t.Errorf("expected model %q, got %q", defaultModel, body.Model)
		}
		if body.MaxTokens != defaultMaxTokens {
			t.Errorf("expected max_tokens %d, got %d", defaultMaxTokens, body.MaxTokens)
		}
		if len(body.Messages) != 2 {
			t.Errorf("expected 2 messages, got %d", len(body.Messages))
		}

		w.Write([]byte(completionResponse("  Hello Michael!  ")))
	}))
	defer server.Close()

	client := testClient(server.URL)
	reply, err := client.Generate(context.Background(), []llms.Message{
		{Role: llms.MessageRoleSystem, Content: "You are a nurse assistant."},
		{Role: llms.MessageRoleUser, Content: "Hi."},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if reply != "Hello Michael!" {
		t.Errorf("expected trimmed reply, got %q", reply)
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("expected 1 request, got %d", got)
	}
}

func TestGenerateRetriesOnServerError(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if requests.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(completionResponse("Recovered reply")))
	}))
	defer server.Close()

	client := testClient(server.URL)
	reply, err := client.Generate(context.Background(), []llms.Message{
		{Role: llms.MessageRoleUser, Content: "Hi."},
	})
	if err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if reply != "Recovered reply" {
		t.Errorf("expected recovered reply, got %q", reply)
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("expected 2 requests, got %d", got)
	}
}

func TestGenerateDoesNotRetryClientErrors(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		http.Error(w, "bad api key", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := testClient(server.URL)
	if _, err := client.Generate(context.Background(), nil); err == nil {
		t.Fatal("expected error for unauthorized request")
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("expected 1 request, got %d", got)
	}
}

func TestGenerateEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	}))
	defer server.Close()

	client := testClient(server.URL)
	if _, err := client.Generate(context.Background(), nil); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
