// Package openrouter implements the language generation collaborator against
// the OpenRouter chat-completions API.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AustinNg0321/PulseCall/core/llms"
)

const (
	url = "https://openrouter.ai/api/v1/chat/completions"

	defaultModel     = "meta-llama/llama-3.3-70b-instruct:free"
	defaultMaxTokens = 300

	requestTimeout = 30 * time.Second
	// retryDelay spaces the single retry attempted on a transient upstream
	// failure.
	retryDelay = 500 * time.Millisecond
)

type Client struct {
	apiKey    string
	model     string
	maxTokens int
	referer   string
	title     string
	url       string

	httpClient *http.Client
}

type Option func(*Client)

func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

func WithMaxTokens(maxTokens int) Option {
	return func(c *Client) { c.maxTokens = maxTokens }
}

// WithAppAttribution sets the HTTP-Referer and X-Title headers OpenRouter
// uses for app rankings.
func WithAppAttribution(referer, title string) Option {
	return func(c *Client) {
		c.referer = referer
		c.title = title
	}
}

func NewClient(opts ...Option) (*Client, error) {
	apiKey, ok := os.LookupEnv("OPENROUTER_API_KEY")
	if !ok {
		return nil, fmt.Errorf("openrouter api key not found")
	}

	client := &Client{
		apiKey:     apiKey,
		model:      defaultModel,
		maxTokens:  defaultMaxTokens,
		url:        url,
		httpClient: &http.Client{Timeout: requestTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Generate sends the assembled request and returns the next assistant
// utterance. One retry is attempted on a 5xx status; any other non-OK status
// is a hard failure for the call.
func (c *Client) Generate(ctx context.Context, messages []llms.Message) (string, error) {
	ctx, span := tracer.Start(ctx, "generate reply")
	defer span.End()
	span.SetAttributes(attribute.String("request.model", c.model))

	reply, err := c.generateOnce(ctx, messages)
	if err != nil && isTransient(err) {
		logger.WarnContext(ctx, "retrying generation after transient failure", "error", err)
		select {
		case <-time.After(retryDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
		reply, err = c.generateOnce(ctx, messages)
	}
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	return reply, nil
}

func (c *Client) generateOnce(ctx context.Context, messages []llms.Message) (string, error) {
	reqBody := requestBody{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages:  toMessages(messages),
	}

	requestBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return "", fmt.Errorf("error creating HTTP request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.title != "" {
		req.Header.Set("X-Title", c.title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", &statusError{status: resp.StatusCode, body: string(body)}
	}

	respBodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response body: %w", err)
	}

	var responseBody completionsResponseBody
	if err := json.Unmarshal(respBodyBytes, &responseBody); err != nil {
		return "", fmt.Errorf("error unmarshalling response: %w", err)
	}
	if len(responseBody.Choices) == 0 {
		return "", fmt.Errorf("response carried no choices")
	}

	return strings.TrimSpace(responseBody.Choices[0].Message.Content), nil
}

type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("non-OK HTTP status: %d: %s", e.status, e.body)
}

func isTransient(err error) bool {
	statusErr, ok := err.(*statusError)
	return ok && statusErr.status >= http.StatusInternalServerError
}

func toMessages(messages []llms.Message) []message {
	out := make([]message, 0, len(messages))
	for _, msg := range messages {
		out = append(out, message{Role: messageRole(msg.Role), Content: msg.Content})
	}
	return out
}

type message struct {
	Role    messageRole `json:"role"`
	Content string      `json:"content"`
}

type messageRole string

type requestBody struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	Messages  []message `json:"messages"`
}

type completionsResponseBody struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role,omitempty"`
			Content string `json:"content,omitempty"`
		} `json:"message"`
	} `json:"choices"`
}
