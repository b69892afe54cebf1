// Package smallest implements the transcription collaborator against the
// smallest.ai Waves lightning API.
package smallest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

const (
	baseURL = "https://waves-api.smallest.ai/api/v1/lightning/get_text"

	defaultModel    = "lightning"
	defaultLanguage = "en"

	requestTimeout = 20 * time.Second
)

type Client struct {
	apiKey   string
	model    string
	language string
	url      string

	httpClient *http.Client
}

type Option func(*Client)

func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

func WithLanguage(language string) Option {
	return func(c *Client) { c.language = language }
}

func NewClient(opts ...Option) (*Client, error) {
	apiKey, ok := os.LookupEnv("SMALLEST_AI_API_KEY")
	if !ok {
		return nil, fmt.Errorf("smallest.ai api key not found")
	}

	client := &Client{
		apiKey:     apiKey,
		model:      defaultModel,
		language:   defaultLanguage,
		url:        baseURL,
		httpClient: &http.Client{Timeout: requestTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Transcribe posts one encoded audio segment and returns its transcription.
func (c *Client) Transcribe(ctx context.Context, audio []byte, contentType string) (string, error) {
	ctx, span := tracer.Start(ctx, "transcribe segment")
	defer span.End()
	span.SetAttributes(attribute.Int("request.audio_bytes", len(audio)))

	transcribeURL, _ := url.Parse(c.url)
	queryParams := transcribeURL.Query()
	queryParams.Set("model", c.model)
	queryParams.Set("language", c.language)
	transcribeURL.RawQuery = queryParams.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, transcribeURL.String(), bytes.NewReader(audio))
	if err != nil {
		return "", fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("transcription failed: non-OK HTTP status %d: %s", resp.StatusCode, detail)
		span.RecordError(err)
		return "", err
	}

	var responseBody transcriptionResponse
	if err := json.NewDecoder(resp.Body).Decode(&responseBody); err != nil {
		return "", fmt.Errorf("error unmarshalling response: %w", err)
	}
	if responseBody.Transcription == "" {
		logger.DebugContext(ctx, "segment produced an empty transcription")
	}

	return responseBody.Transcription, nil
}

type transcriptionResponse struct {
	Transcription string `json:"transcription"`
}
