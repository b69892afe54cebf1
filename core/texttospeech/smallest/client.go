// Package smallest implements the speech synthesis collaborator against the
// smallest.ai Waves lightning API.
package smallest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
)

const (
	url = "https://waves-api.smallest.ai/api/v1/lightning-v3.1/get_speech"

	defaultVoiceID      = "rachel"
	defaultSampleRate   = 16000
	defaultSpeed        = 1.0
	defaultOutputFormat = "wav"

	requestTimeout = 20 * time.Second
)

type Client struct {
	apiKey       string
	voiceID      string
	sampleRate   int
	speed        float64
	outputFormat string
	url          string

	httpClient *http.Client
}

type Option func(*Client)

func WithVoice(voiceID string) Option {
	return func(c *Client) { c.voiceID = voiceID }
}

func WithSampleRate(sampleRate int) Option {
	return func(c *Client) { c.sampleRate = sampleRate }
}

func WithSpeed(speed float64) Option {
	return func(c *Client) { c.speed = speed }
}

// WithOutputFormat selects the container for the returned audio, e.g. "wav"
// for raw playback devices or "mp3" for browser delivery.
func WithOutputFormat(outputFormat string) Option {
	return func(c *Client) { c.outputFormat = outputFormat }
}

func NewClient(opts ...Option) (*Client, error) {
	apiKey, ok := os.LookupEnv("SMALLEST_AI_API_KEY")
	if !ok {
		return nil, fmt.Errorf("smallest.ai api key not found")
	}

	client := &Client{
		apiKey:       apiKey,
		voiceID:      defaultVoiceID,
		sampleRate:   defaultSampleRate,
		speed:        defaultSpeed,
		outputFormat: defaultOutputFormat,
		url:          url,
		httpClient:   &http.Client{Timeout: requestTimeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Synthesize renders one utterance into audio bytes. An empty utterance
// yields no audio without contacting the API.
func (c *Client) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if text == "" {
		return nil, nil
	}

	ctx, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()
	span.SetAttributes(attribute.String("request.voice_id", c.voiceID))

	reqBody := speechRequest{
		Text:         text,
		VoiceID:      c.voiceID,
		SampleRate:   c.sampleRate,
		Speed:        c.speed,
		OutputFormat: c.outputFormat,
	}
	requestBodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("error marshalling JSON: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(requestBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("response.status_code", resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(resp.Body)
		err := fmt.Errorf("synthesis failed: non-OK HTTP status %d: %s", resp.StatusCode, detail)
		span.RecordError(err)
		return nil, err
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading audio body: %w", err)
	}

	logger.DebugContext(ctx, "synthesized utterance", "bytes", len(audio))
	return audio, nil
}

type speechRequest struct {
	Text         string  `json:"text"`
	VoiceID      string  `json:"voice_id"`
	SampleRate   int     `json:"sample_rate"`
	Speed        float64 `json:"speed"`
	OutputFormat string  `json:"output_format"`
}
