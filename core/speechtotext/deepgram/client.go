// Package deepgram implements the transcription collaborator through the
// Deepgram prerecorded API, as an alternative to the smallest.ai client.
package deepgram

import (
	"bytes"
	"context"
	"fmt"
	"os"

	listenv1rest "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/rest"
	clientinterfaces "github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces"
	listen "github.com/deepgram/deepgram-go-sdk/pkg/client/listen"
)

type Client struct {
	rest *listenv1rest.Client

	model    string
	language string
}

type Option func(*Client)

func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

func WithLanguage(language string) Option {
	return func(c *Client) { c.language = language }
}

func NewClient(opts ...Option) (*Client, error) {
	apiKey, ok := os.LookupEnv("DEEPGRAM_API_KEY")
	if !ok {
		return nil, fmt.Errorf("deepgram api key not found")
	}

	client := &Client{
		rest:     listenv1rest.New(listen.NewREST(apiKey, &clientinterfaces.ClientOptions{})),
		model:    "nova-3",
		language: "en-US",
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Transcribe submits one finalized utterance segment. The content type is
// implied by the stream payload; Deepgram sniffs the container itself.
func (c *Client) Transcribe(ctx context.Context, audio []byte, _ string) (string, error) {
	response, err := c.rest.FromStream(ctx, bytes.NewReader(audio), &clientinterfaces.PreRecordedTranscriptionOptions{
		Model:       c.model,
		Language:    c.language,
		SmartFormat: true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to transcribe segment: %w", err)
	}

	if len(response.Results.Channels) == 0 || len(response.Results.Channels[0].Alternatives) == 0 {
		return "", fmt.Errorf("transcription response carried no alternatives")
	}

	return response.Results.Channels[0].Alternatives[0].Transcript, nil
}
