package orchestration

import (
	"context"

	"github.com/AustinNg0321/PulseCall/core/llms"
)

// Generator produces the next assistant message for a conversation. Both the
// call loop and the summarizer speak to the language generation collaborator
// through it.
type Generator interface {
	Generate(ctx context.Context, messages []llms.Message) (string, error)
}
