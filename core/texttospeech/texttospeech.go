// Package texttospeech defines the contract for the speech synthesis
// collaborator: one assistant utterance in, playable audio bytes out.
package texttospeech

import "context"

// Client renders one assistant utterance into audio. A failure degrades the
// call to text-only; the session keeps going without audio.
type Client interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}
