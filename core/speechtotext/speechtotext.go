// Package speechtotext defines the contract for the transcription
// collaborator: one finalized audio segment in, one transcript out.
package speechtotext

import "context"

// Client converts a single recorded utterance into text. A failure is
// recoverable at the call level: the session re-arms capture and the patient
// simply speaks again.
type Client interface {
	Transcribe(ctx context.Context, audio []byte, contentType string) (string, error)
}
