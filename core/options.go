package orchestration

import (
	"time"

	"github.com/AustinNg0321/PulseCall/core/speechtotext"
	"github.com/AustinNg0321/PulseCall/core/texttospeech"
)

type CallSessionOption func(*CallSession)

func WithAudioInput(client AudioInput) CallSessionOption {
	return func(s *CallSession) { s.audioInput = client }
}

func WithAudioOutput(client AudioOutput) CallSessionOption {
	return func(s *CallSession) { s.audioOutput = client }
}

func WithTranscriber(client speechtotext.Client) CallSessionOption {
	return func(s *CallSession) { s.transcriber = client }
}

func WithSynthesizer(client texttospeech.Client) CallSessionOption {
	return func(s *CallSession) { s.synthesizer = client }
}

func WithGenerator(client Generator) CallSessionOption {
	return func(s *CallSession) { s.generator = client }
}

func WithSummarizer(summarizer *Summarizer) CallSessionOption {
	return func(s *CallSession) { s.summarizer = summarizer }
}

// WithSystemInitiated controls who speaks first. When true (the default) the
// assistant opens the call as soon as it is answered; when false the session
// waits for the patient.
func WithSystemInitiated(systemInitiated bool) CallSessionOption {
	return func(s *CallSession) { s.systemInitiated = systemInitiated }
}

// WithAudioContentType sets the MIME type reported to the transcriber for
// captured audio.
func WithAudioContentType(contentType string) CallSessionOption {
	return func(s *CallSession) { s.audioContentType = contentType }
}

// WithSilenceWindow sets how long the patient must stay quiet before their
// utterance is considered finished.
func WithSilenceWindow(window time.Duration) CallSessionOption {
	return func(s *CallSession) { s.silenceWindow = window }
}

// WithSilenceThreshold sets the RMS energy below which captured audio counts
// as silence.
func WithSilenceThreshold(threshold float64) CallSessionOption {
	return func(s *CallSession) { s.silenceThreshold = threshold }
}

// WithEscalationKeywords sets the keywords scanned for in the transcript when
// the post-call report is built.
func WithEscalationKeywords(keywords ...string) CallSessionOption {
	return func(s *CallSession) { s.escalationKeywords = keywords }
}

func WithStateChangedCallback(callback func(state CallState)) CallSessionOption {
	return func(s *CallSession) { s.onStateChanged = callback }
}

func WithTranscriptionCallback(callback func(transcript string)) CallSessionOption {
	return func(s *CallSession) { s.onTranscription = callback }
}

func WithReplyCallback(callback func(reply string)) CallSessionOption {
	return func(s *CallSession) { s.onReply = callback }
}

// WithAudioCallback registers a callback for synthesized audio about to be
// played. The slice is passed through without a defensive copy.
func WithAudioCallback(callback func(audio []byte)) CallSessionOption {
	return func(s *CallSession) { s.onAudio = callback }
}

func WithReportCallback(callback func(report *CallReport)) CallSessionOption {
	return func(s *CallSession) { s.onReport = callback }
}
