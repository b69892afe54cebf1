package orchestration

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AustinNg0321/PulseCall/core/audio"
	"github.com/AustinNg0321/PulseCall/core/llms"
	"github.com/AustinNg0321/PulseCall/core/patients"
	"github.com/AustinNg0321/PulseCall/core/speechtotext"
	"github.com/AustinNg0321/PulseCall/core/texttospeech"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type CallState string

const (
	CallStateRinging   CallState = "ringing"
	CallStateConnected CallState = "connected"
	CallStateEnded     CallState = "ended"
)

const defaultAudioContentType = "audio/wav"

// CallSession runs one outbound check-in call with a patient: it captures
// utterances, transcribes them, generates replies from the compiled call
// instructions, speaks them, and produces a post-call report once the call
// ends.
type CallSession struct {
	id      string
	patient patients.Record
	turns   *turnController

	audioInput  AudioInput
	audioOutput AudioOutput
	transcriber speechtotext.Client
	synthesizer texttospeech.Client
	generator   Generator
	summarizer  *Summarizer

	systemInitiated    bool
	audioContentType   string
	silenceWindow      time.Duration
	silenceThreshold   float64
	escalationKeywords []string

	onStateChanged  func(state CallState)
	onTranscription func(transcript string)
	onReply         func(reply string)
	onAudio         func(audio []byte)
	onReport        func(report *CallReport)

	mu        sync.Mutex
	state     CallState
	history   []llms.Message
	startedAt time.Time
	endedAt   time.Time
	recorder  *utteranceRecorder
	cancel    context.CancelFunc

	hungUp atomic.Bool

	reportOnce sync.Once
	report     *CallReport
	reportErr  error
	done       chan struct{}
}

func NewCallSession(patient patients.Record, opts ...CallSessionOption) *CallSession {
	s := &CallSession{
		id:               uuid.NewString(),
		patient:          patient,
		turns:            newTurnController(CompileScript(patient)),
		systemInitiated:  true,
		audioContentType: defaultAudioContentType,
		state:            CallStateRinging,
		done:             make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

func (s *CallSession) ID() string { return s.id }

// Patient returns an independent copy of the patient record the call was
// built for.
func (s *CallSession) Patient() patients.Record { return s.patient.Snapshot() }

func (s *CallSession) State() CallState {
	if s == nil {
		return CallStateEnded
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// History returns a point-in-time copy of the exchanged messages. Hidden
// request annotations never appear here.
func (s *CallSession) History() []llms.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := make([]llms.Message, len(s.history))
	copy(history, s.history)
	return history
}

func (s *CallSession) StartedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startedAt
}

func (s *CallSession) EndedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.endedAt
}

// Turn returns the 1-based index of the current conversation turn.
func (s *CallSession) Turn() int { return TurnNumber(s.History()) }

// Answer connects the call and runs the conversation loop until the
// assistant signs off, the patient hangs up, or an unrecoverable error
// occurs. It returns once the call has ended and the post-call report has
// been produced. Call Answer at most once per session.
func (s *CallSession) Answer(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "answer call")
	defer span.End()

	if err := s.validate(); err != nil {
		span.RecordError(err)
		return err
	}

	s.mu.Lock()
	if s.state != CallStateRinging {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("cannot answer a call that is %s", state)
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.startedAt = time.Now()
	s.mu.Unlock()
	defer cancel()

	s.setState(CallStateConnected)

	loopErr := s.run(ctx)
	if loopErr != nil {
		span.RecordError(loopErr)
	}

	s.mu.Lock()
	s.endedAt = time.Now()
	s.mu.Unlock()
	s.setState(CallStateEnded)

	// Summarization must survive a cancelled call context.
	s.finishReport(context.WithoutCancel(ctx))

	return loopErr
}

// Hangup ends the call immediately: playback and capture stop and the
// conversation loop unwinds. Safe to call from any goroutine, in any phase,
// more than once.
func (s *CallSession) Hangup() {
	if s == nil || !s.hungUp.CompareAndSwap(false, true) {
		return
	}

	s.mu.Lock()
	cancel := s.cancel
	recorder := s.recorder
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if recorder != nil {
		recorder.Abort()
	}
	if s.audioOutput != nil {
		if err := s.audioOutput.StopPlayback(); err != nil {
			logger.Warn(fmt.Sprintf("Failed to stop playback on hangup: %v", err))
		}
	}
	if s.audioInput != nil {
		if err := s.audioInput.StopCapture(); err != nil {
			logger.Warn(fmt.Sprintf("Failed to stop capture on hangup: %v", err))
		}
	}

	// A call hung up before it was answered still ends.
	if cancel == nil {
		s.mu.Lock()
		s.endedAt = time.Now()
		s.mu.Unlock()
		s.setState(CallStateEnded)
		s.finishReport(context.Background())
	}
}

// AwaitReport blocks until the post-call report is available. The report is
// non-nil whenever any messages were exchanged, even when structured
// summarization failed; the error reports why the summary is missing or
// incomplete.
func (s *CallSession) AwaitReport() (*CallReport, error) {
	<-s.done
	return s.report, s.reportErr
}

func (s *CallSession) validate() error {
	var errs error
	if s.generator == nil {
		errs = errors.Join(errs, errors.New("no language generator configured"))
	}
	if s.audioInput == nil {
		errs = errors.Join(errs, errors.New("no audio input configured"))
	}
	if s.audioOutput == nil {
		errs = errors.Join(errs, errors.New("no audio output configured"))
	}
	if s.transcriber == nil {
		errs = errors.Join(errs, errors.New("no transcriber configured"))
	}
	if s.synthesizer == nil {
		errs = errors.Join(errs, errors.New("no synthesizer configured"))
	}
	return errs
}

func (s *CallSession) run(ctx context.Context) error {
	if s.systemInitiated {
		reply, err := s.generator.Generate(ctx, s.turns.prepareOpening(s.History()))
		if err != nil {
			if s.hungUp.Load() {
				return nil
			}
			return fmt.Errorf("failed to generate opening: %w", err)
		}
		s.append(llms.MessageRoleAssistant, reply)
		if s.onReply != nil {
			s.onReply(reply)
		}
		ending := IsEnding(reply)
		s.speak(ctx, reply)
		if ending {
			return nil
		}
	}

	for {
		if s.hungUp.Load() || ctx.Err() != nil {
			return nil
		}

		utterance, err := s.capture(ctx)
		if err != nil {
			if s.hungUp.Load() || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
		if len(utterance) == 0 || s.hungUp.Load() {
			continue
		}

		transcript, err := s.transcriber.Transcribe(ctx, utterance, s.audioContentType)
		if err != nil {
			if s.hungUp.Load() {
				return nil
			}
			logger.Warn(fmt.Sprintf("Failed to transcribe utterance, listening again: %v", err))
			continue
		}
		transcript = strings.TrimSpace(transcript)
		if transcript == "" {
			continue
		}

		request := s.turns.prepareRequest(s.History(), transcript)
		s.append(llms.MessageRoleUser, transcript)
		if s.onTranscription != nil {
			s.onTranscription(transcript)
		}

		reply, err := s.generator.Generate(ctx, request)
		if err != nil {
			if s.hungUp.Load() {
				return nil
			}
			return fmt.Errorf("failed to generate reply: %w", err)
		}
		s.append(llms.MessageRoleAssistant, reply)
		if s.onReply != nil {
			s.onReply(reply)
		}

		ending := IsEnding(reply)
		s.speak(ctx, reply)
		if ending || s.hungUp.Load() {
			return nil
		}
	}
}

func (s *CallSession) capture(ctx context.Context) ([]byte, error) {
	recorder := newUtteranceRecorder(s.audioInput, s.silenceWindow, s.silenceThreshold)

	s.mu.Lock()
	s.recorder = recorder
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.recorder = nil
		s.mu.Unlock()
	}()

	// Hangup can race recorder registration; abort rather than record into a
	// dead call.
	if s.hungUp.Load() {
		recorder.Abort()
		return nil, nil
	}

	return recorder.Record(ctx)
}

// speak synthesizes and plays a reply. Synthesis and playback failures
// degrade the call to text rather than ending it; the reply is already part
// of the conversation.
func (s *CallSession) speak(ctx context.Context, reply string) {
	speech, err := s.synthesizer.Synthesize(ctx, reply)
	if err != nil {
		logger.Warn(fmt.Sprintf("Failed to synthesize reply, continuing without audio: %v", err))
		return
	}
	if len(speech) == 0 {
		return
	}

	speech = audio.TrimWAVHeader(speech)
	if s.onAudio != nil {
		s.onAudio(speech)
	}

	if err := s.audioOutput.Play(ctx, speech); err != nil && !errors.Is(err, context.Canceled) {
		logger.Warn(fmt.Sprintf("Failed to play reply: %v", err))
	}
}

func (s *CallSession) append(role llms.MessageRole, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, llms.Message{Role: role, Content: content})
}

func (s *CallSession) setState(state CallState) {
	s.mu.Lock()
	if s.state == state {
		s.mu.Unlock()
		return
	}
	s.state = state
	s.mu.Unlock()

	if s.onStateChanged != nil {
		s.onStateChanged(state)
	}
}

func (s *CallSession) finishReport(ctx context.Context) {
	s.reportOnce.Do(func() {
		defer close(s.done)

		history := s.History()
		if len(history) == 0 {
			s.reportErr = errors.New("call ended with no conversation")
			return
		}

		var summary *CallSummary
		if s.summarizer != nil {
			var err error
			summary, err = s.summarizer.Summarize(ctx, history)
			if err != nil {
				recordedErr := fmt.Errorf("failed to summarize call: %w", err)
				span := trace.SpanFromContext(ctx)
				span.RecordError(recordedErr)
				span.SetStatus(codes.Error, recordedErr.Error())
				s.reportErr = err
			}
		}

		report := BuildReport(summary, history, s.escalationKeywords)
		report.ID = s.id
		s.mu.Lock()
		report.StartedAt = s.startedAt
		report.EndedAt = s.endedAt
		s.mu.Unlock()

		s.report = report
		if s.onReport != nil {
			s.onReport(report)
		}
	})
}
