package orchestration

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/AustinNg0321/PulseCall/core/audio"
)

const (
	defaultSilenceWindow    = 900 * time.Millisecond
	defaultSilenceThreshold = 500.0

	silencePollInterval = 30 * time.Millisecond
)

// AudioInput streams microphone audio to a callback until stopped.
type AudioInput interface {
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
	EncodingInfo() audio.EncodingInfo
}

// AudioOutput plays synthesized audio, blocking until playback drains or is
// stopped.
type AudioOutput interface {
	Play(ctx context.Context, audio []byte) error
	StopPlayback() error
}

// utteranceRecorder captures a single patient utterance: it accumulates audio
// from the input device and finalizes once the signal has stayed below the
// energy threshold for the configured window. The silence timer arms only
// after voice is first heard, so a patient thinking before speaking does not
// produce an empty utterance.
type utteranceRecorder struct {
	input AudioInput

	silenceWindow    time.Duration
	silenceThreshold float64

	mu         sync.Mutex
	buffer     []byte
	lastVoice  time.Time
	heardVoice bool

	finalized atomic.Bool
	result    chan []byte
}

func newUtteranceRecorder(input AudioInput, silenceWindow time.Duration, silenceThreshold float64) *utteranceRecorder {
	if silenceWindow <= 0 {
		silenceWindow = defaultSilenceWindow
	}
	if silenceThreshold <= 0 {
		silenceThreshold = defaultSilenceThreshold
	}

	return &utteranceRecorder{
		input:            input,
		silenceWindow:    silenceWindow,
		silenceThreshold: silenceThreshold,
		result:           make(chan []byte, 1),
	}
}

// Record blocks until an utterance finalizes, the recorder is aborted, or ctx
// expires. The input device is stopped on every return path. The returned
// audio may be empty when the recorder was aborted before voice was heard;
// callers decide whether to re-arm.
func (r *utteranceRecorder) Record(ctx context.Context) ([]byte, error) {
	if err := r.input.StartCapture(ctx, r.onAudio); err != nil {
		return nil, fmt.Errorf("failed to start audio capture: %w", err)
	}

	go r.watchSilence(ctx)

	select {
	case utterance := <-r.result:
		return utterance, nil
	case <-ctx.Done():
		r.finalize()
		return nil, ctx.Err()
	}
}

// Abort finalizes the recorder with whatever audio has accumulated, stopping
// the input device. Safe to call from any goroutine and more than once.
func (r *utteranceRecorder) Abort() {
	r.finalize()
}

func (r *utteranceRecorder) onAudio(chunk []byte) {
	if r.finalized.Load() || len(chunk) == 0 {
		return
	}

	loud := audio.RMS(chunk, r.input.EncodingInfo()) >= r.silenceThreshold

	r.mu.Lock()
	defer r.mu.Unlock()
	r.buffer = append(r.buffer, chunk...)
	if loud {
		r.lastVoice = time.Now()
		r.heardVoice = true
	}
}

func (r *utteranceRecorder) watchSilence(ctx context.Context) {
	ticker := time.NewTicker(silencePollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if r.finalized.Load() {
			return
		}

		r.mu.Lock()
		quiet := r.heardVoice && time.Since(r.lastVoice) >= r.silenceWindow
		r.mu.Unlock()

		if quiet {
			r.finalize()
			return
		}
	}
}

func (r *utteranceRecorder) finalize() {
	if !r.finalized.CompareAndSwap(false, true) {
		return
	}

	if err := r.input.StopCapture(); err != nil {
		logger.Warn(fmt.Sprintf("Failed to stop audio capture: %v", err))
	}

	r.mu.Lock()
	utterance := r.buffer
	r.buffer = nil
	r.mu.Unlock()

	r.result <- utterance
}
