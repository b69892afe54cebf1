package orchestration

import (
	"context"
	"encoding/binary"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AustinNg0321/PulseCall/core/audio"
)

type fakeAudioInput struct {
	mu      sync.Mutex
	onAudio func(audio []byte)
	stops   atomic.Int32
}

func (f *fakeAudioInput) StartCapture(_ context.Context, onAudio func(audio []byte)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.onAudio = onAudio
	return nil
}

func (f *fakeAudioInput) StopCapture() error {
	f.stops.Add(1)
	return nil
}

func (f *fakeAudioInput) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

func (f *fakeAudioInput) deliver(chunk []byte) {
	f.mu.Lock()
	onAudio := f.onAudio
	f.mu.Unlock()
	if onAudio != nil {
		onAudio(chunk)
	}
}

func pcmChunk(amplitude int16, samples int) []byte {
	chunk := make([]byte, samples*2)
	for i := 0; i < samples; i++ {
		binary.LittleEndian.PutUint16(chunk[i*2:], uint16(amplitude))
	}
	return chunk
}

func TestUtteranceRecorderFinalizesAfterSilence(t *testing.T) {
	input := &fakeAudioInput{}
	recorder := newUtteranceRecorder(input, 80*time.Millisecond, 500.0)

	done := make(chan struct{})
	var utterance []byte
	var recordErr error
	go func() {
		defer close(done)
		utterance, recordErr = recorder.Record(context.Background())
	}()

	// Wait for the capture callback to be installed.
	deadline := time.Now().Add(time.Second)
	for {
		input.mu.Lock()
		installed := input.onAudio != nil
		input.mu.Unlock()
		if installed {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("expected capture to start")
		}
		time.Sleep(5 * time.Millisecond)
	}

	loud := pcmChunk(2000, 160)
	quiet := pcmChunk(0, 160)
	input.deliver(loud)
	input.deliver(quiet)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("expected recorder to finalize after silence window")
	}

	if recordErr != nil {
		t.Fatalf("expected no error, got %v", recordErr)
	}
	if len(utterance) != len(loud)+len(quiet) {
		t.Errorf("expected %d bytes of audio, got %d", len(loud)+len(quiet), len(utterance))
	}
	if got := input.stops.Load(); got != 1 {
		t.Errorf("expected capture to be stopped once, got %d stops", got)
	}

	// Audio arriving after finalization must be dropped.
	input.deliver(loud)
	recorder.mu.Lock()
	leftover := len(recorder.buffer)
	recorder.mu.Unlock()
	if leftover != 0 {
		t.Errorf("expected no audio buffered after finalization, got %d bytes", leftover)
	}
}

func TestUtteranceRecorderSilenceTimerArmsOnVoice(t *testing.T) {
	input := &fakeAudioInput{}
	recorder := newUtteranceRecorder(input, 60*time.Millisecond, 500.0)

	done := make(chan struct{})
	go func() {
		defer close(done)
		recorder.Record(context.Background())
	}()

	time.Sleep(20 * time.Millisecond)
	for i := 0; i < 5; i++ {
		input.deliver(pcmChunk(0, 160))
		time.Sleep(30 * time.Millisecond)
	}

	select {
	case <-done:
		t.Fatal("expected recorder not to finalize before voice is heard")
	default:
	}

	recorder.Abort()
	<-done
}

func TestUtteranceRecorderAbortReturnsEmpty(t *testing.T) {
	input := &fakeAudioInput{}
	recorder := newUtteranceRecorder(input, time.Second, 500.0)

	done := make(chan struct{})
	var utterance []byte
	var recordErr error
	go func() {
		defer close(done)
		utterance, recordErr = recorder.Record(context.Background())
	}()

	time.Sleep(20 * time.Millisecond)
	recorder.Abort()
	recorder.Abort() // second abort is a no-op

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected aborted recorder to return")
	}

	if recordErr != nil {
		t.Fatalf("expected no error, got %v", recordErr)
	}
	if len(utterance) != 0 {
		t.Errorf("expected empty utterance, got %d bytes", len(utterance))
	}
	if got := input.stops.Load(); got != 1 {
		t.Errorf("expected capture to be stopped once, got %d stops", got)
	}
}

func TestUtteranceRecorderContextCancellation(t *testing.T) {
	input := &fakeAudioInput{}
	recorder := newUtteranceRecorder(input, time.Second, 500.0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	var recordErr error
	go func() {
		defer close(done)
		_, recordErr = recorder.Record(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("expected cancelled recorder to return")
	}

	if recordErr != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", recordErr)
	}
	if got := input.stops.Load(); got != 1 {
		t.Errorf("expected capture to be stopped once, got %d stops", got)
	}
}
