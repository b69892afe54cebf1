package smallest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func testClient(serverURL string) *Client {
	return &Client{
		apiKey:       "test-key",
		voiceID:      defaultVoiceID,
		sampleRate:   defaultSampleRate,
		speed:        defaultSpeed,
		outputFormat: defaultOutputFormat,
		url:          serverURL,
		httpClient:   &http.Client{Timeout: time.Second},
	}
}

func TestSynthesize(t *testing.T) {
	wav := []byte{0x52, 0x49, 0x46, 0x46, 0x00, 0x01}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("expected bearer auth, got %q", got)
		}

		var body speechRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("expected decodable body, got %v", err)
		}
		if body.Text != "Hello Michael." {
			t.Errorf("expected text in request, got %q", body.Text)
		}
		if body.VoiceID != defaultVoiceID {
			t.Errorf("expected voice %q, got %q", defaultVoiceID, body.VoiceID)
		}
		if body.SampleRate != defaultSampleRate {
			t.Errorf("expected sample rate %d, got %d", defaultSampleRate, body.SampleRate)
		}
		if body.OutputFormat != "wav" {
			t.Errorf("expected wav output, got %q", body.OutputFormat)
		}

		w.Write(wav)
	}))
	defer server.Close()

	client := testClient(server.URL)
	speech, err := client.Synthesize(context.Background(), "Hello Michael.")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !bytes.Equal(speech, wav) {
		t.Errorf("expected raw audio bytes, got %v", speech)
	}
}

func TestSynthesizeEmptyTextSkipsRequest(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
	}))
	defer server.Close()

	client := testClient(server.URL)
	speech, err := client.Synthesize(context.Background(), "")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if speech != nil {
		t.Errorf("expected no audio, got %d bytes", len(speech))
	}
	if got := requests.Load(); got != 0 {
		t.Errorf("expected no requests, got %d", got)
	}
}

func TestSynthesizeNonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "voice not found", http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient(server.URL)
	if _, err := client.Synthesize(context.Background(), "Hello."); err == nil {
		t.Fatal("expected error for non-OK status")
	}
}
