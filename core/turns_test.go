package orchestration

import (
	"strings"
	"testing"

	"github.com/AustinNg0321/PulseCall/core/llms"
)

func TestTurnNumber(t *testing.T) {
	cases := []struct {
		historyLen int
		expected   int
	}{
		{0, 1},
		{1, 1},
		{2, 2},
		{3, 2},
		{4, 3},
		{10, 6},
	}

	for _, c := range cases {
		history := make([]llms.Message, c.historyLen)
		if got := TurnNumber(history); got != c.expected {
			t.Errorf("expected turn %d for history of %d messages, got %d", c.expected, c.historyLen, got)
		}
	}
}

func TestPrepareOpening(t *testing.T) {
	controller := newTurnController("You are a nurse assistant.")

	request := controller.prepareOpening(nil)
	if len(request) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(request))
	}
	if request[0].Role != llms.MessageRoleSystem {
		t.Errorf("expected system message first, got role %q", request[0].Role)
	}
	if request[1].Role != llms.MessageRoleUser {
		t.Errorf("expected user message second, got role %q", request[1].Role)
	}
	if !strings.Contains(request[1].Content, "picked up the phone") {
		t.Errorf("expected opening annotation, got %q", request[1].Content)
	}
	if !strings.Contains(request[1].Content, "STEP 1") {
		t.Errorf("expected step 1 trigger in annotation, got %q", request[1].Content)
	}
}

func TestPrepareRequest(t *testing.T) {
	controller := newTurnController("You are a nurse assistant.")
	history := []llms.Message{
		{Role: llms.MessageRoleAssistant, Content: "Hello, this is a check-in call."},
		{Role: llms.MessageRoleUser, Content: "Hi."},
	}

	request := controller.prepareRequest(history, "My knee hurts a bit.")
	if len(request) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(request))
	}
	last := request[len(request)-1]
	if !strings.HasPrefix(last.Content, "My knee hurts a bit.") {
		t.Errorf("expected utterance first in annotated message, got %q", last.Content)
	}
	if !strings.Contains(last.Content, "[System note: This is turn 2.") {
		t.Errorf("expected turn 2 annotation, got %q", last.Content)
	}

	// History passed in must stay untouched.
	if len(history) != 2 {
		t.Errorf("expected history to keep 2 messages, got %d", len(history))
	}
	for _, message := range history {
		if strings.Contains(message.Content, "[System note:") {
			t.Errorf("expected no annotation in history, found %q", message.Content)
		}
	}
}

func TestIsEnding(t *testing.T) {
	cases := []struct {
		reply    string
		expected bool
	}{
		{"Take care and have a great day!", true},
		{"Goodbye, Michael.", true},
		{"BYE", true},
		{"Alright, have a good one.", true},
		{"good bye now", true},
		{"How are you feeling today?", false},
		{"Your goodbyes are premature.", false},
		{"The bypass surgery went well.", false},
		{"", false},
	}

	for _, c := range cases {
		if got := IsEnding(c.reply); got != c.expected {
			t.Errorf("expected IsEnding(%q) = %v, got %v", c.reply, c.expected, got)
		}
	}
}
