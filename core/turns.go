package orchestration

import (
	"fmt"
	"regexp"

	"github.com/AustinNg0321/PulseCall/core/llms"
)

// callOpeningAnnotation is the hidden user message that makes the model speak
// first on a system-initiated call.
const callOpeningAnnotation = "[System Event: The patient has picked up the phone. Start the conversation with STEP 1 immediately.]"

// turnController decides how each outgoing request to the language
// generation collaborator is assembled: which hidden annotation decorates
// the patient utterance, and whether a reply signals the end of the call.
// Annotations decorate the request only; they are never stored in history.
type turnController struct {
	instructions string
}

func newTurnController(instructions string) *turnController {
	return &turnController{instructions: instructions}
}

// TurnNumber derives the 1-based turn index from history length. An empty
// history is turn 1.
func TurnNumber(history []llms.Message) int {
	return len(history)/2 + 1
}

// prepareOpening assembles the request for a system-initiated call: no
// patient utterance exists yet, so the annotation alone triggers step 1.
func (c *turnController) prepareOpening(history []llms.Message) []llms.Message {
	request := c.baseRequest(history)
	return append(request, llms.Message{
		Role:    llms.MessageRoleUser,
		Content: callOpeningAnnotation,
	})
}

// prepareRequest assembles the request for a continuation turn: the full
// prior history plus the new utterance annotated with the current turn index.
func (c *turnController) prepareRequest(history []llms.Message, utterance string) []llms.Message {
	request := c.baseRequest(history)
	return append(request, llms.Message{
		Role:    llms.MessageRoleUser,
		Content: fmt.Sprintf("%s\n\n[System note: This is turn %d. Continue the flow naturally.]", utterance, TurnNumber(history)),
	})
}

func (c *turnController) baseRequest(history []llms.Message) []llms.Message {
	request := make([]llms.Message, 0, len(history)+2)
	request = append(request, llms.Message{Role: llms.MessageRoleSystem, Content: c.instructions})
	return append(request, history...)
}

var endingPhrases = regexp.MustCompile(`(?i)\b(goodbye|good bye|bye|take care|have a (good|great|nice) (day|evening|night|one))\b`)

// IsEnding reports whether a reply reads like a sign-off. This is a phrase
// heuristic, advisory rather than authoritative; the session treats it as the
// end-of-call signal until the model can emit a structured one.
func IsEnding(reply string) bool {
	return endingPhrases.MatchString(reply)
}
