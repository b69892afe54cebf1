package orchestration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AustinNg0321/PulseCall/core/llms"
	"github.com/invopop/jsonschema"
)

// ErrNoSummaryJSON is returned when the summarizer's collaborator produced no
// parseable JSON object.
var ErrNoSummaryJSON = errors.New("no JSON object found in summary response")

// CallSummary is the structured clinical readout of a finished call. Pointer
// fields distinguish "not mentioned" from a zero value.
type CallSummary struct {
	PainLevel      *int     `json:"painLevel" jsonschema:"title=Pain Level,description=Pain level 1-10 or null if not mentioned"`
	Symptoms       []string `json:"symptoms" jsonschema:"title=Symptoms,description=Symptoms the patient reported"`
	PTExercise     *bool    `json:"ptExercise" jsonschema:"title=PT Exercise,description=Whether the patient is doing physical therapy exercises or null if not discussed"`
	Medications    string   `json:"medications" jsonschema:"title=Medications,description=Any medication updates or compliance notes"`
	Concerns       string   `json:"concerns" jsonschema:"title=Concerns,description=What the patient asked about or was worried about"`
	Recommendation string   `json:"recommendation" jsonschema:"title=Recommendation,description=Key advice given during the call"`
	FollowUp       string   `json:"followUp" jsonschema:"title=Follow Up,description=Any follow-up actions needed"`
	Summary        string   `json:"summary" jsonschema:"title=Summary,description=2-3 sentence overall summary of the call"`
}

// CallReport wraps a summary with the triage signals derived locally from the
// transcript, so a reviewer can act on a call without reading it. Summary may
// be nil when structured extraction failed; the local signals are still
// computed.
type CallReport struct {
	ID        string
	StartedAt time.Time
	EndedAt   time.Time

	Summary           *CallSummary
	DetectedFlags     []string
	SentimentScore    int
	RecommendedAction string
}

// Summarizer condenses a call transcript into a CallSummary using a language
// generation collaborator.
type Summarizer struct {
	generator Generator
}

func NewSummarizer(generator Generator) *Summarizer {
	return &Summarizer{generator: generator}
}

// Summarize produces the structured summary for a finished call. An empty
// history is an error; calls with no exchanges have nothing to summarize.
func (s *Summarizer) Summarize(ctx context.Context, history []llms.Message) (*CallSummary, error) {
	ctx, span := tracer.Start(ctx, "summarize call")
	defer span.End()

	if s == nil || s.generator == nil {
		return nil, errors.New("summarizer is not configured")
	}
	if len(history) == 0 {
		return nil, errors.New("no conversation history to summarize")
	}

	response, err := s.generator.Generate(ctx, []llms.Message{
		{Role: llms.MessageRoleSystem, Content: summaryInstructions()},
		{Role: llms.MessageRoleUser, Content: renderConversation(history)},
	})
	if err != nil {
		err = fmt.Errorf("failed to generate summary: %w", err)
		span.RecordError(err)
		return nil, err
	}

	raw, ok := extractJSONObject(response)
	if !ok {
		span.RecordError(ErrNoSummaryJSON)
		return nil, ErrNoSummaryJSON
	}

	var summary CallSummary
	if err := json.Unmarshal([]byte(raw), &summary); err != nil {
		err = fmt.Errorf("failed to parse summary JSON: %w", err)
		span.RecordError(err)
		return nil, err
	}

	return &summary, nil
}

func summaryInstructions() string {
	reflector := jsonschema.Reflector{DoNotReference: true}
	schema := reflector.Reflect(CallSummary{})
	schemaJSON, _ := json.MarshalIndent(schema, "", "  ")

	return fmt.Sprintf(`You are a medical call summarizer. Analyze the conversation below and return ONLY valid JSON matching this schema:

%s

Return ONLY the JSON object. No markdown, no explanation.`, schemaJSON)
}

// renderConversation flattens a transcript into the Patient/AI form the
// summarizer instructions describe.
func renderConversation(history []llms.Message) string {
	lines := make([]string, 0, len(history))
	for _, message := range history {
		speaker := "AI"
		if message.Role == llms.MessageRoleUser {
			speaker = "Patient"
		}
		lines = append(lines, fmt.Sprintf("%s: %s", speaker, message.Content))
	}
	return strings.Join(lines, "\n")
}

// extractJSONObject pulls the outermost {...} span out of a response that may
// wrap the JSON in prose or markdown fences.
func extractJSONObject(response string) (string, bool) {
	start := strings.Index(response, "{")
	end := strings.LastIndex(response, "}")
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return response[start : end+1], true
}

// DetectFlags returns the escalation keywords that appear anywhere in the
// transcript, preserving keyword order.
func DetectFlags(history []llms.Message, keywords []string) []string {
	if len(keywords) == 0 {
		return nil
	}

	var builder strings.Builder
	for _, message := range history {
		builder.WriteString(message.Content)
		builder.WriteString(" ")
	}
	joined := strings.ToLower(builder.String())

	var flags []string
	for _, keyword := range keywords {
		if strings.Contains(joined, strings.ToLower(keyword)) {
			flags = append(flags, keyword)
		}
	}
	return flags
}

// SentimentScore estimates patient mood on a 1-5 scale from what the patient
// said. Marker matching, not sentiment analysis; good enough to sort a
// review queue.
func SentimentScore(history []llms.Message) int {
	var builder strings.Builder
	for _, message := range history {
		if message.Role != llms.MessageRoleUser {
			continue
		}
		builder.WriteString(message.Content)
		builder.WriteString(" ")
	}
	lowered := strings.ToLower(builder.String())

	for _, marker := range []string{"angry", "upset", "cancel", "frustrated", "bad", "hate"} {
		if strings.Contains(lowered, marker) {
			return 2
		}
	}
	if strings.Contains(lowered, "thank") || strings.Contains(lowered, "great") {
		return 4
	}
	return 3
}

// RecommendedAction maps detected flags to the follow-up a reviewer should
// take.
func RecommendedAction(flags []string) string {
	if len(flags) == 0 {
		return "No escalation required. Follow up in normal workflow."
	}
	return "Escalate to a human operator within 15 minutes."
}

// BuildReport assembles the full post-call report from a summary and the raw
// transcript.
func BuildReport(summary *CallSummary, history []llms.Message, escalationKeywords []string) *CallReport {
	flags := DetectFlags(history, escalationKeywords)
	return &CallReport{
		Summary:           summary,
		DetectedFlags:     flags,
		SentimentScore:    SentimentScore(history),
		RecommendedAction: RecommendedAction(flags),
	}
}
