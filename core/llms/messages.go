// Package llms holds the message types shared by the language generation
// clients.
package llms

// Message is a single entry in the request sent to a language generation
// collaborator.
type Message struct {
	Role    MessageRole
	Content string
}

// MessageRole describes who the message is from.
type MessageRole string

const (
	MessageRoleSystem    MessageRole = "system"
	MessageRoleUser      MessageRole = "user"
	MessageRoleAssistant MessageRole = "assistant"
)
