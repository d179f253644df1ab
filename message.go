package hive

import "encoding/json"

// Role is the sender of a message. Tool results travel in user messages.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of a conversation transcript.
//
// Plain-text content is a message with exactly one TextBlock. A finished
// assistant message orders its blocks [thinking?, text?, tool_use...] and
// is never empty.
type Message struct {
	Role    Role
	Content []ContentBlock
}

// NewUserText returns a user message carrying plain text.
func NewUserText(text string) Message {
	return Message{Role: RoleUser, Content: []ContentBlock{TextBlock{Text: text}}}
}

// ToolUses returns the tool_use blocks of the message in order.
func (m Message) ToolUses() []ToolUseBlock {
	var uses []ToolUseBlock
	for _, b := range m.Content {
		if tu, ok := b.(ToolUseBlock); ok {
			uses = append(uses, tu)
		}
	}
	return uses
}

// ContentBlock is a sealed interface representing a block of content.
// The unexported marker method prevents external implementations.
type ContentBlock interface {
	contentBlock()
}

// TextBlock contains text content.
type TextBlock struct {
	Text string
}

func (TextBlock) contentBlock() {}

// ThinkingBlock contains thinking/reasoning content and the provider's
// signature over it. The signature must be echoed back unchanged.
type ThinkingBlock struct {
	Thinking  string
	Signature string
}

func (ThinkingBlock) contentBlock() {}

// ToolUseBlock represents a tool invocation requested by the assistant.
type ToolUseBlock struct {
	ID    string
	Name  string
	Input json.RawMessage
}

func (ToolUseBlock) contentBlock() {}

// ToolResultBlock carries the outcome of a tool invocation back to the model.
type ToolResultBlock struct {
	ToolUseID string
	Content   string
	IsError   bool
}

func (ToolResultBlock) contentBlock() {}

// ImageBlock contains image data.
type ImageBlock struct {
	MediaType string
	Data      []byte
}

func (ImageBlock) contentBlock() {}

// Interface compliance checks.
var (
	_ ContentBlock = TextBlock{}
	_ ContentBlock = ThinkingBlock{}
	_ ContentBlock = ToolUseBlock{}
	_ ContentBlock = ToolResultBlock{}
	_ ContentBlock = ImageBlock{}
)
