package hive

import "encoding/json"

// StreamEvent is one decoded provider event, normalized to the same shape
// regardless of the wire protocol it arrived on.
type StreamEvent struct {
	Type    string
	Payload json.RawMessage
}

// Event types shared by the SSE and EventStream vocabularies.
const (
	TypeMessageStart      = "message_start"
	TypeContentBlockStart = "content_block_start"
	TypeContentBlockDelta = "content_block_delta"
	TypeContentBlockStop  = "content_block_stop"
	TypeMessageDelta      = "message_delta"
	TypeMessageStop       = "message_stop"
	TypeError             = "error"
)

// KnownEventType reports whether t belongs to the streaming vocabulary.
func KnownEventType(t string) bool {
	switch t {
	case TypeMessageStart, TypeContentBlockStart, TypeContentBlockDelta,
		TypeContentBlockStop, TypeMessageDelta, TypeMessageStop, TypeError:
		return true
	}
	return false
}

// Event is a sealed interface representing a live notification published
// while a conversation runs. Events are informational: the authoritative
// outcome is the conversation result.
// The unexported marker method prevents external implementations.
type Event interface {
	event()
}

// EventTextDelta represents a text content delta.
type EventTextDelta struct {
	Delta string
}

func (EventTextDelta) event() {}

// EventThinkingDelta represents a thinking content delta.
type EventThinkingDelta struct {
	Delta string
}

func (EventThinkingDelta) event() {}

// EventToolUseStart signals the start of a tool_use block.
type EventToolUseStart struct {
	ID   string
	Name string
}

func (EventToolUseStart) event() {}

// EventToolUse signals a completed tool_use block with its parsed input.
type EventToolUse struct {
	Call ToolUseBlock
}

func (EventToolUse) event() {}

// EventToolResult carries a tool's full output and the compressed form
// that re-enters the model context.
type EventToolResult struct {
	ToolUseID  string
	Name       string
	Raw        string
	Compressed string
	IsError    bool
}

func (EventToolResult) event() {}

// EventUsage reports the usage of the latest turn and the conversation totals.
type EventUsage struct {
	Turn        Usage
	TotalInput  int
	TotalOutput int
}

func (EventUsage) event() {}

// EventTurnResult signals the terminal outcome of a response stream or of
// the conversation.
type EventTurnResult struct {
	IsError bool
	Message string
}

func (EventTurnResult) event() {}

// Interface compliance checks.
var (
	_ Event = EventTextDelta{}
	_ Event = EventThinkingDelta{}
	_ Event = EventToolUseStart{}
	_ Event = EventToolUse{}
	_ Event = EventToolResult{}
	_ Event = EventUsage{}
	_ Event = EventTurnResult{}
)
