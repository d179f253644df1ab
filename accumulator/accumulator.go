// Package accumulator assembles decoded stream events into a finished
// assistant message. It works for any decoder producing the shared event
// vocabulary.
package accumulator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fwojciec/hive"
)

// Placeholder is the text of the block substituted when a response
// produced no content.
const Placeholder = "."

const unknownErrorMessage = "Unknown API error"

// Accumulator holds the state of one turn. It is not safe for concurrent use.
type Accumulator struct {
	publish func(hive.Event)

	text      strings.Builder
	thinking  strings.Builder
	signature strings.Builder
	usage     hive.Usage
	stop      string
	tools     map[int]*toolState
	toolUses  []hive.ToolUseBlock
	err       error
	events    int
	consumed  bool
}

// toolState tracks a tool_use block being assembled.
type toolState struct {
	id    string
	name  string
	input strings.Builder
}

// New creates an Accumulator that publishes live events to publish.
// A nil publish discards them.
func New(publish func(hive.Event)) *Accumulator {
	if publish == nil {
		publish = func(hive.Event) {}
	}
	return &Accumulator{
		publish: publish,
		stop:    hive.StopEndTurn,
		tools:   make(map[int]*toolState),
	}
}

// Process applies one decoded event.
func (a *Accumulator) Process(evt hive.StreamEvent) {
	a.ProcessEvent(evt.Type, evt.Payload)
}

// ProcessEvent applies one event given by type and JSON payload. Malformed
// payloads are dropped. Events after Result are ignored.
func (a *Accumulator) ProcessEvent(eventType string, payload []byte) {
	if a.consumed || !hive.KnownEventType(eventType) {
		return
	}
	a.events++
	switch eventType {
	case hive.TypeMessageStart:
		a.handleMessageStart(payload)
	case hive.TypeContentBlockStart:
		a.handleBlockStart(payload)
	case hive.TypeContentBlockDelta:
		a.handleBlockDelta(payload)
	case hive.TypeContentBlockStop:
		a.handleBlockStop(payload)
	case hive.TypeMessageDelta:
		a.handleMessageDelta(payload)
	case hive.TypeMessageStop:
		if a.stop != hive.StopToolUse {
			a.publish(hive.EventTurnResult{})
		}
	case hive.TypeError:
		a.handleError(payload)
	}
}

// Events returns the number of vocabulary events processed.
func (a *Accumulator) Events() int {
	return a.events
}

// Err returns the provider-reported error, if an error event was seen.
func (a *Accumulator) Err() error {
	return a.err
}

// StopReason returns the stop reason seen so far.
func (a *Accumulator) StopReason() string {
	return a.stop
}

// Result consumes the accumulator and returns the finished message with
// blocks ordered [thinking?, text?, tool_use...]. An empty response yields
// a single placeholder text block.
func (a *Accumulator) Result() (hive.Message, hive.Usage, string) {
	a.consumed = true
	var blocks []hive.ContentBlock
	if a.thinking.Len() > 0 {
		blocks = append(blocks, hive.ThinkingBlock{Thinking: a.thinking.String(), Signature: a.signature.String()})
	}
	if a.text.Len() > 0 {
		blocks = append(blocks, hive.TextBlock{Text: a.text.String()})
	}
	for _, tu := range a.toolUses {
		blocks = append(blocks, tu)
	}
	if len(blocks) == 0 {
		blocks = append(blocks, hive.TextBlock{Text: Placeholder})
	}
	return hive.Message{Role: hive.RoleAssistant, Content: blocks}, a.usage, a.stop
}

func (a *Accumulator) handleMessageStart(payload []byte) {
	var evt messageStart
	if json.Unmarshal(payload, &evt) != nil || evt.Message.Usage == nil {
		return
	}
	a.applyUsage(evt.Message.Usage)
}

func (a *Accumulator) applyUsage(u *usage) {
	if u.InputTokens != nil {
		a.usage.InputTokens = *u.InputTokens
	}
	if u.OutputTokens != nil {
		a.usage.OutputTokens = *u.OutputTokens
	}
	if u.CacheCreationInputTokens != nil {
		a.usage.CacheCreationInputTokens = *u.CacheCreationInputTokens
	}
	if u.CacheReadInputTokens != nil {
		a.usage.CacheReadInputTokens = *u.CacheReadInputTokens
	}
}

func (a *Accumulator) handleBlockStart(payload []byte) {
	var evt contentBlockStart
	if json.Unmarshal(payload, &evt) != nil {
		return
	}
	switch evt.ContentBlock.Type {
	case "tool_use":
		a.tools[evt.Index] = &toolState{id: evt.ContentBlock.ID, name: evt.ContentBlock.Name}
		a.publish(hive.EventToolUseStart{ID: evt.ContentBlock.ID, Name: evt.ContentBlock.Name})
	case "text":
		a.appendText(evt.ContentBlock.Text)
	case "thinking":
		a.appendThinking(evt.ContentBlock.Thinking)
	}
}

func (a *Accumulator) handleBlockDelta(payload []byte) {
	var evt contentBlockDelta
	if json.Unmarshal(payload, &evt) != nil {
		return
	}
	switch evt.Delta.Type {
	case "text_delta":
		a.appendText(evt.Delta.Text)
	case "thinking_delta":
		a.appendThinking(evt.Delta.Thinking)
	case "signature_delta":
		a.signature.WriteString(evt.Delta.Signature)
	case "input_json_delta":
		if ts := a.tools[evt.Index]; ts != nil {
			ts.input.WriteString(evt.Delta.PartialJSON)
		}
	}
}

func (a *Accumulator) appendText(s string) {
	if s == "" {
		return
	}
	a.text.WriteString(s)
	a.publish(hive.EventTextDelta{Delta: s})
}

func (a *Accumulator) appendThinking(s string) {
	if s == "" {
		return
	}
	a.thinking.WriteString(s)
	a.publish(hive.EventThinkingDelta{Delta: s})
}

func (a *Accumulator) handleBlockStop(payload []byte) {
	var evt contentBlockStop
	if json.Unmarshal(payload, &evt) != nil {
		return
	}
	ts := a.tools[evt.Index]
	if ts == nil {
		return
	}
	delete(a.tools, evt.Index)
	call := hive.ToolUseBlock{ID: ts.id, Name: ts.name, Input: parseInput(ts.input.String())}
	a.toolUses = append(a.toolUses, call)
	a.publish(hive.EventToolUse{Call: call})
}

// parseInput returns raw if it is a JSON object and {} otherwise.
func parseInput(raw string) json.RawMessage {
	var obj map[string]json.RawMessage
	if raw == "" || json.Unmarshal([]byte(raw), &obj) != nil || obj == nil {
		return json.RawMessage(`{}`)
	}
	return json.RawMessage(raw)
}

func (a *Accumulator) handleMessageDelta(payload []byte) {
	var evt messageDelta
	if json.Unmarshal(payload, &evt) != nil {
		return
	}
	if evt.Usage != nil {
		a.applyUsage(evt.Usage)
	}
	if evt.Delta.StopReason != nil && *evt.Delta.StopReason != "" {
		a.stop = *evt.Delta.StopReason
	}
}

func (a *Accumulator) handleError(payload []byte) {
	var evt errorEvent
	_ = json.Unmarshal(payload, &evt)
	msg := evt.Error.Message
	if msg == "" {
		msg = unknownErrorMessage
	}
	if evt.Error.Type != "" {
		a.err = fmt.Errorf("%w: %s: %s", hive.ErrProvider, evt.Error.Type, msg)
	} else {
		a.err = fmt.Errorf("%w: %s", hive.ErrProvider, msg)
	}
	a.publish(hive.EventTurnResult{IsError: true, Message: msg})
}
