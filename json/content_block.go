package json

import (
	"encoding/json"
	"fmt"

	"github.com/fwojciec/hive"
)

// contentBlock is the JSON representation of a ContentBlock with a type
// discriminator. Image data is base64 via []byte.
type contentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	Thinking  string          `json:"thinking,omitempty"`
	Signature string          `json:"signature,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
	MediaType string          `json:"media_type,omitempty"`
	Data      []byte          `json:"data,omitempty"`
}

func marshalContentBlocks(blocks []hive.ContentBlock) ([]contentBlock, error) {
	out := make([]contentBlock, len(blocks))
	for i, b := range blocks {
		switch v := b.(type) {
		case hive.TextBlock:
			out[i] = contentBlock{Type: "text", Text: v.Text}
		case hive.ThinkingBlock:
			out[i] = contentBlock{Type: "thinking", Thinking: v.Thinking, Signature: v.Signature}
		case hive.ToolUseBlock:
			out[i] = contentBlock{Type: "tool_use", ID: v.ID, Name: v.Name, Input: v.Input}
		case hive.ToolResultBlock:
			out[i] = contentBlock{Type: "tool_result", ToolUseID: v.ToolUseID, Content: v.Content, IsError: v.IsError}
		case hive.ImageBlock:
			out[i] = contentBlock{Type: "image", MediaType: v.MediaType, Data: v.Data}
		default:
			return nil, fmt.Errorf("content block %d: unknown type %T", i, b)
		}
	}
	return out, nil
}

func unmarshalContentBlocks(dtos []contentBlock) ([]hive.ContentBlock, error) {
	out := make([]hive.ContentBlock, len(dtos))
	for i, d := range dtos {
		switch d.Type {
		case "text":
			out[i] = hive.TextBlock{Text: d.Text}
		case "thinking":
			out[i] = hive.ThinkingBlock{Thinking: d.Thinking, Signature: d.Signature}
		case "tool_use":
			out[i] = hive.ToolUseBlock{ID: d.ID, Name: d.Name, Input: d.Input}
		case "tool_result":
			out[i] = hive.ToolResultBlock{ToolUseID: d.ToolUseID, Content: d.Content, IsError: d.IsError}
		case "image":
			out[i] = hive.ImageBlock{MediaType: d.MediaType, Data: d.Data}
		default:
			return nil, fmt.Errorf("content block %d: unknown type %q", i, d.Type)
		}
	}
	return out, nil
}
