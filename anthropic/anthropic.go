// Package anthropic implements [hive.Provider] for the Anthropic Messages API.
//
// Responses are Server-Sent Events decoded by [sse.Decoder]. The request
// body types are exported for transports that speak the same vocabulary
// over a different wire, such as Bedrock.
package anthropic

import (
	"encoding/base64"
	"encoding/json"
	"strings"

	"github.com/fwojciec/hive"
)

const (
	defaultBaseURL = "https://api.anthropic.com"
	apiVersion     = "2023-06-01"
	messagesPath   = "/v1/messages"

	betaOAuth               = "oauth-2025-04-20"
	betaInterleavedThinking = "interleaved-thinking-2025-05-14"
)

// Model IDs the aliases resolve to.
const (
	ModelSonnetID = "claude-sonnet-4-5-20250929"
	ModelOpusID   = "claude-opus-4-20250514"
	ModelHaikuID  = "claude-haiku-4-5-20251001"
)

// ResolveModel maps a model alias to a full model ID. Empty selects
// Sonnet; anything that is not an alias is returned unchanged.
func ResolveModel(model string) string {
	switch strings.ToLower(model) {
	case "", hive.ModelSonnet, "claude-sonnet":
		return ModelSonnetID
	case hive.ModelOpus, "claude-opus":
		return ModelOpusID
	case hive.ModelHaiku, "claude-haiku":
		return ModelHaikuID
	}
	return model
}

// CacheControl marks a prompt-cache breakpoint.
type CacheControl struct {
	Type string `json:"type"`          // always "ephemeral"
	TTL  string `json:"ttl,omitempty"` // "" (default 5m) or "1h"
}

// Thinking enables extended thinking.
type Thinking struct {
	Type         string `json:"type"` // "enabled"
	BudgetTokens int    `json:"budget_tokens"`
}

// Body is the JSON request body of the Messages API.
type Body struct {
	Model            string        `json:"model,omitempty"`
	AnthropicVersion string        `json:"anthropic_version,omitempty"`
	MaxTokens        int           `json:"max_tokens"`
	Stream           bool          `json:"stream,omitempty"`
	System           []Block       `json:"system,omitempty"`
	Messages         []Message     `json:"messages"`
	Tools            []Tool        `json:"tools,omitempty"`
	Temperature      *float64      `json:"temperature,omitempty"`
	Thinking         *Thinking     `json:"thinking,omitempty"`
	CacheControl     *CacheControl `json:"cache_control,omitempty"`
}

// Message is one conversation message in a request body.
type Message struct {
	Role    string  `json:"role"`
	Content []Block `json:"content"`
}

// Block is a content block. Different fields are populated depending on
// Type.
type Block struct {
	Type string `json:"type"`

	// text
	Text string `json:"text,omitempty"`

	// thinking
	Thinking  string `json:"thinking,omitempty"`
	Signature string `json:"signature,omitempty"`

	// tool_use
	ID    string          `json:"id,omitempty"`
	Name  string          `json:"name,omitempty"`
	Input json.RawMessage `json:"input,omitempty"`

	// tool_result
	ToolUseID string  `json:"tool_use_id,omitempty"`
	Content   []Block `json:"content,omitempty"`
	IsError   bool    `json:"is_error,omitempty"`

	// image
	Source *ImageSource `json:"source,omitempty"`

	CacheControl *CacheControl `json:"cache_control,omitempty"`
}

// ImageSource carries inline image data.
type ImageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// Tool is a tool definition in a request body.
type Tool struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	InputSchema  json.RawMessage `json:"input_schema"`
	CacheControl *CacheControl   `json:"cache_control,omitempty"`
}

// NewBody converts req into a streaming request body for model, with
// cache breakpoints set. Temperature is dropped when thinking is enabled.
func NewBody(req hive.Request, model string) Body {
	b := Body{
		Model:       model,
		MaxTokens:   req.MaxTokens,
		Stream:      true,
		System:      convertSystem(req.SystemPrompt),
		Messages:    convertMessages(req.Messages),
		Tools:       convertTools(req.Tools),
		Temperature: req.Temperature,
	}
	if req.Thinking != nil {
		b.Thinking = &Thinking{Type: "enabled", BudgetTokens: req.Thinking.BudgetTokens}
		b.Temperature = nil
	}
	injectCacheMarkers(&b)
	return b
}

func convertSystem(prompt string) []Block {
	if prompt == "" {
		return nil
	}
	return []Block{{Type: "text", Text: prompt}}
}

// injectCacheMarkers sets cache_control breakpoints on the request:
//  1. Top-level: automatic caching for the conversation message window.
//  2. System prompt last block.
//  3. Last tool.
func injectCacheMarkers(b *Body) {
	cc := &CacheControl{Type: "ephemeral"}
	b.CacheControl = cc
	if len(b.System) > 0 {
		b.System[len(b.System)-1].CacheControl = cc
	}
	if len(b.Tools) > 0 {
		b.Tools[len(b.Tools)-1].CacheControl = cc
	}
}

func convertMessages(msgs []hive.Message) []Message {
	out := make([]Message, 0, len(msgs))
	for _, msg := range msgs {
		out = append(out, Message{Role: string(msg.Role), Content: convertBlocks(msg.Content)})
	}
	return out
}

func convertBlocks(blocks []hive.ContentBlock) []Block {
	out := make([]Block, 0, len(blocks))
	for _, b := range blocks {
		switch bl := b.(type) {
		case hive.TextBlock:
			out = append(out, Block{Type: "text", Text: bl.Text})
		case hive.ThinkingBlock:
			out = append(out, Block{Type: "thinking", Thinking: bl.Thinking, Signature: bl.Signature})
		case hive.ToolUseBlock:
			input := bl.Input
			if len(input) == 0 {
				input = json.RawMessage(`{}`)
			}
			out = append(out, Block{Type: "tool_use", ID: bl.ID, Name: bl.Name, Input: input})
		case hive.ToolResultBlock:
			r := Block{Type: "tool_result", ToolUseID: bl.ToolUseID, IsError: bl.IsError}
			if bl.Content != "" {
				r.Content = []Block{{Type: "text", Text: bl.Content}}
			}
			out = append(out, r)
		case hive.ImageBlock:
			out = append(out, Block{
				Type: "image",
				Source: &ImageSource{
					Type:      "base64",
					MediaType: bl.MediaType,
					Data:      base64.StdEncoding.EncodeToString(bl.Data),
				},
			})
		}
	}
	return out
}

func convertTools(tools []hive.Tool) []Tool {
	if len(tools) == 0 {
		return nil
	}
	out := make([]Tool, len(tools))
	for i, t := range tools {
		schema := t.InputSchema
		if len(schema) == 0 {
			schema = json.RawMessage(`{"type":"object"}`)
		}
		out[i] = Tool{Name: t.Name, Description: t.Description, InputSchema: schema}
	}
	return out
}

// errorResponse is the JSON body returned on non-200 responses.
type errorResponse struct {
	Type  string `json:"type"`
	Error struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseErrorBody extracts "type: message" from an API error body, or
// returns the trimmed body when it is not in the API error format.
func ParseErrorBody(body []byte) string {
	var e errorResponse
	if err := json.Unmarshal(body, &e); err != nil || e.Error.Message == "" {
		return strings.TrimSpace(string(body))
	}
	return e.Error.Type + ": " + e.Error.Message
}
