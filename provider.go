package hive

import (
	"context"
	"io"
)

// Decoder turns raw response bytes into stream events. Implementations are
// resumable: Decode may be called with arbitrary slices of the stream and
// buffers incomplete input internally. Malformed input is dropped, never
// returned as an error.
type Decoder interface {
	Decode(p []byte) []StreamEvent
	// Flush returns events from input still buffered at end of stream.
	Flush() []StreamEvent
}

// Provider sends one streaming request and supplies the decoder for its
// wire format. The decoder is selected once per conversation.
type Provider interface {
	Send(ctx context.Context, req Request) (io.ReadCloser, error)
	NewDecoder() Decoder
}

// ThinkingConfig enables extended thinking with a token budget.
type ThinkingConfig struct {
	BudgetTokens int
}

// Request carries model selection and generation parameters.
// The provider uses its own defaults when fields are zero/nil.
type Request struct {
	Model        string // model alias or provider-specific ID; empty = provider default
	SystemPrompt string
	Messages     []Message
	Tools        []Tool
	MaxTokens    int             // 0 = provider default
	Temperature  *float64        // nil = provider default
	Thinking     *ThinkingConfig // nil = thinking disabled
}
