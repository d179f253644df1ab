package hive

import (
	"context"
	"encoding/json"
)

// Tool is a tool definition advertised to the model. An empty InputSchema
// is sent as an empty object schema.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// ToolExecutor runs one tool call in the working directory cwd. A returned
// error is an infrastructure failure; a failure the model should see is a
// ToolResult with IsError set.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, input json.RawMessage, cwd string) (*ToolResult, error)
}

// ToolResult is the raw output of a tool call, before compression.
type ToolResult struct {
	Output  string
	IsError bool
}
