package mock

import (
	"context"
	"encoding/json"

	"github.com/fwojciec/hive"
)

// Interface compliance check.
var _ hive.ToolExecutor = (*ToolExecutor)(nil)

// ToolExecutor is a test double for hive.ToolExecutor.
// Set ExecuteFn before calling Execute.
type ToolExecutor struct {
	ExecuteFn func(ctx context.Context, name string, input json.RawMessage, cwd string) (*hive.ToolResult, error)
}

// Execute delegates to ExecuteFn.
func (e *ToolExecutor) Execute(ctx context.Context, name string, input json.RawMessage, cwd string) (*hive.ToolResult, error) {
	return e.ExecuteFn(ctx, name, input, cwd)
}
