package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/fwojciec/hive"
	"github.com/fwojciec/hive/anthropic"
	"github.com/fwojciec/hive/bedrock"
	"github.com/fwojciec/hive/config"
)

// newProvider constructs the provider cfg selects.
func newProvider(cfg config.Config, log *slog.Logger) (hive.Provider, error) {
	creds, err := cfg.Credentials()
	if err != nil {
		return nil, err
	}
	static := hive.StaticCredentials(creds)
	switch cfg.Provider {
	case config.ProviderAnthropic:
		opts := []anthropic.Option{anthropic.WithLogger(log)}
		if cfg.Anthropic.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.Anthropic.BaseURL))
		}
		return anthropic.New(static, opts...), nil
	case config.ProviderBedrock:
		opts := []bedrock.Option{bedrock.WithLogger(log)}
		if cfg.AWS.BaseURL != "" {
			opts = append(opts, bedrock.WithBaseURL(cfg.AWS.BaseURL))
		}
		return bedrock.New(static, opts...), nil
	}
	return nil, fmt.Errorf("%w: unknown provider %q", hive.ErrValidation, cfg.Provider)
}

// unavailableTools is the executor of a session with no tools. Models
// are sent no tool definitions, so a call only happens when a resumed
// transcript advertised tools earlier.
type unavailableTools struct{}

var _ hive.ToolExecutor = unavailableTools{}

func (unavailableTools) Execute(_ context.Context, name string, _ json.RawMessage, _ string) (*hive.ToolResult, error) {
	return &hive.ToolResult{Output: fmt.Sprintf("tool %s is not available", name), IsError: true}, nil
}
