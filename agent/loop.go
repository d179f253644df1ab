// Package agent drives conversations between a Provider and a ToolExecutor:
// request, stream, dispatch tools, repeat.
package agent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync/atomic"

	"github.com/fwojciec/hive"
	"github.com/fwojciec/hive/accumulator"
	"github.com/fwojciec/hive/broadcast"
	"github.com/fwojciec/hive/budget"
	"github.com/fwojciec/hive/compress"
	"github.com/google/uuid"
)

const (
	// DefaultMaxTurns bounds the request/tool round trips of one conversation.
	DefaultMaxTurns = 25

	readSize = 32 << 10
)

// Loop holds the collaborators and settings shared by conversations.
// A Loop is safe for concurrent use; each conversation owns its state.
type Loop struct {
	provider  hive.Provider
	executor  hive.ToolExecutor
	maxTurns  int
	model     string
	budgetCfg budget.Config
	budget    *budget.Manager
	compress  compress.Compressor
	log       *slog.Logger
	workDir   string
	subBuffer int
}

// Option configures a Loop.
type Option func(*Loop)

// WithMaxTurns sets the turn cap. Non-positive values keep the default.
func WithMaxTurns(n int) Option {
	return func(l *Loop) {
		if n > 0 {
			l.maxTurns = n
		}
	}
}

// WithModel sets the model alias or ID sent with every request.
// Empty string means the provider uses its default model.
func WithModel(model string) Option {
	return func(l *Loop) {
		l.model = model
	}
}

// WithBudget sets the context budget configuration.
func WithBudget(cfg budget.Config) Option {
	return func(l *Loop) {
		l.budgetCfg = cfg
	}
}

// WithCompressor sets the function applied to tool output before it
// re-enters the context.
func WithCompressor(c compress.Compressor) Option {
	return func(l *Loop) {
		l.compress = c
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(l *Loop) {
		l.log = log
	}
}

// WithWorkDir sets the working directory passed to the tool executor.
func WithWorkDir(dir string) Option {
	return func(l *Loop) {
		l.workDir = dir
	}
}

// WithSubscriberBuffer sets the channel capacity of the conversation's
// primary event subscription.
func WithSubscriberBuffer(n int) Option {
	return func(l *Loop) {
		l.subBuffer = n
	}
}

// New creates a Loop. It fails with an error wrapping hive.ErrBudgetConfig
// when the budget configuration is invalid.
func New(provider hive.Provider, executor hive.ToolExecutor, opts ...Option) (*Loop, error) {
	l := &Loop{
		provider:  provider,
		executor:  executor,
		maxTurns:  DefaultMaxTurns,
		budgetCfg: budget.DefaultConfig(),
		compress:  compress.Compress,
		log:       slog.Default(),
		subBuffer: broadcast.DefaultBuffer,
	}
	for _, opt := range opts {
		opt(l)
	}
	m, err := budget.New(l.budgetCfg, l.compress)
	if err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}
	l.budget = m
	return l, nil
}

// Params describes one conversation.
type Params struct {
	Transcript   []hive.Message
	SystemPrompt string
	Tools        []hive.Tool
	Effort       hive.Effort
	// Cancel is checked before each request, after each response and
	// before each tool dispatch. Nil means the conversation cannot be
	// cancelled.
	Cancel *atomic.Bool
}

// Start runs a conversation in its own goroutine. Events published before
// Start returns are delivered to Events; later subscribers see only what
// follows their subscription.
func (l *Loop) Start(ctx context.Context, p Params) *Conversation {
	c := &Conversation{
		ID:    uuid.New(),
		hub:   broadcast.New(),
		usage: &UsageCounter{},
		done:  make(chan struct{}),
	}
	c.events, _ = c.hub.Subscribe(l.subBuffer)
	go func() {
		defer close(c.done)
		defer c.hub.Close()
		c.result = l.run(ctx, p, c)
	}()
	return c
}

// Run starts a conversation and waits for its result.
func (l *Loop) Run(ctx context.Context, p Params) Result {
	return l.Start(ctx, p).Wait()
}

func (l *Loop) run(ctx context.Context, p Params, c *Conversation) Result {
	log := l.log.With("conversation", c.ID.String())
	cancelled := func() bool { return p.Cancel != nil && p.Cancel.Load() }

	transcript := slices.Clone(p.Transcript)
	gen := hive.GenerationFor(p.Effort, hive.MaxOutputTokens(l.model))
	decoder := l.provider.NewDecoder()

	finish := func(state State, stop string, err error) Result {
		r := Result{State: state, Transcript: transcript, Usage: c.usage.Snapshot(), StopReason: stop, Err: err}
		if state != StateSuccess && !errors.Is(err, hive.ErrProvider) {
			msg := state.String()
			if err != nil {
				msg = err.Error()
			}
			c.hub.Publish(hive.EventTurnResult{IsError: state == StateError, Message: msg})
		}
		log.Info("conversation finished", "state", state.String(), "stop_reason", stop, "messages", len(transcript), "error", err)
		return r
	}

	var stop string
	for turn := 1; turn <= l.maxTurns; turn++ {
		if cancelled() {
			return finish(StateAborted, stop, nil)
		}

		history := transcript
		if !p.Effort.ThinkingEnabled() {
			history = StripThinking(history)
		}
		estimate := l.budget.EstimateTokens(history)
		shaped := l.budget.Truncate(history, estimate)
		if estimate >= l.budgetCfg.ProactiveThreshold {
			log.Debug("history truncated", "estimate", estimate, "after", l.budget.EstimateTokens(shaped), "messages", len(shaped))
		}
		log.Debug("turn started", "turn", turn, "messages", len(shaped))

		req := hive.Request{
			Model:        l.model,
			SystemPrompt: p.SystemPrompt,
			Messages:     shaped,
			Tools:        p.Tools,
			MaxTokens:    gen.MaxTokens,
			Thinking:     gen.Thinking,
			Temperature:  gen.Temperature,
		}
		msg, usage, stopReason, err := l.stream(ctx, req, decoder, c.hub)
		if err != nil {
			return finish(StateError, stop, err)
		}
		stop = stopReason
		transcript = append(transcript, msg)
		totals := c.usage.Add(usage)
		c.hub.Publish(hive.EventUsage{Turn: usage, TotalInput: totals.TotalInput, TotalOutput: totals.TotalOutput})

		if stopReason != hive.StopToolUse || cancelled() {
			return finish(StateSuccess, stop, nil)
		}
		uses := msg.ToolUses()
		if len(uses) == 0 {
			log.Warn("tool_use stop reason without tool_use blocks")
			return finish(StateSuccess, stop, nil)
		}

		results, aborted := l.dispatch(ctx, uses, cancelled, c.hub, log)
		if len(results) > 0 {
			transcript = append(transcript, hive.Message{Role: hive.RoleUser, Content: results})
		}
		if aborted {
			return finish(StateAborted, stop, nil)
		}
	}
	return finish(StateMaxTurnsReached, stop, nil)
}

// stream sends req and drives the response through decoder into a fresh
// accumulator. Nothing is returned for a failed stream, and an invalid
// request is never sent.
func (l *Loop) stream(ctx context.Context, req hive.Request, decoder hive.Decoder, hub *broadcast.Hub) (hive.Message, hive.Usage, string, error) {
	if err := req.Validate(); err != nil {
		return hive.Message{}, hive.Usage{}, "", fmt.Errorf("agent: %w", err)
	}
	body, err := l.provider.Send(ctx, req)
	if err != nil {
		return hive.Message{}, hive.Usage{}, "", err
	}
	defer body.Close()

	acc := accumulator.New(hub.Publish)
	buf := make([]byte, readSize)
	for {
		n, rerr := body.Read(buf)
		if n > 0 {
			for _, evt := range decoder.Decode(buf[:n]) {
				acc.Process(evt)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			decoder.Flush()
			return hive.Message{}, hive.Usage{}, "", fmt.Errorf("agent: %w: reading response: %w", hive.ErrTransport, rerr)
		}
	}
	for _, evt := range decoder.Flush() {
		acc.Process(evt)
	}

	if err := acc.Err(); err != nil {
		return hive.Message{}, hive.Usage{}, "", fmt.Errorf("agent: %w", err)
	}
	if acc.Events() == 0 {
		return hive.Message{}, hive.Usage{}, "", fmt.Errorf("agent: %w: response contained no events", hive.ErrProtocol)
	}
	msg, usage, stop := acc.Result()
	return msg, usage, stop, nil
}

// dispatch runs tool calls sequentially in request order. It reports
// aborted when cancellation was observed before a call; results of calls
// already executed are returned either way.
func (l *Loop) dispatch(ctx context.Context, uses []hive.ToolUseBlock, cancelled func() bool, hub *broadcast.Hub, log *slog.Logger) ([]hive.ContentBlock, bool) {
	var results []hive.ContentBlock
	for _, tu := range uses {
		if cancelled() {
			return results, true
		}
		res, err := l.executor.Execute(ctx, tu.Name, tu.Input, l.workDir)
		if err != nil {
			err = fmt.Errorf("%w: %s: %w", hive.ErrToolExecution, tu.Name, err)
			log.Warn("tool failed", "tool", tu.Name, "id", tu.ID, "error", err)
			res = &hive.ToolResult{Output: err.Error(), IsError: true}
		}
		if res == nil {
			res = &hive.ToolResult{}
		}
		compressed := l.compress(res.Output, res.IsError)
		hub.Publish(hive.EventToolResult{
			ToolUseID:  tu.ID,
			Name:       tu.Name,
			Raw:        res.Output,
			Compressed: compressed,
			IsError:    res.IsError,
		})
		results = append(results, hive.ToolResultBlock{ToolUseID: tu.ID, Content: compressed, IsError: res.IsError})
	}
	return results, false
}
