// Package budget fits conversation history into a token budget.
//
// Token counts are estimated from character length; they are not exact.
// All operations are pure: inputs are never modified.
package budget

import (
	"fmt"
	"slices"

	"github.com/fwojciec/hive"
	"github.com/fwojciec/hive/compress"
)

// Config holds the thresholds and sizes of a Manager.
type Config struct {
	// ProactiveThreshold is the estimate at which middle history is rewritten.
	ProactiveThreshold int
	// TailCompressionThreshold is the estimate at which the tail window's
	// tool results are compressed too.
	TailCompressionThreshold int
	// HardCeiling is the estimate above which middle messages are dropped.
	HardCeiling int
	// TailWindow is the number of most recent messages kept verbatim.
	TailWindow int
	// ToolResultChars is the size above which a middle tool result is
	// replaced by a notice.
	ToolResultChars int
	CharsPerToken   int
	// ImageChars is the flat character cost charged per image.
	ImageChars int
}

// DefaultConfig returns the default budget for a 200K-token context window.
func DefaultConfig() Config {
	return Config{
		ProactiveThreshold:       120_000,
		TailCompressionThreshold: 140_000,
		HardCeiling:              160_000,
		TailWindow:               6,
		ToolResultChars:          200,
		CharsPerToken:            4,
		ImageChars:               1000,
	}
}

// Validate reports misordered thresholds and non-positive sizes.
func (c Config) Validate() error {
	positive := []struct {
		name  string
		value int
	}{
		{"proactive threshold", c.ProactiveThreshold},
		{"tail compression threshold", c.TailCompressionThreshold},
		{"hard ceiling", c.HardCeiling},
		{"tail window", c.TailWindow},
		{"tool result chars", c.ToolResultChars},
		{"chars per token", c.CharsPerToken},
	}
	for _, p := range positive {
		if p.value <= 0 {
			return fmt.Errorf("budget: %w: %s must be positive, got %d", hive.ErrBudgetConfig, p.name, p.value)
		}
	}
	if c.ImageChars < 0 {
		return fmt.Errorf("budget: %w: image chars must be non-negative, got %d", hive.ErrBudgetConfig, c.ImageChars)
	}
	if c.ProactiveThreshold >= c.TailCompressionThreshold || c.TailCompressionThreshold >= c.HardCeiling {
		return fmt.Errorf("budget: %w: thresholds must satisfy proactive (%d) < tail compression (%d) < hard ceiling (%d)",
			hive.ErrBudgetConfig, c.ProactiveThreshold, c.TailCompressionThreshold, c.HardCeiling)
	}
	return nil
}

// Manager shapes history according to a Config.
type Manager struct {
	cfg      Config
	compress compress.Compressor
}

// New creates a Manager. A nil compressor defaults to compress.Compress.
// Invalid configuration fails with an error wrapping hive.ErrBudgetConfig.
func New(cfg Config, compressor compress.Compressor) (*Manager, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if compressor == nil {
		compressor = compress.Compress
	}
	return &Manager{cfg: cfg, compress: compressor}, nil
}

// Config returns the manager's configuration.
func (m *Manager) Config() Config {
	return m.cfg
}

// EstimateTokens approximates the token count of messages.
func (m *Manager) EstimateTokens(messages []hive.Message) int {
	total := 0
	for _, msg := range messages {
		total += m.messageChars(msg) / m.cfg.CharsPerToken
	}
	return total
}

func (m *Manager) messageChars(msg hive.Message) int {
	n := 0
	for _, b := range msg.Content {
		switch b := b.(type) {
		case hive.TextBlock:
			n += len(b.Text)
		case hive.ThinkingBlock:
			n += len(b.Thinking)
		case hive.ToolUseBlock:
			n += len(b.Input)
		case hive.ToolResultBlock:
			n += len(b.Content)
		case hive.ImageBlock:
			n += m.cfg.ImageChars
		}
	}
	return n
}

// Truncate fits messages into the budget given their current estimate.
// Below the proactive threshold, or with no more messages than the tail
// window, messages are returned unchanged. Otherwise the first message
// and the tail window are kept, large middle tool results are replaced by
// "[output: N chars]", the tail's tool results (error output included)
// are compressed at the tail compression threshold, and the oldest middle
// messages are dropped while the estimate exceeds the hard ceiling.
func (m *Manager) Truncate(messages []hive.Message, estimate int) []hive.Message {
	if estimate < m.cfg.ProactiveThreshold || len(messages) <= m.cfg.TailWindow {
		return messages
	}
	return m.shape(messages, estimate, terseNotice)
}

// Compact rewrites large middle tool results with
// "[result truncated - N chars]" regardless of pressure. The tail is
// compressed and middle messages dropped under the same rules as Truncate.
func (m *Manager) Compact(messages []hive.Message) []hive.Message {
	if len(messages) <= m.cfg.TailWindow {
		return messages
	}
	return m.shape(messages, m.EstimateTokens(messages), standardNotice)
}

func standardNotice(n int) string { return fmt.Sprintf("[result truncated - %d chars]", n) }
func terseNotice(n int) string    { return fmt.Sprintf("[output: %d chars]", n) }

func (m *Manager) shape(messages []hive.Message, estimate int, notice func(int) string) []hive.Message {
	tailStart := len(messages) - m.cfg.TailWindow
	out := make([]hive.Message, 0, len(messages))
	out = append(out, messages[0])
	for _, msg := range messages[1:tailStart] {
		out = append(out, replaceToolResults(msg, func(r hive.ToolResultBlock) string {
			if len(r.Content) <= m.cfg.ToolResultChars {
				return r.Content
			}
			return shorter(notice(len(r.Content)), r.Content)
		}))
	}
	for _, msg := range messages[tailStart:] {
		if estimate >= m.cfg.TailCompressionThreshold {
			msg = replaceToolResults(msg, func(r hive.ToolResultBlock) string {
				return shorter(m.compress(r.Content, false), r.Content)
			})
		}
		out = append(out, msg)
	}
	return m.evict(out)
}

// shorter returns candidate if it is shorter than original.
func shorter(candidate, original string) string {
	if len(candidate) < len(original) {
		return candidate
	}
	return original
}

// evict drops the oldest middle message while the estimate exceeds the
// hard ceiling. Tool-result-only messages whose tool_use was dropped go
// with it.
func (m *Manager) evict(out []hive.Message) []hive.Message {
	keep := m.cfg.TailWindow + 1
	for len(out) > keep && m.EstimateTokens(out) > m.cfg.HardCeiling {
		out = slices.Delete(out, 1, 2)
		for len(out) > keep && orphaned(out[1], out) {
			out = slices.Delete(out, 1, 2)
		}
	}
	return out
}

// orphaned reports whether msg holds only tool results none of whose
// tool_use blocks remain in history.
func orphaned(msg hive.Message, history []hive.Message) bool {
	if msg.Role != hive.RoleUser || len(msg.Content) == 0 {
		return false
	}
	ids := make(map[string]bool)
	for _, h := range history {
		for _, tu := range h.ToolUses() {
			ids[tu.ID] = true
		}
	}
	for _, b := range msg.Content {
		r, ok := b.(hive.ToolResultBlock)
		if !ok || ids[r.ToolUseID] {
			return false
		}
	}
	return true
}

// replaceToolResults returns msg with each tool result's content replaced
// by fn. The original message is not modified.
func replaceToolResults(msg hive.Message, fn func(hive.ToolResultBlock) string) hive.Message {
	var content []hive.ContentBlock
	for i, b := range msg.Content {
		r, ok := b.(hive.ToolResultBlock)
		if !ok {
			continue
		}
		replaced := fn(r)
		if replaced == r.Content {
			continue
		}
		if content == nil {
			content = slices.Clone(msg.Content)
		}
		r.Content = replaced
		content[i] = r
	}
	if content == nil {
		return msg
	}
	return hive.Message{Role: msg.Role, Content: content}
}
