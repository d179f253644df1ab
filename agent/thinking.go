package agent

import (
	"github.com/fwojciec/hive"
	"github.com/fwojciec/hive/accumulator"
)

// StripThinking returns messages without thinking blocks. A message left
// empty gets a placeholder text block. The input is not modified.
func StripThinking(messages []hive.Message) []hive.Message {
	out := make([]hive.Message, len(messages))
	for i, msg := range messages {
		out[i] = msg
		if !hasThinking(msg) {
			continue
		}
		content := make([]hive.ContentBlock, 0, len(msg.Content))
		for _, b := range msg.Content {
			if _, ok := b.(hive.ThinkingBlock); !ok {
				content = append(content, b)
			}
		}
		if len(content) == 0 {
			content = append(content, hive.TextBlock{Text: accumulator.Placeholder})
		}
		out[i] = hive.Message{Role: msg.Role, Content: content}
	}
	return out
}

func hasThinking(msg hive.Message) bool {
	for _, b := range msg.Content {
		if _, ok := b.(hive.ThinkingBlock); ok {
			return true
		}
	}
	return false
}
