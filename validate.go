package hive

import "fmt"

// Validate checks universal constraints on Request.
// Provider implementations may apply additional provider-specific validation.
func (r Request) Validate() error {
	if r.Temperature != nil {
		if *r.Temperature < 0 || *r.Temperature > 1 {
			return fmt.Errorf("temperature must be in [0, 1], got %g: %w", *r.Temperature, ErrValidation)
		}
	}
	if r.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative, got %d: %w", r.MaxTokens, ErrValidation)
	}
	if r.Thinking != nil {
		if r.Thinking.BudgetTokens <= 0 {
			return fmt.Errorf("thinking budget must be positive, got %d: %w", r.Thinking.BudgetTokens, ErrValidation)
		}
		if r.MaxTokens > 0 && r.Thinking.BudgetTokens >= r.MaxTokens {
			return fmt.Errorf("thinking budget %d must be below max_tokens %d: %w", r.Thinking.BudgetTokens, r.MaxTokens, ErrValidation)
		}
	}
	for i, m := range r.Messages {
		if err := ValidateMessage(m); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}
	return nil
}

// ValidateMessage checks that a message's content blocks are valid for its role.
func ValidateMessage(msg Message) error {
	switch msg.Role {
	case RoleUser:
		return validateBlocks(msg.Content, msg.Role, allowText|allowImage|allowToolResult)
	case RoleAssistant:
		return validateBlocks(msg.Content, msg.Role, allowText|allowThinking|allowToolUse)
	default:
		return fmt.Errorf("unknown role %q: %w", msg.Role, ErrValidation)
	}
}

type blockAllow uint8

const (
	allowText blockAllow = 1 << iota
	allowThinking
	allowImage
	allowToolUse
	allowToolResult
)

func validateBlocks(blocks []ContentBlock, role Role, allowed blockAllow) error {
	for _, b := range blocks {
		var need blockAllow
		switch b.(type) {
		case TextBlock:
			need = allowText
		case ThinkingBlock:
			need = allowThinking
		case ImageBlock:
			need = allowImage
		case ToolUseBlock:
			need = allowToolUse
		case ToolResultBlock:
			need = allowToolResult
		default:
			return fmt.Errorf("unknown content block type %T in %s message: %w", b, role, ErrValidation)
		}
		if allowed&need == 0 {
			return fmt.Errorf("%T not allowed in %s message: %w", b, role, ErrValidation)
		}
	}
	return nil
}
