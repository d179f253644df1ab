package hive

import (
	"fmt"
	"strings"
)

// OutputReserve is the number of output tokens kept free for the visible
// answer when thinking is enabled.
const OutputReserve = 16384

// Effort gates extended thinking and its token budget.
type Effort int

const (
	EffortLow Effort = iota
	EffortMedium
	EffortHigh
	EffortMax
)

// ParseEffort parses an effort level name.
func ParseEffort(s string) (Effort, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low", "":
		return EffortLow, nil
	case "medium":
		return EffortMedium, nil
	case "high":
		return EffortHigh, nil
	case "max":
		return EffortMax, nil
	}
	return EffortLow, fmt.Errorf("%w: unknown effort %q", ErrValidation, s)
}

func (e Effort) String() string {
	switch e {
	case EffortMedium:
		return "medium"
	case EffortHigh:
		return "high"
	case EffortMax:
		return "max"
	default:
		return "low"
	}
}

// ThinkingEnabled reports whether the effort level turns on thinking.
func (e Effort) ThinkingEnabled() bool {
	return e > EffortLow
}

// ThinkingBudget returns the unclamped thinking budget in tokens.
func (e Effort) ThinkingBudget() int {
	switch e {
	case EffortMedium:
		return 10_000
	case EffortHigh:
		return 32_000
	case EffortMax:
		return 63_999
	default:
		return 0
	}
}

// Generation holds the per-request sizing derived from effort and model.
type Generation struct {
	MaxTokens   int
	Thinking    *ThinkingConfig
	Temperature *float64
}

// GenerationFor fits the thinking budget and the output reserve within the
// model's output limit: budget <= limit - OutputReserve.
func GenerationFor(e Effort, modelLimit int) Generation {
	if e.ThinkingEnabled() && modelLimit > OutputReserve {
		budget := min(e.ThinkingBudget(), modelLimit-OutputReserve)
		return Generation{
			MaxTokens: min(budget+OutputReserve, modelLimit),
			Thinking:  &ThinkingConfig{BudgetTokens: budget},
		}
	}
	temp := 1.0
	return Generation{
		MaxTokens:   min(OutputReserve, modelLimit),
		Temperature: &temp,
	}
}
