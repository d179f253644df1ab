package hive

import "strings"

// Model aliases accepted wherever a model is configured.
const (
	ModelSonnet = "sonnet"
	ModelOpus   = "opus"
	ModelHaiku  = "haiku"
)

// DefaultModel is the model providers send when none is configured.
const DefaultModel = ModelSonnet

// DefaultModelOutputLimit applies to models not recognized by
// MaxOutputTokens.
const DefaultModelOutputLimit = 32000

// MaxOutputTokens returns the output token ceiling of a model given as an
// alias or provider-specific ID. An empty model is DefaultModel.
func MaxOutputTokens(model string) int {
	if model == "" {
		model = DefaultModel
	}
	m := strings.ToLower(model)
	switch {
	case m == ModelSonnet, strings.Contains(m, "sonnet-4"):
		return 64000
	case m == ModelHaiku, strings.Contains(m, "haiku-4"):
		return 64000
	case m == ModelOpus, strings.Contains(m, "opus-4"):
		return 32000
	}
	return DefaultModelOutputLimit
}
