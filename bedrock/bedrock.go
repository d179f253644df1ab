// Package bedrock implements [hive.Provider] for Anthropic models on AWS
// Bedrock's InvokeModelWithResponseStream API.
//
// Requests carry the Anthropic body vocabulary and are SigV4-signed;
// responses are AWS EventStream frames decoded by [eventstream.Decoder].
package bedrock

import (
	"strings"

	"github.com/fwojciec/hive"
)

const (
	service          = "bedrock"
	anthropicVersion = "bedrock-2023-05-31"
	eventStreamMIME  = "application/vnd.amazon.eventstream"
)

// Bedrock model IDs the aliases resolve to.
const (
	ModelSonnetID = "anthropic.claude-sonnet-4-5-20250929-v1:0"
	ModelOpusID   = "anthropic.claude-opus-4-20250514-v1:0"
	ModelOpus46ID = "anthropic.claude-opus-4-6-20260213-v1:0"
	ModelHaikuID  = "anthropic.claude-haiku-4-5-20251001-v1:0"
)

var models = map[string]string{
	"":                           ModelSonnetID,
	hive.ModelSonnet:             ModelSonnetID,
	"claude-sonnet":              ModelSonnetID,
	"sonnet-4.5":                 ModelSonnetID,
	"claude-sonnet-4-5-20250929": ModelSonnetID,
	hive.ModelOpus:               ModelOpusID,
	"claude-opus":                ModelOpusID,
	"opus-4":                     ModelOpusID,
	"claude-opus-4-20250514":     ModelOpusID,
	"opus-4.6":                   ModelOpus46ID,
	"claude-opus-4.6":            ModelOpus46ID,
	"claude-opus-4-6-20260213":   ModelOpus46ID,
	hive.ModelHaiku:              ModelHaikuID,
	"claude-haiku":               ModelHaikuID,
	"haiku-4.5":                  ModelHaikuID,
	"claude-haiku-4-5-20251001":  ModelHaikuID,
}

// ResolveModel maps an alias or Anthropic model ID to a Bedrock model ID.
// IDs already in Bedrock form pass through; other claude- IDs are wrapped
// as "anthropic.<id>-v1:0"; anything else selects Sonnet.
func ResolveModel(model string) string {
	m := strings.ToLower(model)
	if id, ok := models[m]; ok {
		return id
	}
	switch {
	case strings.HasPrefix(m, "anthropic."):
		return model
	case strings.HasPrefix(m, "claude-"):
		return "anthropic." + model + "-v1:0"
	}
	return ModelSonnetID
}
