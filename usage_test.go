package hive_test

import (
	"testing"

	"github.com/fwojciec/hive"
	"github.com/stretchr/testify/assert"
)

func TestUsage_ZeroValue(t *testing.T) {
	t.Parallel()
	var u hive.Usage
	assert.Equal(t, 0, u.InputTokens)
	assert.Equal(t, 0, u.OutputTokens)
	assert.Equal(t, 0, u.CacheCreationInputTokens)
	assert.Equal(t, 0, u.CacheReadInputTokens)
	assert.Equal(t, 0, u.TotalInput())
}

func TestUsage_TotalInput(t *testing.T) {
	t.Parallel()
	u := hive.Usage{
		InputTokens:              100,
		OutputTokens:             50,
		CacheCreationInputTokens: 200,
		CacheReadInputTokens:     800,
	}
	assert.Equal(t, 1100, u.TotalInput())
}
