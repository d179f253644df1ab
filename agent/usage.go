package agent

import (
	"sync"

	"github.com/fwojciec/hive"
)

// Totals is a snapshot of a conversation's token usage.
type Totals struct {
	// TotalInput is the full input of the latest turn, including cache
	// reads and writes; it already reflects the whole history.
	TotalInput int
	// TotalOutput accumulates output tokens across turns.
	TotalOutput int
}

// UsageCounter tracks Totals. It is safe for concurrent use.
type UsageCounter struct {
	mu     sync.Mutex
	totals Totals
}

// Add records one turn's usage and returns the updated totals.
func (u *UsageCounter) Add(turn hive.Usage) Totals {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.totals.TotalInput = turn.TotalInput()
	u.totals.TotalOutput += turn.OutputTokens
	return u.totals
}

// Snapshot returns the current totals.
func (u *UsageCounter) Snapshot() Totals {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.totals
}
