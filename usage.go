package hive

// Usage tracks token consumption for one turn as reported by the provider.
//
// InputTokens counts non-cached input. Total input for the turn is
// InputTokens + CacheCreationInputTokens + CacheReadInputTokens.
type Usage struct {
	InputTokens              int
	OutputTokens             int
	CacheCreationInputTokens int
	CacheReadInputTokens     int
}

// TotalInput returns the full input size of the turn including cache traffic.
func (u Usage) TotalInput() int {
	return u.InputTokens + u.CacheCreationInputTokens + u.CacheReadInputTokens
}
