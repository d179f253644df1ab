package hive

// Stop reasons reported by the provider in message_delta. The loop only
// distinguishes StopToolUse from everything else; other values pass through
// unchanged.
const (
	StopEndTurn   = "end_turn"
	StopToolUse   = "tool_use"
	StopMaxTokens = "max_tokens"
	StopSequence  = "stop_sequence"
	StopPauseTurn = "pause_turn"
	StopRefusal   = "refusal"
)
