package hive

import "time"

// Transcript is a persisted conversation: the messages exchanged so far
// plus what is needed to resume it.
type Transcript struct {
	ID           string
	Model        string
	SystemPrompt string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Messages     []Message
	// TotalInput and TotalOutput are the usage totals at the time of saving.
	TotalInput  int
	TotalOutput int
}
