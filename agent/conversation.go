package agent

import (
	"github.com/fwojciec/hive"
	"github.com/fwojciec/hive/broadcast"
	"github.com/google/uuid"
)

// State is the terminal state of a conversation.
type State int

const (
	StateSuccess State = iota
	StateError
	StateAborted
	StateMaxTurnsReached
)

func (s State) String() string {
	switch s {
	case StateSuccess:
		return "success"
	case StateError:
		return "error"
	case StateAborted:
		return "aborted"
	case StateMaxTurnsReached:
		return "max turns reached"
	default:
		return "unknown"
	}
}

// Result is the outcome of a conversation. Transcript always holds every
// message completed before the conversation ended, on every path.
type Result struct {
	State      State
	Transcript []hive.Message
	Usage      Totals
	StopReason string
	Err        error
}

// Conversation is a running conversation.
type Conversation struct {
	ID uuid.UUID

	hub    *broadcast.Hub
	events <-chan hive.Event
	usage  *UsageCounter
	done   chan struct{}
	result Result
}

// Events returns the subscription created when the conversation started.
// It is closed when the conversation ends or if its buffer overflows.
func (c *Conversation) Events() <-chan hive.Event {
	return c.events
}

// Subscribe adds a live subscriber. See broadcast.Hub.Subscribe.
func (c *Conversation) Subscribe(buffer int) (<-chan hive.Event, func()) {
	return c.hub.Subscribe(buffer)
}

// Usage returns the current usage totals.
func (c *Conversation) Usage() Totals {
	return c.usage.Snapshot()
}

// Done is closed when the conversation has ended.
func (c *Conversation) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the conversation ends and returns its result.
func (c *Conversation) Wait() Result {
	<-c.done
	return c.result
}
