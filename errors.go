package hive

import "errors"

// Sentinel errors for the failure classes of the runtime. Components wrap
// them with context; callers match with errors.Is.
var (
	// ErrTransport indicates the request could not be sent or the response
	// body could not be read. The turn is aborted; nothing is retried.
	ErrTransport = errors.New("transport error")

	// ErrProtocol indicates the response stream could not be decoded at all.
	// Individual malformed frames or lines are dropped, not reported.
	ErrProtocol = errors.New("protocol error")

	// ErrSigning indicates a request could not be signed. It is always
	// returned before any network call is made.
	ErrSigning = errors.New("signing error")

	// ErrToolExecution indicates a tool failed. It never ends a
	// conversation: the failure is fed back to the model as an error result.
	ErrToolExecution = errors.New("tool execution error")

	// ErrBudgetConfig indicates an inconsistent context budget configuration.
	ErrBudgetConfig = errors.New("budget configuration error")

	// ErrProvider indicates the provider reported an error event mid-stream.
	ErrProvider = errors.New("provider error")

	// ErrValidation indicates a request or message failed validation.
	ErrValidation = errors.New("validation error")
)
