package agent

import "errors"

// State is the agent loop's position in its turn lifecycle.
type State int

const (
	// StateAwaitingUserInput means no turn is in progress.
	StateAwaitingUserInput State = iota
	// StateCallingModel means a chat completion request is in flight.
	StateCallingModel
	// StateExecutingTools means requested tool calls are being dispatched.
	StateExecutingTools
	// StateEvaluatingContinuation means a text reply is being judged for
	// task completion.
	StateEvaluatingContinuation
	// StateDone means the turn finished and produced a reply.
	StateDone
	// StateFailed means the turn aborted on a model transport failure.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateAwaitingUserInput:
		return "awaiting_user_input"
	case StateCallingModel:
		return "calling_model"
	case StateExecutingTools:
		return "executing_tools"
	case StateEvaluatingContinuation:
		return "evaluating_continuation"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// ErrInterrupted is returned when the user cancels a turn at a
// suspension point. History keeps completed results; the interrupted
// in-flight one is discarded.
var ErrInterrupted = errors.New("turn interrupted")

// TurnResult is the outcome of one user turn.
type TurnResult struct {
	// TurnID identifies the turn in logs and the audit trail.
	TurnID string
	// Reply is the final text surfaced to the user.
	Reply string
	// ToolCalls is how many tool calls were dispatched this turn.
	ToolCalls int
	// Continuations is how many synthetic continue messages were injected.
	Continuations int
	// LimitExceeded is set when the tool call ceiling stopped the turn.
	LimitExceeded bool
}

// Observer receives progress notifications during a turn. All methods
// may be called from the loop's goroutine only.
type Observer interface {
	OnToolCall(name string)
	OnToolResult(name, content string, isError bool)
	OnAutoContinue(round, max int)
}

// nopObserver is used when no observer is attached.
type nopObserver struct{}

func (nopObserver) OnToolCall(string)                {}
func (nopObserver) OnToolResult(string, string, bool) {}
func (nopObserver) OnAutoContinue(int, int)          {}
