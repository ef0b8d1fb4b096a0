// Package agent implements the conversation loop: it mediates between
// the model and the registered tools, executing requested calls,
// feeding results back, and autonomously continuing unfinished tasks.
package agent

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/MimeLyc/kube-agent/internal/llm"
	"github.com/MimeLyc/kube-agent/internal/tools"
	"github.com/MimeLyc/kube-agent/pkg/log"
)

// ModelClient is the slice of the chat client the loop needs.
// *llm.Client satisfies it.
type ModelClient interface {
	ChatCompletionWithTools(ctx context.Context, messages []llm.Message, tools []llm.ToolDefinition, opts *llm.ChatCompletionOptions) (*llm.ChatResponse, error)
}

// Limits are the per-turn ceilings and the history bound.
type Limits struct {
	// MaxMessages bounds the history; older messages are dropped but
	// the system prompt always stays.
	MaxMessages int
	// MaxToolCalls is the hard ceiling on tool calls per user turn.
	MaxToolCalls int
	// MaxAutoContinue is the hard ceiling on synthetic continuations
	// per user turn.
	MaxAutoContinue int
}

// Loop owns the conversation state. Turns are serialized: a scheduled
// prompt arriving while an interactive turn runs waits its turn.
type Loop struct {
	model      ModelClient
	dispatcher *tools.Dispatcher
	policy     *ContinuationPolicy
	limits     Limits
	observer   Observer

	mu       sync.Mutex
	messages []llm.Message
	state    State
}

// NewLoop creates a loop with an initial history holding only the
// system prompt.
func NewLoop(model ModelClient, dispatcher *tools.Dispatcher, policy *ContinuationPolicy, limits Limits) *Loop {
	if limits.MaxMessages <= 1 {
		limits.MaxMessages = 80
	}
	if limits.MaxToolCalls <= 0 {
		limits.MaxToolCalls = 30
	}
	if limits.MaxAutoContinue < 0 {
		limits.MaxAutoContinue = 0
	}
	return &Loop{
		model:      model,
		dispatcher: dispatcher,
		policy:     policy,
		limits:     limits,
		observer:   nopObserver{},
		messages:   []llm.Message{{Role: "system", Content: systemPrompt}},
		state:      StateAwaitingUserInput,
	}
}

// SetObserver attaches a progress observer. Must be called between
// turns.
func (l *Loop) SetObserver(observer Observer) {
	if observer == nil {
		observer = nopObserver{}
	}
	l.observer = observer
}

// State returns the loop's current state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Messages returns a copy of the conversation history.
func (l *Loop) Messages() []llm.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]llm.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

// HandleUserInput runs one full user turn: model calls, tool execution,
// and autonomous continuations, until the turn is done or fails.
// Cancelling ctx aborts the turn at the next suspension point; history
// keeps every completed result, and the interrupted in-flight one is
// discarded.
func (l *Loop) HandleUserInput(ctx context.Context, input string) (*TurnResult, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	result := &TurnResult{TurnID: uuid.NewString()}
	log.Debug("turn %s started", result.TurnID)

	l.messages = append(l.messages, llm.Message{Role: "user", Content: input})
	l.trim()

	defs := l.dispatcher.Registry().Definitions()

	l.state = StateCallingModel
	for {
		if err := ctx.Err(); err != nil {
			l.state = StateAwaitingUserInput
			return nil, ErrInterrupted
		}

		response, err := l.model.ChatCompletionWithTools(ctx, l.messages, defs, nil)
		if err != nil {
			if ctx.Err() != nil {
				l.state = StateAwaitingUserInput
				return nil, ErrInterrupted
			}
			l.state = StateFailed
			return nil, fmt.Errorf("model call failed: %w", err)
		}
		if len(response.Choices) == 0 {
			l.state = StateFailed
			return nil, fmt.Errorf("model returned no choices")
		}
		message := response.Choices[0].Message

		if len(message.ToolCalls) > 0 {
			done, err := l.executeTools(ctx, result, message)
			if err != nil {
				return nil, err
			}
			if done {
				l.state = StateDone
				return result, nil
			}
			l.state = StateCallingModel
			continue
		}

		if finished := l.evaluateContinuation(result, message.Content); finished {
			l.state = StateDone
			log.Debug("turn %s done: %d tool calls, %d continuations",
				result.TurnID, result.ToolCalls, result.Continuations)
			return result, nil
		}
		l.state = StateCallingModel
	}
}

// executeTools dispatches the requested calls sequentially. It returns
// done=true when the tool call ceiling ended the turn.
func (l *Loop) executeTools(ctx context.Context, result *TurnResult, message llm.Message) (bool, error) {
	l.state = StateExecutingTools
	l.messages = append(l.messages, message)

	for i, call := range message.ToolCalls {
		if result.ToolCalls >= l.limits.MaxToolCalls {
			log.Warn("turn %s hit the tool call ceiling (%d)", result.TurnID, l.limits.MaxToolCalls)
			result.LimitExceeded = true
			result.Reply = limitExceededNotice
			// the skipped calls still need results so the history
			// stays well-formed for the next turn
			for _, skipped := range message.ToolCalls[i:] {
				l.messages = append(l.messages, llm.Message{
					Role:       "tool",
					ToolCallID: skipped.ID,
					Content:    "Error: tool call limit reached; call not executed",
				})
			}
			l.messages = append(l.messages, llm.Message{Role: "assistant", Content: limitExceededNotice})
			l.trim()
			return true, nil
		}
		result.ToolCalls++

		l.observer.OnToolCall(call.Function.Name)
		toolResult := l.dispatcher.Dispatch(ctx, result.TurnID, call)

		// an in-flight call cut short by cancellation is discarded
		if ctx.Err() != nil {
			l.state = StateAwaitingUserInput
			return false, ErrInterrupted
		}

		l.observer.OnToolResult(toolResult.Name, toolResult.Content, toolResult.IsError)
		l.messages = append(l.messages, llm.Message{
			Role:       "tool",
			ToolCallID: toolResult.CallID,
			Content:    toolResult.Content,
		})
	}

	l.trim()
	return false, nil
}

// evaluateContinuation judges a pure text reply. It returns true when
// the turn is finished and result.Reply is set.
func (l *Loop) evaluateContinuation(result *TurnResult, content string) bool {
	l.state = StateEvaluatingContinuation

	if content == "" {
		result.Reply = ""
		return true
	}
	l.messages = append(l.messages, llm.Message{Role: "assistant", Content: content})
	l.trim()

	if !l.policy.NeedsContinuation(content) || result.Continuations >= l.limits.MaxAutoContinue {
		result.Reply = content
		return true
	}

	result.Continuations++
	l.observer.OnAutoContinue(result.Continuations, l.limits.MaxAutoContinue)
	l.messages = append(l.messages, llm.Message{Role: "user", Content: continuePrompt})
	l.trim()
	return false
}

// trim drops the oldest messages above the history bound, always
// keeping the system prompt at index 0.
func (l *Loop) trim() {
	if len(l.messages) <= l.limits.MaxMessages {
		return
	}
	system := l.messages[0]
	tail := l.messages[len(l.messages)-(l.limits.MaxMessages-1):]
	trimmed := make([]llm.Message, 0, l.limits.MaxMessages)
	trimmed = append(trimmed, system)
	l.messages = append(trimmed, tail...)
}
