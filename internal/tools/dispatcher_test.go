package tools

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/kube-agent/internal/llm"
)

type memoryRecorder struct {
	mu      sync.Mutex
	records []string
}

func (r *memoryRecorder) RecordToolCall(turnID, tool, arguments string, ok bool, duration time.Duration, summary string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, fmt.Sprintf("%s ok=%t", tool, ok))
	return nil
}

func call(name, arguments string) llm.ToolCall {
	return llm.ToolCall{
		ID:   "call-1",
		Type: "function",
		Function: llm.FunctionCall{
			Name:      name,
			Arguments: arguments,
		},
	}
}

func TestDispatchSuccess(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(Descriptor{
		Name: "echo",
		Parameters: objectSchema(map[string]property{
			"text": {Type: "string"},
		}, "text"),
		Handler: func(ctx context.Context, args Args) (string, error) {
			return "echo: " + args.String("text", ""), nil
		},
	})
	recorder := &memoryRecorder{}
	dispatcher := NewDispatcher(registry, time.Second, 3000, recorder)

	result := dispatcher.Dispatch(context.Background(), "turn-1", call("echo", `{"text":"hello"}`))

	assert.Equal(t, "call-1", result.CallID)
	assert.Equal(t, "echo", result.Name)
	assert.Equal(t, "echo: hello", result.Content)
	assert.False(t, result.IsError)
	assert.Equal(t, []string{"echo ok=true"}, recorder.records)
}

func TestDispatchUnknownTool(t *testing.T) {
	dispatcher := NewDispatcher(NewRegistry(), time.Second, 3000, nil)

	result := dispatcher.Dispatch(context.Background(), "turn-1", call("nope", "{}"))

	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, `unknown tool "nope"`)
}

func TestDispatchMissingRequiredArgNeverInvokesHandler(t *testing.T) {
	invoked := false
	registry := NewRegistry()
	registry.MustRegister(Descriptor{
		Name: "strict",
		Parameters: objectSchema(map[string]property{
			"name": {Type: "string"},
		}, "name"),
		Handler: func(ctx context.Context, args Args) (string, error) {
			invoked = true
			return "should not run", nil
		},
	})
	dispatcher := NewDispatcher(registry, time.Second, 3000, nil)

	result := dispatcher.Dispatch(context.Background(), "turn-1", call("strict", "{}"))

	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, `missing required argument "name"`)
	assert.False(t, invoked)
}

func TestDispatchHandlerError(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(Descriptor{
		Name:       "boom",
		Parameters: emptySchema,
		Handler: func(ctx context.Context, args Args) (string, error) {
			return "", fmt.Errorf("cluster unreachable")
		},
	})
	recorder := &memoryRecorder{}
	dispatcher := NewDispatcher(registry, time.Second, 3000, recorder)

	result := dispatcher.Dispatch(context.Background(), "turn-1", call("boom", "{}"))

	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "cluster unreachable")
	assert.Equal(t, []string{"boom ok=false"}, recorder.records)
}

func TestDispatchTimeout(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(Descriptor{
		Name:       "slow",
		Parameters: emptySchema,
		Handler: func(ctx context.Context, args Args) (string, error) {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(5 * time.Second):
				return "done", nil
			}
		},
	})
	dispatcher := NewDispatcher(registry, 20*time.Millisecond, 3000, nil)

	result := dispatcher.Dispatch(context.Background(), "turn-1", call("slow", "{}"))

	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "timed out")
}

func TestDispatchTruncatesLongResults(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(Descriptor{
		Name:       "verbose",
		Parameters: emptySchema,
		Handler: func(ctx context.Context, args Args) (string, error) {
			return strings.Repeat("x", 10000), nil
		},
	})
	dispatcher := NewDispatcher(registry, time.Second, 3000, nil)

	result := dispatcher.Dispatch(context.Background(), "turn-1", call("verbose", "{}"))

	require.False(t, result.IsError)
	assert.LessOrEqual(t, len(result.Content), 3000+len("\n... (result truncated)"))
	assert.Contains(t, result.Content, "(result truncated)")
}

func TestDispatchTruncationKeepsValidUTF8(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(Descriptor{
		Name:       "korean",
		Parameters: emptySchema,
		Handler: func(ctx context.Context, args Args) (string, error) {
			return strings.Repeat("완료", 2000), nil
		},
	})
	// 100 is not a multiple of the 3-byte Hangul encoding, so a naive
	// byte slice would split a rune
	dispatcher := NewDispatcher(registry, time.Second, 100, nil)

	result := dispatcher.Dispatch(context.Background(), "turn-1", call("korean", "{}"))

	require.False(t, result.IsError)
	assert.True(t, utf8.ValidString(result.Content))
	assert.Contains(t, result.Content, "(result truncated)")
}

func TestDispatchBadArgumentJSON(t *testing.T) {
	registry := NewRegistry()
	registry.MustRegister(Descriptor{Name: "echo", Parameters: emptySchema, Handler: noopHandler})
	dispatcher := NewDispatcher(registry, time.Second, 3000, nil)

	result := dispatcher.Dispatch(context.Background(), "turn-1", call("echo", "{broken"))

	assert.True(t, result.IsError)
	assert.Contains(t, result.Content, "invalid tool arguments")
}
