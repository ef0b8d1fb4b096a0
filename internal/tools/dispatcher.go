package tools

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/MimeLyc/kube-agent/internal/llm"
	"github.com/MimeLyc/kube-agent/pkg/log"
)

// Recorder receives a record of every executed tool call. Recording
// failures are logged and never affect the call's result.
type Recorder interface {
	RecordToolCall(turnID, tool, arguments string, ok bool, duration time.Duration, summary string) error
}

// Dispatcher executes tool calls against a registry. Every failure mode
// (unknown tool, bad arguments, handler error, timeout) produces a
// failed Result rather than an error, so the loop always has exactly
// one result per call to hand back to the model.
type Dispatcher struct {
	registry *Registry
	timeout  time.Duration
	recorder Recorder
	maxChars int
}

// NewDispatcher creates a dispatcher. timeout bounds each handler
// invocation; maxChars bounds each result's content.
func NewDispatcher(registry *Registry, timeout time.Duration, maxChars int, recorder Recorder) *Dispatcher {
	if maxChars <= 0 {
		maxChars = 3000
	}
	return &Dispatcher{
		registry: registry,
		timeout:  timeout,
		recorder: recorder,
		maxChars: maxChars,
	}
}

// Registry returns the underlying registry.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Dispatch executes one model tool call and returns its result.
func (d *Dispatcher) Dispatch(ctx context.Context, turnID string, call llm.ToolCall) Result {
	name := call.Function.Name
	started := time.Now()

	content, ok := d.execute(ctx, call)
	duration := time.Since(started)

	if len(content) > d.maxChars {
		content = clipRunes(content, d.maxChars) + "\n... (result truncated)"
	}

	if ok {
		log.Info("tool %s completed in %s", name, duration.Round(time.Millisecond))
	} else {
		log.Warn("tool %s failed in %s: %s", name, duration.Round(time.Millisecond), content)
	}

	if d.recorder != nil {
		summary := clipRunes(content, 200)
		if err := d.recorder.RecordToolCall(turnID, name, call.Function.Arguments, ok, duration, summary); err != nil {
			log.Warn("failed to record tool call %s: %v", name, err)
		}
	}

	return Result{
		CallID:  call.ID,
		Name:    name,
		Content: content,
		IsError: !ok,
	}
}

// clipRunes cuts s to at most max bytes without splitting a UTF-8
// sequence. Tool output is often Korean or Chinese, and a half rune in
// a result confuses the model.
func clipRunes(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func (d *Dispatcher) execute(ctx context.Context, call llm.ToolCall) (string, bool) {
	desc, found := d.registry.Lookup(call.Function.Name)
	if !found {
		return fmt.Sprintf("Error: unknown tool %q", call.Function.Name), false
	}

	args, err := DecodeArgs(call.Function.Arguments)
	if err != nil {
		return fmt.Sprintf("Error: %v", err), false
	}
	if err := ValidateArgs(desc.Parameters, args); err != nil {
		return fmt.Sprintf("Error: %v", err), false
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	out, err := desc.Handler(ctx, args)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return fmt.Sprintf("Error: tool %q timed out after %s", call.Function.Name, d.timeout), false
		}
		return fmt.Sprintf("Error: %v", err), false
	}
	return out, true
}
