// Package tools holds the registry of callable tools and the dispatcher
// that turns model tool calls into executed results.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// Handler executes one tool call. The returned string is what the model
// sees; an error becomes a failed result, never an aborted turn.
type Handler func(ctx context.Context, args Args) (string, error)

// Descriptor describes a registered tool: its name, what it does, the
// JSON schema of its parameters, and the code that runs it.
type Descriptor struct {
	Name        string
	Description string
	Parameters  json.RawMessage
	Handler     Handler
}

// Result is the uniform outcome of one tool call.
type Result struct {
	CallID  string
	Name    string
	Content string
	IsError bool
}

// Args holds the decoded arguments of one tool call.
type Args map[string]interface{}

// String returns a string argument, or def when absent.
func (a Args) String(key, def string) string {
	if v, ok := a[key].(string); ok {
		return v
	}
	return def
}

// Int returns an integer argument, or def when absent. JSON numbers
// decode as float64, so integral floats are accepted.
func (a Args) Int(key string, def int) int {
	switch v := a[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

// Bool returns a boolean argument, or def when absent.
func (a Args) Bool(key string, def bool) bool {
	if v, ok := a[key].(bool); ok {
		return v
	}
	return def
}

// StringSlice returns an array-of-strings argument, or nil when absent.
func (a Args) StringSlice(key string) []string {
	raw, ok := a[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// DecodeArgs parses the raw JSON arguments of a tool call. An empty
// payload decodes to empty args.
func DecodeArgs(raw string) (Args, error) {
	if raw == "" {
		return Args{}, nil
	}
	var args Args
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("invalid tool arguments: %w", err)
	}
	if args == nil {
		args = Args{}
	}
	return args, nil
}
