package tools

import (
	"fmt"

	"github.com/MimeLyc/kube-agent/internal/llm"
)

// Registry holds the registered tools in insertion order. Order matters:
// the definitions sent to the model keep the order tools were added in.
type Registry struct {
	order   []string
	entries map[string]Descriptor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]Descriptor)}
}

// Register adds a tool. Registering the same name twice is an error.
func (r *Registry) Register(desc Descriptor) error {
	if desc.Name == "" {
		return fmt.Errorf("tool name must not be empty")
	}
	if desc.Handler == nil {
		return fmt.Errorf("tool %q has no handler", desc.Name)
	}
	if _, exists := r.entries[desc.Name]; exists {
		return fmt.Errorf("tool %q is already registered", desc.Name)
	}
	r.entries[desc.Name] = desc
	r.order = append(r.order, desc.Name)
	return nil
}

// MustRegister registers a tool and panics on error. Intended for the
// static tool tables built at startup.
func (r *Registry) MustRegister(desc Descriptor) {
	if err := r.Register(desc); err != nil {
		panic(err)
	}
}

// Lookup returns the descriptor for name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	desc, ok := r.entries[name]
	return desc, ok
}

// Names returns all tool names in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.order)
}

// Definitions renders the registry as tool definitions for a chat
// completion request, in registration order.
func (r *Registry) Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(r.order))
	for _, name := range r.order {
		desc := r.entries[name]
		defs = append(defs, llm.ToolDefinition{
			Type: "function",
			Function: llm.Function{
				Name:        desc.Name,
				Description: desc.Description,
				Parameters:  desc.Parameters,
			},
		})
	}
	return defs
}
