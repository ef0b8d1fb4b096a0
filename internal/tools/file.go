package tools

import (
	"context"

	"github.com/MimeLyc/kube-agent/internal/fileops"
)

// RegisterFileTools adds the sandboxed filesystem tools backed by ops.
func RegisterFileTools(registry *Registry, ops *fileops.Ops) {
	registry.MustRegister(Descriptor{
		Name:        "file_list",
		Description: "List the contents of a directory inside the agent workspace.",
		Parameters: objectSchema(map[string]property{
			"path":      {Type: "string", Description: "Directory to list"},
			"recursive": {Type: "boolean", Description: "Recurse into subdirectories (default false)"},
		}, "path"),
		Handler: func(ctx context.Context, args Args) (string, error) {
			return ops.List(args.String("path", ""), args.Bool("recursive", false))
		},
	})

	registry.MustRegister(Descriptor{
		Name:        "file_read",
		Description: "Read a text file inside the agent workspace.",
		Parameters: objectSchema(map[string]property{
			"path": {Type: "string", Description: "File to read"},
		}, "path"),
		Handler: func(ctx context.Context, args Args) (string, error) {
			return ops.Read(args.String("path", ""))
		},
	})

	registry.MustRegister(Descriptor{
		Name:        "file_write",
		Description: "Write content to a file inside the agent workspace, creating or overwriting it.",
		Parameters: objectSchema(map[string]property{
			"path":        {Type: "string", Description: "File to write"},
			"content":     {Type: "string", Description: "Content to write"},
			"create_dirs": {Type: "boolean", Description: "Create missing parent directories (default false)"},
		}, "path", "content"),
		Handler: func(ctx context.Context, args Args) (string, error) {
			return ops.Write(args.String("path", ""), args.String("content", ""), args.Bool("create_dirs", false))
		},
	})
}
