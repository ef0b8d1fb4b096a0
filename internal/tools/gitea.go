package tools

import (
	"context"

	"github.com/MimeLyc/kube-agent/internal/gitea"
)

// RegisterGiteaTools adds the forge tools: repository and user
// administration through the Gitea API, plus local git operations on
// sandboxed working copies.
func RegisterGiteaTools(registry *Registry, ops *gitea.Ops, git *gitea.Git) {
	registry.MustRegister(Descriptor{
		Name:        "gitea_list_repos",
		Description: "List repositories on the Gitea instance.",
		Parameters:  emptySchema,
		Handler: func(ctx context.Context, args Args) (string, error) {
			return ops.ListRepos()
		},
	})

	registry.MustRegister(Descriptor{
		Name:        "gitea_get_repo",
		Description: "Get detailed information about a specific repository.",
		Parameters: objectSchema(map[string]property{
			"owner": {Type: "string", Description: "Owner of the repository"},
			"name":  {Type: "string", Description: "Name of the repository"},
		}, "owner", "name"),
		Handler: func(ctx context.Context, args Args) (string, error) {
			return ops.GetRepo(args.String("owner", ""), args.String("name", ""))
		},
	})

	registry.MustRegister(Descriptor{
		Name:        "gitea_create_repo",
		Description: "Create a new repository owned by the configured user. The repository is initialized with a first commit.",
		Parameters: objectSchema(map[string]property{
			"name":        {Type: "string", Description: "Name of the new repository"},
			"description": {Type: "string", Description: "Repository description"},
			"private":     {Type: "boolean", Description: "Create as a private repository (default false)"},
		}, "name"),
		Handler: func(ctx context.Context, args Args) (string, error) {
			return ops.CreateRepo(args.String("name", ""), args.String("description", ""), args.Bool("private", false))
		},
	})

	registry.MustRegister(Descriptor{
		Name:        "gitea_delete_repo",
		Description: "Delete a repository. This cannot be undone.",
		Parameters: objectSchema(map[string]property{
			"owner": {Type: "string", Description: "Owner of the repository"},
			"name":  {Type: "string", Description: "Name of the repository"},
		}, "owner", "name"),
		Handler: func(ctx context.Context, args Args) (string, error) {
			return ops.DeleteRepo(args.String("owner", ""), args.String("name", ""))
		},
	})

	registry.MustRegister(Descriptor{
		Name:        "gitea_list_branches",
		Description: "List the branches of a repository.",
		Parameters: objectSchema(map[string]property{
			"owner": {Type: "string", Description: "Owner of the repository"},
			"repo":  {Type: "string", Description: "Name of the repository"},
		}, "owner", "repo"),
		Handler: func(ctx context.Context, args Args) (string, error) {
			return ops.ListBranches(args.String("owner", ""), args.String("repo", ""))
		},
	})

	registry.MustRegister(Descriptor{
		Name:        "gitea_list_users",
		Description: "List all users on the Gitea instance. Requires an admin token.",
		Parameters:  emptySchema,
		Handler: func(ctx context.Context, args Args) (string, error) {
			return ops.ListUsers()
		},
	})

	registry.MustRegister(Descriptor{
		Name:        "gitea_create_webhook",
		Description: "Create a JSON webhook on a repository. Defaults to push events.",
		Parameters: objectSchema(map[string]property{
			"owner":      {Type: "string", Description: "Owner of the repository"},
			"repo":       {Type: "string", Description: "Name of the repository"},
			"target_url": {Type: "string", Description: "URL the webhook will POST to"},
			"events":     {Type: "array", Items: &Items{Type: "string"}, Description: "Events to trigger on (default: push)"},
		}, "owner", "repo", "target_url"),
		Handler: func(ctx context.Context, args Args) (string, error) {
			return ops.CreateWebhook(args.String("owner", ""), args.String("repo", ""),
				args.String("target_url", ""), args.StringSlice("events"))
		},
	})

	registry.MustRegister(Descriptor{
		Name:        "gitea_list_webhooks",
		Description: "List the webhooks of a repository.",
		Parameters: objectSchema(map[string]property{
			"owner": {Type: "string", Description: "Owner of the repository"},
			"repo":  {Type: "string", Description: "Name of the repository"},
		}, "owner", "repo"),
		Handler: func(ctx context.Context, args Args) (string, error) {
			return ops.ListWebhooks(args.String("owner", ""), args.String("repo", ""))
		},
	})

	registry.MustRegister(Descriptor{
		Name:        "gitea_clone_repo",
		Description: "Clone a repository into a directory inside the agent workspace.",
		Parameters: objectSchema(map[string]property{
			"repo_url": {Type: "string", Description: "Clone URL of the repository"},
			"path":     {Type: "string", Description: "Target directory (must be inside the workspace and must not exist)"},
		}, "repo_url", "path"),
		Handler: func(ctx context.Context, args Args) (string, error) {
			return git.Clone(ctx, args.String("repo_url", ""), args.String("path", ""))
		},
	})

	registry.MustRegister(Descriptor{
		Name:        "gitea_git_pull",
		Description: "Pull the latest changes into a cloned working copy.",
		Parameters: objectSchema(map[string]property{
			"path": {Type: "string", Description: "Path of the working copy"},
		}, "path"),
		Handler: func(ctx context.Context, args Args) (string, error) {
			return git.Pull(ctx, args.String("path", ""))
		},
	})

	registry.MustRegister(Descriptor{
		Name:        "gitea_git_status",
		Description: "Show uncommitted changes in a working copy.",
		Parameters: objectSchema(map[string]property{
			"path": {Type: "string", Description: "Path of the working copy"},
		}, "path"),
		Handler: func(ctx context.Context, args Args) (string, error) {
			return git.Status(ctx, args.String("path", ""))
		},
	})

	registry.MustRegister(Descriptor{
		Name:        "gitea_commit_and_push",
		Description: "Stage all changes in a working copy, commit them with a message, and push.",
		Parameters: objectSchema(map[string]property{
			"path":    {Type: "string", Description: "Path of the working copy"},
			"message": {Type: "string", Description: "Commit message"},
		}, "path", "message"),
		Handler: func(ctx context.Context, args Args) (string, error) {
			return git.CommitAndPush(ctx, args.String("path", ""), args.String("message", ""))
		},
	})
}
