// Package gitea implements the forge capability adapter: repository and
// user administration through the Gitea REST API, plus local git working
// copies confined to the sandbox.
package gitea

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	giteasdk "code.gitea.io/sdk/gitea"
)

// NotConfiguredMessage is returned by every REST operation when no Gitea
// URL is set. The model sees it as an ordinary tool result and can tell
// the user instead of retrying.
const NotConfiguredMessage = "Gitea is not configured. Set KUBE_AGENT_GITEA_URL and KUBE_AGENT_GITEA_TOKEN to enable repository operations."

// Ops provides repository and user administration against one Gitea
// instance. A nil SDK client means Gitea was never configured.
type Ops struct {
	client *giteasdk.Client
	url    string
}

// NewOps connects to the Gitea instance at url. An empty url yields a
// degraded adapter whose operations all report that Gitea is not
// configured. timeout bounds every API request; <= 0 selects 30s.
func NewOps(url, token string, timeout time.Duration) (*Ops, error) {
	if url == "" {
		return &Ops{}, nil
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client, err := giteasdk.NewClient(url,
		giteasdk.SetToken(token),
		giteasdk.SetHTTPClient(&http.Client{Timeout: timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create gitea client for %s: %w", url, err)
	}
	return &Ops{client: client, url: url}, nil
}

// Configured reports whether a Gitea URL was provided.
func (o *Ops) Configured() bool {
	return o.client != nil
}

// ListRepos lists repositories visible to the token, up to 50.
func (o *Ops) ListRepos() (string, error) {
	if o.client == nil {
		return NotConfiguredMessage, nil
	}

	repos, _, err := o.client.SearchRepos(giteasdk.SearchRepoOptions{
		ListOptions: giteasdk.ListOptions{PageSize: 50},
	})
	if err != nil {
		return "", fmt.Errorf("failed to list repositories: %w", err)
	}
	if len(repos) == 0 {
		return "No repositories found.", nil
	}

	lines := []string{
		fmt.Sprintf("%-40s %-10s %-8s %s", "FULL NAME", "PRIVATE", "STARS", "DESCRIPTION"),
		strings.Repeat("-", 90),
	}
	for _, repo := range repos {
		lines = append(lines, fmt.Sprintf("%-40s %-10t %-8d %s",
			repo.FullName, repo.Private, repo.Stars, repo.Description))
	}
	return strings.Join(lines, "\n"), nil
}

// GetRepo returns the details of one repository.
func (o *Ops) GetRepo(owner, name string) (string, error) {
	if o.client == nil {
		return NotConfiguredMessage, nil
	}

	repo, _, err := o.client.GetRepo(owner, name)
	if err != nil {
		return "", fmt.Errorf("failed to get repository %s/%s: %w", owner, name, err)
	}

	lines := []string{
		fmt.Sprintf("Repository: %s", repo.FullName),
		fmt.Sprintf("  Description: %s", repo.Description),
		fmt.Sprintf("  Private: %t", repo.Private),
		fmt.Sprintf("  Default Branch: %s", repo.DefaultBranch),
		fmt.Sprintf("  Stars: %d, Forks: %d", repo.Stars, repo.Forks),
		fmt.Sprintf("  Clone URL: %s", repo.CloneURL),
	}
	if repo.Website != "" {
		lines = append(lines, fmt.Sprintf("  Website: %s", repo.Website))
	}
	lines = append(lines,
		fmt.Sprintf("  Created: %s", repo.Created.Format("2006-01-02 15:04:05")),
		fmt.Sprintf("  Updated: %s", repo.Updated.Format("2006-01-02 15:04:05")),
	)
	return strings.Join(lines, "\n"), nil
}

// CreateRepo creates a repository owned by the token's user. New
// repositories are auto-initialized so they can be cloned right away.
func (o *Ops) CreateRepo(name, description string, private bool) (string, error) {
	if o.client == nil {
		return NotConfiguredMessage, nil
	}

	repo, _, err := o.client.CreateRepo(giteasdk.CreateRepoOption{
		Name:        name,
		Description: description,
		Private:     private,
		AutoInit:    true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create repository %q: %w", name, err)
	}
	return fmt.Sprintf("Repository %s created.\n  Clone URL: %s", repo.FullName, repo.CloneURL), nil
}

// DeleteRepo deletes a repository. This is irreversible.
func (o *Ops) DeleteRepo(owner, name string) (string, error) {
	if o.client == nil {
		return NotConfiguredMessage, nil
	}

	if _, err := o.client.DeleteRepo(owner, name); err != nil {
		return "", fmt.Errorf("failed to delete repository %s/%s: %w", owner, name, err)
	}
	return fmt.Sprintf("Repository %s/%s deleted.", owner, name), nil
}

// ListBranches lists the branches of a repository.
func (o *Ops) ListBranches(owner, name string) (string, error) {
	if o.client == nil {
		return NotConfiguredMessage, nil
	}

	branches, _, err := o.client.ListRepoBranches(owner, name, giteasdk.ListRepoBranchesOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to list branches of %s/%s: %w", owner, name, err)
	}
	if len(branches) == 0 {
		return fmt.Sprintf("Repository %s/%s has no branches.", owner, name), nil
	}

	lines := make([]string, 0, len(branches)+1)
	lines = append(lines, fmt.Sprintf("Branches of %s/%s:", owner, name))
	for _, branch := range branches {
		line := fmt.Sprintf("  %s", branch.Name)
		if branch.Commit != nil {
			sha := branch.Commit.ID
			if len(sha) > 8 {
				sha = sha[:8]
			}
			line = fmt.Sprintf("%s (%s)", line, sha)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

// ListUsers lists all users on the instance. Requires an admin token.
func (o *Ops) ListUsers() (string, error) {
	if o.client == nil {
		return NotConfiguredMessage, nil
	}

	users, _, err := o.client.AdminListUsers(giteasdk.AdminListUsersOptions{
		ListOptions: giteasdk.ListOptions{PageSize: 50},
	})
	if err != nil {
		return "", fmt.Errorf("failed to list users: %w", err)
	}
	if len(users) == 0 {
		return "No users found.", nil
	}

	lines := []string{
		fmt.Sprintf("%-25s %-35s %-8s", "USERNAME", "EMAIL", "ADMIN"),
		strings.Repeat("-", 68),
	}
	for _, user := range users {
		lines = append(lines, fmt.Sprintf("%-25s %-35s %-8t",
			user.UserName, user.Email, user.IsAdmin))
	}
	return strings.Join(lines, "\n"), nil
}

// CreateWebhook creates a JSON webhook on a repository. Events defaults
// to push only.
func (o *Ops) CreateWebhook(owner, name, targetURL string, events []string) (string, error) {
	if o.client == nil {
		return NotConfiguredMessage, nil
	}
	if len(events) == 0 {
		events = []string{"push"}
	}

	hook, _, err := o.client.CreateRepoHook(owner, name, giteasdk.CreateHookOption{
		Type:   "gitea",
		Active: true,
		Events: events,
		Config: map[string]string{
			"url":          targetURL,
			"content_type": "json",
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create webhook on %s/%s: %w", owner, name, err)
	}
	return fmt.Sprintf("Webhook %d created on %s/%s.\n  URL: %s\n  Events: %s",
		hook.ID, owner, name, targetURL, strings.Join(events, ", ")), nil
}

// ListWebhooks lists the webhooks of a repository.
func (o *Ops) ListWebhooks(owner, name string) (string, error) {
	if o.client == nil {
		return NotConfiguredMessage, nil
	}

	hooks, _, err := o.client.ListRepoHooks(owner, name, giteasdk.ListHooksOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to list webhooks of %s/%s: %w", owner, name, err)
	}
	if len(hooks) == 0 {
		return fmt.Sprintf("Repository %s/%s has no webhooks.", owner, name), nil
	}

	lines := make([]string, 0, len(hooks)+1)
	lines = append(lines, fmt.Sprintf("Webhooks of %s/%s:", owner, name))
	for _, hook := range hooks {
		lines = append(lines, fmt.Sprintf("  [%d] %s -> %s (active=%t, events=%s)",
			hook.ID, hook.Type, hook.Config["url"], hook.Active, strings.Join(hook.Events, ",")))
	}
	return strings.Join(lines, "\n"), nil
}
