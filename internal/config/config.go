package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all agent configuration
// Supports environment variables with sensible defaults; CLI flags
// override environment values (flag > env > default).
//
// Environment Variables:
// LLM Configuration:
// - KUBE_AGENT_LLM_URL: OpenAI-compatible API base URL (default: in-cluster LiteLLM endpoint)
// - KUBE_AGENT_LLM_API_KEY: API key (default: "no-key")
// - KUBE_AGENT_LLM_MODEL: Model name (default: gpt-4o)
// - KUBE_AGENT_LLM_TIMEOUT: Model call timeout in seconds (default: 120)
//
// Gitea Configuration:
// - KUBE_AGENT_GITEA_URL: Gitea server URL (empty disables Gitea tools)
// - KUBE_AGENT_GITEA_TOKEN: Gitea API token
// - KUBE_AGENT_GITEA_TIMEOUT: Gitea HTTP timeout in seconds (default: 30)
//
// Kubernetes Configuration:
// - KUBE_AGENT_NAMESPACE: Default namespace (default: default)
// - KUBE_AGENT_CONTEXT: Kubeconfig context (empty uses the current one)
//
// Loop Limits:
// - KUBE_AGENT_MAX_MESSAGES: History cap, system prompt excluded from eviction (default: 80)
// - KUBE_AGENT_MAX_TOOL_CALLS: Tool calls allowed per user turn (default: 30)
// - KUBE_AGENT_MAX_AUTO_CONTINUE: Autonomous continuations per user turn (default: 5)
// - KUBE_AGENT_TOOL_TIMEOUT: Per-tool-call timeout in seconds (default: 120)
// - KUBE_AGENT_TOOL_RESULT_MAX_CHARS: Display cap for tool output (default: 3000)
//
// Continuation Heuristic:
// - KUBE_AGENT_MIN_SUMMARY_CHARS: Minimum reply length counting as a summary (default: 80)
// - KUBE_AGENT_COMPLETION_MARKERS: Extra completion markers, comma separated
//
// Sandbox / Audit / Cron:
// - KUBE_AGENT_SANDBOX_DIRS: Allowed root directories, comma separated (default: "/tmp,/home/agent")
// - KUBE_AGENT_AUDIT_DB: Path of the sqlite audit log (empty disables auditing)
// - KUBE_AGENT_CRON_EXPR / KUBE_AGENT_CRON_PROMPT: Scheduled prompt (both required to enable)
type Config struct {
	LLM     LLMConfig     `json:"llm"`
	Gitea   GiteaConfig   `json:"gitea"`
	Kube    KubeConfig    `json:"kube"`
	Agent   AgentConfig   `json:"agent"`
	Sandbox SandboxConfig `json:"sandbox"`
	Audit   AuditConfig   `json:"audit"`
	Cron    CronConfig    `json:"cron"`

	Verbose bool `json:"verbose"`
}

// LLMConfig holds the connection settings for the model endpoint.
type LLMConfig struct {
	APIURL  string `json:"api_url"`
	APIKey  string `json:"api_key"`
	Model   string `json:"model"`
	Timeout int    `json:"timeout"`
}

// GiteaConfig holds the Gitea server connection settings.
type GiteaConfig struct {
	URL     string `json:"url"`
	Token   string `json:"token"`
	Timeout int    `json:"timeout"`
}

// KubeConfig holds the cluster access settings.
type KubeConfig struct {
	Namespace string `json:"namespace"`
	Context   string `json:"context"`
}

// AgentConfig holds the loop limits and the continuation heuristic knobs.
type AgentConfig struct {
	MaxMessages        int      `json:"max_messages"`
	MaxToolCalls       int      `json:"max_tool_calls"`
	MaxAutoContinue    int      `json:"max_auto_continue"`
	ToolTimeout        int      `json:"tool_timeout"`
	ToolResultMaxChars int      `json:"tool_result_max_chars"`
	MinSummaryChars    int      `json:"min_summary_chars"`
	ExtraMarkers       []string `json:"extra_markers"`
}

// SandboxConfig holds the allow-listed root directories for file and git tools.
type SandboxConfig struct {
	Roots []string `json:"roots"`
}

// AuditConfig holds the tool-execution log settings.
type AuditConfig struct {
	DBPath string `json:"db_path"`
}

// CronConfig holds the optional scheduled prompt.
type CronConfig struct {
	Expr   string `json:"expr"`
	Prompt string `json:"prompt"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv creates a new Config instance with values from environment
// variables and options. Options run after the environment is read, so a
// flag-derived option wins over its environment variable.
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		LLM: LLMConfig{
			APIURL:  getEnvString("KUBE_AGENT_LLM_URL", "http://litellm.litellm.svc.cluster.local:4000/v1"),
			APIKey:  getEnvString("KUBE_AGENT_LLM_API_KEY", "no-key"),
			Model:   getEnvString("KUBE_AGENT_LLM_MODEL", "gpt-4o"),
			Timeout: getEnvInt("KUBE_AGENT_LLM_TIMEOUT", 120),
		},
		Gitea: GiteaConfig{
			URL:     getEnvString("KUBE_AGENT_GITEA_URL", ""),
			Token:   getEnvString("KUBE_AGENT_GITEA_TOKEN", ""),
			Timeout: getEnvInt("KUBE_AGENT_GITEA_TIMEOUT", 30),
		},
		Kube: KubeConfig{
			Namespace: getEnvString("KUBE_AGENT_NAMESPACE", "default"),
			Context:   getEnvString("KUBE_AGENT_CONTEXT", ""),
		},
		Agent: AgentConfig{
			MaxMessages:        getEnvInt("KUBE_AGENT_MAX_MESSAGES", 80),
			MaxToolCalls:       getEnvInt("KUBE_AGENT_MAX_TOOL_CALLS", 30),
			MaxAutoContinue:    getEnvInt("KUBE_AGENT_MAX_AUTO_CONTINUE", 5),
			ToolTimeout:        getEnvInt("KUBE_AGENT_TOOL_TIMEOUT", 120),
			ToolResultMaxChars: getEnvInt("KUBE_AGENT_TOOL_RESULT_MAX_CHARS", 3000),
			MinSummaryChars:    getEnvInt("KUBE_AGENT_MIN_SUMMARY_CHARS", 80),
			ExtraMarkers:       getEnvList("KUBE_AGENT_COMPLETION_MARKERS", nil),
		},
		Sandbox: SandboxConfig{
			Roots: getEnvList("KUBE_AGENT_SANDBOX_DIRS", []string{"/tmp", "/home/agent"}),
		},
		Audit: AuditConfig{
			DBPath: getEnvString("KUBE_AGENT_AUDIT_DB", ""),
		},
		Cron: CronConfig{
			Expr:   getEnvString("KUBE_AGENT_CRON_EXPR", ""),
			Prompt: getEnvString("KUBE_AGENT_CRON_PROMPT", ""),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// validate checks that the resolved configuration is usable.
func (c *Config) validate() error {
	if c.LLM.APIURL == "" {
		return fmt.Errorf("LLM API URL is required")
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("LLM model is required")
	}
	if c.Agent.MaxToolCalls < 1 {
		return fmt.Errorf("max tool calls must be greater than 0")
	}
	if c.Agent.MaxAutoContinue < 0 {
		return fmt.Errorf("max auto continue must not be negative")
	}
	if len(c.Sandbox.Roots) == 0 {
		return fmt.Errorf("at least one sandbox root is required")
	}
	if (c.Cron.Expr == "") != (c.Cron.Prompt == "") {
		return fmt.Errorf("cron expression and cron prompt must be set together")
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvList gets a comma-separated list from environment variables with default
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	ret := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			ret = append(ret, trimmed)
		}
	}
	if len(ret) == 0 {
		return defaultValue
	}
	return ret
}
