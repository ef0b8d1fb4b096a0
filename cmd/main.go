package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MimeLyc/kube-agent/internal/agent"
	"github.com/MimeLyc/kube-agent/internal/audit"
	"github.com/MimeLyc/kube-agent/internal/config"
	"github.com/MimeLyc/kube-agent/internal/console"
	"github.com/MimeLyc/kube-agent/internal/fileops"
	"github.com/MimeLyc/kube-agent/internal/gitea"
	"github.com/MimeLyc/kube-agent/internal/kube"
	"github.com/MimeLyc/kube-agent/internal/llm"
	"github.com/MimeLyc/kube-agent/internal/sandbox"
	"github.com/MimeLyc/kube-agent/internal/scheduler"
	"github.com/MimeLyc/kube-agent/internal/tools"
	"github.com/MimeLyc/kube-agent/pkg/log"
)

var flags struct {
	llmURL      string
	llmModel    string
	llmAPIKey   string
	giteaURL    string
	giteaToken  string
	namespace   string
	kubeContext string
	cronExpr    string
	cronPrompt  string
	verbose     bool
}

func main() {
	root := &cobra.Command{
		Use:   "kube-agent",
		Short: "Autonomous assistant for Kubernetes clusters and Gitea repositories",
		Long: `kube-agent is an interactive agent that manages a Kubernetes namespace
and a Gitea instance through an LLM with tool calling. It works against
any OpenAI-compatible endpoint and is built for offline on-premise use.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
		SilenceUsage: true,
	}

	root.Flags().StringVarP(&flags.llmURL, "llm-url", "l", "", "OpenAI-compatible API base URL")
	root.Flags().StringVarP(&flags.llmModel, "llm-model", "m", "", "model name")
	root.Flags().StringVar(&flags.llmAPIKey, "llm-api-key", "", "API key for the model endpoint")
	root.Flags().StringVarP(&flags.giteaURL, "gitea-url", "g", "", "Gitea server URL")
	root.Flags().StringVar(&flags.giteaToken, "gitea-token", "", "Gitea API token")
	root.Flags().StringVarP(&flags.namespace, "namespace", "n", "", "Kubernetes namespace to manage")
	root.Flags().StringVar(&flags.kubeContext, "kube-context", "", "kubeconfig context to use")
	root.Flags().StringVar(&flags.cronExpr, "cron-expr", "", "cron expression for a scheduled prompt")
	root.Flags().StringVar(&flags.cronPrompt, "cron-prompt", "", "prompt to run on the cron schedule")
	root.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "verbose logging")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// .env is optional; missing files are fine
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv(flagOptions()...)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	if cfg.Verbose {
		log.InitLogger(log.LevelDebug)
	} else {
		log.InitLogger(log.LevelInfo)
	}

	client, err := llm.NewClient(&llm.Config{
		APIKey:      cfg.LLM.APIKey,
		APIURL:      cfg.LLM.APIURL,
		Model:       cfg.LLM.Model,
		Temperature: 0.7,
		Timeout:     cfg.LLM.Timeout,
	})
	if err != nil {
		return fmt.Errorf("create LLM client: %w", err)
	}

	kubeClient, err := kube.NewClient(cfg.Kube.Context)
	if err != nil {
		return fmt.Errorf("connect to Kubernetes: %w", err)
	}
	kubeOps := kube.NewOps(kubeClient, cfg.Kube.Namespace)

	sb, err := sandbox.New(cfg.Sandbox.Roots)
	if err != nil {
		return fmt.Errorf("initialize sandbox: %w", err)
	}

	giteaOps, err := gitea.NewOps(cfg.Gitea.URL, cfg.Gitea.Token,
		time.Duration(cfg.Gitea.Timeout)*time.Second)
	if err != nil {
		return fmt.Errorf("connect to Gitea: %w", err)
	}

	var recorder tools.Recorder
	if cfg.Audit.DBPath != "" {
		store, err := audit.NewStore(cfg.Audit.DBPath)
		if err != nil {
			return fmt.Errorf("open audit log: %w", err)
		}
		defer store.Close()
		recorder = store
	}

	registry := tools.NewRegistry()
	tools.RegisterKubeTools(registry, kubeOps)
	tools.RegisterGiteaTools(registry, giteaOps, gitea.NewGit(sb))
	tools.RegisterFileTools(registry, fileops.New(sb))
	log.Info("%d tools registered", registry.Len())

	dispatcher := tools.NewDispatcher(registry,
		time.Duration(cfg.Agent.ToolTimeout)*time.Second,
		cfg.Agent.ToolResultMaxChars,
		recorder,
	)

	policy := agent.NewContinuationPolicy(cfg.Agent.MinSummaryChars, cfg.Agent.ExtraMarkers)
	loop := agent.NewLoop(client, dispatcher, policy, agent.Limits{
		MaxMessages:     cfg.Agent.MaxMessages,
		MaxToolCalls:    cfg.Agent.MaxToolCalls,
		MaxAutoContinue: cfg.Agent.MaxAutoContinue,
	})

	repl := console.New(loop, cfg.Agent.ToolResultMaxChars)
	repl.Banner(cfg.LLM.APIURL, cfg.Kube.Namespace, cfg.Gitea.URL)

	group, ctx := errgroup.WithContext(ctx)
	ctx, cancel := context.WithCancel(ctx)

	if cfg.Cron.Expr != "" {
		sched, err := scheduler.New(loop, cfg.Cron.Expr, cfg.Cron.Prompt)
		if err != nil {
			cancel()
			return fmt.Errorf("create scheduler: %w", err)
		}
		group.Go(func() error {
			err := sched.Start(ctx)
			if err == context.Canceled {
				return nil
			}
			return err
		})
	}

	group.Go(func() error {
		defer cancel()
		return repl.Run(ctx)
	})

	return group.Wait()
}

// flagOptions turns set flags into config options so they override the
// environment.
func flagOptions() []config.Option {
	var opts []config.Option
	if flags.llmURL != "" {
		opts = append(opts, func(c *config.Config) { c.LLM.APIURL = flags.llmURL })
	}
	if flags.llmModel != "" {
		opts = append(opts, func(c *config.Config) { c.LLM.Model = flags.llmModel })
	}
	if flags.llmAPIKey != "" {
		opts = append(opts, func(c *config.Config) { c.LLM.APIKey = flags.llmAPIKey })
	}
	if flags.giteaURL != "" {
		opts = append(opts, func(c *config.Config) { c.Gitea.URL = flags.giteaURL })
	}
	if flags.giteaToken != "" {
		opts = append(opts, func(c *config.Config) { c.Gitea.Token = flags.giteaToken })
	}
	if flags.namespace != "" {
		opts = append(opts, func(c *config.Config) { c.Kube.Namespace = flags.namespace })
	}
	if flags.kubeContext != "" {
		opts = append(opts, func(c *config.Config) { c.Kube.Context = flags.kubeContext })
	}
	if flags.cronExpr != "" {
		opts = append(opts, func(c *config.Config) { c.Cron.Expr = flags.cronExpr })
	}
	if flags.cronPrompt != "" {
		opts = append(opts, func(c *config.Config) { c.Cron.Prompt = flags.cronPrompt })
	}
	if flags.verbose {
		opts = append(opts, func(c *config.Config) { c.Verbose = true })
	}
	return opts
}
