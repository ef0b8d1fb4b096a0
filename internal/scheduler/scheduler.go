// Package scheduler runs a recurring prompt through the agent on a
// cron schedule, for unattended routine checks like a nightly cluster
// health report.
package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/MimeLyc/kube-agent/internal/agent"
	"github.com/MimeLyc/kube-agent/pkg/icron"
	"github.com/MimeLyc/kube-agent/pkg/log"
)

// Runner handles one scheduled prompt as a normal user turn.
// *agent.Loop satisfies it.
type Runner interface {
	HandleUserInput(ctx context.Context, input string) (*agent.TurnResult, error)
}

// Scheduler triggers a fixed prompt on a cron expression.
type Scheduler struct {
	runner     Runner
	cron       *cron.Cron
	expression string
	prompt     string
}

// New creates a scheduler. The expression must be a standard five-field
// cron spec.
func New(runner Runner, expression, prompt string) (*Scheduler, error) {
	if err := icron.Validate(expression); err != nil {
		return nil, err
	}
	return &Scheduler{
		runner:     runner,
		cron:       cron.New(),
		expression: expression,
		prompt:     prompt,
	}, nil
}

// Start registers the job and runs until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.expression, func() {
		s.runOnce(ctx)
	})
	if err != nil {
		return err
	}

	if info, err := icron.GetTriggerInfo(s.expression, time.Now()); err == nil {
		log.Info("scheduled prompt registered, next trigger at %s (in %s)",
			info.Next.Format("2006-01-02 15:04:05"), info.TimeUntilNext.Round(time.Second))
	}

	s.cron.Start()
	<-ctx.Done()

	stopCtx := s.cron.Stop()
	// let a running job finish before returning
	select {
	case <-stopCtx.Done():
	case <-time.After(30 * time.Second):
		log.Warn("scheduled job did not finish within 30s of shutdown")
	}
	return ctx.Err()
}

func (s *Scheduler) runOnce(ctx context.Context) {
	log.Info("scheduled prompt triggered")
	result, err := s.runner.HandleUserInput(ctx, s.prompt)
	if err != nil {
		log.Error("scheduled prompt failed: %v", err)
		return
	}
	log.Info("scheduled prompt done: %d tool calls, reply %d chars",
		result.ToolCalls, len(result.Reply))

	if info, err := icron.GetTriggerInfo(s.expression, time.Now()); err == nil {
		log.Info("next trigger at %s", info.Next.Format("2006-01-02 15:04:05"))
	}
}
