// Package console is the interactive terminal frontend: a colored REPL
// that reads user prompts, shows tool activity while a turn runs, and
// renders the agent's replies.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"unicode/utf8"

	"github.com/fatih/color"

	"github.com/MimeLyc/kube-agent/internal/agent"
)

var (
	userStyle   = color.New(color.FgGreen, color.Bold)
	agentStyle  = color.New(color.FgBlue, color.Bold)
	toolStyle   = color.New(color.FgYellow, color.Bold)
	resultStyle = color.New(color.FgYellow)
	errorStyle  = color.New(color.FgRed, color.Bold)
	infoStyle   = color.New(color.FgCyan)
	bannerStyle = color.New(color.FgMagenta, color.Bold)
)

// Console drives the REPL on stdin/stdout.
type Console struct {
	loop           *agent.Loop
	in             *bufio.Reader
	out            io.Writer
	resultMaxChars int
}

// New creates a console bound to the loop. resultMaxChars bounds how
// much of each tool result is displayed.
func New(loop *agent.Loop, resultMaxChars int) *Console {
	if resultMaxChars <= 0 {
		resultMaxChars = 3000
	}
	c := &Console{
		loop:           loop,
		in:             bufio.NewReader(os.Stdin),
		out:            os.Stdout,
		resultMaxChars: resultMaxChars,
	}
	loop.SetObserver(c)
	return c
}

// Banner prints the startup banner.
func (c *Console) Banner(llmURL, namespace, giteaURL string) {
	fmt.Fprintln(c.out)
	bannerStyle.Fprintln(c.out, "-- kube-agent --")
	infoStyle.Fprint(c.out, "Connected to LLM: ")
	fmt.Fprintln(c.out, llmURL)
	infoStyle.Fprint(c.out, "Namespace:        ")
	fmt.Fprintln(c.out, namespace)
	infoStyle.Fprint(c.out, "Gitea:            ")
	if giteaURL != "" {
		fmt.Fprintln(c.out, giteaURL)
	} else {
		fmt.Fprintln(c.out, "(not configured)")
	}
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, "Type your message and press Enter. Ctrl+C to cancel, Ctrl+D to exit.")
	fmt.Fprintln(c.out)
}

// Run reads prompts until EOF or an exit command. Ctrl+C cancels the
// turn in progress and is ignored at the prompt; the session stays
// alive either way. Ctrl+D exits.
func (c *Console) Run(ctx context.Context) error {
	// trapped for the whole session so Ctrl+C at the prompt does not
	// kill the process
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// discard an interrupt that arrived while idle at the prompt
		select {
		case <-sigCh:
		default:
		}

		userStyle.Fprint(c.out, "You: ")
		line, err := c.in.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				c.goodbye()
				return nil
			}
			return err
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		switch strings.ToLower(input) {
		case "exit", "quit", "bye":
			c.goodbye()
			return nil
		}

		c.handleTurn(ctx, sigCh, input)
	}
}

func (c *Console) handleTurn(ctx context.Context, sigCh <-chan os.Signal, input string) {
	// SIGINT cancels this turn only
	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	turnDone := make(chan struct{})
	defer close(turnDone)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-turnDone:
		}
	}()

	fmt.Fprintln(c.out)
	infoStyle.Fprintln(c.out, "Thinking...")

	result, err := c.loop.HandleUserInput(turnCtx, input)
	if err != nil {
		if errors.Is(err, agent.ErrInterrupted) {
			fmt.Fprintln(c.out)
			infoStyle.Fprintln(c.out, "(cancelled)")
			return
		}
		fmt.Fprintln(c.out)
		errorStyle.Fprint(c.out, "Error: ")
		fmt.Fprintln(c.out, err)
		return
	}

	fmt.Fprintln(c.out)
	if result.Reply == "" {
		infoStyle.Fprintln(c.out, "(no response)")
		return
	}
	agentStyle.Fprint(c.out, "Agent: ")
	fmt.Fprintln(c.out, result.Reply)
}

func (c *Console) goodbye() {
	fmt.Fprintln(c.out)
	infoStyle.Fprintln(c.out, "Goodbye.")
}

// OnToolCall implements agent.Observer.
func (c *Console) OnToolCall(name string) {
	fmt.Fprintln(c.out)
	toolStyle.Fprintf(c.out, "Tool: %s\n", name)
}

// OnToolResult implements agent.Observer.
func (c *Console) OnToolResult(name, content string, isError bool) {
	display := content
	if len(display) > c.resultMaxChars {
		cut := c.resultMaxChars
		for cut > 0 && !utf8.RuneStart(display[cut]) {
			cut--
		}
		display = display[:cut] + "\n... (truncated)"
	}
	if isError {
		errorStyle.Fprintln(c.out, display)
		return
	}
	resultStyle.Fprintln(c.out, display)
}

// OnAutoContinue implements agent.Observer.
func (c *Console) OnAutoContinue(round, max int) {
	fmt.Fprintln(c.out)
	infoStyle.Fprintf(c.out, "Auto-continuing (%d/%d)...\n", round, max)
}
