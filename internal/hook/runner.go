// Package hook runs operator-configured shell commands on task lifecycle
// events, e.g. syncing door codes when a cleaning task is created. Commands
// are parsed with the shfmt parser at startup so a typo fails fast instead
// of on the first booking.
package hook

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"mvdan.cc/sh/v3/syntax"
)

// Events hooks can be attached to.
const (
	EventTaskCreated   = "task_created"
	EventTaskCancelled = "task_cancelled"
)

const defaultTimeout = 30 * time.Second

type Runner struct {
	commands map[string]string
	timeout  time.Duration
}

// NewRunner validates the configured commands and returns a runner. The map
// is keyed by event name; empty commands are ignored.
func NewRunner(commands map[string]string, timeout time.Duration) (*Runner, error) {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	parser := syntax.NewParser()
	printer := syntax.NewPrinter(syntax.Minify(true))

	validated := make(map[string]string, len(commands))
	for event, command := range commands {
		if strings.TrimSpace(command) == "" {
			continue
		}
		prog, err := parser.Parse(strings.NewReader(command), event)
		if err != nil {
			return nil, fmt.Errorf("invalid %s hook command: %w", event, err)
		}
		// Store the minified one-liner so log lines stay single-line.
		var buf strings.Builder
		if err := printer.Print(&buf, prog); err != nil {
			return nil, fmt.Errorf("failed to format %s hook command: %w", event, err)
		}
		validated[event] = strings.TrimSpace(buf.String())
	}
	return &Runner{commands: validated, timeout: timeout}, nil
}

// Fire runs the hook for event in the background, exporting vars with a
// TURNKEY_ prefix into the command environment. Hook failures are logged
// and never propagate.
func (r *Runner) Fire(ctx context.Context, event string, vars map[string]string) {
	if r == nil {
		return
	}
	command, ok := r.commands[event]
	if !ok {
		return
	}

	go func() {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()

		cmd := exec.CommandContext(runCtx, "sh", "-c", command)
		cmd.Env = os.Environ()
		for k, v := range vars {
			cmd.Env = append(cmd.Env, fmt.Sprintf("TURNKEY_%s=%s", strings.ToUpper(k), v))
		}
		out, err := cmd.CombinedOutput()
		if err != nil {
			slog.Warn("hook command failed",
				"event", event,
				"command", command,
				"output", strings.TrimSpace(string(out)),
				"error", err,
			)
			return
		}
		slog.Debug("hook command finished", "event", event, "command", command)
	}()
}
