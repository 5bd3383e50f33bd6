package execs

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/charon/pkg/log"
)

// Executor runs a [Command], appending extra arguments to the configured ones.
type Executor struct {
	tracer    trace.Tracer
	cmd       *Command
	extraArgs []string
}

func NewExecutor(cmd *Command, args ...string) Executor {
	return Executor{
		tracer:    otel.Tracer("executor"),
		cmd:       cmd,
		extraArgs: args,
	}
}

func (e Executor) Exec(ctx context.Context) (*Result, error) {
	return e.ExecWithStdin(ctx, nil)
}

// ExecWithStdin runs the command with stdin attached. The invocation is
// bounded by the command's timeout.
func (e Executor) ExecWithStdin(ctx context.Context, stdin []byte) (*Result, error) {
	if e.cmd == nil || e.cmd.Command == "" {
		return nil, ErrEmptyCommand
	}

	ctx, span := e.tracer.Start(ctx, "exec", trace.WithAttributes(
		attribute.String("command", e.String()),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, e.cmd.GetTimeout())
	defer cancel()

	logger := log.WithContext(ctx).With(slog.String("command", e.String()))

	start := time.Now()

	allArgs := append([]string{}, e.cmd.Args...)
	allArgs = append(allArgs, e.extraArgs...)

	//nolint:gosec // G204: Subprocess launched with a potential tainted input or cmd arguments.
	cmd := exec.CommandContext(ctx, e.cmd.Command, allArgs...)
	cmd.Env = e.cmd.GetEnv()
	cmd.Stdin = bytes.NewReader(stdin)

	var stdout, stderr bytes.Buffer

	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	result := &Result{
		Stdout: stdout.Bytes(),
		Stderr: stderr.Bytes(),
	}

	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		logger.DebugContext(ctx, "command failed",
			slog.Duration("duration", time.Since(start)),
			slog.String("stderr", strings.TrimSpace(stderr.String())),
			slog.Any("error", err),
		)

		if stdout.Len() > 0 || stderr.Len() > 0 {
			return result, fmt.Errorf("%w: %w", ErrCommandExecution, err)
		}

		return nil, fmt.Errorf("%w: %w", ErrCommandExecution, err)
	}

	logger.DebugContext(ctx, "command executed successfully",
		slog.Duration("duration", time.Since(start)),
		slog.Int("stdout_bytes", stdout.Len()),
	)

	return result, nil
}

func (e Executor) String() string {
	if e.cmd == nil {
		return ""
	}

	allArgs := append([]string{}, e.cmd.Args...)
	allArgs = append(allArgs, e.extraArgs...)

	return strings.TrimSpace(fmt.Sprintf("%s %s", e.cmd.Command, strings.Join(allArgs, " ")))
}
