package convert

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/rs/zerolog"

	"github.com/ytget/youcube/internal/logx"
)

// DefaultWaitDelay bounds how long output pipes are drained after the
// process exits or is killed.
const DefaultWaitDelay = 5 * time.Second

// Command is one external process invocation
type Command struct {
	Tool string
	Path string
	Args []string
}

// Runner executes external processes, forwarding every output line to onLine
type Runner interface {
	Run(ctx context.Context, cmd Command, onLine func(string)) error
}

// ExitError reports a process that did not exit cleanly. Code is -1 when the
// process was killed or never started.
type ExitError struct {
	Tool string
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s exited with code %d: %v", e.Tool, e.Code, e.Err)
	}
	return fmt.Sprintf("%s exited with code %d", e.Tool, e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExecRunner runs processes with os/exec under a timeout
type ExecRunner struct {
	Timeout   time.Duration
	WaitDelay time.Duration
}

// Run starts the process, streams its combined stdout and stderr line by line
// and waits for it. The process is killed when ctx ends or the timeout expires.
func (r *ExecRunner) Run(ctx context.Context, c Command, onLine func(string)) error {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	log := logx.FromCtx(ctx).With().Str(logx.FieldTool, c.Tool).Logger()

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay <= 0 {
		cmd.WaitDelay = DefaultWaitDelay
	}

	pr, pw := io.Pipe()
	defer pr.Close()
	cmd.Stdout = pw
	cmd.Stderr = pw

	log.Debug().Str("path", c.Path).Strs("args", c.Args).Msg("Starting process")
	start := time.Now()
	if err := cmd.Start(); err != nil {
		pw.Close()
		return &ExitError{Tool: c.Tool, Code: -1, Err: err}
	}

	lw := logx.NewLineWriter(log, nil, zerolog.DebugLevel)
	done := make(chan error, 1)
	go func() {
		var fns []func(string)
		if onLine != nil {
			fns = append(fns, onLine)
		}
		err := lw.Pipe(pr, fns...)
		// Keep draining so the process never blocks on a full pipe.
		_, _ = io.Copy(io.Discard, pr)
		done <- err
	}()

	err := cmd.Wait()
	pw.Close()
	if pipeErr := <-done; pipeErr != nil {
		log.Warn().Err(pipeErr).Msg("Failed to read process output")
	}

	elapsed := time.Since(start)
	if err == nil {
		log.Debug().Dur("elapsed", elapsed).Msg("Process finished")
		return nil
	}

	exitErr := &ExitError{Tool: c.Tool, Code: -1, Err: err}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		exitErr.Code = ee.ExitCode()
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		exitErr.Err = errors.Join(err, ctxErr)
	}
	log.Warn().Int("code", exitErr.Code).Dur("elapsed", elapsed).Err(err).Msg("Process failed")
	return exitErr
}
