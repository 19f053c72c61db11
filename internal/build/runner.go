package build

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/danieljhkim/conflictfix/internal/logging"
)

// Invocation describes one build tool run.
type Invocation struct {
	Command string
	Args    []string
	Dir     string
	Env     []string
}

// String renders the command line.
func (i Invocation) String() string {
	return strings.TrimSpace(i.Command + " " + strings.Join(i.Args, " "))
}

// Output is the captured result of an invocation. Lines holds stdout and
// stderr interleaved in arrival order.
type Output struct {
	Lines    []string
	ExitCode int
	Duration time.Duration
}

// Runner executes a build tool.
type Runner interface {
	Run(ctx context.Context, inv Invocation) (*Output, error)
}

// MaxLineBytes bounds a single captured output line.
const MaxLineBytes = 1024 * 1024

// ExecRunner runs the build tool as a subprocess.
type ExecRunner struct {
	// Timeout kills the subprocess when exceeded. Zero means no limit.
	Timeout time.Duration

	// OnLine, if set, receives every output line as it arrives.
	OnLine func(line string)

	logger *slog.Logger
}

// NewExecRunner creates an ExecRunner.
func NewExecRunner(timeout time.Duration, logger *slog.Logger) *ExecRunner {
	return &ExecRunner{Timeout: timeout, logger: logging.OrDiscard(logger)}
}

// Run starts the subprocess and drains stdout and stderr concurrently into one
// line-ordered stream. It returns once both readers are done and the process
// has exited. A non-zero exit code is not an error. On timeout the process is
// killed and a *TimeoutError is returned; on cancellation ctx.Err() is.
func (r *ExecRunner) Run(ctx context.Context, inv Invocation) (*Output, error) {
	parent := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, inv.Command, inv.Args...)
	cmd.Dir = inv.Dir
	if len(inv.Env) > 0 {
		cmd.Env = inv.Env
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLaunch, inv.Command, err)
	}
	r.logOrDiscard().Debug("build started", slog.String("cmd", inv.String()), slog.String("dir", inv.Dir))

	// Children of the build tool may keep the pipes open after it is killed.
	stop := context.AfterFunc(ctx, func() {
		_ = stdout.Close()
		_ = stderr.Close()
	})
	defer stop()

	var (
		mu    sync.Mutex
		lines []string
	)
	emit := func(line string) {
		line = strings.TrimRight(line, "\r")
		mu.Lock()
		lines = append(lines, line)
		if r.OnLine != nil {
			r.OnLine(line)
		}
		mu.Unlock()
	}
	// Lines longer than MaxLineBytes are truncated, but the pipe is always
	// read to EOF so the subprocess never blocks on a full pipe.
	collect := func(rd io.Reader) func() error {
		return func() error {
			br := bufio.NewReaderSize(rd, 64*1024)
			var buf []byte
			for {
				chunk, isPrefix, err := br.ReadLine()
				if err != nil {
					if len(buf) > 0 {
						emit(string(buf))
					}
					if err == io.EOF || ctx.Err() != nil {
						return nil
					}
					return err
				}
				if room := MaxLineBytes - len(buf); room > 0 {
					buf = append(buf, chunk[:min(len(chunk), room)]...)
				}
				if !isPrefix {
					emit(string(buf))
					buf = buf[:0]
				}
			}
		}
	}

	var g errgroup.Group
	g.Go(collect(stdout))
	g.Go(collect(stderr))
	readErr := g.Wait()
	waitErr := cmd.Wait()

	out := &Output{Lines: lines, Duration: time.Since(start)}
	if cmd.ProcessState != nil {
		out.ExitCode = cmd.ProcessState.ExitCode()
	}

	if ctx.Err() != nil {
		if parent.Err() != nil {
			return out, parent.Err()
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return out, &TimeoutError{Command: inv.String(), Timeout: r.Timeout}
		}
	}
	if readErr != nil {
		return out, fmt.Errorf("%w: failed to read output: %v", ErrLaunch, readErr)
	}
	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return out, fmt.Errorf("%w: %v", ErrLaunch, waitErr)
	}
	return out, nil
}

func (r *ExecRunner) logOrDiscard() *slog.Logger {
	return logging.OrDiscard(r.logger)
}
