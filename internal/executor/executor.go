// Package executor runs command-sticker commands as child processes with
// bounded output capture, a timeout that kills the whole process tree, and
// a global concurrency limit.
package executor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-shellwords"
	"github.com/spf13/afero"

	"github.com/warpdl/stickers/pkg/logger"
)

const (
	DefaultTimeout        = 30 * time.Second
	DefaultMaxOutputBytes = 64 << 10
	DefaultMaxConcurrent  = 4

	// waitDelay bounds how long Wait keeps reading pipes after the child
	// exited or was killed.
	waitDelay = 2 * time.Second
)

// Request describes one run.
type Request struct {
	Command    string
	Env        map[string]string
	WorkingDir string
	// Timeout overrides the executor default when positive.
	Timeout time.Duration
}

// Result is the outcome of a run that started.
type Result struct {
	Stdout    string
	Stderr    string
	ExitCode  int
	Truncated bool
	Duration  time.Duration
}

// Options configures an Executor. Zero values select the defaults.
type Options struct {
	Timeout        time.Duration
	MaxOutputBytes int
	MaxConcurrent  int
	Fs             afero.Fs
	Logger         logger.Logger
}

// Executor runs commands. It is safe for concurrent use.
type Executor struct {
	timeout  time.Duration
	maxBytes int
	sem      chan struct{}
	fs       afero.Fs
	log      logger.Logger

	lookPath func(string) (string, error)
	environ  func() []string
}

// New creates an Executor.
func New(opts Options) *Executor {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.MaxOutputBytes <= 0 {
		opts.MaxOutputBytes = DefaultMaxOutputBytes
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = DefaultMaxConcurrent
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	return &Executor{
		timeout:  opts.Timeout,
		maxBytes: opts.MaxOutputBytes,
		sem:      make(chan struct{}, opts.MaxConcurrent),
		fs:       opts.Fs,
		log:      opts.Logger,
		lookPath: exec.LookPath,
		environ:  os.Environ,
	}
}

// ParseCommand splits a command string into program and arguments using
// shell-word rules. Shell operators (pipes, redirections, separators) are
// rejected since no shell is involved.
func ParseCommand(command string) ([]string, error) {
	p := shellwords.NewParser()
	p.ParseEnv = false
	p.ParseBacktick = false
	args, err := p.Parse(command)
	if err != nil {
		return nil, err
	}
	if p.Position >= 0 {
		return nil, fmt.Errorf("unsupported shell operator at offset %d", p.Position)
	}
	if len(args) == 0 {
		return nil, errors.New("empty command")
	}
	return args, nil
}

// Run executes req and blocks until the process exits, the timeout expires
// or ctx is cancelled. A non-zero exit is not an error; it is reported in
// Result.ExitCode.
func (e *Executor) Run(ctx context.Context, req Request) (*Result, error) {
	cmd, err := e.prepare(req)
	if err != nil {
		return nil, &SpawnError{Command: req.Command, Err: err}
	}

	select {
	case e.sem <- struct{}{}:
		defer func() { <-e.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	timeout := e.timeout
	if req.Timeout > 0 {
		timeout = req.Timeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	stdout := newCappedBuffer(e.maxBytes)
	stderr := newCappedBuffer(e.maxBytes)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	configureProcess(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, &SpawnError{Command: req.Command, Err: err}
	}
	tree, err := trackTree(cmd)
	if err != nil {
		e.log.Warning("track process tree of %q: %v", req.Command, err)
	}
	defer tree.release()

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	var (
		waitErr error
		killed  bool
	)
	select {
	case waitErr = <-done:
	case <-runCtx.Done():
		killed = true
		if err := tree.kill(); err != nil {
			e.log.Warning("kill %q: %v", req.Command, err)
		}
		waitErr = <-done
	}

	res := &Result{
		Stdout:    stdout.String(),
		Stderr:    stderr.String(),
		Truncated: stdout.Truncated() || stderr.Truncated(),
		Duration:  time.Since(start),
	}

	if killed {
		res.ExitCode = -1
		if ctx.Err() != nil {
			return res, fmt.Errorf("run %q: %w", req.Command, ctx.Err())
		}
		return res, &TimeoutError{Command: req.Command, Timeout: timeout, Partial: res}
	}

	var ee *exec.ExitError
	switch {
	case waitErr == nil:
	case errors.As(waitErr, &ee):
		res.ExitCode = ee.ExitCode()
	case errors.Is(waitErr, exec.ErrWaitDelay):
		// The child exited but something it spawned kept the pipes open.
		res.ExitCode = cmd.ProcessState.ExitCode()
	default:
		return res, fmt.Errorf("run %q: %w", req.Command, waitErr)
	}
	return res, nil
}

func (e *Executor) prepare(req Request) (*exec.Cmd, error) {
	args, err := ParseCommand(req.Command)
	if err != nil {
		return nil, err
	}

	dir := strings.TrimSpace(req.WorkingDir)
	if dir != "" {
		fi, err := e.fs.Stat(dir)
		if err != nil {
			return nil, fmt.Errorf("working directory: %w", err)
		}
		if !fi.IsDir() {
			return nil, fmt.Errorf("working directory %s is not a directory", dir)
		}
	}

	prog := args[0]
	if dir != "" && !filepath.IsAbs(prog) && strings.ContainsRune(prog, filepath.Separator) {
		prog = filepath.Join(dir, prog)
	}
	path, err := e.lookPath(prog)
	if err != nil {
		return nil, err
	}

	cmd := exec.Command(path, args[1:]...)
	cmd.Dir = dir
	cmd.Env = mergeEnv(e.environ(), req.Env)
	return cmd, nil
}
