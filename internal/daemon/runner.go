// Package daemon runs the primary stickers process: it takes the instance
// lock, opens the store, restores stickers and their schedules, and serves
// "show window" requests from the IPC endpoint and the global hotkey until
// its context is cancelled.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/warpdl/stickers/common"
	"github.com/warpdl/stickers/internal/config"
	"github.com/warpdl/stickers/internal/executor"
	"github.com/warpdl/stickers/internal/instance"
	"github.com/warpdl/stickers/internal/notify"
	"github.com/warpdl/stickers/internal/registry"
	"github.com/warpdl/stickers/internal/scheduler"
	"github.com/warpdl/stickers/internal/sticker"
	"github.com/warpdl/stickers/internal/store"
	"github.com/warpdl/stickers/pkg/logger"
)

// Sentinel errors for the daemon runner.
var (
	// ErrAlreadyRunning is returned by Start in a secondary process after
	// the primary was asked to show its window.
	ErrAlreadyRunning = instance.ErrAlreadyRunning

	// ErrAlreadyStarted is returned when Start() is called on a running runner.
	ErrAlreadyStarted = errors.New("runner is already started")

	// ErrNotRunning is returned when Shutdown() is called on a stopped runner.
	ErrNotRunning = errors.New("runner is not running")

	// ErrShutdownTimeout is returned when shutdown exceeds the configured timeout.
	ErrShutdownTimeout = errors.New("shutdown timed out")
)

// DefaultShutdownTimeout bounds the wait for in-flight handlers on exit.
const DefaultShutdownTimeout = 10 * time.Second

// Config holds the configuration for the runner.
type Config struct {
	// DataDir holds the database, lock, config file and logs. Empty means
	// config.DataDir().
	DataDir string

	// Settings overrides <DataDir>/config.toml.
	Settings *config.Config

	// Endpoint overrides the per-user IPC endpoint.
	Endpoint string

	// ShutdownTimeout is the maximum time to wait for running timer and
	// command handlers on exit.
	ShutdownTimeout time.Duration
}

// Dependencies holds the external dependencies for the runner.
// This enables dependency injection for testing.
type Dependencies struct {
	// Fs is used for the config file and command working directories.
	Fs afero.Fs

	// Logger receives console output. If nil, stderr is used.
	Logger logger.Logger

	// Notifier shows timer notifications. If nil, desktop notifications
	// are used, falling back to the log.
	Notifier notify.Notifier

	// Window is the attached UI. If nil, a Headless window is used.
	Window Window

	// RegisterHotkey registers the global show chord. If nil,
	// instance.RegisterHotkey is used when enabled in the settings.
	RegisterHotkey func(onPress func(), l logger.Logger) (io.Closer, error)
}

// Runner manages the primary process lifecycle.
type Runner struct {
	config *Config
	deps   *Dependencies

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	stopped chan struct{}

	reg *registry.Registry
}

// New creates a new runner with the given configuration and dependencies.
// Nil arguments select the defaults.
func New(config *Config, deps *Dependencies) *Runner {
	return &Runner{
		config: applyConfigDefaults(config),
		deps:   applyDependencyDefaults(deps),
	}
}

// applyConfigDefaults returns a Config with default values applied.
func applyConfigDefaults(c *Config) *Config {
	if c == nil {
		c = &Config{}
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = DefaultShutdownTimeout
	}
	return c
}

// applyDependencyDefaults returns Dependencies with default values applied.
func applyDependencyDefaults(d *Dependencies) *Dependencies {
	if d == nil {
		d = &Dependencies{}
	}
	if d.Fs == nil {
		d.Fs = afero.NewOsFs()
	}
	if d.Logger == nil {
		flags := log.LstdFlags
		if config.Debug() {
			flags |= log.Lshortfile
		}
		d.Logger = logger.NewStandardLogger(log.New(os.Stderr, "stickers: ", flags))
	}
	return d
}

// Config returns the runner's configuration.
func (r *Runner) Config() *Config {
	return r.config
}

// Registry returns the live registry while the runner is started.
func (r *Runner) Registry() *registry.Registry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reg
}

// components are the pieces built by Start, in start order.
type components struct {
	log    logger.Logger
	file   *logger.FileLogger
	guard  *instance.Guard
	store  *store.Store
	sched  *scheduler.Scheduler
	hotkey io.Closer
}

// Start becomes the primary instance and blocks until ctx is cancelled or
// Shutdown is called. In a secondary process it asks the primary to show
// its window and returns ErrAlreadyRunning.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.stopped = make(chan struct{})
	r.running = true
	r.mu.Unlock()

	c, err := r.start(ctx)
	if err != nil {
		cancel()
		if c != nil {
			_ = r.stop(c)
		}
		r.markStopped()
		return err
	}

	<-ctx.Done()
	err = r.stop(c)
	r.markStopped()
	return err
}

func (r *Runner) start(ctx context.Context) (*components, error) {
	paths, err := config.Resolve(r.deps.Fs, r.config.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	settings := r.config.Settings
	if settings == nil {
		if settings, err = config.Load(r.deps.Fs, paths.ConfigFile()); err != nil {
			return nil, err
		}
	}

	c := &components{log: r.deps.Logger}
	if settings.Log.File {
		fl, err := logger.NewFileLogger(paths.LogDir())
		if err != nil {
			r.deps.Logger.Warning("file logging disabled: %v", err)
		} else {
			c.file = fl
			c.log = logger.NewMultiLogger(r.deps.Logger, fl)
		}
	}
	lg := c.log

	window := r.deps.Window
	if window == nil {
		window = NewHeadless(logger.Named(lg, "window"))
	}
	bridge := instance.NewBridge(window.Show, instance.DefaultDebounce, logger.Named(lg, "bridge"))

	guard, err := instance.Acquire(ctx, instance.Options{
		LockPath: paths.Lock(),
		Endpoint: r.config.Endpoint,
		Logger:   logger.Named(lg, "instance"),
	}, bridge.IPC())
	if err != nil {
		return c, err
	}
	c.guard = guard
	if le := guard.Broken(); le != nil {
		lg.Warning("recovered from stale instance: %v", le)
	}
	if settings.Debug() {
		lg.Info("debug: data dir %s, endpoint %s, settings %+v", paths.DataDir, guard.Endpoint(), *settings)
	}

	st, err := store.Open(paths.Database())
	if err != nil {
		return c, err
	}
	c.store = st
	lg.Info("database %s", st.Path())

	exec := executor.New(executor.Options{
		Timeout:        settings.Executor.Timeout.Duration,
		MaxOutputBytes: settings.Executor.MaxOutputBytes,
		MaxConcurrent:  settings.Executor.MaxConcurrent,
		Fs:             r.deps.Fs,
		Logger:         logger.Named(lg, "executor"),
	})
	notifier := r.deps.Notifier
	if notifier == nil {
		notifier = notify.Fallback{
			Primary:   notify.NewDesktop(common.AppID, logger.Named(lg, "notify")),
			Secondary: notify.Log{L: lg},
		}
	}
	reg := registry.New(registry.Deps{
		Store:    st,
		Runner:   exec,
		Notifier: notifier,
		Logger:   logger.Named(lg, "registry"),
	}, registryOptions(settings))
	c.sched = scheduler.New(ctx, reg, scheduler.WithLogger(logger.Named(lg, "scheduler")))
	reg.Bind(c.sched)

	go pumpEvents(ctx, reg, window)

	if err := reg.Load(ctx); err != nil {
		var se *store.StorageError
		if errors.As(err, &se) {
			return c, err
		}
		lg.Warning("some stickers could not be restored: %v", err)
	}

	if settings.Hotkey.Enabled {
		c.hotkey = r.registerHotkey(bridge.Hotkey(), logger.Named(lg, "hotkey"))
	}

	r.mu.Lock()
	r.reg = reg
	r.mu.Unlock()

	window.Show()
	lg.Info("ready with %d stickers", reg.Len())
	return c, nil
}

func (r *Runner) registerHotkey(onPress func(), l logger.Logger) io.Closer {
	register := r.deps.RegisterHotkey
	if register == nil {
		if !instance.HotkeySupported {
			l.Info("global hotkey not supported on this build")
			return nil
		}
		register = func(fn func(), l logger.Logger) (io.Closer, error) {
			return instance.RegisterHotkey(fn, l)
		}
	}
	hk, err := register(onPress, l)
	if err != nil {
		l.Warning("global hotkey unavailable: %v", err)
		return nil
	}
	return hk
}

// pumpEvents forwards registry events to the window until ctx ends.
func pumpEvents(ctx context.Context, reg *registry.Registry, w Window) {
	events := reg.Events()
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			w.Handle(ev)
		}
	}
}

func registryOptions(s *config.Config) registry.Options {
	return registry.Options{
		Screen:        sticker.Size{Width: s.Screen.Width, Height: s.Screen.Height},
		Offset:        s.Placement.Offset,
		Margin:        s.Placement.Margin,
		TimerDuration: s.Timer.DefaultDuration.Duration,
	}
}

// stop tears the components down in reverse start order. The scheduler
// context is already cancelled; in-flight handlers get ShutdownTimeout to
// return before the store is closed under them.
func (r *Runner) stop(c *components) error {
	var errs *multierror.Error
	if c.hotkey != nil {
		if err := c.hotkey.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("hotkey: %w", err))
		}
	}
	if c.sched != nil {
		if err := r.executeWithTimeout(func() error {
			c.sched.Wait()
			return nil
		}, r.config.ShutdownTimeout); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	r.mu.Lock()
	r.reg = nil
	r.mu.Unlock()
	if c.store != nil {
		if err := c.store.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c.guard != nil {
		if err := c.guard.Close(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("instance: %w", err))
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		c.log.Error("shutdown: %v", err)
	} else if c.guard != nil {
		c.log.Info("stopped")
	}
	if c.file != nil {
		_ = c.file.Close()
	}
	return errs.ErrorOrNil()
}

// executeWithTimeout runs a function with a timeout.
// Returns ErrShutdownTimeout if the function exceeds the timeout.
// Returns the function's error if it completes within the timeout.
func (r *Runner) executeWithTimeout(fn func() error, timeout time.Duration) error {
	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}

func (r *Runner) markStopped() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = false
	r.cancel = nil
	close(r.stopped)
}

// Shutdown stops a started runner and waits for Start to return.
// Returns ErrNotRunning if the runner is not running.
func (r *Runner) Shutdown() error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return ErrNotRunning
	}
	cancel, stopped := r.cancel, r.stopped
	r.mu.Unlock()

	cancel()
	<-stopped
	return nil
}

// IsRunning returns true if the runner is currently started.
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
