package instance

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/hashicorp/go-multierror"

	"github.com/warpdl/stickers/pkg/logger"
)

// Options configure Acquire.
type Options struct {
	// LockPath is the lock file, normally <data dir>/stickers.lock.
	LockPath string
	// Endpoint overrides the per-user socket path or pipe name.
	Endpoint string
	Logger   logger.Logger
	// Attempts and RetryDelay bound how long a secondary waits for the
	// primary to answer before treating the lock as stale.
	Attempts   int
	RetryDelay time.Duration
	// CallTimeout bounds a single show request.
	CallTimeout time.Duration
}

const (
	defaultAttempts    = 5
	defaultRetryDelay  = 200 * time.Millisecond
	defaultCallTimeout = 2 * time.Second
)

// Guard is held by the primary instance for its lifetime.
type Guard struct {
	lock     *lockFile
	listener net.Listener
	endpoint string
	log      logger.Logger
	show     func()
	broken   *LockError

	closing chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex
	servers map[*jrpc2.Server]struct{}
	closed  bool
}

// Acquire makes the calling process the primary instance, or hands off to
// an existing one. In the primary, show is called for every "show"
// request received over IPC and Acquire returns the Guard. In a secondary,
// the primary is asked to show its window and Acquire returns
// ErrAlreadyRunning. A lock whose holder does not answer is broken and the
// caller becomes the primary; Broken then reports what was broken.
func Acquire(ctx context.Context, opts Options, show func()) (*Guard, error) {
	if opts.LockPath == "" {
		return nil, errors.New("instance: lock path is empty")
	}
	if show == nil {
		return nil, errors.New("instance: show callback is nil")
	}
	if opts.Endpoint == "" {
		opts.Endpoint = defaultEndpoint()
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNopLogger()
	}
	if opts.Attempts <= 0 {
		opts.Attempts = defaultAttempts
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = defaultRetryDelay
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = defaultCallTimeout
	}
	log := opts.Logger

	lf, err := tryLock(opts.LockPath)
	if err == nil {
		return becomePrimary(lf, opts, show, nil)
	}
	if !errors.Is(err, errLocked) {
		return nil, fmt.Errorf("instance lock %s: %w", opts.LockPath, err)
	}

	pid, showErr := requestShowRetry(ctx, opts.Endpoint, opts.Attempts, opts.RetryDelay, opts.CallTimeout)
	if showErr == nil {
		log.Info("handed off to running instance (pid %d)", pid)
		return nil, ErrAlreadyRunning
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	le := &LockError{Path: opts.LockPath, Err: showErr}
	if pid, err := readPID(opts.LockPath); err == nil {
		le.PID = pid
		le.Alive = isProcessRunning(pid)
	}
	log.Warning("%v; breaking stale lock", le)

	if err := breakLock(opts.LockPath); err != nil {
		le.Err = multierror.Append(le.Err, fmt.Errorf("break lock: %w", err))
		return nil, le
	}
	_ = cleanupEndpoint(opts.Endpoint)
	lf, err = tryLock(opts.LockPath)
	if err != nil {
		le.Err = multierror.Append(le.Err, fmt.Errorf("relock: %w", err))
		return nil, le
	}
	return becomePrimary(lf, opts, show, le)
}

func becomePrimary(lf *lockFile, opts Options, show func(), broken *LockError) (*Guard, error) {
	if err := lf.writePID(); err != nil {
		lf.release()
		return nil, fmt.Errorf("write pid: %w", err)
	}
	l, err := listen(opts.Endpoint)
	if err != nil {
		lf.release()
		return nil, fmt.Errorf("listen on %s: %w", opts.Endpoint, err)
	}
	g := &Guard{
		lock:     lf,
		listener: l,
		endpoint: opts.Endpoint,
		log:      opts.Logger,
		show:     show,
		broken:   broken,
		closing:  make(chan struct{}),
		servers:  make(map[*jrpc2.Server]struct{}),
	}
	g.wg.Add(1)
	go g.serve(l)
	g.log.Info("primary instance listening on %s", opts.Endpoint)
	return g, nil
}

// Broken returns the stale lock that was broken to become primary, or nil.
func (g *Guard) Broken() *LockError {
	return g.broken
}

// Endpoint returns the socket path or pipe name being served.
func (g *Guard) Endpoint() string {
	return g.endpoint
}

// Close stops serving, waits for open connections to finish and releases
// the lock.
func (g *Guard) Close() error {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return nil
	}
	g.closed = true
	close(g.closing)
	servers := make([]*jrpc2.Server, 0, len(g.servers))
	for srv := range g.servers {
		servers = append(servers, srv)
	}
	g.mu.Unlock()

	var errs *multierror.Error
	if err := g.listener.Close(); err != nil {
		errs = multierror.Append(errs, err)
	}
	for _, srv := range servers {
		srv.Stop()
	}
	g.wg.Wait()
	if err := cleanupEndpoint(g.endpoint); err != nil {
		errs = multierror.Append(errs, err)
	}
	if err := g.lock.release(); err != nil {
		errs = multierror.Append(errs, err)
	}
	return errs.ErrorOrNil()
}
