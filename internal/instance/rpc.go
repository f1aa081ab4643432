package instance

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"
	"github.com/creachadair/jrpc2/handler"

	"github.com/warpdl/stickers/common"
)

// RequestShow asks the primary instance listening on endpoint to show its
// window and returns the primary's PID. An empty endpoint means the
// default per-user endpoint.
func RequestShow(ctx context.Context, endpoint string) (int, error) {
	if endpoint == "" {
		endpoint = defaultEndpoint()
	}
	conn, err := dial(ctx, endpoint)
	if err != nil {
		return 0, err
	}
	if d, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(d)
	}
	cli := jrpc2.NewClient(channel.Line(conn, conn), nil)
	defer cli.Close()

	var res common.ShowResult
	if err := cli.CallResult(ctx, common.ShowMethod, nil, &res); err != nil {
		return 0, fmt.Errorf("%s: %w", common.ShowMethod, err)
	}
	return res.PID, nil
}

// requestShowRetry retries RequestShow so a primary that holds the lock
// but has not started listening yet still gets the request.
func requestShowRetry(ctx context.Context, endpoint string, attempts int, delay, timeout time.Duration) (int, error) {
	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(delay):
			}
		}
		callCtx, cancel := context.WithTimeout(ctx, timeout)
		pid, err := RequestShow(callCtx, endpoint)
		cancel()
		if err == nil {
			return pid, nil
		}
		lastErr = err
	}
	return 0, lastErr
}

func (g *Guard) methods() handler.Map {
	return handler.Map{
		common.ShowMethod: handler.New(g.handleShow),
	}
}

func (g *Guard) handleShow(_ context.Context) (*common.ShowResult, error) {
	g.log.Info("show requested over IPC")
	g.show()
	return &common.ShowResult{PID: os.Getpid()}, nil
}

// serve accepts connections until the listener is closed. Each connection
// gets its own jrpc2 server speaking line-framed JSON.
func (g *Guard) serve(l net.Listener) {
	defer g.wg.Done()
	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-g.closing:
				return
			default:
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			g.log.Error("accept: %v", err)
			return
		}
		srv := jrpc2.NewServer(g.methods(), nil).Start(channel.Line(conn, conn))
		g.track(srv, true)
		g.wg.Add(1)
		go func() {
			defer g.wg.Done()
			defer g.track(srv, false)
			if err := srv.Wait(); err != nil {
				g.log.Warning("ipc connection: %v", err)
			}
		}()
	}
}

func (g *Guard) track(srv *jrpc2.Server, add bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case add && g.closed:
		srv.Stop()
	case add:
		g.servers[srv] = struct{}{}
	default:
		delete(g.servers, srv)
	}
}
