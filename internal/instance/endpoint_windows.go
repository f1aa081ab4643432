//go:build windows

package instance

import (
	"context"
	"net"

	"github.com/Microsoft/go-winio"

	"github.com/warpdl/stickers/common"
)

// pipeSecurityDescriptor restricts pipe access to:
// - SYSTEM: Full control
// - Built-in Administrators: Full control
// - Creator Owner: Full control (the user running stickers)
const pipeSecurityDescriptor = "D:(A;;GA;;;SY)(A;;GA;;;BA)(A;;GA;;;CO)"

func defaultEndpoint() string {
	return common.PipePath()
}

func listen(endpoint string) (net.Listener, error) {
	return winio.ListenPipe(endpoint, &winio.PipeConfig{
		SecurityDescriptor: pipeSecurityDescriptor,
	})
}

func dial(ctx context.Context, endpoint string) (net.Conn, error) {
	return winio.DialPipeContext(ctx, endpoint)
}

// cleanupEndpoint is a no-op: a pipe disappears with its last handle.
func cleanupEndpoint(string) error { return nil }
