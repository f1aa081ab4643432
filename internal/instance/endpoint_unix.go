//go:build !windows

package instance

import (
	"context"
	"net"
	"os"

	"github.com/warpdl/stickers/common"
)

func defaultEndpoint() string {
	return common.SocketPath()
}

// listen creates the unix socket, replacing a leftover socket file from a
// process that did not shut down cleanly.
func listen(endpoint string) (net.Listener, error) {
	_ = os.Remove(endpoint)
	l, err := net.ListenUnix("unix", &net.UnixAddr{Name: endpoint, Net: "unix"})
	if err != nil {
		return nil, err
	}
	l.SetUnlinkOnClose(true)
	_ = os.Chmod(endpoint, 0600)
	return l, nil
}

func dial(ctx context.Context, endpoint string) (net.Conn, error) {
	var d net.Dialer
	return d.DialContext(ctx, "unix", endpoint)
}

// cleanupEndpoint removes the socket file. It returns an error if removal
// fails, unless the file doesn't exist.
func cleanupEndpoint(endpoint string) error {
	if err := os.Remove(endpoint); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
