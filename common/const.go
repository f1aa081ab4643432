package common

import (
	"os"
	"os/user"
	"path/filepath"
	"strings"
)

// AppID names the data directory, the IPC endpoint and notifications.
const AppID = "stickers"

// EndpointName returns the per-user name of the single-instance endpoint,
// e.g. "stickers-alice". Characters outside [A-Za-z0-9_-] are replaced so
// the name is valid as a file name and as a pipe name.
func EndpointName() string {
	return AppID + "-" + sanitize(currentUser())
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	for _, env := range []string{"USER", "USERNAME", "LOGNAME"} {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return "default"
}

func sanitize(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "default"
	}
	return b.String()
}

// SocketPath returns the unix socket the primary instance listens on.
// STICKERS_SOCKET_PATH takes precedence.
func SocketPath() string {
	if path := os.Getenv(SocketPathEnv); path != "" {
		return path
	}
	return filepath.Join(os.TempDir(), EndpointName()+".sock")
}
