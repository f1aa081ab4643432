//go:build windows

package common

import (
	"os"
	"strings"
)

const pipePrefix = `\\.\pipe\`

// PipePath returns the Windows named pipe the primary instance listens on.
// It checks the STICKERS_PIPE_NAME environment variable first.
// If set and already contains the \\.\pipe\ prefix, it's used as-is.
// Otherwise, the prefix is prepended to the name.
func PipePath() string {
	if name := os.Getenv(PipeNameEnv); name != "" {
		if strings.HasPrefix(name, pipePrefix) {
			return name
		}
		return pipePrefix + name
	}
	return pipePrefix + EndpointName()
}
