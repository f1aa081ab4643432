// Package common holds the names shared by the stickers process and its
// CLI clients: environment variables, the IPC endpoint and its protocol.
package common

// Environment variable names for configuration.
const (
	// DataDirEnv overrides the directory holding the database, lock and logs.
	DataDirEnv = "STICKERS_DATA_DIR"

	// DebugEnv enables debug logging to the console.
	DebugEnv = "STICKERS_DEBUG"

	// SocketPathEnv overrides the unix socket path of the running instance.
	SocketPathEnv = "STICKERS_SOCKET_PATH"

	// PipeNameEnv overrides the Windows named pipe of the running instance.
	PipeNameEnv = "STICKERS_PIPE_NAME"
)
