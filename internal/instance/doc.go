// Package instance keeps a single stickers process per user.
//
// The first process to take the lock file becomes the primary: it records
// its PID in the lock file and serves JSON-RPC on a per-user local
// endpoint (a unix socket, or a named pipe on Windows). Later launches
// find the lock busy, ask the primary to show its window over that
// endpoint and exit with ErrAlreadyRunning. If the lock is busy but
// nobody answers, the lock is considered stale: it is broken and the
// launching process becomes the primary instead.
//
// The "show" request and the global hotkey both end in the same
// callback, so the window is raised by one code path regardless of the
// trigger.
package instance
