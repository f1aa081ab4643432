package instance

import (
	"sync"
	"time"

	"github.com/warpdl/stickers/pkg/logger"
)

// Source identifies what asked for the main window.
type Source string

const (
	SourceIPC    Source = "ipc"
	SourceHotkey Source = "hotkey"
)

// DefaultDebounce drops hotkey repeats closer together than this.
const DefaultDebounce = 300 * time.Millisecond

// Bridge funnels every "show main window" trigger into one callback.
type Bridge struct {
	show     func()
	log      logger.Logger
	debounce time.Duration
	now      func() time.Time

	mu   sync.Mutex
	last map[Source]time.Time
}

// NewBridge returns a Bridge calling show. Repeated triggers from the same
// source within debounce are dropped; a zero debounce disables that.
func NewBridge(show func(), debounce time.Duration, l logger.Logger) *Bridge {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Bridge{
		show:     show,
		log:      l,
		debounce: debounce,
		now:      time.Now,
		last:     make(map[Source]time.Time),
	}
}

// Show raises the main window unless src fired within the debounce window.
// It reports whether show was called.
func (b *Bridge) Show(src Source) bool {
	now := b.now()
	b.mu.Lock()
	if last, ok := b.last[src]; ok && b.debounce > 0 && now.Sub(last) < b.debounce {
		b.mu.Unlock()
		return false
	}
	b.last[src] = now
	b.mu.Unlock()

	b.log.Info("show main window (%s)", src)
	b.show()
	return true
}

// IPC returns the callback to pass to Acquire.
func (b *Bridge) IPC() func() {
	return func() { b.Show(SourceIPC) }
}

// Hotkey returns the callback to pass to RegisterHotkey.
func (b *Bridge) Hotkey() func() {
	return func() { b.Show(SourceHotkey) }
}
