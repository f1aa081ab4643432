package daemon

import (
	"sync/atomic"

	"github.com/warpdl/stickers/internal/registry"
	"github.com/warpdl/stickers/pkg/logger"
)

// Window is the user interface driven by the runner. Show raises the main
// window; Handle receives every registry event in order. Both are called
// from runner goroutines and must not block for long.
type Window interface {
	Show()
	Handle(ev registry.Event)
}

// Headless is the Window used when no UI is attached: it logs what a UI
// would display.
type Headless struct {
	log   logger.Logger
	shows atomic.Int64
}

// NewHeadless returns a Headless window logging to l.
func NewHeadless(l logger.Logger) *Headless {
	if l == nil {
		l = logger.NewNopLogger()
	}
	return &Headless{log: l}
}

func (h *Headless) Show() {
	n := h.shows.Add(1)
	h.log.Info("main window shown (%d)", n)
}

func (h *Headless) Handle(ev registry.Event) {
	switch {
	case ev.Err != nil:
		h.log.Warning("sticker %d: %s: %v", ev.ID, ev.Type, ev.Err)
	case ev.Sticker != nil:
		h.log.Info("sticker %d: %s %q", ev.ID, ev.Type, ev.Sticker.Title)
	default:
		h.log.Info("sticker %d: %s", ev.ID, ev.Type)
	}
}

// Shows returns how many times the main window was shown.
func (h *Headless) Shows() int64 {
	return h.shows.Load()
}
