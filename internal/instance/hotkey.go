//go:build (linux && cgo) || (darwin && cgo) || windows

package instance

import (
	"fmt"

	"golang.design/x/hotkey"

	"github.com/warpdl/stickers/pkg/logger"
)

// HotkeySupported reports whether this build can register a global hotkey.
const HotkeySupported = true

// Hotkey is a registered global key chord.
type Hotkey struct {
	hk   *hotkey.Hotkey
	log  logger.Logger
	stop chan struct{}
	done chan struct{}
}

// RegisterHotkey registers the show-window chord and calls onPress for
// every key-down until Close.
func RegisterHotkey(onPress func(), l logger.Logger) (*Hotkey, error) {
	if l == nil {
		l = logger.NewNopLogger()
	}
	hk := hotkey.New(chordModifiers, chordKey)
	if err := hk.Register(); err != nil {
		return nil, fmt.Errorf("register hotkey %s: %w", ChordName, err)
	}
	h := &Hotkey{
		hk:   hk,
		log:  l,
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go h.loop(onPress)
	l.Info("registered global hotkey %s", ChordName)
	return h, nil
}

func (h *Hotkey) loop(onPress func()) {
	defer close(h.done)
	for {
		select {
		case <-h.stop:
			return
		case _, ok := <-h.hk.Keydown():
			if !ok {
				return
			}
			onPress()
		}
	}
}

// Close unregisters the chord.
func (h *Hotkey) Close() error {
	select {
	case <-h.stop:
		return nil
	default:
	}
	close(h.stop)
	<-h.done
	return h.hk.Unregister()
}
