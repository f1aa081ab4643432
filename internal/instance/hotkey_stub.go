//go:build !((linux && cgo) || (darwin && cgo) || windows)

package instance

import (
	"errors"

	"github.com/warpdl/stickers/pkg/logger"
)

// HotkeySupported reports whether this build can register a global hotkey.
const HotkeySupported = false

// ChordName describes the show-window chord.
const ChordName = "none"

// ErrHotkeyUnsupported is returned by RegisterHotkey on builds without
// global hotkey support.
var ErrHotkeyUnsupported = errors.New("global hotkey not supported on this build")

// Hotkey is a placeholder on builds without global hotkey support.
type Hotkey struct{}

func RegisterHotkey(func(), logger.Logger) (*Hotkey, error) {
	return nil, ErrHotkeyUnsupported
}

func (h *Hotkey) Close() error { return nil }
