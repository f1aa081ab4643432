//go:build windows

package instance

import "golang.design/x/hotkey"

// ChordName describes the show-window chord.
const ChordName = "Ctrl+Alt+R"

var chordModifiers = []hotkey.Modifier{hotkey.ModCtrl, hotkey.ModAlt}

const chordKey = hotkey.KeyR
