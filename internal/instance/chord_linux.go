//go:build linux && cgo

package instance

import "golang.design/x/hotkey"

// ChordName describes the show-window chord.
const ChordName = "Ctrl+Alt+R"

// Mod1 is Alt on common X11 keymaps.
var chordModifiers = []hotkey.Modifier{hotkey.ModCtrl, hotkey.Mod1}

const chordKey = hotkey.KeyR
