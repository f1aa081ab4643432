//go:build darwin && cgo

package instance

import "golang.design/x/hotkey"

// ChordName describes the show-window chord.
const ChordName = "Cmd+Option+R"

var chordModifiers = []hotkey.Modifier{hotkey.ModCmd, hotkey.ModOption}

const chordKey = hotkey.KeyR
