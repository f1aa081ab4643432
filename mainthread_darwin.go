//go:build darwin && cgo

package main

import "golang.design/x/hotkey/mainthread"

// runOnMainThread runs fn while the main thread services the hotkey event
// loop, which macOS requires.
func runOnMainThread(fn func()) {
	mainthread.Init(fn)
}
