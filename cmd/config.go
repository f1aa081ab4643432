package cmd

const DESCRIPTION = `
Stickers keeps markdown notes, countdown timers and scheduled shell
commands on your desktop. Every change is saved immediately, timers
and schedules survive restarts, and a global hotkey brings the main
window to the front.
`

const (
	RunDescription = `The run command starts stickers. If it is already running,
the running instance is brought to the front instead and
this process exits.

Example:
        stickers run
                OR
        stickers

`
	ShowDescription = `The show command asks the running instance to show its
main window, the same as pressing the global hotkey.

Example:
        stickers show

`
	ListDescription = `The list command prints the saved stickers without
starting the application.

Example:
        stickers list
        stickers list --search groceries --sort created --asc

`
)
