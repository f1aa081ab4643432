// Package scheduler drives the time-based work of active stickers: one-shot
// countdown timers and recurring command runs.
//
// A single goroutine owns a min-heap of deadlines keyed by sticker ID and
// sleeps until the earliest one, capped at 60 seconds so NTP steps, DST
// transitions and system sleep are noticed. Deadlines are compared on the
// wall clock. Missed deadlines never replay a backlog: a timer fires once
// and a command runs once, then resumes its cadence from that run.
//
// Command executions run outside the loop. At most one is in flight per
// sticker; a deadline that arrives meanwhile is remembered as a single
// pending run started as soon as the current one completes.
//
// The scheduler holds no durable state. The registry re-registers every
// running timer and active command on startup.
package scheduler
