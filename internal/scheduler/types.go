package scheduler

import (
	"context"
	"fmt"
	"time"
)

// MinInterval is the shortest accepted command interval.
const MinInterval = time.Second

// CommandSchedule is the recurrence of a command sticker. Exactly one of
// Interval and Cron is set.
type CommandSchedule struct {
	Interval time.Duration
	Cron     string
}

func (c CommandSchedule) String() string {
	if c.Cron != "" {
		return fmt.Sprintf("cron %q", c.Cron)
	}
	return "every " + c.Interval.String()
}

// Handler receives the scheduler's firings. Calls are made on their own
// goroutine, never on the scheduler loop, so a handler may call back into
// the scheduler.
type Handler interface {
	// TimerExpired is called once when a timer's deadline passes.
	TimerExpired(ctx context.Context, id int64, target time.Time)
	// RunCommand executes the sticker's command and applies its result.
	// It must return only once the run is fully handled.
	RunCommand(ctx context.Context, id int64)
}

// Funcs adapts two functions to a Handler. Nil functions are skipped.
type Funcs struct {
	OnTimer   func(ctx context.Context, id int64, target time.Time)
	OnCommand func(ctx context.Context, id int64)
}

func (f Funcs) TimerExpired(ctx context.Context, id int64, target time.Time) {
	if f.OnTimer != nil {
		f.OnTimer(ctx, id, target)
	}
}

func (f Funcs) RunCommand(ctx context.Context, id int64) {
	if f.OnCommand != nil {
		f.OnCommand(ctx, id)
	}
}

// entry is one armed deadline in the heap.
type entry struct {
	ID        int64
	TriggerAt time.Time
}

// job is the loop's record of a registered sticker.
type job struct {
	id      int64
	timer   bool
	target  time.Time
	sched   CommandSchedule
	lastRun time.Time
	// oneShot marks a manual run of a sticker without a schedule.
	oneShot bool
	pending bool
}
