package registry

import (
	"context"
	"errors"
	"time"

	"github.com/warpdl/stickers/internal/executor"
	"github.com/warpdl/stickers/internal/notify"
	"github.com/warpdl/stickers/internal/sticker"
)

func timerOf(e *entry) (*sticker.Timer, error) {
	t, ok := e.content.(*sticker.Timer)
	if !ok {
		return nil, ErrWrongKind
	}
	cp := *t
	return &cp, nil
}

func commandOf(e *entry) (*sticker.Command, error) {
	c, ok := e.content.(*sticker.Command)
	if !ok {
		return nil, ErrWrongKind
	}
	return cloneContent(c).(*sticker.Command), nil
}

// StartTimer (re)starts a countdown of d from now. A non-positive d keeps
// the timer's configured duration.
func (r *Registry) StartTimer(ctx context.Context, id int64, d time.Duration) error {
	return r.editContent(ctx, id, func(e *entry) (sticker.Content, error) {
		t, err := timerOf(e)
		if err != nil {
			return nil, err
		}
		if d > 0 {
			t.DurationMs = d.Milliseconds()
		}
		return t.Reset().Resumed(r.now()), nil
	})
}

// PauseTimer stops a running countdown, keeping the remaining time.
func (r *Registry) PauseTimer(ctx context.Context, id int64) error {
	return r.editContent(ctx, id, func(e *entry) (sticker.Content, error) {
		t, err := timerOf(e)
		if err != nil {
			return nil, err
		}
		if t.Status != sticker.TimerRunning {
			return t, nil
		}
		p, ok := t.Paused(r.now())
		if !ok {
			return nil, ErrTimerExpired
		}
		return p, nil
	})
}

// ResumeTimer continues a paused countdown.
func (r *Registry) ResumeTimer(ctx context.Context, id int64) error {
	return r.editContent(ctx, id, func(e *entry) (sticker.Content, error) {
		t, err := timerOf(e)
		if err != nil {
			return nil, err
		}
		if t.Status != sticker.TimerPaused {
			return t, nil
		}
		return t.Resumed(r.now()), nil
	})
}

// ResetTimer puts the timer back to a paused full countdown.
func (r *Registry) ResetTimer(ctx context.Context, id int64) error {
	return r.editContent(ctx, id, func(e *entry) (sticker.Content, error) {
		t, err := timerOf(e)
		if err != nil {
			return nil, err
		}
		return t.Reset(), nil
	})
}

// StartCommand activates the command's schedule.
func (r *Registry) StartCommand(ctx context.Context, id int64) error {
	return r.setCommandActive(ctx, id, true)
}

// StopCommand deactivates the command's schedule. A run in progress
// finishes and is recorded.
func (r *Registry) StopCommand(ctx context.Context, id int64) error {
	return r.setCommandActive(ctx, id, false)
}

func (r *Registry) setCommandActive(ctx context.Context, id int64, on bool) error {
	return r.editContent(ctx, id, func(e *entry) (sticker.Content, error) {
		c, err := commandOf(e)
		if err != nil {
			return nil, err
		}
		c.Active = on
		return c, nil
	})
}

// RunCommandNow runs the command once immediately, outside its schedule.
func (r *Registry) RunCommandNow(id int64) error {
	e, err := r.lock(id)
	if err != nil {
		return err
	}
	c, err := commandOf(e)
	e.mu.Unlock()
	if err != nil {
		return err
	}
	if c.Command == "" {
		return &executor.SpawnError{Command: c.Command, Err: errors.New("empty command")}
	}
	return r.sched.RunNow(id)
}

// TimerExpired marks a running timer fired and notifies the user. Stale
// firings, for a timer that was paused, restarted or deleted since the
// deadline was armed, are ignored.
func (r *Registry) TimerExpired(ctx context.Context, id int64, target time.Time) {
	e, err := r.lock(id)
	if err != nil {
		return
	}
	t, ok := e.content.(*sticker.Timer)
	if !ok || t.Status != sticker.TimerRunning || t.TargetAt != target.UnixMilli() {
		e.mu.Unlock()
		return
	}
	fired := t.Fired(r.now())
	title := fired.Label
	if title == "" {
		title = e.st.Title
	}

	raw, err := sticker.Encode(fired)
	if err == nil {
		err = r.commit(ctx, e, storePatchContent(raw), fired)
	}
	var snap *sticker.Sticker
	if err == nil {
		snap = e.st.Clone()
	}
	e.mu.Unlock()

	if err != nil {
		r.log.Error("sticker %d: record timer expiry: %v", id, err)
		r.emit(Event{Type: EventNotice, ID: id, Err: err})
	} else {
		r.emit(Event{Type: EventTimerFired, ID: id, Sticker: snap})
	}
	if nerr := r.notifier.Notify(title, notify.DefaultMessage); nerr != nil {
		r.log.Warning("sticker %d: notify: %v", id, nerr)
	}
}

// RunCommand executes the sticker's current command and records the
// result. Results for stickers deleted in the meantime are discarded.
func (r *Registry) RunCommand(ctx context.Context, id int64) {
	e, err := r.lock(id)
	if err != nil {
		return
	}
	c, err := commandOf(e)
	e.mu.Unlock()
	if err != nil || c.Command == "" {
		return
	}

	started := r.now()
	res, runErr := r.runner.Run(ctx, executor.Request{
		Command:    c.Command,
		Env:        c.Env,
		WorkingDir: c.WorkingDir,
		Timeout:    c.Timeout(),
	})
	if ctx.Err() != nil {
		// Shutting down; the run was killed and is not worth recording.
		return
	}
	out := buildOutput(res, runErr, started, r.now())
	if runErr != nil {
		r.log.Warning("sticker %d: %v", id, runErr)
	}

	e, err = r.lock(id)
	if err != nil {
		r.log.Info("sticker %d deleted while running, result discarded", id)
		return
	}
	defer e.mu.Unlock()
	cur, err := commandOf(e)
	if err != nil {
		return
	}
	cur.Output = out
	raw, err := sticker.Encode(cur)
	if err == nil {
		err = r.commit(ctx, e, storePatchContent(raw), cur)
	}
	if err != nil {
		r.log.Error("sticker %d: record command output: %v", id, err)
		r.emit(Event{Type: EventNotice, ID: id, Err: err})
		return
	}
	r.emit(Event{Type: EventCommandFinished, ID: id, Sticker: e.st.Clone()})
}

func buildOutput(res *executor.Result, err error, started, finished time.Time) *sticker.Output {
	out := &sticker.Output{StartedAt: started.UnixMilli(), FinishedAt: finished.UnixMilli()}
	if res != nil {
		out.Stdout = res.Stdout
		out.Stderr = res.Stderr
		out.ExitCode = res.ExitCode
		out.Truncated = res.Truncated
	}
	if err == nil {
		return out
	}
	out.Error = err.Error()
	var (
		se *executor.SpawnError
		te *executor.TimeoutError
	)
	switch {
	case errors.As(err, &se):
		out.ErrorKind = sticker.ErrorKindSpawn
		out.ExitCode = -1
	case errors.As(err, &te):
		out.ErrorKind = sticker.ErrorKindTimeout
		out.ExitCode = -1
	}
	return out
}
