package scheduler

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/warpdl/stickers/pkg/logger"
)

const maxSleepCap = 60 * time.Second

// ErrBusy is returned by RunNow while the sticker's command is executing.
var ErrBusy = errors.New("command is already running")

type addReq struct {
	job *job
	// due overrides the computed first deadline when non-zero.
	due time.Time
	ack chan struct{}
}

type removeReq struct {
	id  int64
	ack chan struct{}
}

type runNowReq struct {
	id    int64
	reply chan error
}

type nextReq struct {
	id    int64
	reply chan nextReply
}

type nextReply struct {
	at time.Time
	ok bool
}

// Scheduler arms deadlines for timer and command stickers and dispatches
// them to a Handler.
type Scheduler struct {
	ctx     context.Context
	handler Handler
	log     logger.Logger

	addChan    chan addReq
	removeChan chan removeReq
	runNowChan chan runNowReq
	nextChan   chan nextReq
	doneChan   chan int64
	exited     chan struct{}

	// wg tracks handler goroutines.
	wg sync.WaitGroup
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Scheduler) { s.log = l }
}

// New creates and starts a Scheduler. The loop exits when ctx is cancelled;
// ctx is also passed to every handler call.
func New(ctx context.Context, h Handler, opts ...Option) *Scheduler {
	s := &Scheduler{
		ctx:        ctx,
		handler:    h,
		log:        logger.NewNopLogger(),
		addChan:    make(chan addReq),
		removeChan: make(chan removeReq),
		runNowChan: make(chan runNowReq),
		nextChan:   make(chan nextReq),
		doneChan:   make(chan int64, 64),
		exited:     make(chan struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	go s.run()
	return s
}

// ScheduleTimer arms a one-shot deadline for a timer sticker, replacing any
// earlier registration of id. A target in the past fires immediately.
func (s *Scheduler) ScheduleTimer(id int64, target time.Time) {
	s.add(addReq{job: &job{id: id, timer: true, target: wall(target)}})
}

// ScheduleCommand registers a recurring command sticker, replacing any
// earlier registration of id. lastRun is the start of the previous run, or
// zero if it never ran.
func (s *Scheduler) ScheduleCommand(id int64, c CommandSchedule, lastRun time.Time) error {
	if err := Validate(c); err != nil {
		return err
	}
	j := &job{id: id, sched: c}
	if !lastRun.IsZero() {
		j.lastRun = wall(lastRun)
	}
	due, err := firstRun(c, j.lastRun, wall(time.Now()))
	if err != nil {
		return &ScheduleError{Schedule: c, Err: err}
	}
	s.add(addReq{job: j, due: due})
	return nil
}

func (s *Scheduler) add(r addReq) {
	r.ack = make(chan struct{}, 1)
	select {
	case s.addChan <- r:
		<-r.ack
	case <-s.ctx.Done():
	}
}

// Cancel disarms id. When Cancel returns no deadline for id is armed and
// no new run will start; a run already executing is left to finish.
func (s *Scheduler) Cancel(id int64) {
	r := removeReq{id: id, ack: make(chan struct{}, 1)}
	select {
	case s.removeChan <- r:
		<-r.ack
	case <-s.ctx.Done():
	}
}

// RunNow starts a command run for id immediately without shifting its
// cadence. Stickers without a registered schedule get a single run.
func (s *Scheduler) RunNow(id int64) error {
	r := runNowReq{id: id, reply: make(chan error, 1)}
	select {
	case s.runNowChan <- r:
		return <-r.reply
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
}

// Next returns the armed deadline for id.
func (s *Scheduler) Next(id int64) (time.Time, bool) {
	r := nextReq{id: id, reply: make(chan nextReply, 1)}
	select {
	case s.nextChan <- r:
		rep := <-r.reply
		return rep.at, rep.ok
	case <-s.ctx.Done():
		return time.Time{}, false
	}
}

// Wait blocks until the loop has exited and every handler call has
// returned. It only returns after the scheduler's context is cancelled.
func (s *Scheduler) Wait() {
	<-s.exited
	s.wg.Wait()
}

// run is the scheduler goroutine. It owns h, jobs and inflight.
func (s *Scheduler) run() {
	defer close(s.exited)
	h := &scheduleHeap{}
	heap.Init(h)
	jobs := make(map[int64]*job)
	inflight := make(map[int64]bool)

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	resetTimer := func() <-chan time.Time {
		if timer != nil {
			timer.Stop()
		}
		if h.Len() == 0 {
			return nil
		}
		dur := time.Until((*h)[0].TriggerAt)
		if dur > maxSleepCap {
			dur = maxSleepCap
		}
		if dur < 0 {
			dur = 0
		}
		timer = time.NewTimer(dur)
		return timer.C
	}

	// start launches a command run and arms the following deadline.
	start := func(j *job, at time.Time) {
		inflight[j.id] = true
		if !j.oneShot {
			j.lastRun = at
			next, err := nextRun(j.sched, at)
			if err != nil {
				s.log.Error("sticker %d: next run of %s: %v", j.id, j.sched, err)
			} else {
				heapPush(h, entry{ID: j.id, TriggerAt: next})
			}
		}
		s.dispatchCommand(j.id)
	}

	timerCh := resetTimer()

	for {
		select {
		case <-s.ctx.Done():
			return

		case r := <-s.addChan:
			heapRemoveByID(h, r.job.id)
			jobs[r.job.id] = r.job
			due := r.due
			if r.job.timer {
				due = r.job.target
			}
			heapPush(h, entry{ID: r.job.id, TriggerAt: due})
			r.ack <- struct{}{}
			timerCh = resetTimer()

		case r := <-s.removeChan:
			heapRemoveByID(h, r.id)
			delete(jobs, r.id)
			r.ack <- struct{}{}
			timerCh = resetTimer()

		case r := <-s.runNowChan:
			if inflight[r.id] {
				r.reply <- ErrBusy
				continue
			}
			j, ok := jobs[r.id]
			if !ok {
				j = &job{id: r.id, oneShot: true}
				jobs[r.id] = j
			}
			if j.timer {
				r.reply <- errors.New("timer stickers have no command")
				continue
			}
			inflight[r.id] = true
			s.dispatchCommand(r.id)
			r.reply <- nil

		case r := <-s.nextChan:
			e, ok := heapFind(*h, r.id)
			r.reply <- nextReply{at: e.TriggerAt, ok: ok}

		case id := <-s.doneChan:
			delete(inflight, id)
			j, ok := jobs[id]
			if !ok {
				continue
			}
			if j.oneShot {
				delete(jobs, id)
				continue
			}
			if j.pending {
				j.pending = false
				heapRemoveByID(h, id)
				start(j, wall(time.Now()))
				timerCh = resetTimer()
			}

		case <-timerCh:
			now := wall(time.Now())
			for h.Len() > 0 && !(*h)[0].TriggerAt.After(now) {
				e := heapPop(h)
				j, ok := jobs[e.ID]
				if !ok {
					continue
				}
				if j.timer {
					delete(jobs, e.ID)
					s.dispatchTimer(e.ID, j.target)
					continue
				}
				if inflight[e.ID] {
					j.pending = true
					continue
				}
				start(j, runStart(j.sched, e.TriggerAt, now))
			}
			timerCh = resetTimer()
		}
	}
}

func (s *Scheduler) dispatchTimer(id int64, target time.Time) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.handler.TimerExpired(s.ctx, id, target)
	}()
}

func (s *Scheduler) dispatchCommand(id int64) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.handler.RunCommand(s.ctx, id)
		select {
		case s.doneChan <- id:
		case <-s.ctx.Done():
		}
	}()
}
