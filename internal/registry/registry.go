// Package registry owns the in-memory set of stickers. Every mutation is
// validated, written through to the store and only then applied in memory,
// so a successful call leaves memory and the database in agreement.
// Mutations of one sticker are serialized; different stickers proceed in
// parallel.
package registry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/warpdl/stickers/internal/executor"
	"github.com/warpdl/stickers/internal/notify"
	"github.com/warpdl/stickers/internal/scheduler"
	"github.com/warpdl/stickers/internal/sticker"
	"github.com/warpdl/stickers/internal/store"
	"github.com/warpdl/stickers/pkg/logger"
)

// ErrNotFound is returned for operations on an unknown sticker ID.
var ErrNotFound = store.ErrNotFound

var (
	// ErrWrongKind is returned when a kind-specific operation targets a
	// sticker of another kind.
	ErrWrongKind = errors.New("operation does not apply to this sticker kind")
	// ErrTimerExpired is returned when pausing a timer whose deadline has
	// already passed.
	ErrTimerExpired = errors.New("timer already expired")
	// ErrAlreadyLoaded is returned by a second Load.
	ErrAlreadyLoaded = errors.New("registry already loaded")
)

// Store is the persistence the registry writes through to.
type Store interface {
	Insert(ctx context.Context, st *sticker.Sticker) (int64, error)
	Update(ctx context.Context, id int64, p store.Patch) (int64, error)
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, opts store.ListOptions) ([]*sticker.Sticker, error)
}

// Scheduler arms timer deadlines and command schedules.
type Scheduler interface {
	ScheduleTimer(id int64, target time.Time)
	ScheduleCommand(id int64, c scheduler.CommandSchedule, lastRun time.Time) error
	Cancel(id int64)
	RunNow(id int64) error
	Next(id int64) (time.Time, bool)
}

// Runner executes command-sticker commands.
type Runner interface {
	Run(ctx context.Context, req executor.Request) (*executor.Result, error)
}

// Options tunes placement and defaults.
type Options struct {
	// Screen bounds new sticker placement. A zero dimension disables
	// wrapping on that axis.
	Screen sticker.Size
	Offset int
	Margin int
	// TimerDuration is the duration of a new timer without content.
	TimerDuration time.Duration
}

// DefaultOptions matches a 1920x1080 screen.
func DefaultOptions() Options {
	return Options{
		Screen:        sticker.Size{Width: 1920, Height: 1080},
		Offset:        32,
		Margin:        100,
		TimerDuration: sticker.DefaultTimerDuration,
	}
}

// Deps are the registry's collaborators. Scheduler is bound later with
// Bind because the scheduler needs the registry as its handler.
type Deps struct {
	Store    Store
	Runner   Runner
	Notifier notify.Notifier
	Logger   logger.Logger
	// Now overrides the clock used for timer arithmetic.
	Now func() time.Time
}

type entry struct {
	mu      sync.Mutex
	st      *sticker.Sticker
	content sticker.Content
	// broken marks content that failed to decode at load; it is never
	// scheduled until replaced.
	broken  bool
	deleted bool
}

// Registry is the single writer of sticker state.
type Registry struct {
	store    Store
	sched    Scheduler
	runner   Runner
	notifier notify.Notifier
	log      logger.Logger
	opts     Options
	now      func() time.Time

	mu     sync.RWMutex
	items  map[int64]*entry
	loaded bool

	// createMu serializes Create so placement cascades deterministically.
	createMu sync.Mutex
	last     *sticker.Rect

	events chan Event
}

// New creates an empty registry.
func New(d Deps, o Options) *Registry {
	if d.Logger == nil {
		d.Logger = logger.NewNopLogger()
	}
	if d.Notifier == nil {
		d.Notifier = notify.Log{L: d.Logger}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if o.TimerDuration <= 0 {
		o.TimerDuration = sticker.DefaultTimerDuration
	}
	return &Registry{
		store:    d.Store,
		runner:   d.Runner,
		notifier: d.Notifier,
		log:      d.Logger,
		opts:     o,
		now:      d.Now,
		items:    make(map[int64]*entry),
		events:   make(chan Event, eventBuffer),
	}
}

// Bind attaches the scheduler. It must be called before Load or Create.
func (r *Registry) Bind(s Scheduler) {
	r.sched = s
}

var _ scheduler.Handler = (*Registry)(nil)

// Load reads every persisted sticker, emits EventRestored for each and
// re-arms running timers and active commands. Stickers whose content
// cannot be decoded are kept with default content and reported in the
// returned error; a storage failure is returned alone.
func (r *Registry) Load(ctx context.Context) error {
	r.mu.Lock()
	if r.loaded {
		r.mu.Unlock()
		return ErrAlreadyLoaded
	}
	r.loaded = true
	r.mu.Unlock()

	rows, err := r.store.List(ctx, store.ListOptions{OrderBy: store.OrderCreated})
	if err != nil {
		r.mu.Lock()
		r.loaded = false
		r.mu.Unlock()
		return err
	}

	var errs *multierror.Error
	for _, st := range rows {
		e := &entry{st: st}
		c, err := sticker.Decode(st.Kind, st.Content)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("sticker %d: %w", st.ID, err))
			r.log.Warning("sticker %d: content unreadable, showing defaults: %v", st.ID, err)
			c = r.defaultContent(st.Kind)
			e.broken = true
		}
		e.content = c

		r.mu.Lock()
		r.items[st.ID] = e
		r.mu.Unlock()

		rect := st.Rect
		r.createMu.Lock()
		r.last = &rect
		r.createMu.Unlock()

		e.mu.Lock()
		r.emit(Event{Type: EventRestored, ID: st.ID, Sticker: st.Clone()})
		r.syncSchedule(e, true)
		e.mu.Unlock()
	}
	r.log.Info("loaded %d stickers", len(rows))
	return errs.ErrorOrNil()
}

// Defaults are the optional initial values of Create.
type Defaults struct {
	Title   string
	Color   sticker.Color
	State   sticker.State
	TopMost bool
	Content sticker.Content
	// Rect overrides automatic placement.
	Rect *sticker.Rect
}

// Create persists a new sticker of kind k and returns a snapshot of it.
func (r *Registry) Create(ctx context.Context, k sticker.Kind, d Defaults) (*sticker.Sticker, error) {
	if _, err := sticker.ParseKind(string(k)); err != nil {
		return nil, err
	}
	c := d.Content
	if c == nil {
		c = r.defaultContent(k)
	}
	if err := validateContent(k, c); err != nil {
		return nil, err
	}
	raw, err := sticker.Encode(c)
	if err != nil {
		return nil, err
	}

	r.createMu.Lock()
	defer r.createMu.Unlock()

	rect := place(r.last, k, r.opts)
	if d.Rect != nil {
		rect = clampSize(k, *d.Rect)
	}
	st := &sticker.Sticker{
		Title:   d.Title,
		State:   d.State,
		Rect:    rect,
		TopMost: d.TopMost,
		Color:   d.Color,
		Kind:    k,
		Content: raw,
	}
	if st.Title == "" {
		st.Title = defaultTitle(k)
	}
	if st.State == "" {
		st.State = sticker.StateOpen
	}
	if st.Color == "" {
		st.Color = sticker.ColorYellow
	} else {
		st.Color = sticker.ParseColor(string(st.Color))
	}
	if err := st.Validate(); err != nil {
		return nil, err
	}

	if _, err := r.store.Insert(ctx, st); err != nil {
		return nil, err
	}
	r.last = &rect

	e := &entry{st: st, content: c}
	e.mu.Lock()
	defer e.mu.Unlock()
	r.mu.Lock()
	r.items[st.ID] = e
	r.mu.Unlock()

	r.syncSchedule(e, false)
	r.emit(Event{Type: EventCreated, ID: st.ID, Sticker: st.Clone()})
	return st.Clone(), nil
}

// Get returns snapshots of a sticker and its decoded content.
func (r *Registry) Get(id int64) (*sticker.Sticker, sticker.Content, error) {
	e, err := r.lock(id)
	if err != nil {
		return nil, nil, err
	}
	defer e.mu.Unlock()
	return e.st.Clone(), cloneContent(e.content), nil
}

// List returns snapshots of all stickers in creation order.
func (r *Registry) List() []*sticker.Sticker {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.items))
	for _, e := range r.items {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	out := make([]*sticker.Sticker, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.deleted {
			out = append(out, e.st.Clone())
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt < out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of stickers.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// NextRun returns the next scheduled deadline of a timer or command.
func (r *Registry) NextRun(id int64) (time.Time, bool) {
	return r.sched.Next(id)
}

// UpdateGeometry persists a move or resize. Sizes below the kind's
// minimum are grown to it.
func (r *Registry) UpdateGeometry(ctx context.Context, id int64, rect sticker.Rect) error {
	return r.mutate(ctx, id, func(e *entry) (store.Patch, error) {
		rect = clampSize(e.st.Kind, rect)
		return store.Patch{Rect: &rect}, nil
	})
}

// UpdateState persists a window state change.
func (r *Registry) UpdateState(ctx context.Context, id int64, s sticker.State) error {
	if _, err := sticker.ParseState(string(s)); err != nil {
		return err
	}
	return r.mutate(ctx, id, func(*entry) (store.Patch, error) {
		return store.Patch{State: &s}, nil
	})
}

// UpdateTitle persists a new title.
func (r *Registry) UpdateTitle(ctx context.Context, id int64, title string) error {
	title = strings.TrimSpace(title)
	return r.mutate(ctx, id, func(*entry) (store.Patch, error) {
		return store.Patch{Title: &title}, nil
	})
}

// UpdateColor persists a new background color.
func (r *Registry) UpdateColor(ctx context.Context, id int64, c sticker.Color) error {
	c = sticker.ParseColor(string(c))
	return r.mutate(ctx, id, func(*entry) (store.Patch, error) {
		return store.Patch{Color: &c}, nil
	})
}

// SetTopMost persists the always-on-top flag.
func (r *Registry) SetTopMost(ctx context.Context, id int64, on bool) error {
	return r.mutate(ctx, id, func(*entry) (store.Patch, error) {
		return store.Patch{TopMost: &on}, nil
	})
}

// UpdateContent validates and persists new content, then re-arms or
// disarms the sticker's schedule to match it. A rejected schedule leaves
// the previous content and schedule in place.
func (r *Registry) UpdateContent(ctx context.Context, id int64, c sticker.Content) error {
	return r.editContent(ctx, id, func(e *entry) (sticker.Content, error) {
		return cloneContent(c), nil
	})
}

// Delete deregisters the sticker from the scheduler, removes its row and
// forgets it. Deleting an unknown ID is not an error.
func (r *Registry) Delete(ctx context.Context, id int64) error {
	r.mu.RLock()
	e, ok := r.items[id]
	r.mu.RUnlock()
	if !ok {
		return nil
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.deleted {
		return nil
	}

	r.sched.Cancel(id)
	if err := r.store.Delete(ctx, id); err != nil {
		r.syncSchedule(e, true)
		return err
	}
	e.deleted = true
	r.mu.Lock()
	delete(r.items, id)
	r.mu.Unlock()
	r.emit(Event{Type: EventDeleted, ID: id})
	return nil
}

// lock returns the live entry for id with its mutex held.
func (r *Registry) lock(id int64) (*entry, error) {
	r.mu.RLock()
	e, ok := r.items[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	e.mu.Lock()
	if e.deleted {
		e.mu.Unlock()
		return nil, ErrNotFound
	}
	return e, nil
}

// mutate persists the patch built by fn and mirrors it into memory.
func (r *Registry) mutate(ctx context.Context, id int64, fn func(e *entry) (store.Patch, error)) error {
	e, err := r.lock(id)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()

	p, err := fn(e)
	if err != nil {
		return err
	}
	return r.commit(ctx, e, p, nil)
}

// editContent replaces a sticker's content with the result of fn.
// Callers of fn hold the entry lock.
func (r *Registry) editContent(ctx context.Context, id int64, fn func(e *entry) (sticker.Content, error)) error {
	e, err := r.lock(id)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()

	wasActive := activeCommand(e.content)
	c, err := fn(e)
	if err != nil {
		return err
	}
	if err := validateContent(e.st.Kind, c); err != nil {
		return err
	}
	raw, err := sticker.Encode(c)
	if err != nil {
		return err
	}
	if err := r.commit(ctx, e, store.Patch{Content: &raw}, c); err != nil {
		return err
	}
	e.broken = false
	r.syncSchedule(e, wasActive)
	return nil
}

// commit writes p through and, on success, applies it to e. Callers hold
// e.mu.
func (r *Registry) commit(ctx context.Context, e *entry, p store.Patch, c sticker.Content) error {
	ts, err := r.store.Update(ctx, e.st.ID, p)
	if err != nil {
		return err
	}
	next := e.st.Clone()
	if p.Title != nil {
		next.Title = *p.Title
	}
	if p.State != nil {
		next.State = *p.State
	}
	if p.Rect != nil {
		next.Rect = *p.Rect
	}
	if p.TopMost != nil {
		next.TopMost = *p.TopMost
	}
	if p.Color != nil {
		next.Color = *p.Color
	}
	if p.Content != nil {
		next.Content = *p.Content
		e.content = c
	}
	next.UpdatedAt = ts
	e.st = next
	r.emit(Event{Type: EventUpdated, ID: next.ID, Sticker: next.Clone()})
	return nil
}

// syncSchedule makes the scheduler's view of e match its content. With
// resume set an active command keeps the cadence of its last recorded run;
// otherwise it counts from now. Callers hold e.mu.
func (r *Registry) syncSchedule(e *entry, resume bool) {
	id := e.st.ID
	if e.broken {
		r.sched.Cancel(id)
		return
	}
	switch c := e.content.(type) {
	case *sticker.Timer:
		if c.Status == sticker.TimerRunning {
			r.sched.ScheduleTimer(id, c.Target())
			return
		}
	case *sticker.Command:
		if c.Active {
			var lastRun time.Time
			if resume && c.Output != nil && c.Output.StartedAt > 0 {
				lastRun = time.UnixMilli(c.Output.StartedAt)
			}
			if err := r.sched.ScheduleCommand(id, commandSchedule(c.Schedule), lastRun); err != nil {
				r.log.Error("sticker %d: %v", id, err)
				r.emit(Event{Type: EventNotice, ID: id, Err: err})
			}
			return
		}
	}
	r.sched.Cancel(id)
}

func activeCommand(c sticker.Content) bool {
	cmd, ok := c.(*sticker.Command)
	return ok && cmd.Active
}

func (r *Registry) defaultContent(k sticker.Kind) sticker.Content {
	if k == sticker.KindTimer {
		return sticker.NewTimer(r.opts.TimerDuration)
	}
	return sticker.Default(k)
}

func defaultTitle(k sticker.Kind) string {
	switch k {
	case sticker.KindTimer:
		return "Timer"
	case sticker.KindCommand:
		return "Command"
	}
	return "Note"
}

func commandSchedule(s sticker.Schedule) scheduler.CommandSchedule {
	return scheduler.CommandSchedule{Interval: s.Interval(), Cron: strings.TrimSpace(s.Cron)}
}

// validateContent checks c against the content contract of kind k.
func validateContent(k sticker.Kind, c sticker.Content) error {
	if c == nil {
		return fmt.Errorf("%w: nil content", sticker.ErrInvalidContent)
	}
	if c.Kind() != k {
		return fmt.Errorf("%w: %s content for a %s sticker", sticker.ErrInvalidContent, c.Kind(), k)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cmd, ok := c.(*sticker.Command)
	if !ok {
		return nil
	}
	if strings.TrimSpace(cmd.Command) != "" {
		if _, err := executor.ParseCommand(cmd.Command); err != nil {
			return fmt.Errorf("%w: command: %v", sticker.ErrInvalidContent, err)
		}
	}
	if !cmd.Schedule.IsZero() {
		if err := scheduler.Validate(commandSchedule(cmd.Schedule)); err != nil {
			return err
		}
	}
	return nil
}

func cloneContent(c sticker.Content) sticker.Content {
	switch v := c.(type) {
	case *sticker.Markdown:
		cp := *v
		return &cp
	case *sticker.Timer:
		cp := *v
		return &cp
	case *sticker.Command:
		cp := *v
		if v.Env != nil {
			cp.Env = make(map[string]string, len(v.Env))
			for k, val := range v.Env {
				cp.Env[k] = val
			}
		}
		if v.Output != nil {
			out := *v.Output
			cp.Output = &out
		}
		return &cp
	}
	return c
}

func storePatchContent(raw string) store.Patch {
	return store.Patch{Content: &raw}
}
