package sticker

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// PayloadVersion is the envelope version written by Encode.
const PayloadVersion = 1

// DefaultTimerDuration is used for new timers when no duration is given.
const DefaultTimerDuration = 5 * time.Minute

// ErrInvalidContent is wrapped by every content validation failure.
var ErrInvalidContent = errors.New("invalid sticker content")

// Content is the kind-specific payload of a sticker.
type Content interface {
	Kind() Kind
	Validate() error
}

type envelope struct {
	Version int             `json:"v"`
	Kind    Kind            `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

// Encode serializes c into the versioned envelope stored in the content
// column.
func Encode(c Content) (string, error) {
	if c == nil {
		return "", fmt.Errorf("%w: nil content", ErrInvalidContent)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(envelope{Version: PayloadVersion, Kind: c.Kind(), Data: data})
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Decode parses a stored payload for a sticker of kind k. An empty payload
// yields the kind's default content.
func Decode(k Kind, raw string) (Content, error) {
	if strings.TrimSpace(raw) == "" {
		return Default(k), nil
	}
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return nil, fmt.Errorf("decode %s content: %w", k, err)
	}
	if env.Version != PayloadVersion {
		return nil, fmt.Errorf("decode %s content: unsupported payload version %d", k, env.Version)
	}
	if env.Kind != k {
		return nil, fmt.Errorf("decode %s content: payload is tagged %q", k, env.Kind)
	}
	var c Content
	switch k {
	case KindMarkdown:
		var m Markdown
		if err := json.Unmarshal(env.Data, &m); err != nil {
			return nil, fmt.Errorf("decode markdown content: %w", err)
		}
		c = &m
	case KindTimer:
		var t Timer
		if err := json.Unmarshal(env.Data, &t); err != nil {
			return nil, fmt.Errorf("decode timer content: %w", err)
		}
		c = &t
	case KindCommand:
		var cmd Command
		if err := json.Unmarshal(env.Data, &cmd); err != nil {
			return nil, fmt.Errorf("decode command content: %w", err)
		}
		c = &cmd
	default:
		return nil, fmt.Errorf("unknown sticker kind %q", k)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Default returns the content a freshly created sticker of kind k carries.
func Default(k Kind) Content {
	switch k {
	case KindTimer:
		return NewTimer(DefaultTimerDuration)
	case KindCommand:
		return &Command{}
	default:
		return &Markdown{}
	}
}

// Markdown is free text. It is stored verbatim and never parsed here.
type Markdown struct {
	Body string `json:"body"`
}

func (m *Markdown) Kind() Kind      { return KindMarkdown }
func (m *Markdown) Validate() error { return nil }

// TimerStatus is the lifecycle position of a countdown timer.
type TimerStatus string

const (
	TimerRunning TimerStatus = "running"
	TimerPaused  TimerStatus = "paused"
	TimerFired   TimerStatus = "fired"
)

// Timer is a countdown. A running timer carries its absolute expiry, a
// paused one the time that was left, and a fired one the expiry it reached.
// Times are epoch milliseconds.
type Timer struct {
	Label       string      `json:"label,omitempty"`
	DurationMs  int64       `json:"duration_ms"`
	Status      TimerStatus `json:"status"`
	TargetAt    int64       `json:"target_at,omitempty"`
	RemainingMs int64       `json:"remaining_ms,omitempty"`
	FiredAt     int64       `json:"fired_at,omitempty"`
}

// NewTimer returns a paused timer holding the full duration d.
func NewTimer(d time.Duration) *Timer {
	return &Timer{
		DurationMs:  d.Milliseconds(),
		Status:      TimerPaused,
		RemainingMs: d.Milliseconds(),
	}
}

func (t *Timer) Kind() Kind { return KindTimer }

func (t *Timer) Validate() error {
	if t.DurationMs <= 0 {
		return fmt.Errorf("%w: timer duration must be positive", ErrInvalidContent)
	}
	switch t.Status {
	case TimerRunning, TimerFired:
		if t.TargetAt <= 0 {
			return fmt.Errorf("%w: %s timer without expiry", ErrInvalidContent, t.Status)
		}
	case TimerPaused:
		if t.RemainingMs <= 0 || t.RemainingMs > t.DurationMs {
			return fmt.Errorf("%w: paused timer remaining %dms out of range", ErrInvalidContent, t.RemainingMs)
		}
	default:
		return fmt.Errorf("%w: unknown timer status %q", ErrInvalidContent, t.Status)
	}
	return nil
}

// Target returns the expiry of a running timer as a time.Time.
func (t *Timer) Target() time.Time {
	return time.UnixMilli(t.TargetAt)
}

// Remaining returns how much of the countdown is left at now.
func (t *Timer) Remaining(now time.Time) time.Duration {
	switch t.Status {
	case TimerRunning:
		if d := time.UnixMilli(t.TargetAt).Sub(now); d > 0 {
			return d
		}
		return 0
	case TimerPaused:
		return time.Duration(t.RemainingMs) * time.Millisecond
	}
	return 0
}

// Resumed returns a running copy of a paused timer that expires after the
// remaining time has elapsed from now.
func (t *Timer) Resumed(now time.Time) *Timer {
	c := *t
	c.Status = TimerRunning
	c.TargetAt = now.Add(t.Remaining(now)).UnixMilli()
	c.RemainingMs = 0
	c.FiredAt = 0
	return &c
}

// Paused returns a paused copy of a running timer. ok is false when the
// timer has already expired at now; it must then fire instead.
func (t *Timer) Paused(now time.Time) (p *Timer, ok bool) {
	left := t.Remaining(now).Milliseconds()
	if left <= 0 {
		return nil, false
	}
	c := *t
	c.Status = TimerPaused
	c.RemainingMs = left
	c.TargetAt = 0
	return &c, true
}

// Reset returns a paused copy holding the full duration.
func (t *Timer) Reset() *Timer {
	c := *t
	c.Status = TimerPaused
	c.RemainingMs = c.DurationMs
	c.TargetAt = 0
	c.FiredAt = 0
	return &c
}

// Fired returns a copy marked as fired at now.
func (t *Timer) Fired(now time.Time) *Timer {
	c := *t
	c.Status = TimerFired
	c.FiredAt = now.UnixMilli()
	c.RemainingMs = 0
	return &c
}

// Schedule is the recurrence of a command sticker: an interval or a cron
// expression, never both. The zero value means manual runs only.
type Schedule struct {
	IntervalMs int64  `json:"interval_ms,omitempty"`
	Cron       string `json:"cron,omitempty"`
}

// IsZero reports whether no recurrence is configured.
func (s Schedule) IsZero() bool {
	return s.IntervalMs == 0 && strings.TrimSpace(s.Cron) == ""
}

// Interval returns the interval as a duration.
func (s Schedule) Interval() time.Duration {
	return time.Duration(s.IntervalMs) * time.Millisecond
}

// Output is the captured result of the last command run.
type Output struct {
	Stdout     string `json:"stdout,omitempty"`
	Stderr     string `json:"stderr,omitempty"`
	ExitCode   int    `json:"exit_code"`
	Error      string `json:"error,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty"`
	Truncated  bool   `json:"truncated,omitempty"`
	StartedAt  int64  `json:"started_at"`
	FinishedAt int64  `json:"finished_at"`
}

// Output error kinds.
const (
	ErrorKindSpawn   = "spawn"
	ErrorKindTimeout = "timeout"
)

// Command re-executes a shell-word split command on a schedule and keeps
// the last output.
type Command struct {
	Command    string            `json:"command"`
	Env        map[string]string `json:"env,omitempty"`
	WorkingDir string            `json:"working_dir,omitempty"`
	Schedule   Schedule          `json:"schedule"`
	TimeoutMs  int64             `json:"timeout_ms,omitempty"`
	Active     bool              `json:"active"`
	Output     *Output           `json:"output,omitempty"`
}

func (c *Command) Kind() Kind { return KindCommand }

func (c *Command) Validate() error {
	if c.Schedule.IntervalMs < 0 {
		return fmt.Errorf("%w: negative interval", ErrInvalidContent)
	}
	if c.Schedule.IntervalMs > 0 && strings.TrimSpace(c.Schedule.Cron) != "" {
		return fmt.Errorf("%w: interval and cron are mutually exclusive", ErrInvalidContent)
	}
	if c.TimeoutMs < 0 {
		return fmt.Errorf("%w: negative timeout", ErrInvalidContent)
	}
	if c.Active {
		if strings.TrimSpace(c.Command) == "" {
			return fmt.Errorf("%w: active command sticker without a command", ErrInvalidContent)
		}
		if c.Schedule.IsZero() {
			return fmt.Errorf("%w: active command sticker without a schedule", ErrInvalidContent)
		}
	}
	for k := range c.Env {
		if k == "" || strings.ContainsAny(k, "=\x00") {
			return fmt.Errorf("%w: invalid environment variable name %q", ErrInvalidContent, k)
		}
	}
	return nil
}

// Timeout returns the per-run timeout, or zero for the executor default.
func (c *Command) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// ParseEnvLines parses KEY=VALUE lines as typed into the command editor.
// Blank lines and lines starting with # are ignored.
func ParseEnvLines(text string) (map[string]string, error) {
	env := make(map[string]string)
	sc := bufio.NewScanner(strings.NewReader(text))
	line := 0
	for sc.Scan() {
		line++
		s := strings.TrimSpace(sc.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		k, v, ok := strings.Cut(s, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: line %d: expected KEY=VALUE", ErrInvalidContent, line)
		}
		env[k] = strings.TrimSpace(v)
	}
	return env, sc.Err()
}

// FormatEnvLines renders env as sorted KEY=VALUE lines.
func FormatEnvLines(env map[string]string) string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(env[k])
	}
	return b.String()
}
