package sticker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor_FallsBackToGray(t *testing.T) {
	assert.Equal(t, ColorPink, ParseColor("pink"))
	assert.Equal(t, ColorBlue, ParseColor(" Blue "))
	assert.Equal(t, ColorGray, ParseColor("magenta"))
	assert.Equal(t, ColorGray, ParseColor(""))
}

func TestParseKindAndState(t *testing.T) {
	k, err := ParseKind("timer")
	require.NoError(t, err)
	assert.Equal(t, KindTimer, k)
	_, err = ParseKind("image")
	assert.Error(t, err)

	s, err := ParseState("minimized")
	require.NoError(t, err)
	assert.Equal(t, StateMinimized, s)
	_, err = ParseState("hidden")
	assert.Error(t, err)
}

func TestSticker_Validate(t *testing.T) {
	s := &Sticker{
		Kind:      KindTimer,
		State:     StateOpen,
		Rect:      Rect{Left: 10, Top: 10, Width: 300, Height: 200},
		CreatedAt: 100,
		UpdatedAt: 100,
	}
	require.NoError(t, s.Validate())

	tooSmall := s.Clone()
	tooSmall.Rect.Width = 50
	assert.Error(t, tooSmall.Validate())

	backwards := s.Clone()
	backwards.UpdatedAt = 99
	assert.Error(t, backwards.Validate())
}

func TestEncodeDecode_AllKinds(t *testing.T) {
	cases := []Content{
		&Markdown{Body: "# groceries\n- milk"},
		&Timer{Label: "tea", DurationMs: 180000, Status: TimerRunning, TargetAt: 1700000000000},
		&Command{
			Command:  "uptime",
			Env:      map[string]string{"LANG": "C"},
			Schedule: Schedule{Cron: "*/5 * * * *"},
			Active:   true,
			Output:   &Output{Stdout: "up 3 days", StartedAt: 1, FinishedAt: 2},
		},
	}
	for _, c := range cases {
		raw, err := Encode(c)
		require.NoError(t, err)
		assert.Contains(t, raw, `"v":1`)

		got, err := Decode(c.Kind(), raw)
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
}

func TestDecode_EmptyPayloadYieldsDefault(t *testing.T) {
	c, err := Decode(KindTimer, "")
	require.NoError(t, err)
	tm := c.(*Timer)
	assert.Equal(t, TimerPaused, tm.Status)
	assert.Equal(t, DefaultTimerDuration.Milliseconds(), tm.RemainingMs)

	c, err = Decode(KindMarkdown, "  ")
	require.NoError(t, err)
	assert.Equal(t, &Markdown{}, c)
}

func TestDecode_Rejects(t *testing.T) {
	_, err := Decode(KindTimer, "not json")
	assert.Error(t, err)

	_, err = Decode(KindTimer, `{"v":2,"kind":"timer","data":{}}`)
	assert.ErrorContains(t, err, "unsupported payload version")

	raw, err := Encode(&Markdown{Body: "x"})
	require.NoError(t, err)
	_, err = Decode(KindTimer, raw)
	assert.ErrorContains(t, err, "tagged")

	_, err = Decode(KindTimer, `{"v":1,"kind":"timer","data":{"duration_ms":1000,"status":"running"}}`)
	assert.ErrorIs(t, err, ErrInvalidContent)
}

func TestTimer_PauseResume(t *testing.T) {
	now := time.UnixMilli(1_000_000)
	tm := NewTimer(10 * time.Second).Resumed(now)
	require.NoError(t, tm.Validate())
	assert.Equal(t, now.Add(10*time.Second).UnixMilli(), tm.TargetAt)

	later := now.Add(4 * time.Second)
	p, ok := tm.Paused(later)
	require.True(t, ok)
	require.NoError(t, p.Validate())
	assert.Equal(t, int64(6000), p.RemainingMs)

	resumedAt := later.Add(time.Hour)
	r := p.Resumed(resumedAt)
	assert.Equal(t, resumedAt.Add(6*time.Second).UnixMilli(), r.TargetAt)

	_, ok = r.Paused(resumedAt.Add(7 * time.Second))
	assert.False(t, ok, "an expired timer cannot be paused")

	f := r.Fired(resumedAt.Add(6 * time.Second))
	require.NoError(t, f.Validate())
	assert.Equal(t, TimerFired, f.Status)

	reset := f.Reset()
	require.NoError(t, reset.Validate())
	assert.Equal(t, reset.DurationMs, reset.RemainingMs)
}

func TestCommand_Validate(t *testing.T) {
	ok := &Command{Command: "date", Schedule: Schedule{IntervalMs: 60000}, Active: true}
	require.NoError(t, ok.Validate())

	inactiveEmpty := &Command{}
	require.NoError(t, inactiveEmpty.Validate())

	assert.ErrorIs(t, (&Command{Active: true, Schedule: Schedule{IntervalMs: 1000}}).Validate(), ErrInvalidContent)
	assert.ErrorIs(t, (&Command{Command: "date", Active: true}).Validate(), ErrInvalidContent)
	assert.ErrorIs(t, (&Command{Command: "date", Schedule: Schedule{IntervalMs: 1000, Cron: "* * * * *"}}).Validate(), ErrInvalidContent)
	assert.ErrorIs(t, (&Command{Command: "date", Env: map[string]string{"A=B": "c"}}).Validate(), ErrInvalidContent)
}

func TestEnvLines(t *testing.T) {
	env, err := ParseEnvLines("# comment\nFOO=bar\n\n BAZ = qux=1 \n")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"FOO": "bar", "BAZ": "qux=1"}, env)
	assert.Equal(t, "BAZ=qux=1\nFOO=bar", FormatEnvLines(env))

	_, err = ParseEnvLines("novalue")
	assert.Error(t, err)
}
