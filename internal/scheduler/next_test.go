package scheduler

import (
	"errors"
	"testing"
	"time"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		sched   CommandSchedule
		wantErr bool
	}{
		{"interval", CommandSchedule{Interval: time.Minute}, false},
		{"minimum interval", CommandSchedule{Interval: MinInterval}, false},
		{"cron", CommandSchedule{Cron: "*/5 * * * *"}, false},
		{"empty", CommandSchedule{}, true},
		{"negative", CommandSchedule{Interval: -time.Second}, true},
		{"too short", CommandSchedule{Interval: 10 * time.Millisecond}, true},
		{"both", CommandSchedule{Interval: time.Minute, Cron: "* * * * *"}, true},
		{"with seconds", CommandSchedule{Cron: "0 */1 * * * *"}, false},
		{"every ten seconds", CommandSchedule{Cron: "*/10 * * * * *"}, false},
		{"seven fields", CommandSchedule{Cron: "0 0 12 * * * 2030"}, true},
		{"four fields", CommandSchedule{Cron: "* * * *"}, true},
		{"garbage", CommandSchedule{Cron: "a b c d e"}, true},
		{"never fires", CommandSchedule{Cron: "0 0 31 2 *"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.sched)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate(%+v) = %v, wantErr %v", tt.sched, err, tt.wantErr)
			}
			var se *ScheduleError
			if err != nil && !errors.As(err, &se) {
				t.Fatalf("expected ScheduleError, got %T", err)
			}
		})
	}
}

func TestFirstRun_Interval(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := CommandSchedule{Interval: 10 * time.Minute}

	got, err := firstRun(c, time.Time{}, now)
	if err != nil || !got.Equal(now.Add(10*time.Minute)) {
		t.Fatalf("never-run: got %v, %v", got, err)
	}

	last := now.Add(-3 * time.Minute)
	got, _ = firstRun(c, last, now)
	if !got.Equal(last.Add(10 * time.Minute)) {
		t.Fatalf("resumed cadence: got %v", got)
	}
}

func TestFirstRun_Cron(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 7, 30, 0, time.UTC)
	c := CommandSchedule{Cron: "*/15 * * * *"}

	got, err := firstRun(c, time.Time{}, now)
	if err != nil {
		t.Fatalf("firstRun: %v", err)
	}
	if want := time.Date(2026, 3, 1, 12, 15, 0, 0, time.UTC); !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}

	// A tick was missed while not running: due now.
	got, _ = firstRun(c, now.Add(-time.Hour), now)
	if !got.Equal(now) {
		t.Fatalf("missed tick should be due now, got %v", got)
	}
}

func TestRunStart(t *testing.T) {
	due := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := CommandSchedule{Interval: time.Minute}

	if got := runStart(c, due, due.Add(20*time.Millisecond)); !got.Equal(due) {
		t.Errorf("slight lateness should keep the grid, got %v", got)
	}
	late := due.Add(5 * time.Minute)
	if got := runStart(c, due, late); !got.Equal(late) {
		t.Errorf("a missed interval should collapse onto now, got %v", got)
	}
	next, _ := nextRun(c, late)
	if !next.Equal(late.Add(time.Minute)) {
		t.Errorf("next after collapse: got %v", next)
	}
}

func TestNextCronOccurrence_StrictlyAfter(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 15, 0, 0, time.UTC)
	next, err := nextCronOccurrence("*/15 * * * *", at)
	if err != nil {
		t.Fatalf("nextCronOccurrence: %v", err)
	}
	if want := at.Add(15 * time.Minute); !next.Equal(want) {
		t.Fatalf("got %v, want %v", next, want)
	}
}

func TestNextCronOccurrence_Seconds(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 3, 0, time.UTC)
	next, err := nextCronOccurrence("*/10 * * * * *", at)
	if err != nil {
		t.Fatalf("nextCronOccurrence: %v", err)
	}
	if want := time.Date(2026, 3, 1, 12, 0, 10, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("got %v, want %v", next, want)
	}

	next, err = nextCronOccurrence("0 */1 * * * *", time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("nextCronOccurrence: %v", err)
	}
	if want := time.Date(2026, 3, 1, 12, 2, 0, 0, time.UTC); !next.Equal(want) {
		t.Fatalf("strictly after: got %v, want %v", next, want)
	}
}
