//go:build !windows

package executor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	args, err := ParseCommand(`git -C "/tmp/my repo" log --format='%h %s'`)
	require.NoError(t, err)
	assert.Equal(t, []string{"git", "-C", "/tmp/my repo", "log", "--format=%h %s"}, args)

	_, err = ParseCommand("   ")
	assert.Error(t, err)

	_, err = ParseCommand("ls | wc -l")
	assert.ErrorContains(t, err, "shell operator")

	_, err = ParseCommand(`echo "unterminated`)
	assert.Error(t, err)

	args, err = ParseCommand(`sh -c "ls | wc -l"`)
	require.NoError(t, err)
	assert.Equal(t, []string{"sh", "-c", "ls | wc -l"}, args)
}

func TestRun_CapturesStdoutAndStderr(t *testing.T) {
	e := New(Options{})
	res, err := e.Run(context.Background(), Request{Command: `sh -c "echo out; echo err >&2"`})
	require.NoError(t, err)
	assert.Equal(t, "out\n", res.Stdout)
	assert.Equal(t, "err\n", res.Stderr)
	assert.Equal(t, 0, res.ExitCode)
	assert.False(t, res.Truncated)
}

func TestRun_NonZeroExitIsNotAnError(t *testing.T) {
	e := New(Options{})
	res, err := e.Run(context.Background(), Request{Command: `sh -c "exit 3"`})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
}

func TestRun_TruncatesOutput(t *testing.T) {
	e := New(Options{MaxOutputBytes: 8})
	res, err := e.Run(context.Background(), Request{Command: `sh -c "printf 0123456789abcdef"`})
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Equal(t, "01234567"+truncatedMarker, res.Stdout)
}

func TestRun_TimeoutKillsProcessTree(t *testing.T) {
	e := New(Options{})
	start := time.Now()
	res, err := e.Run(context.Background(), Request{
		Command: `sh -c "echo started; sleep 30 & sleep 30"`,
		Timeout: 300 * time.Millisecond,
	})
	elapsed := time.Since(start)

	var te *TimeoutError
	require.True(t, errors.As(err, &te), "expected TimeoutError, got %v", err)
	assert.Equal(t, 300*time.Millisecond, te.Timeout)
	require.NotNil(t, res)
	assert.Equal(t, "started\n", res.Stdout)
	assert.Equal(t, -1, res.ExitCode)
	assert.Less(t, elapsed, waitDelay, "background child must be killed with the group")
}

func TestRun_ParentCancellation(t *testing.T) {
	e := New(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	_, err := e.Run(ctx, Request{Command: "sleep 10"})
	assert.ErrorIs(t, err, context.Canceled)
	var te *TimeoutError
	assert.False(t, errors.As(err, &te))
}

func TestRun_SpawnErrors(t *testing.T) {
	e := New(Options{})

	_, err := e.Run(context.Background(), Request{Command: "definitely-not-a-real-program-xyz"})
	var se *SpawnError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "definitely-not-a-real-program-xyz", se.Command)

	_, err = e.Run(context.Background(), Request{Command: ""})
	assert.True(t, errors.As(err, &se))

	mem := New(Options{Fs: afero.NewMemMapFs()})
	_, err = mem.Run(context.Background(), Request{Command: "true", WorkingDir: "/no/such/dir"})
	require.True(t, errors.As(err, &se))
	assert.ErrorContains(t, err, "working directory")
}

func TestRun_WorkingDirAndEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "marker.txt"), []byte("x"), 0o644))

	e := New(Options{})
	res, err := e.Run(context.Background(), Request{
		Command:    `sh -c "ls; echo $STICKER_GREETING"`,
		WorkingDir: dir,
		Env:        map[string]string{"STICKER_GREETING": "hello"},
	})
	require.NoError(t, err)
	assert.Contains(t, res.Stdout, "marker.txt")
	assert.True(t, strings.HasSuffix(res.Stdout, "hello\n"), res.Stdout)
}

func TestRun_RelativeProgramResolvedAgainstWorkingDir(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "hello.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho from script\n"), 0o755))

	e := New(Options{})
	res, err := e.Run(context.Background(), Request{Command: "./hello.sh", WorkingDir: dir})
	require.NoError(t, err)
	assert.Equal(t, "from script\n", res.Stdout)
}

func TestRun_ConcurrencyLimit(t *testing.T) {
	e := New(Options{MaxConcurrent: 1})
	start := time.Now()

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.Run(context.Background(), Request{Command: "sleep 0.3"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.GreaterOrEqual(t, time.Since(start), 600*time.Millisecond)
}

func TestMergeEnv(t *testing.T) {
	base := []string{"PATH=/bin", "HOME=/root", "LANG=C"}
	got := mergeEnv(base, map[string]string{"LANG": "en_US.UTF-8", "APP": "1"})
	assert.Equal(t, []string{"PATH=/bin", "HOME=/root", "APP=1", "LANG=en_US.UTF-8"}, got)

	assert.Equal(t, base, mergeEnv(base, nil))
}

func TestCappedBuffer(t *testing.T) {
	b := newCappedBuffer(5)
	n, err := b.Write([]byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, err = b.Write([]byte("defgh"))
	require.NoError(t, err)
	assert.Equal(t, 5, n, "writes report full length so the child never sees EPIPE")
	assert.True(t, b.Truncated())
	assert.Equal(t, "abcde"+truncatedMarker, b.String())
}
