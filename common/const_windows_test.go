//go:build windows

package common

import (
	"strings"
	"testing"
)

func TestPipePath_Default(t *testing.T) {
	t.Setenv(PipeNameEnv, "")

	path := PipePath()
	if !strings.HasPrefix(path, `\\.\pipe\`) {
		t.Errorf("PipePath() = %q; want pipe prefix", path)
	}
	if !strings.HasSuffix(path, EndpointName()) {
		t.Errorf("PipePath() = %q; want suffix %q", path, EndpointName())
	}
}

func TestPipePath_CustomName(t *testing.T) {
	t.Setenv(PipeNameEnv, "custom-pipe-name")

	if got := PipePath(); got != `\\.\pipe\custom-pipe-name` {
		t.Errorf("PipePath() = %q", got)
	}
}

func TestPipePath_FullPath(t *testing.T) {
	full := `\\.\pipe\already-full`
	t.Setenv(PipeNameEnv, full)

	if got := PipePath(); got != full {
		t.Errorf("PipePath() = %q; want %q", got, full)
	}
}
