//go:build !windows

package executor

import (
	"errors"
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// configureProcess puts the child in its own process group so the whole
// tree can be signalled at once.
func configureProcess(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

type processTree struct {
	pgid int
}

func trackTree(cmd *exec.Cmd) (*processTree, error) {
	return &processTree{pgid: cmd.Process.Pid}, nil
}

func (t *processTree) kill() error {
	err := unix.Kill(-t.pgid, unix.SIGKILL)
	if errors.Is(err, unix.ESRCH) {
		return nil
	}
	return err
}

func (t *processTree) release() {}
