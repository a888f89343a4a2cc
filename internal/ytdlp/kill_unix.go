//go:build !windows

package ytdlp

import (
	"os/exec"
	"syscall"
	"time"
)

// sysProcAttr puts the child in its own process group so the whole tree
// (yt-dlp plus any ffmpeg it spawns) can be signalled at once.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// terminateTree sends SIGTERM to the child's process group, waits a short
// grace period, then SIGKILLs anything still alive.
func terminateTree(cmd *exec.Cmd) {
	if cmd == nil || cmd.Process == nil {
		return
	}
	pgid, err := syscall.Getpgid(cmd.Process.Pid)
	if err != nil {
		_ = cmd.Process.Kill()
		return
	}
	_ = syscall.Kill(-pgid, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			if err := syscall.Kill(-pgid, 0); err != nil {
				close(done)
				return
			}
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		_ = syscall.Kill(-pgid, syscall.SIGKILL)
	}
}
