//go:build unix

package ffmpeg

import (
	"os/exec"
	"syscall"
)

// detach starts cmd in a new process group, out of reach of the terminal's SIGINT
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}
