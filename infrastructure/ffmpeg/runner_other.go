//go:build !unix && !windows

package ffmpeg

import "os/exec"

func detach(cmd *exec.Cmd) {}
