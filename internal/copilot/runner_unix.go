//go:build !windows

package copilot

import (
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// exitSignal returns the name of the signal that terminated the process,
// or "" if it exited normally.
func exitSignal(ps *os.ProcessState) string {
	ws, ok := ps.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return ""
	}
	return unix.SignalName(ws.Signal())
}
