//go:build windows

package copilot

import "os"

// exitSignal is a no-op on Windows, which has no POSIX signals.
func exitSignal(_ *os.ProcessState) string {
	return ""
}
