//go:build windows

package transport

import (
	"syscall"

	"golang.org/x/sys/windows"
)

// broadcastControl enables SO_BROADCAST and SO_REUSEADDR on a listening
// socket on Windows, mirroring broadcastControl for unix platforms.
func broadcastControl(network, address string, c syscall.RawConn) error {
	var opErr error
	err := c.Control(func(fd uintptr) {
		opErr = windows.Setsockopt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_BROADCAST, (*byte)(&windowsOne), 4)
		if opErr != nil {
			return
		}
		opErr = windows.Setsockopt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, (*byte)(&windowsOne), 4)
	})
	if err != nil {
		return err
	}
	return opErr
}

var windowsOne int32 = 1
