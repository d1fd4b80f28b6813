//go:build !windows

package discovery

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// setBroadcastOpts enables SO_BROADCAST so the socket may send to and receive
// from the limited broadcast address, and SO_REUSEADDR so a restarted
// responder can rebind the port right away.
func setBroadcastOpts(network, address string, c syscall.RawConn) error {
	var setSockOptErr error
	err := c.Control(func(fd uintptr) {
		setSockOptErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_BROADCAST, 1)
		if setSockOptErr != nil {
			return
		}
		setSockOptErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return setSockOptErr
}
