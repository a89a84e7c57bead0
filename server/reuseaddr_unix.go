//go:build linux || darwin

package server

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// controlReuseAddr sets SO_REUSEADDR on the listening socket before bind,
// so a restarted server does not block waiting for a prior listener's
// sockets to leave TIME_WAIT. Grounded on usock/conn.go's
// SyscallConn().Control pattern, here applied at listen time via
// net.ListenConfig.Control rather than post-accept.
func controlReuseAddr(_, _ string, c syscall.RawConn) error {
	var setErr error
	err := c.Control(func(fd uintptr) {
		setErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	})
	if err != nil {
		return err
	}
	return setErr
}
