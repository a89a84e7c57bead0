//go:build !linux && !darwin

package server

import "syscall"

// controlReuseAddr is a no-op outside linux/darwin, where
// golang.org/x/sys/unix's socket option constants are not available.
func controlReuseAddr(_, _ string, _ syscall.RawConn) error {
	return nil
}
