// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build unix

package sysfs

import (
	"errors"

	"golang.org/x/sys/unix"
)

// pollEdge blocks until f signals a priority or error condition, which is how
// sysfs reports an edge on a value file.
func pollEdge(f fileIO) error {
	fds := []unix.PollFd{{Fd: int32(f.Fd()), Events: unix.POLLPRI | unix.POLLERR}}
	for {
		// The Go runtime interrupts threads with signals; that is not an error.
		if _, err := unix.Poll(fds, -1); !errors.Is(err, unix.EINTR) {
			return err
		}
	}
}
