// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfs

import (
	"context"
	"fmt"
	"os"

	"periph.io/x/conn/v3/gpio"
)

// EdgeHandler is called by WaitForEdge with the level read after each edge.
//
// Returning an error ends the wait.
type EdgeHandler func(l gpio.Level) error

// WaitForEdge blocks until the value file reports an edge, reads the level and
// passes it to h, then waits again.
//
// Edges must first be enabled with SetEdge. There is no timeout: the loop only
// ends when polling or reading fails, when h returns an error (wrapped with
// ErrHandlerFailed) or when ctx is done. ctx is only checked after a wake up,
// before h is called.
func (l *Line) WaitForEdge(ctx context.Context, h EdgeHandler) error {
	for {
		if l.fValue == nil {
			return l.ioErr(AttrValue, "poll", os.ErrClosed)
		}
		if err := l.c.poll(l.fValue); err != nil {
			return l.ioErr(AttrValue, "poll", err)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		v, err := l.Value()
		if err != nil {
			return err
		}
		if err := h(v); err != nil {
			return fmt.Errorf("sysfs-gpio (%s): %w: %w", l, ErrHandlerFailed, err)
		}
	}
}
