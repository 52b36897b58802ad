// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ftdi

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/gpiortc/sysfs"
)

// Open opens device i and switches its data bus to asynchronous bit-bang
// mode with every pin as an input.
//
// A nil log uses the logrus standard logger.
func Open(i int, log logrus.FieldLogger) (*Bus, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	h, e := d2xxOpen(i)
	if e != 0 {
		return nil, toErr("Open", e)
	}
	t, _, _, e := h.GetDeviceInfo()
	if e != 0 {
		_ = h.Close()
		return nil, toErr("GetDeviceInfo", e)
	}
	if err := initHandle(h); err != nil {
		// The device could be in an unexpected state, so try resetting it first.
		if err := resetHandle(h); err != nil {
			_ = h.Close()
			return nil, err
		}
		if err := initHandle(h); err != nil {
			_ = h.Close()
			return nil, err
		}
	}
	name := DevType(t).String()
	if i > 0 {
		// When more than one device is present, add "(index)" suffix.
		name += "(" + strconv.Itoa(i) + ")"
	}
	b, err := newBus(h, name, log)
	if err != nil {
		_ = h.Close()
		return nil, err
	}
	log.WithField("device", name).Debug("opened")
	return b, nil
}

func newBus(h bitbanger, name string, log logrus.FieldLogger) (*Bus, error) {
	if err := toErr("SetBitMode", h.SetBitMode(0, byte(bitModeAsyncBitbang))); err != nil {
		return nil, err
	}
	return &Bus{name: name, log: log, h: h}, nil
}

// Bus is the D0~D7 data bus of an adapter.
//
// The Lines of a Bus share one USB handle; Bus serializes access to it.
type Bus struct {
	// Immutable after initialization.
	name string
	log  logrus.FieldLogger

	mu     sync.Mutex
	h      bitbanger
	dmask  uint8 // 0 input, 1 output
	dvalue uint8
	used   uint8
}

func (b *Bus) String() string {
	return b.name
}

// Halt implements conn.Resource.
//
// It turns every pin back into an input.
func (b *Bus) Halt() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.setMaskLocked(0)
}

// Close closes the USB handle. Lines must not be used afterward.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return toErr("Close", b.h.Close())
}

// Line returns D-bus pin n, from 0 to 7, as an input.
//
// A pin can only be handed out once until its Line is closed.
func (b *Bus) Line(n int) (*Line, error) {
	if n < 0 || n > 7 {
		return nil, fmt.Errorf("ftdi: %s.D%d: %w (max 7)", b, n, sysfs.ErrOutOfRange)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	mask := uint8(1) << uint(n)
	if b.used&mask != 0 {
		return nil, fmt.Errorf("ftdi: %s.D%d: %w: already in use", b, n, sysfs.ErrResourceUnavailable)
	}
	if err := b.setMaskLocked(b.dmask &^ mask); err != nil {
		return nil, fmt.Errorf("ftdi: %s.D%d: %w: %w", b, n, sysfs.ErrResourceUnavailable, err)
	}
	b.used |= mask
	return &Line{b: b, n: n, mask: mask}, nil
}

func (b *Bus) setMaskLocked(mask uint8) error {
	if mask != b.dmask {
		if err := toErr("SetBitMode", b.h.SetBitMode(mask, byte(bitModeAsyncBitbang))); err != nil {
			return err
		}
		b.dmask = mask
	}
	return nil
}

// Line is one pin of a Bus.
//
// It can be used as a ds1302.Line.
type Line struct {
	b    *Bus
	n    int
	mask uint8

	closed bool
}

func (l *Line) String() string {
	return l.b.name + ".D" + strconv.Itoa(l.n)
}

// Number returns the pin number on the data bus.
func (l *Line) Number() int {
	return l.n
}

// SetDirection changes the pin to an input or an output.
func (l *Line) SetDirection(d sysfs.Direction) error {
	l.b.mu.Lock()
	defer l.b.mu.Unlock()
	if l.closed {
		return l.ioErr("direction", os.ErrClosed)
	}
	var mask uint8
	switch d {
	case sysfs.In:
		mask = l.b.dmask &^ l.mask
	case sysfs.Out:
		mask = l.b.dmask | l.mask
	default:
		return fmt.Errorf("ftdi (%s): unknown direction %s", l, d)
	}
	if err := l.b.setMaskLocked(mask); err != nil {
		return l.ioErr("direction", err)
	}
	return nil
}

// SetValue drives the pin. It takes effect once the pin is an output.
func (l *Line) SetValue(v gpio.Level) error {
	l.b.mu.Lock()
	defer l.b.mu.Unlock()
	if l.closed {
		return l.ioErr("write", os.ErrClosed)
	}
	value := l.b.dvalue &^ l.mask
	if v {
		value |= l.mask
	}
	buf := [1]byte{value}
	n, e := l.b.h.Write(buf[:])
	if err := toErr("Write", e); err != nil {
		return l.ioErr("write", err)
	}
	if n != 1 {
		return l.ioErr("write", errShortWrite)
	}
	l.b.dvalue = value
	return nil
}

// Value samples the pin.
func (l *Line) Value() (gpio.Level, error) {
	l.b.mu.Lock()
	defer l.b.mu.Unlock()
	if l.closed {
		return gpio.Low, l.ioErr("read", os.ErrClosed)
	}
	p, e := l.b.h.GetBitMode()
	if err := toErr("GetBitMode", e); err != nil {
		return gpio.Low, l.ioErr("read", err)
	}
	return p&l.mask != 0, nil
}

// Close turns the pin back into an input and releases it.
//
// Failures are logged.
func (l *Line) Close() {
	l.b.mu.Lock()
	defer l.b.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	l.b.used &^= l.mask
	if err := l.b.setMaskLocked(l.b.dmask &^ l.mask); err != nil {
		l.b.log.WithField("line", l.String()).WithError(err).Warn("release failed")
	}
}

func (l *Line) ioErr(op string, err error) error {
	return fmt.Errorf("ftdi (%s): %s: %w: %w", l, op, sysfs.ErrIO, err)
}

var errShortWrite = errors.New("short write")

var _ conn.Resource = &Bus{}
