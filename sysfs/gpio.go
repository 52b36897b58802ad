// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfs

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

var (
	// ErrOutOfRange is returned for a line number outside the Layout.
	ErrOutOfRange = errors.New("line number out of range")
	// ErrResourceUnavailable is returned when the kernel refuses to export or
	// unexport a line.
	ErrResourceUnavailable = errors.New("resource unavailable")
	// ErrIO is returned when an attribute file cannot be opened, rewound, read,
	// written or polled. The underlying error is wrapped along with it.
	ErrIO = errors.New("i/o error")
	// ErrHandlerFailed is returned by WaitForEdge when the handler fails.
	ErrHandlerFailed = errors.New("edge handler failed")
)

// Direction is the direction of a line.
type Direction int

const (
	In  Direction = 0
	Out Direction = 1
)

func (d Direction) String() string {
	switch d {
	case In:
		return "In"
	case Out:
		return "Out"
	default:
		return "Direction(" + strconv.Itoa(int(d)) + ")"
	}
}

var (
	bIn      = []byte("in")
	bOut     = []byte("out")
	bLow     = []byte("0")
	bHigh    = []byte("1")
	bNone    = []byte("none")
	bRising  = []byte("rising")
	bFalling = []byte("falling")
	bBoth    = []byte("both")
)

// Controller opens lines of the GPIO controller described by a Layout.
type Controller struct {
	layout Layout
	log    logrus.FieldLogger

	// Overridden in tests.
	openFile func(path string, flag int) (fileIO, error)
	poll     func(f fileIO) error
}

// NewController returns a Controller for l. A nil log uses the logrus
// standard logger.
func NewController(l Layout, log logrus.FieldLogger) *Controller {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Controller{layout: l, log: log, openFile: fileIOOpen, poll: pollEdge}
}

// Layout returns the layout the controller was created with.
func (c *Controller) Layout() Layout {
	return c.layout
}

// Open exports line n and opens its value, direction and edge files, in that
// order.
//
// If any step fails, the files already opened are closed in reverse order and
// the line is unexported before the first error is returned. A returned Line
// is always complete.
func (c *Controller) Open(n int) (*Line, error) {
	if err := c.export(n); err != nil {
		return nil, err
	}
	var files [numAttrs]fileIO
	for a := AttrValue; a < numAttrs; a++ {
		f, err := c.openFile(c.layout.Path(n, a), os.O_RDWR)
		if err != nil {
			for i := a - 1; i >= AttrValue; i-- {
				c.closeAttr(n, i, files[i])
			}
			if uerr := c.unexport(n); uerr != nil {
				c.log.WithField("line", n).WithError(uerr).Warn("unexport after failed open")
			}
			return nil, fmt.Errorf("sysfs-gpio (GPIO%d): open %s: %w: %w", n, a, ErrIO, err)
		}
		files[a] = f
	}
	c.log.WithField("line", n).Debug("opened")
	return &Line{
		number:     n,
		c:          c,
		fValue:     files[AttrValue],
		fDirection: files[AttrDirection],
		fEdge:      files[AttrEdge],
	}, nil
}

func (c *Controller) export(n int) error {
	return c.writeControl(c.layout.Export, "export", n)
}

func (c *Controller) unexport(n int) error {
	return c.writeControl(c.layout.Unexport, "unexport", n)
}

// writeControl writes the decimal line number to one of the export control
// files.
func (c *Controller) writeControl(path, op string, n int) error {
	if n < 0 || n > c.layout.MaxLine {
		return fmt.Errorf("sysfs-gpio: %s %d: %w (max %d)", op, n, ErrOutOfRange, c.layout.MaxLine)
	}
	f, err := c.openFile(path, os.O_WRONLY)
	if err != nil {
		if os.IsPermission(err) {
			return fmt.Errorf("sysfs-gpio: %s %d: need more access, try as root or setup udev rules: %w: %w", op, n, ErrResourceUnavailable, err)
		}
		return fmt.Errorf("sysfs-gpio: %s %d: %w: %w", op, n, ErrResourceUnavailable, err)
	}
	defer f.Close()
	if _, err := f.Write([]byte(strconv.Itoa(n))); err != nil {
		return fmt.Errorf("sysfs-gpio: %s %d: %w: %w", op, n, ErrResourceUnavailable, err)
	}
	return nil
}

func (c *Controller) closeAttr(n int, a Attr, f fileIO) {
	if err := f.Close(); err != nil {
		c.log.WithFields(logrus.Fields{"line": n, "attr": a.String()}).WithError(err).Warn("close failed")
	}
}

// Line is an exported GPIO line with its attribute files open.
//
// A Line is owned by a single user; it is not safe for concurrent use.
type Line struct {
	number int
	c      *Controller

	fValue     fileIO
	fDirection fileIO
	fEdge      fileIO
}

// String implements conn.Resource.
func (l *Line) String() string {
	return "GPIO" + strconv.Itoa(l.number)
}

// Halt implements conn.Resource.
//
// It stops edge detection.
func (l *Line) Halt() error {
	return l.SetEdge(gpio.NoEdge)
}

// Number returns the line number.
func (l *Line) Number() int {
	return l.number
}

// Close closes the attribute files and unexports the line.
//
// Failures are logged and otherwise ignored; the file descriptors are gone
// either way. The Line must not be used afterward.
func (l *Line) Close() {
	if l.fValue == nil {
		return
	}
	l.c.closeAttr(l.number, AttrEdge, l.fEdge)
	l.c.closeAttr(l.number, AttrDirection, l.fDirection)
	l.c.closeAttr(l.number, AttrValue, l.fValue)
	l.fEdge, l.fDirection, l.fValue = nil, nil, nil
	if err := l.c.unexport(l.number); err != nil {
		l.c.log.WithField("line", l.number).WithError(err).Warn("unexport failed")
	}
}

// SetDirection configures the line as an input or an output.
func (l *Line) SetDirection(d Direction) error {
	switch d {
	case In:
		return l.write(AttrDirection, l.fDirection, bIn)
	case Out:
		return l.write(AttrDirection, l.fDirection, bOut)
	default:
		return l.wrap(fmt.Errorf("unknown direction %s", d))
	}
}

// SetValue drives the line. The line should be an output.
func (l *Line) SetValue(v gpio.Level) error {
	if v == gpio.Low {
		return l.write(AttrValue, l.fValue, bLow)
	}
	return l.write(AttrValue, l.fValue, bHigh)
}

// Value reads the line level.
//
// Anything but a leading '0' reads as High.
func (l *Line) Value() (gpio.Level, error) {
	if l.fValue == nil {
		return gpio.Low, l.ioErr(AttrValue, "read", os.ErrClosed)
	}
	var buf [2]byte
	if _, err := seekRead(l.fValue, buf[:]); err != nil {
		return gpio.Low, l.ioErr(AttrValue, "read", err)
	}
	return gpio.Level(buf[0] != '0'), nil
}

// SetEdge selects which transitions make the value file ready, see
// WaitForEdge.
func (l *Line) SetEdge(e gpio.Edge) error {
	var b []byte
	switch e {
	case gpio.NoEdge:
		b = bNone
	case gpio.RisingEdge:
		b = bRising
	case gpio.FallingEdge:
		b = bFalling
	case gpio.BothEdges:
		b = bBoth
	default:
		return l.wrap(fmt.Errorf("unsupported edge %s", e))
	}
	return l.write(AttrEdge, l.fEdge, b)
}

//

func (l *Line) write(a Attr, f fileIO, b []byte) error {
	if f == nil {
		return l.ioErr(a, "write", os.ErrClosed)
	}
	if err := seekWrite(f, b); err != nil {
		return l.ioErr(a, "write", err)
	}
	return nil
}

func (l *Line) ioErr(a Attr, op string, err error) error {
	return fmt.Errorf("sysfs-gpio (%s): %s %s: %w: %w", l, op, a, ErrIO, err)
}

func (l *Line) wrap(err error) error {
	return fmt.Errorf("sysfs-gpio (%s): %w", l, err)
}

var _ conn.Resource = &Line{}
