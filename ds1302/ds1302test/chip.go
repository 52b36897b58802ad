// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ds1302test simulates a DS1302 at the pin level.
package ds1302test

import (
	"errors"
	"fmt"
	"strconv"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/gpiortc/sysfs"
)

// Role is the function of a pin of the chip.
type Role int

const (
	Clock Role = iota
	Data
	Reset
	Power
)

func (r Role) String() string {
	switch r {
	case Clock:
		return "Clock"
	case Data:
		return "Data"
	case Reset:
		return "Reset"
	case Power:
		return "Power"
	default:
		return "Role(" + strconv.Itoa(int(r)) + ")"
	}
}

// Op is a pin operation.
type Op string

const (
	OpDirection Op = "direction"
	OpSet       Op = "set"
	OpGet       Op = "get"
)

// Event is a pin operation as seen by the chip.
type Event struct {
	Role  Role
	Op    Op
	Dir   sysfs.Direction // for OpDirection
	Level gpio.Level      // for OpSet and OpGet
}

func (e Event) String() string {
	switch e.Op {
	case OpDirection:
		return fmt.Sprintf("%s %s %s", e.Role, e.Op, e.Dir)
	default:
		return fmt.Sprintf("%s %s %s", e.Role, e.Op, e.Level)
	}
}

const (
	wpCommand = 0x8E
	wpBit     = 0x80
)

// Chip is a simulated DS1302.
//
// It shifts in a command byte while reset is high. A write command (bit 0
// clear) is followed by a data byte stored in Regs; a read command makes the
// chip present Regs[cmd&^1] on the data line, one bit after each falling
// clock edge. Writes other than to the write protect register are ignored
// while it is set. Nothing happens while the chip is not powered.
//
// Chip is not safe for concurrent use.
type Chip struct {
	// Regs holds the register file, indexed by write command.
	Regs [256]byte
	// Received lists the bytes shifted in, commands included.
	Received []byte
	// Events lists every successful pin operation in order.
	Events []Event
	// Closed lists the pins in the order they were closed.
	Closed []Role
	// Fail is called before every pin operation. A non-nil error fails it.
	Fail func(r Role, op Op) error

	numbers map[int]Role
	pins    [4]*Pin

	shift   byte
	nbits   int
	cmd     byte
	hasCmd  bool
	reading bool
	output  byte // presented while reading
	nout    int
	driven  gpio.Level // level presented on the data line
}

// New returns a Chip wired to the given line numbers.
func New(clock, data, reset, power int) *Chip {
	return &Chip{numbers: map[int]Role{clock: Clock, data: Data, reset: Reset, power: Power}}
}

// Open returns the pin wired to line n. It returns *Pin, so wrap it in a
// closure to use it as a ds1302.Opener.
func (c *Chip) Open(n int) (*Pin, error) {
	r, ok := c.numbers[n]
	if !ok {
		return nil, fmt.Errorf("ds1302test: line %d: %w", n, sysfs.ErrOutOfRange)
	}
	if c.pins[r] != nil {
		return nil, fmt.Errorf("ds1302test: line %d: %w: already open", n, sysfs.ErrResourceUnavailable)
	}
	p := &Pin{c: c, role: r, number: n}
	c.pins[r] = p
	return p, nil
}

// Powered reports whether the power pin is driven high.
func (c *Chip) Powered() bool {
	p := c.pins[Power]
	return p != nil && p.dir == sysfs.Out && p.level == gpio.High
}

// Filter returns the events of role r with operation op.
func (c *Chip) Filter(r Role, op Op) []Event {
	var out []Event
	for _, e := range c.Events {
		if e.Role == r && e.Op == op {
			out = append(out, e)
		}
	}
	return out
}

func (c *Chip) level(r Role) gpio.Level {
	if p := c.pins[r]; p != nil {
		return p.level
	}
	return gpio.Low
}

func (c *Chip) begin() {
	c.shift, c.nbits = 0, 0
	c.cmd, c.hasCmd = 0, false
	c.reading, c.nout = false, 0
}

// shiftIn samples one bit driven by the host.
func (c *Chip) shiftIn(v gpio.Level) {
	if v {
		c.shift |= 1 << c.nbits
	}
	c.nbits++
	if c.nbits < 8 {
		return
	}
	b := c.shift
	c.shift, c.nbits = 0, 0
	c.Received = append(c.Received, b)
	if !c.hasCmd {
		c.cmd, c.hasCmd = b, true
		if b&1 != 0 {
			c.reading = true
			c.output = c.Regs[b&^1]
			c.nout = 0
		}
		return
	}
	if c.cmd&1 != 0 {
		return
	}
	if c.Regs[wpCommand]&wpBit != 0 && c.cmd != wpCommand {
		return
	}
	c.Regs[c.cmd] = b
}

func (c *Chip) setLevel(p *Pin, v gpio.Level) {
	prev := p.level
	p.level = v
	if !c.Powered() && p.role != Power {
		return
	}
	switch p.role {
	case Reset:
		if prev != v {
			c.begin()
		}
	case Clock:
		if c.level(Reset) == gpio.High && prev == gpio.High && v == gpio.Low && c.reading && c.nout < 8 {
			c.driven = gpio.Level(c.output>>c.nout&1 != 0)
			c.nout++
		}
	case Data:
		if c.level(Reset) == gpio.High && c.level(Clock) == gpio.High && p.dir == sysfs.Out && !c.reading {
			c.shiftIn(v)
		}
	}
}

// Pin is one line of the chip.
type Pin struct {
	c      *Chip
	role   Role
	number int
	dir    sysfs.Direction
	level  gpio.Level
	closed bool
}

func (p *Pin) String() string {
	return fmt.Sprintf("%s(%d)", p.role, p.number)
}

func (p *Pin) check(op Op) error {
	if p.closed {
		return fmt.Errorf("ds1302test: %s: %w", p, errClosed)
	}
	if p.c.Fail != nil {
		if err := p.c.Fail(p.role, op); err != nil {
			return err
		}
	}
	return nil
}

// SetDirection implements ds1302.Line.
func (p *Pin) SetDirection(d sysfs.Direction) error {
	if err := p.check(OpDirection); err != nil {
		return err
	}
	p.dir = d
	p.c.Events = append(p.c.Events, Event{Role: p.role, Op: OpDirection, Dir: d})
	return nil
}

// SetValue implements ds1302.Line.
func (p *Pin) SetValue(v gpio.Level) error {
	if err := p.check(OpSet); err != nil {
		return err
	}
	p.c.Events = append(p.c.Events, Event{Role: p.role, Op: OpSet, Level: v})
	p.c.setLevel(p, v)
	return nil
}

// Value implements ds1302.Line.
//
// An input data pin reads the level presented by the chip, any other pin its
// own level.
func (p *Pin) Value() (gpio.Level, error) {
	if err := p.check(OpGet); err != nil {
		return gpio.Low, err
	}
	v := p.level
	if p.role == Data && p.dir == sysfs.In {
		v = p.c.driven
	}
	p.c.Events = append(p.c.Events, Event{Role: p.role, Op: OpGet, Level: v})
	return v, nil
}

// Close implements ds1302.Line.
func (p *Pin) Close() {
	if p.closed {
		return
	}
	p.closed = true
	p.c.Closed = append(p.c.Closed, p.role)
}

var errClosed = errors.New("pin closed")
