// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds1302

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/gpiortc/sysfs"
)

// Line is a GPIO line as used by Dev.
//
// *sysfs.Line and *ftdi.Line implement it.
type Line interface {
	SetDirection(d sysfs.Direction) error
	SetValue(v gpio.Level) error
	Value() (gpio.Level, error)
	Close()
}

// Opener returns the line with the given number.
type Opener func(n int) (Line, error)

// SysfsOpener returns an Opener exporting lines through c.
func SysfsOpener(c *sysfs.Controller) Opener {
	return func(n int) (Line, error) {
		l, err := c.Open(n)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
}

// Pins are the line numbers the chip is wired to.
type Pins struct {
	Power int
	Clock int
	Data  int
	Reset int
}

// DefaultPins is the wiring used on the reference board.
var DefaultPins = Pins{Power: 18, Clock: 23, Data: 24, Reset: 25}

// Opts holds the configuration options.
type Opts struct {
	// Freq is the bit clock. The chip supports up to 500kHz at 2V.
	Freq physic.Frequency
	// Commands defaults to DefaultCommands.
	Commands *CommandTable
	// Logger defaults to the logrus standard logger.
	Logger logrus.FieldLogger
}

// DefaultOpts is the recommended default options.
var DefaultOpts = Opts{
	Freq: 10 * physic.KiloHertz,
}

// Dev is a handle to a DS1302.
//
// It is not safe for concurrent use.
type Dev struct {
	clk  Line
	dat  Line
	rst  Line
	pwr  Line
	half time.Duration
	cmds *CommandTable
	log  logrus.FieldLogger
}

// New opens the clock, data, reset and power lines in that order, makes
// clock, reset and power outputs and powers the chip.
//
// On failure the lines already opened are closed in reverse order.
func New(open Opener, p Pins, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	d := &Dev{cmds: opts.Commands, log: opts.Logger}
	freq := opts.Freq
	if freq <= 0 {
		freq = DefaultOpts.Freq
	}
	d.half = freq.Period() / 2
	if d.cmds == nil {
		d.cmds = &DefaultCommands
	}
	if d.log == nil {
		d.log = logrus.StandardLogger()
	}

	roles := []struct {
		name string
		n    int
		l    *Line
	}{
		{"clock", p.Clock, &d.clk},
		{"data", p.Data, &d.dat},
		{"reset", p.Reset, &d.rst},
		{"power", p.Power, &d.pwr},
	}
	var opened []Line
	release := func() {
		for i := len(opened) - 1; i >= 0; i-- {
			opened[i].Close()
		}
	}
	for _, r := range roles {
		l, err := open(r.n)
		if err != nil {
			release()
			return nil, fmt.Errorf("ds1302: open %s line %d: %w", r.name, r.n, err)
		}
		*r.l = l
		opened = append(opened, l)
	}
	for _, r := range []struct {
		name string
		l    Line
	}{{"clock", d.clk}, {"reset", d.rst}, {"power", d.pwr}} {
		if err := r.l.SetDirection(sysfs.Out); err != nil {
			release()
			return nil, fmt.Errorf("ds1302: %s line: %w", r.name, err)
		}
	}
	if err := d.pwr.SetValue(gpio.High); err != nil {
		release()
		return nil, fmt.Errorf("ds1302: power on: %w", err)
	}
	return d, nil
}

func (d *Dev) String() string {
	return "ds1302"
}

// Halt implements conn.Resource.
//
// It ends any transaction by driving reset then clock low.
func (d *Dev) Halt() error {
	if err := d.rst.SetValue(gpio.Low); err != nil {
		return fmt.Errorf("ds1302: %w", err)
	}
	if err := d.clk.SetValue(gpio.Low); err != nil {
		return fmt.Errorf("ds1302: %w", err)
	}
	return nil
}

// Close releases the reset, data, clock and power lines. The chip is left
// powered.
func (d *Dev) Close() {
	for _, l := range []Line{d.rst, d.dat, d.clk, d.pwr} {
		l.Close()
	}
}

var _ conn.Resource = &Dev{}
