// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"periph.io/x/gpiortc/ds1302"
	"periph.io/x/gpiortc/ftdi"
)

// ftdiPins is the wiring used on the FTDI data bus.
var ftdiPins = ds1302.Pins{Power: 0, Clock: 1, Data: 2, Reset: 3}

// pinFlags overrides the pins that were set to a non-negative value.
type pinFlags struct {
	power, clock, data, reset *int
}

func addPinFlags(f *flag.FlagSet) *pinFlags {
	return &pinFlags{
		power: f.Int("power", -1, "power line, defaults to 18 with sysfs and 0 with ftdi"),
		clock: f.Int("clock", -1, "clock line, defaults to 23 with sysfs and 1 with ftdi"),
		data:  f.Int("data", -1, "data line, defaults to 24 with sysfs and 2 with ftdi"),
		reset: f.Int("reset", -1, "reset line, defaults to 25 with sysfs and 3 with ftdi"),
	}
}

func (p *pinFlags) apply(pins ds1302.Pins) ds1302.Pins {
	for _, x := range []struct {
		v   int
		dst *int
	}{{*p.power, &pins.Power}, {*p.clock, &pins.Clock}, {*p.data, &pins.Data}, {*p.reset, &pins.Reset}} {
		if x.v >= 0 {
			*x.dst = x.v
		}
	}
	return pins
}

// opener returns the line opener of the backend, its default wiring and a
// function releasing the backend.
func opener(e *env, backend string, device int) (ds1302.Opener, ds1302.Pins, func(), error) {
	switch backend {
	case "sysfs":
		return ds1302.SysfsOpener(e.controller()), ds1302.DefaultPins, func() {}, nil
	case "ftdi":
		b, err := ftdi.Open(device, e.log.WithField("prefix", "ftdi"))
		if err != nil {
			return nil, ds1302.Pins{}, nil, err
		}
		open := func(n int) (ds1302.Line, error) {
			l, err := b.Line(n)
			if err != nil {
				return nil, err
			}
			return l, nil
		}
		release := func() {
			if err := b.Close(); err != nil {
				e.log.WithError(err).Warn("close failed")
			}
		}
		return open, ftdiPins, release, nil
	default:
		return nil, ds1302.Pins{}, nil, fmt.Errorf("unknown backend %q, use sysfs or ftdi", backend)
	}
}

func runRTC(ctx context.Context, e *env, f *flag.FlagSet, args []string) error {
	backend := f.String("backend", "sysfs", "line backend, sysfs or ftdi")
	device := f.Int("device", 0, "FTDI device index, with -backend ftdi")
	reads := f.Int("n", 10, "number of reads, 0 to read until interrupted")
	noReset := f.Bool("noreset", false, "read the clock without resetting it first")
	set := f.Bool("set", false, "set the clock to the host time instead of resetting it")
	freq := ds1302.DefaultOpts.Freq
	f.Var(&freq, "freq", "bit clock frequency")
	pf := addPinFlags(f)
	if err := f.Parse(args); err != nil {
		return err
	}
	if f.NArg() != 0 {
		f.Usage()
		return errors.New("unrecognized arguments")
	}

	open, pins, release, err := opener(e, *backend, *device)
	if err != nil {
		return err
	}
	defer release()
	d, err := ds1302.New(open, pf.apply(pins), &ds1302.Opts{Freq: freq, Logger: e.log.WithField("prefix", "ds1302")})
	if err != nil {
		return err
	}
	defer d.Close()
	return rtc(ctx, d, os.Stdout, *reads, *set, *noReset)
}

// clock is the part of *ds1302.Dev used by rtc.
type clock interface {
	ResetClock() error
	SetClock(c ds1302.Clock) error
	ReadClock() (ds1302.Clock, error)
}

func rtc(ctx context.Context, d clock, w io.Writer, reads int, set, noReset bool) error {
	switch {
	case set:
		c, err := ds1302.ClockFromTime(time.Now().UTC())
		if err != nil {
			return err
		}
		if err := d.SetClock(c); err != nil {
			return err
		}
	case !noReset:
		if err := d.ResetClock(); err != nil {
			return err
		}
	}
	for i := 0; reads == 0 || i < reads; i++ {
		if i != 0 {
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
		}
		c, err := d.ReadClock()
		if err != nil {
			return err
		}
		fmt.Fprintln(w, c)
	}
	return nil
}
