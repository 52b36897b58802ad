// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"flag"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/gpiortc/sysfs"
)

func runBlink(ctx context.Context, e *env, f *flag.FlagSet, args []string) error {
	n := f.Int("line", 26, "LED line")
	count := f.Int("n", 10, "number of flashes")
	freq := physic.Hertz
	f.Var(&freq, "freq", "flash frequency")
	if err := f.Parse(args); err != nil {
		return err
	}
	if f.NArg() != 0 {
		f.Usage()
		return errors.New("unrecognized arguments")
	}
	if freq <= 0 {
		return errors.New("-freq must be positive")
	}

	led, err := e.controller().Open(*n)
	if err != nil {
		return err
	}
	defer led.Close()
	if err := led.SetDirection(sysfs.Out); err != nil {
		return err
	}
	return blink(ctx, led, *count, freq.Period()/2)
}

// blink drives l high then low count times, each level lasting half.
func blink(ctx context.Context, l interface{ SetValue(gpio.Level) error }, count int, half time.Duration) error {
	for i := 0; i < count; i++ {
		for _, v := range []gpio.Level{gpio.High, gpio.Low} {
			if err := l.SetValue(v); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
				return l.SetValue(gpio.Low)
			case <-time.After(half):
			}
		}
	}
	return nil
}
