// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"flag"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/gpiortc/sysfs"
)

func runTouch(ctx context.Context, e *env, f *flag.FlagSet, args []string) error {
	sensor := f.Int("sensor", 22, "touch sensor line")
	n := f.Int("led", 26, "LED line")
	if err := f.Parse(args); err != nil {
		return err
	}
	if f.NArg() != 0 {
		f.Usage()
		return errors.New("unrecognized arguments")
	}

	c := e.controller()
	led, err := c.Open(*n)
	if err != nil {
		return err
	}
	defer led.Close()
	if err := led.SetDirection(sysfs.Out); err != nil {
		return err
	}
	in, err := c.Open(*sensor)
	if err != nil {
		return err
	}
	defer in.Close()
	if err := in.SetDirection(sysfs.In); err != nil {
		return err
	}
	if err := in.SetEdge(gpio.BothEdges); err != nil {
		return err
	}
	defer halt(e.log, in)

	e.log.Info("waiting for edges, interrupt then touch to stop")
	err = in.WaitForEdge(ctx, func(v gpio.Level) error {
		e.log.WithField("level", v.String()).Debug("edge")
		return led.SetValue(v)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// halt stops r, logging a failure.
func halt(log logrus.FieldLogger, r conn.Resource) {
	if err := r.Halt(); err != nil {
		log.WithField("line", r.String()).WithError(err).Warn("halt failed")
	}
}
