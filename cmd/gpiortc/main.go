// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// gpiortc drives a DS1302 real time clock and the demo LED and touch sensor
// wired to the GPIO header.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	prefixed "github.com/BertoldVdb/logrus-prefixed-formatter"
	"github.com/sirupsen/logrus"
	"periph.io/x/gpiortc"
	"periph.io/x/gpiortc/sysfs"
)

// env is shared by all the commands.
type env struct {
	log    *logrus.Entry
	layout sysfs.Layout
}

func (e *env) controller() *sysfs.Controller {
	return sysfs.NewController(e.layout, e.log.WithField("prefix", "sysfs"))
}

type command struct {
	name string
	desc string
	run  func(ctx context.Context, e *env, f *flag.FlagSet, args []string) error
}

var commands = []command{
	{"rtc", "reset the DS1302 and print its time every second", runRTC},
	{"blink", "flash the LED", runBlink},
	{"touch", "mirror the touch sensor onto the LED until interrupted", runTouch},
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: gpiortc [flags] <command> [command flags]\n\nCommands:\n")
	for _, c := range commands {
		fmt.Fprintf(flag.CommandLine.Output(), "  %-6s %s\n", c.name, c.desc)
	}
	fmt.Fprintf(flag.CommandLine.Output(), "\nFlags:\n")
	flag.PrintDefaults()
}

func newLogger(level logrus.Level) *logrus.Entry {
	logrus.ErrorKey = "$error"
	logger := logrus.New()
	logger.SetLevel(level)
	f := new(prefixed.TextFormatter)
	f.TimestampFormat = "2006-01-02 15:04:05"
	f.FullTimestamp = true
	f.SpacePadding = 50
	logger.SetFormatter(f)
	return logrus.NewEntry(logger)
}

func loadLayout(path string) (sysfs.Layout, error) {
	if path == "" {
		return sysfs.Detected, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return sysfs.Layout{}, err
	}
	return sysfs.LoadLayout(b)
}

func mainImpl() error {
	layout := flag.String("layout", "", "JSON file describing the sysfs GPIO layout, autodetected when empty")
	loglevel := flag.Int("loglevel", int(logrus.InfoLevel), "The loglevel to use. Valid values are from 0 to 6. Higher values output more information")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		return errors.New("missing command")
	}

	e := &env{log: newLogger(logrus.Level(*loglevel))}
	if _, err := gpiortc.Init(); err != nil {
		return err
	}
	var err error
	if e.layout, err = loadLayout(*layout); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	go func() {
		// A second interrupt kills the process.
		<-ctx.Done()
		stop()
	}()

	name := flag.Arg(0)
	for _, c := range commands {
		if c.name == name {
			f := flag.NewFlagSet(name, flag.ContinueOnError)
			e.log = e.log.WithField("prefix", name)
			return c.run(ctx, e, f, flag.Args()[1:])
		}
	}
	flag.Usage()
	return fmt.Errorf("unknown command %q", name)
}

func main() {
	if err := mainImpl(); err != nil {
		fmt.Fprintf(os.Stderr, "gpiortc: %s.\n", err)
		os.Exit(1)
	}
}
