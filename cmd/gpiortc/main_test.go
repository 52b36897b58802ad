// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	prefixed "github.com/BertoldVdb/logrus-prefixed-formatter"
	"github.com/google/go-cmp/cmp"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/gpiortc/ds1302"
	"periph.io/x/gpiortc/ds1302/ds1302test"
	"periph.io/x/gpiortc/sysfs"
)

func TestLoadLayout(t *testing.T) {
	l, err := loadLayout("")
	if err != nil || l != sysfs.Detected {
		t.Fatalf("loadLayout() = %v, %v", l, err)
	}
	p := filepath.Join(t.TempDir(), "layout.json")
	if err := os.WriteFile(p, []byte(`{"max_line": 53}`), 0600); err != nil {
		t.Fatal(err)
	}
	l, err = loadLayout(p)
	if err != nil {
		t.Fatal(err)
	}
	if l.MaxLine != 53 || l.LineTemplate != sysfs.Generic.LineTemplate {
		t.Fatalf("loadLayout() = %+v", l)
	}
	if _, err := loadLayout(filepath.Join(t.TempDir(), "missing.json")); !errors.Is(err, os.ErrNotExist) {
		t.Fatal(err)
	}
}

func TestNewLogger(t *testing.T) {
	e := newLogger(logrus.DebugLevel)
	if e.Logger.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level = %s", e.Logger.GetLevel())
	}
	f, ok := e.Logger.Formatter.(*prefixed.TextFormatter)
	if !ok {
		t.Fatalf("formatter = %T", e.Logger.Formatter)
	}
	if !f.FullTimestamp || f.SpacePadding != 50 || f.TimestampFormat != "2006-01-02 15:04:05" {
		t.Fatalf("formatter = %+v", f)
	}
}

func TestPinFlags(t *testing.T) {
	f := flag.NewFlagSet("rtc", flag.ContinueOnError)
	pf := addPinFlags(f)
	if err := f.Parse([]string{"-data", "7", "-power", "0"}); err != nil {
		t.Fatal(err)
	}
	got := pf.apply(ds1302.DefaultPins)
	want := ds1302.Pins{Power: 0, Clock: 23, Data: 7, Reset: 25}
	if got != want {
		t.Fatalf("apply() = %+v, want %+v", got, want)
	}
}

func TestOpenerUnknownBackend(t *testing.T) {
	e := &env{log: newLogger(0), layout: sysfs.Generic}
	if _, _, _, err := opener(e, "spi", 0); err == nil {
		t.Fatal("expected error")
	}
}

func TestRTC(t *testing.T) {
	p := ds1302.DefaultPins
	chip := ds1302test.New(p.Clock, p.Data, p.Reset, p.Power)
	open := func(n int) (ds1302.Line, error) {
		l, err := chip.Open(n)
		if err != nil {
			return nil, err
		}
		return l, nil
	}
	d, err := ds1302.New(open, p, &ds1302.Opts{Freq: ds1302.DefaultOpts.Freq * 10})
	if err != nil {
		t.Fatal(err)
	}
	defer d.Close()
	var buf bytes.Buffer
	if err := rtc(context.Background(), d, &buf, 1, false, false); err != nil {
		t.Fatal(err)
	}
	if s := buf.String(); s != "1996-01-31 00:00:00 3th\n" {
		t.Fatalf("rtc() printed %q", s)
	}
}

type recordLine struct {
	levels []gpio.Level
}

func (r *recordLine) SetValue(v gpio.Level) error {
	r.levels = append(r.levels, v)
	return nil
}

func TestBlink(t *testing.T) {
	r := &recordLine{}
	if err := blink(context.Background(), r, 2, time.Microsecond); err != nil {
		t.Fatal(err)
	}
	want := []gpio.Level{gpio.High, gpio.Low, gpio.High, gpio.Low}
	if diff := cmp.Diff(want, r.levels); diff != "" {
		t.Fatalf("unexpected levels (-want +got):\n%s", diff)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r = &recordLine{}
	if err := blink(ctx, r, 5, time.Hour); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]gpio.Level{gpio.High, gpio.Low}, r.levels); diff != "" {
		t.Fatalf("unexpected levels (-want +got):\n%s", diff)
	}
}

type failingResource struct{}

func (failingResource) String() string { return "GPIO22" }
func (failingResource) Halt() error    { return errors.New("busy") }

func TestHaltLogsFailure(t *testing.T) {
	logger, hook := test.NewNullLogger()
	halt(logger, failingResource{})
	e := hook.LastEntry()
	if e == nil || e.Level != logrus.WarnLevel || e.Message != "halt failed" || e.Data["line"] != "GPIO22" {
		t.Fatalf("unexpected last log entry %#v", e)
	}
}
