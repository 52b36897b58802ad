// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds1302test

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/gpiortc/sysfs"
)

func TestOpen(t *testing.T) {
	c := New(1, 2, 3, 4)
	if _, err := c.Open(5); !errors.Is(err, sysfs.ErrOutOfRange) {
		t.Fatal(err)
	}
	p, err := c.Open(2)
	if err != nil {
		t.Fatal(err)
	}
	if s := p.String(); s != "Data(2)" {
		t.Fatal(s)
	}
	if _, err := c.Open(2); !errors.Is(err, sysfs.ErrResourceUnavailable) {
		t.Fatal(err)
	}
	p.Close()
	p.Close()
	if len(c.Closed) != 1 || c.Closed[0] != Data {
		t.Fatalf("Closed = %v", c.Closed)
	}
	if err := p.SetValue(gpio.High); !errors.Is(err, errClosed) {
		t.Fatal(err)
	}
}

// host drives the chip the way a correct master does.
type host struct {
	t                  *testing.T
	clk, dat, rst, pwr *Pin
}

func newHost(t *testing.T, c *Chip) *host {
	h := &host{t: t}
	for _, x := range []struct {
		n int
		p **Pin
	}{{1, &h.clk}, {2, &h.dat}, {3, &h.rst}, {4, &h.pwr}} {
		p, err := c.Open(x.n)
		if err != nil {
			t.Fatal(err)
		}
		*x.p = p
	}
	h.must(h.clk.SetDirection(sysfs.Out))
	h.must(h.rst.SetDirection(sysfs.Out))
	h.must(h.pwr.SetDirection(sysfs.Out))
	h.must(h.pwr.SetValue(gpio.High))
	return h
}

func (h *host) must(err error) {
	h.t.Helper()
	if err != nil {
		h.t.Fatal(err)
	}
}

func (h *host) send(b byte) {
	for i := 0; i < 8; i++ {
		h.must(h.clk.SetValue(gpio.Low))
		h.must(h.clk.SetValue(gpio.High))
		h.must(h.dat.SetValue(gpio.Level(b>>i&1 != 0)))
	}
}

func (h *host) write(cmd, data byte) {
	h.must(h.rst.SetValue(gpio.High))
	h.must(h.dat.SetDirection(sysfs.Out))
	h.send(cmd)
	h.send(data)
	h.must(h.rst.SetValue(gpio.Low))
}

func (h *host) read(cmd byte) byte {
	h.must(h.rst.SetValue(gpio.High))
	h.must(h.dat.SetDirection(sysfs.Out))
	h.send(cmd)
	h.must(h.dat.SetDirection(sysfs.In))
	var b byte
	for i := 0; i < 8; i++ {
		h.must(h.clk.SetValue(gpio.Low))
		v, err := h.dat.Value()
		h.must(err)
		if v {
			b |= 1 << i
		}
		h.must(h.clk.SetValue(gpio.High))
	}
	h.must(h.rst.SetValue(gpio.Low))
	return b
}

func TestChipReadWrite(t *testing.T) {
	c := New(1, 2, 3, 4)
	h := newHost(t, c)
	h.write(0x82, 0x59)
	if c.Regs[0x82] != 0x59 {
		t.Fatalf("Regs[0x82] = %#02x", c.Regs[0x82])
	}
	if b := h.read(0x83); b != 0x59 {
		t.Fatalf("read = %#02x", b)
	}
}

func TestChipWriteProtect(t *testing.T) {
	c := New(1, 2, 3, 4)
	h := newHost(t, c)
	h.write(0x8E, 0x80)
	h.write(0x80, 0x11)
	if c.Regs[0x80] != 0 {
		t.Fatal("write protection ignored")
	}
	h.write(0x8E, 0x00)
	h.write(0x80, 0x11)
	if c.Regs[0x80] != 0x11 {
		t.Fatal("write protection not lifted")
	}
}

func TestChipUnpowered(t *testing.T) {
	c := New(1, 2, 3, 4)
	h := newHost(t, c)
	h.must(h.pwr.SetValue(gpio.Low))
	if c.Powered() {
		t.Fatal("still powered")
	}
	h.write(0x80, 0x11)
	if c.Regs[0x80] != 0 || len(c.Received) != 0 {
		t.Fatal("unpowered chip responded")
	}
}

func TestChipResetAbortsTransfer(t *testing.T) {
	c := New(1, 2, 3, 4)
	h := newHost(t, c)
	h.must(h.rst.SetValue(gpio.High))
	h.must(h.dat.SetDirection(sysfs.Out))
	h.send(0x80)
	h.must(h.rst.SetValue(gpio.Low))
	h.write(0x82, 0x33)
	if c.Regs[0x80] != 0 || c.Regs[0x82] != 0x33 {
		t.Fatalf("Regs = % x", c.Regs[0x80:0x84])
	}
}

func TestFail(t *testing.T) {
	errFail := errors.New("injected")
	c := New(1, 2, 3, 4)
	c.Fail = func(r Role, op Op) error {
		if r == Clock && op == OpDirection {
			return errFail
		}
		return nil
	}
	p, err := c.Open(1)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.SetDirection(sysfs.Out); !errors.Is(err, errFail) {
		t.Fatal(err)
	}
	if len(c.Events) != 0 {
		t.Fatalf("failed operation recorded: %v", c.Events)
	}
}

func TestRoleString(t *testing.T) {
	if s := Reset.String(); s != "Reset" {
		t.Fatal(s)
	}
	if s := Role(9).String(); s != "Role(9)" {
		t.Fatal(s)
	}
}

func TestChipSamplesOnlyWhileSelected(t *testing.T) {
	c := New(1, 2, 3, 4)
	h := newHost(t, c)
	h.must(h.dat.SetDirection(sysfs.Out))
	// Reset low: clocked bits are ignored.
	h.send(0x80)
	h.send(0x11)
	// Reset high, clock low: data changes are not sampled.
	h.must(h.rst.SetValue(gpio.High))
	h.must(h.clk.SetValue(gpio.Low))
	for i := 0; i < 8; i++ {
		h.must(h.dat.SetValue(gpio.High))
		h.must(h.dat.SetValue(gpio.Low))
	}
	h.must(h.rst.SetValue(gpio.Low))
	if len(c.Received) != 0 {
		t.Fatalf("Received = % x", c.Received)
	}
	h.write(0x82, 0x33)
	if len(c.Received) != 2 || c.Regs[0x82] != 0x33 {
		t.Fatalf("Received = % x, Regs[0x82] = %#02x", c.Received, c.Regs[0x82])
	}
}
