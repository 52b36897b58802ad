// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds1302

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/gpiortc/sysfs"
)

// ErrProtocolAborted is returned when a step of a transfer fails. The
// remaining steps are skipped and the line error is wrapped along with it.
var ErrProtocolAborted = errors.New("protocol aborted")

// Write sends cmd then data in a single transaction.
//
// Reset is lowered at the end even when a step failed; the first error is
// returned.
func (d *Dev) Write(cmd, data byte) (err error) {
	defer d.lowerReset(cmd, &err)
	if err := d.rst.SetValue(gpio.High); err != nil {
		return d.abort(cmd, "raise reset", err)
	}
	if err := d.dat.SetDirection(sysfs.Out); err != nil {
		return d.abort(cmd, "data output", err)
	}
	if err := d.send(cmd); err != nil {
		return d.abort(cmd, "send command", err)
	}
	if err := d.send(data); err != nil {
		return d.abort(cmd, "send data", err)
	}
	return nil
}

// Read sends cmd then samples the byte presented by the chip.
func (d *Dev) Read(cmd byte) (b byte, err error) {
	defer d.lowerReset(cmd, &err)
	if err := d.rst.SetValue(gpio.High); err != nil {
		return 0, d.abort(cmd, "raise reset", err)
	}
	if err := d.dat.SetDirection(sysfs.Out); err != nil {
		return 0, d.abort(cmd, "data output", err)
	}
	if err := d.send(cmd); err != nil {
		return 0, d.abort(cmd, "send command", err)
	}
	if err := d.dat.SetDirection(sysfs.In); err != nil {
		return 0, d.abort(cmd, "data input", err)
	}
	if b, err = d.receive(); err != nil {
		return 0, d.abort(cmd, "receive data", err)
	}
	return b, nil
}

// WriteRegister writes the raw byte b to r.
func (d *Dev) WriteRegister(r Register, b byte) error {
	if r >= NumRegisters {
		return fmt.Errorf("ds1302: %s: %w", r, ErrInvalidField)
	}
	return d.Write(d.cmds.Registers[r].Write, b)
}

// ReadRegister reads the raw byte of r.
func (d *Dev) ReadRegister(r Register) (byte, error) {
	if r >= NumRegisters {
		return 0, fmt.Errorf("ds1302: %s: %w", r, ErrInvalidField)
	}
	return d.Read(d.cmds.Registers[r].Read)
}

//

func (d *Dev) lowerReset(cmd byte, err *error) {
	if lerr := d.rst.SetValue(gpio.Low); lerr != nil && *err == nil {
		*err = d.abort(cmd, "lower reset", lerr)
	}
}

func (d *Dev) abort(cmd byte, step string, err error) error {
	d.log.WithFields(logrus.Fields{"cmd": fmt.Sprintf("%#02x", cmd), "step": step}).WithError(err).Debug("transaction failed")
	return fmt.Errorf("ds1302: command %#02x: %s: %w: %w", cmd, step, ErrProtocolAborted, err)
}

// send shifts b out, the data line must be an output.
func (d *Dev) send(b byte) error {
	return d.clock(func(t uint) error {
		return d.dat.SetValue(gpio.Level(b>>t&1 != 0))
	}, true)
}

// receive shifts a byte in, the data line must be an input.
func (d *Dev) receive() (byte, error) {
	var b byte
	err := d.clock(func(t uint) error {
		v, err := d.dat.Value()
		if err != nil {
			return err
		}
		if v {
			b |= 1 << t
		}
		return nil
	}, false)
	return b, err
}

// clock runs the 8 clock cycles of a byte, least significant bit first.
//
// bit is called with the bit index once per cycle: after the rising edge when
// onHigh is set, after the falling edge otherwise.
func (d *Dev) clock(bit func(t uint) error, onHigh bool) error {
	for t := uint(0); t < 8; t++ {
		if err := d.clk.SetValue(gpio.Low); err != nil {
			return err
		}
		time.Sleep(d.half)
		if !onHigh {
			if err := bit(t); err != nil {
				return err
			}
		}
		if err := d.clk.SetValue(gpio.High); err != nil {
			return err
		}
		time.Sleep(d.half)
		if onHigh {
			if err := bit(t); err != nil {
				return err
			}
		}
	}
	return nil
}
