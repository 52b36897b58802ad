// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds1302

import (
	"fmt"
	"time"
)

// Epoch is the year represented by a zero Year register.
const Epoch = 1970

// Clock is the content of the seven time keeping registers.
type Clock struct {
	Seconds Field
	Minutes Field
	Hours   Field
	Date    Field
	Month   Field
	Year    Field
	Day     Field
}

// ClockFromTime returns the Clock holding t in 24 hour mode.
//
// Day is the weekday counted from Sunday as 1.
func ClockFromTime(t time.Time) (Clock, error) {
	y := t.Year() - Epoch
	if y < 0 || y > 99 {
		return Clock{}, fmt.Errorf("ds1302: year %d: %w", t.Year(), ErrInvalidField)
	}
	return Clock{
		Seconds: Digits(t.Second()),
		Minutes: Digits(t.Minute()),
		Hours:   Digits(t.Hour()),
		Date:    Digits(t.Day()),
		Month:   Digits(int(t.Month())),
		Year:    Digits(y),
		Day:     Digits(int(t.Weekday()) + 1),
	}, nil
}

// Hour returns the hour in 24 hour format.
func (c Clock) Hour() int {
	h := c.Hours.Value()
	if !c.Hours.Hour12 {
		return h
	}
	h %= 12
	if c.Hours.PM {
		h += 12
	}
	return h
}

// String returns the clock as "YYYY-MM-DD hh:mm:ss Nth", N being the day of
// the week.
func (c Clock) String() string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d %dth",
		Epoch+c.Year.Value(), c.Month.Value(), c.Date.Value(),
		c.Hour(), c.Minutes.Value(), c.Seconds.Value(), c.Day.Value())
}

// Time returns the clock as a UTC time.
func (c Clock) Time() time.Time {
	return time.Date(Epoch+c.Year.Value(), time.Month(c.Month.Value()), c.Date.Value(),
		c.Hour(), c.Minutes.Value(), c.Seconds.Value(), 0, time.UTC)
}

// timeRegisters lists the registers backing the fields of Clock, in transfer
// order.
var timeRegisters = [...]Register{Seconds, Minutes, Hours, Date, Month, Year, Day}

func (c *Clock) fields() [len(timeRegisters)]*Field {
	return [...]*Field{&c.Seconds, &c.Minutes, &c.Hours, &c.Date, &c.Month, &c.Year, &c.Day}
}

// resetClock is the content written by ResetClock.
var resetClock = Clock{
	Seconds: Digits(0),
	Minutes: Digits(0),
	Hours:   Digits(0),
	Date:    Digits(31),
	Month:   Digits(1),
	Year:    Digits(26),
	Day:     Digits(3),
}

const (
	// chargeSetup enables the trickle charger register without selecting a
	// diode or resistor.
	chargeSetup = 0x01
	initSetup   = 0xF0
)

// ResetClock loads a fixed date, configures the charger and the first RAM
// byte, then write protects the chip.
//
// The first failure aborts the sequence; registers already written keep their
// new value.
func (d *Dev) ResetClock() error {
	if err := d.writeField(WriteProtect, Field{}); err != nil {
		return err
	}
	if err := d.writeClock(&resetClock); err != nil {
		return err
	}
	if err := d.Write(d.cmds.Charge, chargeSetup); err != nil {
		return err
	}
	if err := d.Write(d.cmds.Init, initSetup); err != nil {
		return err
	}
	return d.writeField(WriteProtect, Field{Protect: true})
}

// SetClock writes c with write protection lifted for the duration of the
// update.
func (d *Dev) SetClock(c Clock) error {
	if err := d.writeField(WriteProtect, Field{}); err != nil {
		return err
	}
	if err := d.writeClock(&c); err != nil {
		return err
	}
	return d.writeField(WriteProtect, Field{Protect: true})
}

// ReadClock reads the seven time keeping registers.
func (d *Dev) ReadClock() (Clock, error) {
	var c Clock
	for i, f := range c.fields() {
		r := timeRegisters[i]
		b, err := d.ReadRegister(r)
		if err != nil {
			return Clock{}, err
		}
		*f = r.Decode(b)
	}
	return c, nil
}

func (d *Dev) writeClock(c *Clock) error {
	for i, f := range c.fields() {
		if err := d.writeField(timeRegisters[i], *f); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dev) writeField(r Register, f Field) error {
	b, err := r.Encode(f)
	if err != nil {
		return err
	}
	d.log.WithField("register", r.String()).Debugf("write %#02x", b)
	return d.WriteRegister(r, b)
}
