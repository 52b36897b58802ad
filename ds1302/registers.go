// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ds1302

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidField is returned when a Field does not fit its register.
var ErrInvalidField = errors.New("invalid register field")

// Register is one of the clock registers.
type Register uint8

const (
	Seconds Register = iota
	Minutes
	Hours
	Date
	Month
	Year
	Day
	WriteProtect

	// NumRegisters is the number of clock registers.
	NumRegisters = 8
)

var registerNames = [NumRegisters]string{
	Seconds:      "Seconds",
	Minutes:      "Minutes",
	Hours:        "Hours",
	Date:         "Date",
	Month:        "Month",
	Year:         "Year",
	Day:          "Day",
	WriteProtect: "WriteProtect",
}

func (r Register) String() string {
	if r >= NumRegisters {
		return "Register(" + strconv.Itoa(int(r)) + ")"
	}
	return registerNames[r]
}

// Command is the pair of command bytes addressing one register.
type Command struct {
	Read  byte
	Write byte
}

// CommandTable maps registers to the command bytes of a device.
type CommandTable struct {
	Registers [NumRegisters]Command
	// Charge is the write command of the trickle charger register.
	Charge byte
	// Init is the write command of the first RAM byte, initialized along with
	// the charger by Dev.ResetClock.
	Init byte
}

// DefaultCommands is the DS1302 command set.
var DefaultCommands = CommandTable{
	Registers: [NumRegisters]Command{
		Seconds:      {Read: 0x81, Write: 0x80},
		Minutes:      {Read: 0x83, Write: 0x82},
		Hours:        {Read: 0x85, Write: 0x84},
		Date:         {Read: 0x87, Write: 0x86},
		Month:        {Read: 0x89, Write: 0x88},
		Year:         {Read: 0x8B, Write: 0x8A},
		Day:          {Read: 0x8D, Write: 0x8C},
		WriteProtect: {Read: 0x8F, Write: 0x8E},
	},
	Charge: 0x90,
	Init:   0xC0,
}

// Field is the decoded content of a register.
//
// Ones and Tens are the BCD digits. The flags only exist in the register
// named next to them and must be false elsewhere.
type Field struct {
	Ones uint8
	Tens uint8
	// Halt is the clock halt bit of Seconds.
	Halt bool
	// Hour12 selects the 12 hour mode of Hours, PM is only valid with it.
	Hour12 bool
	PM     bool
	// Protect is the write protect bit of WriteProtect.
	Protect bool
}

// Digits returns the Field holding the two decimal digits of v.
func Digits(v int) Field {
	return Field{Ones: uint8(v % 10), Tens: uint8(v / 10)}
}

// Value returns the decimal value of the digits.
func (f Field) Value() int {
	return 10*int(f.Tens) + int(f.Ones)
}

// fieldLayout is the width of the digit fields of a register. The ones digit
// starts at bit 0, the tens digit at bit 4.
type fieldLayout struct {
	ones uint8
	tens uint8
}

var layouts = [NumRegisters]fieldLayout{
	Seconds:      {ones: 4, tens: 3},
	Minutes:      {ones: 4, tens: 3},
	Hours:        {ones: 4, tens: 2},
	Date:         {ones: 4, tens: 2},
	Month:        {ones: 4, tens: 1},
	Year:         {ones: 4, tens: 4},
	Day:          {ones: 3, tens: 0},
	WriteProtect: {ones: 0, tens: 0},
}

const (
	haltBit    = 1 << 7
	hour12Bit  = 1 << 7
	pmBit      = 1 << 5
	hour12Tens = 1 // width of the tens digit of Hours in 12 hour mode
	protectBit = 1 << 7
)

func (r Register) layout(hour12 bool) fieldLayout {
	l := layouts[r]
	if r == Hours && hour12 {
		l.tens = hour12Tens
	}
	return l
}

func maxDigit(bits uint8) uint8 {
	m := uint8(1)<<bits - 1
	if m > 9 {
		return 9
	}
	return m
}

// Encode packs f into the register byte of r.
func (r Register) Encode(f Field) (byte, error) {
	if r >= NumRegisters {
		return 0, fmt.Errorf("ds1302: %s: %w", r, ErrInvalidField)
	}
	l := r.layout(f.Hour12)
	if f.Ones > maxDigit(l.ones) || f.Tens > maxDigit(l.tens) {
		return 0, fmt.Errorf("ds1302: %s: %w: digits %d%d out of range", r, ErrInvalidField, f.Tens, f.Ones)
	}
	if (f.Halt && r != Seconds) || (f.Hour12 && r != Hours) || (f.PM && !f.Hour12) || (f.Protect && r != WriteProtect) {
		return 0, fmt.Errorf("ds1302: %s: %w: unsupported flag", r, ErrInvalidField)
	}
	b := f.Ones | f.Tens<<4
	if f.Halt {
		b |= haltBit
	}
	if f.Hour12 {
		b |= hour12Bit
	}
	if f.PM {
		b |= pmBit
	}
	if f.Protect {
		b |= protectBit
	}
	return b, nil
}

// Decode unpacks the register byte b of r. Reserved bits are ignored.
func (r Register) Decode(b byte) Field {
	if r >= NumRegisters {
		return Field{}
	}
	var f Field
	switch r {
	case Seconds:
		f.Halt = b&haltBit != 0
	case Hours:
		f.Hour12 = b&hour12Bit != 0
		f.PM = f.Hour12 && b&pmBit != 0
	case WriteProtect:
		f.Protect = b&protectBit != 0
	}
	l := r.layout(f.Hour12)
	f.Ones = b & (1<<l.ones - 1)
	f.Tens = b >> 4 & (1<<l.tens - 1)
	return f
}
