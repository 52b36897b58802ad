// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ds1302 drives a DS1302 real-time clock over four bit-banged GPIO
// lines.
//
// The chip is powered by one line and talks over a three wire serial
// interface: a clock, a bidirectional data line and a reset line framing each
// transaction. Bytes are shifted least significant bit first. The host
// presents data bits after the rising edge of the clock; the chip presents its
// bits after the falling edge.
//
// Lines are provided by an Opener so any backend can be used, see
// SysfsOpener and the ftdi package.
//
// Datasheet
//
// https://datasheets.maximintegrated.com/en/ds/DS1302.pdf
package ds1302
