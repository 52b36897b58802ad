// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package gpiortc drives GPIO lines through sysfs and a DS1302 real time
// clock bit-banged over four of them.
//
// The sysfs package owns the lines, the ds1302 package speaks the clock's
// three-wire protocol and the ftdi package offers the same lines on the data
// bus of a FT232R USB adapter.
package gpiortc

import (
	"periph.io/x/conn/v3/driver/driverreg"

	// Make sure the line drivers are registered.
	_ "periph.io/x/gpiortc/sysfs"
)

// Init calls driverreg.Init() and returns it as-is.
//
// The only difference is that by calling gpiortc.Init(), you are guaranteed
// to have the sysfs driver implicitly loaded, so sysfs.Detected reflects the
// running board.
func Init() (*driverreg.State, error) {
	return driverreg.Init()
}
