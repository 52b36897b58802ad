// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfs

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"periph.io/x/conn/v3/driver/driverreg"
)

// Detected is the Layout matching the running board.
//
// This global variable is initialized once at driver initialization and isn't
// mutated afterward. Do not modify it.
var Detected = Generic

// driverGPIO implements periph.Driver.
type driverGPIO struct {
	modelPath string
}

func (d *driverGPIO) String() string {
	return "sysfs-gpio"
}

func (d *driverGPIO) Prerequisites() []string {
	return nil
}

func (d *driverGPIO) After() []string {
	return nil
}

// Init selects the Layout for the board and checks that its export control
// file is present.
//
// Uses gpio sysfs as described at
// https://www.kernel.org/doc/Documentation/gpio/sysfs.txt
func (d *driverGPIO) Init() (bool, error) {
	l := LayoutForModel(readDTModel(d.modelPath))
	if _, err := os.Stat(l.Export); err != nil {
		if os.IsNotExist(err) {
			return false, errors.New("no GPIO sysfs export file found")
		}
		if os.IsPermission(err) {
			return true, fmt.Errorf("need more access, try as root or setup udev rules: %v", err)
		}
		return true, err
	}
	Detected = l
	return true, nil
}

func init() {
	if runtime.GOOS == "linux" {
		driverreg.MustRegister(&drvGPIO)
	}
}

var drvGPIO = driverGPIO{modelPath: dtModelPath}
