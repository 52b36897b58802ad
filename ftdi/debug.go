// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build periph_host_ftdi_debug
// +build periph_host_ftdi_debug

package ftdi

import (
	"github.com/sirupsen/logrus"
	"periph.io/x/d2xx"
	"periph.io/x/d2xx/d2xxtest"
)

// Log every D2XX call at debug level.
func init() {
	d2xxOpen = func(i int) (d2xx.Handle, d2xx.Err) {
		h, e := d2xx.Open(i)
		if e != 0 {
			return h, e
		}
		return &d2xxtest.Log{H: h, Printf: logrus.Debugf}, e
	}
}
