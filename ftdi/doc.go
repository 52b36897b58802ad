// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package ftdi exposes the data bus of a FTDI USB adapter as GPIO lines.
//
// The D0~D7 pins are driven in asynchronous bit-bang mode, which the FT232R
// and FT232H both support. Each Line can serve as a ds1302.Line so a DS1302
// can be wired to a laptop without a single board computer.
//
// Use build tag periph_host_ftdi_debug to log every D2XX call.
//
// # Datasheets
//
// http://www.ftdichip.com/Support/Documents/DataSheets/ICs/DS_FT232R.pdf
//
// http://www.ftdichip.com/Support/Documents/DataSheets/ICs/DS_FT232H.pdf
package ftdi
