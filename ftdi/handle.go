// Copyright 2021 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package ftdi

import (
	"errors"

	"periph.io/x/d2xx"
)

// bitMode is used by SetBitMode to change the chip behavior.
type bitMode uint8

const (
	// Resets all Pins to their default value
	bitModeReset bitMode = 0x00
	// Sets the DBus to asynchronous bit-bang.
	bitModeAsyncBitbang bitMode = 0x01
)

// bitbanger is the part of d2xx.Handle used once the bus is configured.
type bitbanger interface {
	Close() d2xx.Err
	SetBitMode(mask, mode byte) d2xx.Err
	GetBitMode() (byte, d2xx.Err)
	Write(b []byte) (int, d2xx.Err)
}

// d2xxOpen is overridden in tests and by the debug build.
var d2xxOpen = d2xx.Open

// Count returns the number of detected devices.
func Count() (int, error) {
	num, e := d2xx.CreateDeviceInfoList()
	if e != 0 {
		return 0, toErr("GetNumDevices initialization failed", e)
	}
	return num, nil
}

// initHandle is the general setup for common devices.
func initHandle(h d2xx.Handle) error {
	// Driver: maximum packet size. Note that this clears any data in the buffer,
	// so it is good to do it immediately after a reset. The 'out' parameter is
	// ignored.
	if e := h.SetUSBParameters(65536, 0); e != 0 {
		return toErr("SetUSBParameters", e)
	}
	// Driver: Set I/O timeouts to 15 sec.
	if e := h.SetTimeouts(15000, 15000); e != 0 {
		return toErr("SetTimeouts", e)
	}
	// Disable event/error characters.
	if e := h.SetChars(0, false, 0, false); e != 0 {
		return toErr("SetChars", e)
	}
	// Latency timer at 1ms.
	if e := h.SetLatencyTimer(1); e != 0 {
		return toErr("SetLatencyTimer", e)
	}
	return nil
}

// resetHandle resets the device and all the pins to their default value.
func resetHandle(h d2xx.Handle) error {
	if e := h.ResetDevice(); e != 0 {
		return toErr("Reset", e)
	}
	return toErr("SetBitMode", h.SetBitMode(0, byte(bitModeReset)))
}

// DevType is the FTDI device type.
type DevType uint32

const (
	DevTypeFTBM DevType = iota // 0
	DevTypeFTAM
	DevTypeFT100AX
	DevTypeUnknown // 3
	DevTypeFT2232C
	DevTypeFT232R // 5
	DevTypeFT2232H
	DevTypeFT4232H
	DevTypeFT232H // 8
)

const devTypeName = "FTBMFTAMFT100AXUnknownFT2232CFT232RFT2232HFT4232HFT232H"

var devTypeIndex = [...]uint8{0, 4, 8, 15, 22, 29, 35, 42, 49, 55}

func (d DevType) String() string {
	if d >= DevType(len(devTypeIndex)-1) {
		d = DevTypeUnknown
	}
	return devTypeName[devTypeIndex[d]:devTypeIndex[d+1]]
}

//

func toErr(s string, e d2xx.Err) error {
	if e == 0 {
		return nil
	}
	return errors.New("ftdi: " + s + ": " + e.String())
}
