// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfs

import (
	"io"
	"os"
)

// fileIO is the part of *os.File used on sysfs pseudo-files.
type fileIO interface {
	io.Reader
	io.Writer
	io.Seeker
	io.Closer
	Fd() uintptr
}

func fileIOOpen(path string, flag int) (fileIO, error) {
	f, err := os.OpenFile(path, flag, 0600)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// seekRead rewinds f and reads from it.
func seekRead(f fileIO, b []byte) (int, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, err
	}
	return f.Read(b)
}

// seekWrite rewinds f and writes b to it.
func seekWrite(f fileIO, b []byte) error {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return err
	}
	_, err := f.Write(b)
	return err
}
