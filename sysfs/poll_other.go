// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build !unix

package sysfs

import "errors"

func pollEdge(f fileIO) error {
	return errors.New("edge detection is only supported on unix hosts")
}
