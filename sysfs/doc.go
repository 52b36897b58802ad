// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// Package sysfs drives individual GPIO lines through the Linux GPIO sysfs
// interface.
//
// A line is exported through the controller's export file, then its value,
// direction and edge attribute files are kept open for the lifetime of the
// Line. Every access rewinds the attribute file first, since an attribute only
// holds the current state.
//
// Where the attribute files live is board specific and described by a Layout.
//
// https://docs.kernel.org/admin-guide/gpio/sysfs.html
package sysfs
