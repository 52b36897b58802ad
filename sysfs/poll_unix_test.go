// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

//go:build unix

package sysfs

import (
	"os"
	"testing"
)

func TestPollEdgeHangup(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	// A hung up descriptor is always ready, so the poll returns at once.
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	if err := pollEdge(r); err != nil {
		t.Fatalf("pollEdge() = %v", err)
	}
}
