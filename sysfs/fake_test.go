// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfs

import (
	"errors"
	"io"
	"os"
	"path"
	"strconv"
	"syscall"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

var fakeLayout = Layout{
	LineTemplate: "/fake/gpio%d/%s",
	Export:       "/fake/export",
	Unexport:     "/fake/unexport",
	MaxLine:      100,
}

// fakeKernel emulates the sysfs GPIO class: writing to export creates the
// attribute files of a line, writing to unexport removes them.
type fakeKernel struct {
	attrs    map[string][]byte
	exported map[int]bool
	// failOpen makes opening the given path fail.
	failOpen map[string]error
	// failClose makes closing the given attribute fail.
	failClose map[string]error
	// events records control writes, opens and closes in order.
	events []string
}

func newFakeKernel() *fakeKernel {
	return &fakeKernel{
		attrs:     map[string][]byte{},
		exported:  map[int]bool{},
		failOpen:  map[string]error{},
		failClose: map[string]error{},
	}
}

func (k *fakeKernel) open(p string, flag int) (fileIO, error) {
	if err := k.failOpen[p]; err != nil {
		return nil, &os.PathError{Op: "open", Path: p, Err: err}
	}
	switch p {
	case fakeLayout.Export:
		return &fakeControl{k: k, export: true}, nil
	case fakeLayout.Unexport:
		return &fakeControl{k: k}, nil
	}
	if _, ok := k.attrs[p]; !ok {
		return nil, &os.PathError{Op: "open", Path: p, Err: os.ErrNotExist}
	}
	k.events = append(k.events, "open "+path.Base(p))
	return &fakeAttr{k: k, path: p}, nil
}

func (k *fakeKernel) controller() (*Controller, *test.Hook) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	c := NewController(fakeLayout, logger)
	c.openFile = k.open
	return c, hook
}

type fakeControl struct {
	k      *fakeKernel
	export bool
}

func (f *fakeControl) Write(b []byte) (int, error) {
	n, err := strconv.Atoi(string(b))
	if err != nil {
		return 0, syscall.EINVAL
	}
	if f.export {
		if f.k.exported[n] {
			return 0, syscall.EBUSY
		}
		f.k.exported[n] = true
		for a := AttrValue; a < numAttrs; a++ {
			f.k.attrs[fakeLayout.Path(n, a)] = nil
		}
		f.k.attrs[fakeLayout.Path(n, AttrValue)] = []byte("0\n")
		f.k.attrs[fakeLayout.Path(n, AttrDirection)] = []byte("in\n")
		f.k.attrs[fakeLayout.Path(n, AttrEdge)] = []byte("none\n")
		f.k.events = append(f.k.events, "export "+string(b))
		return len(b), nil
	}
	if !f.k.exported[n] {
		return 0, syscall.EINVAL
	}
	delete(f.k.exported, n)
	for a := AttrValue; a < numAttrs; a++ {
		delete(f.k.attrs, fakeLayout.Path(n, a))
	}
	f.k.events = append(f.k.events, "unexport "+string(b))
	return len(b), nil
}

func (f *fakeControl) Read([]byte) (int, error) { return 0, syscall.EINVAL }
func (f *fakeControl) Seek(int64, int) (int64, error) { return 0, nil }
func (f *fakeControl) Close() error { return nil }
func (f *fakeControl) Fd() uintptr { return ^uintptr(0) }

// fakeAttr behaves like a sysfs attribute: a write replaces the whole value.
type fakeAttr struct {
	k    *fakeKernel
	path string
	off  int64
	// failSeek makes the next Seek fail.
	failSeek error
}

func (f *fakeAttr) Read(b []byte) (int, error) {
	data := f.k.attrs[f.path]
	if f.off >= int64(len(data)) {
		return 0, io.EOF
	}
	n := copy(b, data[f.off:])
	f.off += int64(n)
	return n, nil
}

func (f *fakeAttr) Write(b []byte) (int, error) {
	if _, ok := f.k.attrs[f.path]; !ok {
		return 0, syscall.ENODEV
	}
	f.k.attrs[f.path] = append([]byte(nil), b...)
	return len(b), nil
}

func (f *fakeAttr) Seek(offset int64, whence int) (int64, error) {
	if err := f.failSeek; err != nil {
		return 0, err
	}
	if whence != io.SeekStart {
		return 0, errors.New("unsupported whence")
	}
	f.off = offset
	return offset, nil
}

func (f *fakeAttr) Close() error {
	name := path.Base(f.path)
	f.k.events = append(f.k.events, "close "+name)
	return f.k.failClose[name]
}

func (f *fakeAttr) Fd() uintptr {
	return ^uintptr(0)
}

func mustOpen(t *testing.T, c *Controller, n int) *Line {
	t.Helper()
	l, err := c.Open(n)
	if err != nil {
		t.Fatalf("Open(%d) = %v", n, err)
	}
	return l
}
