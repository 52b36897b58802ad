// Copyright 2024 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package sysfs

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Attr is one of the attribute files of an exported line.
type Attr int

const (
	AttrValue Attr = iota
	AttrDirection
	AttrEdge

	numAttrs
)

var attrNames = [numAttrs]string{
	AttrValue:     "value",
	AttrDirection: "direction",
	AttrEdge:      "edge",
}

func (a Attr) String() string {
	if a < 0 || a >= numAttrs {
		return "Attr(" + strconv.Itoa(int(a)) + ")"
	}
	return attrNames[a]
}

// Layout describes where a board's GPIO controller exposes its lines.
//
// It is plain configuration data. Controller never mutates it.
type Layout struct {
	// LineTemplate is formatted with the line number (%d) then the attribute
	// name (%s).
	LineTemplate string `json:"line_template"`
	// Export and Unexport are the control files used to request and release
	// kernel ownership of a line.
	Export   string `json:"export"`
	Unexport string `json:"unexport"`
	// MaxLine is the highest line number that can be exported.
	MaxLine int `json:"max_line"`
}

// Path returns the path of attribute a of line n.
//
// a must be one of AttrValue, AttrDirection or AttrEdge; anything else is a
// programming error and panics.
func (l *Layout) Path(n int, a Attr) string {
	return fmt.Sprintf(l.LineTemplate, n, attrNames[a])
}

const defaultMaxLine = 100

var (
	// RaspberryPi4 is the BCM2711 GPIO controller.
	RaspberryPi4 = Layout{
		LineTemplate: "/sys/devices/platform/soc/fe200000.gpio/gpiochip0/gpio/gpio%d/%s",
		Export:       "/sys/class/gpio/export",
		Unexport:     "/sys/class/gpio/unexport",
		MaxLine:      defaultMaxLine,
	}
	// RaspberryPi3 is the BCM2837 GPIO controller.
	RaspberryPi3 = Layout{
		LineTemplate: "/sys/devices/platform/soc/3f200000.gpio/gpiochip0/gpio/gpio%d/%s",
		Export:       "/sys/class/gpio/export",
		Unexport:     "/sys/class/gpio/unexport",
		MaxLine:      defaultMaxLine,
	}
	// Generic goes through the /sys/class/gpio symlinks, which nearly all
	// boards provide.
	Generic = Layout{
		LineTemplate: "/sys/class/gpio/gpio%d/%s",
		Export:       "/sys/class/gpio/export",
		Unexport:     "/sys/class/gpio/unexport",
		MaxLine:      defaultMaxLine,
	}
)

// LayoutForModel returns the preset matching a device tree model string, as
// found in /proc/device-tree/model.
func LayoutForModel(model string) Layout {
	switch {
	case strings.HasPrefix(model, "Raspberry Pi 4"), strings.HasPrefix(model, "Raspberry Pi Compute Module 4"):
		return RaspberryPi4
	case strings.HasPrefix(model, "Raspberry Pi 3"):
		return RaspberryPi3
	default:
		return Generic
	}
}

// LoadLayout parses a JSON encoded Layout.
//
// Missing paths are taken from Generic and a zero max_line means 100.
func LoadLayout(data []byte) (Layout, error) {
	var l Layout
	if err := json.Unmarshal(data, &l); err != nil {
		return Layout{}, fmt.Errorf("sysfs-gpio: layout: %w", err)
	}
	applyDefaults(&l)
	if err := l.validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

func applyDefaults(l *Layout) {
	if l.LineTemplate == "" {
		l.LineTemplate = Generic.LineTemplate
	}
	if l.Export == "" {
		l.Export = Generic.Export
	}
	if l.Unexport == "" {
		l.Unexport = Generic.Unexport
	}
	if l.MaxLine == 0 {
		l.MaxLine = defaultMaxLine
	}
}

func (l *Layout) validate() error {
	d := strings.Index(l.LineTemplate, "%d")
	s := strings.Index(l.LineTemplate, "%s")
	if strings.Count(l.LineTemplate, "%") != 2 || d == -1 || s == -1 || d > s {
		return fmt.Errorf("sysfs-gpio: layout: line_template %q must contain %%d then %%s", l.LineTemplate)
	}
	if l.MaxLine < 0 {
		return errors.New("sysfs-gpio: layout: max_line must not be negative")
	}
	return nil
}

const dtModelPath = "/proc/device-tree/model"

// readDTModel returns the device tree model, or "" when unavailable.
func readDTModel(path string) string {
	b, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimRight(string(b), "\x00\n")
}
