// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package gpio drives a single GPIO pin through the legacy sysfs interface
// (/sys/class/gpio): export, direction, value, unexport.
//
// Every transition is a separate plain-text file write. Nothing is atomic
// across export → direction → value, so callers must expect partial
// completion and keep going.
package gpio

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/rdas/internal/faults"
)

// DefaultRoot is where the kernel exposes the sysfs GPIO class.
const DefaultRoot = "/sys/class/gpio"

// Direction is the text accepted by the direction node.
type Direction string

const (
	In  Direction = "in"
	Out Direction = "out"
)

// Line owns one exported pin.
type Line struct {
	pin  int
	root string
	log  *logrus.Entry
}

// New returns a Line for pin under root. Nothing is touched until Export.
// A nil log uses the standard logger.
func New(root string, pin int, log *logrus.Entry) *Line {
	if root == "" {
		root = DefaultRoot
	}
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Line{
		pin:  pin,
		root: root,
		log:  log.WithField("pin", pin),
	}
}

// Pin returns the pin number.
func (l *Line) Pin() int { return l.pin }

func (l *Line) dir() string { return filepath.Join(l.root, "gpio"+strconv.Itoa(l.pin)) }

// Exported reports whether the per-pin directory currently exists.
func (l *Line) Exported() bool {
	_, err := os.Stat(l.dir())
	return err == nil
}

// Export asks the kernel to create the pin directory. No-op if it exists.
func (l *Line) Export() error {
	if l.Exported() {
		l.log.Debug("already exported")
		return nil
	}
	if err := writeNode(filepath.Join(l.root, "export"), strconv.Itoa(l.pin)); err != nil {
		return faults.IO(l.op("export", err), err)
	}
	l.log.Debug("exported")
	return nil
}

// Unexport removes the pin directory. No-op if it is already gone.
func (l *Line) Unexport() error {
	if !l.Exported() {
		l.log.Debug("not exported, nothing to release")
		return nil
	}
	if err := writeNode(filepath.Join(l.root, "unexport"), strconv.Itoa(l.pin)); err != nil {
		return faults.IO(l.op("unexport", err), err)
	}
	l.log.Debug("unexported")
	return nil
}

// SetDirection writes "in" or "out". After a failure the direction is
// undefined.
func (l *Line) SetDirection(d Direction) error {
	if d != In && d != Out {
		return fmt.Errorf("gpio%d: invalid direction %q", l.pin, d)
	}
	if err := writeNode(filepath.Join(l.dir(), "direction"), string(d)); err != nil {
		return faults.IO(l.op("set direction "+string(d), err), err)
	}
	return nil
}

// WriteValue drives the line low (0) or high (anything else). The direction
// must already be Out; that is not checked here.
func (l *Line) WriteValue(v int) error {
	s := "1"
	if v == 0 {
		s = "0"
	}
	if err := writeNode(filepath.Join(l.dir(), "value"), s); err != nil {
		return faults.IO(l.op("write value", err), err)
	}
	return nil
}

// ReadValue returns the trimmed content of the value node. ok is false when
// the node could not be read; the failure is logged, not returned.
func (l *Line) ReadValue() (value string, ok bool) {
	b, err := os.ReadFile(filepath.Join(l.dir(), "value"))
	if err != nil {
		l.log.WithError(err).Warn("error reading GPIO value")
		return "", false
	}
	return strings.TrimSpace(string(b)), true
}

func (l *Line) op(what string, err error) string {
	op := fmt.Sprintf("gpio%d: %s", l.pin, what)
	if hint := errnoHint(err); hint != "" {
		op += " (" + hint + ")"
	}
	return op
}

// writeNode mimics `echo value > path`: no create, truncate, single write.
func writeNode(path, value string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC, 0)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(value); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
