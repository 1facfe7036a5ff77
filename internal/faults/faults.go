// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package faults holds the error kinds shared by the hardware packages.
//
// Every error raised while talking to the serial port, the I2C bus or the
// GPIO pseudo-files is wrapped in an *Error whose Kind is one of the
// sentinels below, so callers can classify with errors.Is without caring
// which package produced it.
package faults

import "errors"

var (
	// ErrIO marks filesystem, bus and serial transport failures.
	ErrIO = errors.New("i/o failure")
	// ErrParse marks malformed NMEA sentences.
	ErrParse = errors.New("parse failure")
	// ErrTimeout marks a serial read that produced nothing before its deadline.
	ErrTimeout = errors.New("read timeout")
)

// Error is a classified failure of a single operation.
type Error struct {
	Kind error  // one of ErrIO, ErrParse, ErrTimeout
	Op   string // e.g. "gpio79: export"
	Err  error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Op + ": " + e.Kind.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IO wraps err as an ErrIO failure of op.
func IO(op string, err error) error {
	return &Error{Kind: ErrIO, Op: op, Err: err}
}

// Parse wraps err as an ErrParse failure of op.
func Parse(op string, err error) error {
	return &Error{Kind: ErrParse, Op: op, Err: err}
}

// Timeout wraps err as an ErrTimeout failure of op.
func Timeout(op string, err error) error {
	return &Error{Kind: ErrTimeout, Op: op, Err: err}
}
