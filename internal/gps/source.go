// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package gps

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/rdas/internal/faults"
)

const (
	DefaultBaudRate uint          = 9600
	DefaultTimeout  time.Duration = 5 * time.Second

	// termios VTIME is one byte of deciseconds.
	minTimeout = 100 * time.Millisecond
	maxTimeout = 25500 * time.Millisecond
)

// Source yields newline-delimited sentences from a serial stream.
type Source struct {
	name   string
	rc     io.ReadCloser
	reader *bufio.Reader
}

// OpenSerial opens path at baud (8N1). A read that sees no byte for timeout
// returns empty, which ReadLine reports as faults.ErrTimeout.
func OpenSerial(path string, baud uint, timeout time.Duration) (*Source, error) {
	if baud == 0 {
		baud = DefaultBaudRate
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if timeout < minTimeout {
		timeout = minTimeout
	}
	if timeout > maxTimeout {
		timeout = maxTimeout
	}

	opts := serial.OpenOptions{
		PortName:              path,
		BaudRate:              baud,
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		MinimumReadSize:       0,
		InterCharacterTimeout: uint(timeout / time.Millisecond),
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, faults.IO("serial open "+path, err)
	}
	s := NewSource(port)
	s.name = path
	return s, nil
}

// NewSource wraps an already open stream.
func NewSource(rc io.ReadCloser) *Source {
	return &Source{
		name:   "stream",
		rc:     rc,
		reader: bufio.NewReader(rc),
	}
}

// Name is the port path, or "stream" for wrapped readers.
func (s *Source) Name() string { return s.name }

// ReadLine returns the next line including its terminator. A line cut short
// by the timeout is returned as-is; no bytes at all is a timeout error.
// Non-ASCII bytes are replaced with U+FFFD rather than rejected.
func (s *Source) ReadLine() (string, error) {
	b, err := s.reader.ReadBytes('\n')
	if err == nil {
		return decodeASCII(b), nil
	}
	if errors.Is(err, io.EOF) {
		if len(b) > 0 {
			return decodeASCII(b), nil
		}
		return "", faults.Timeout(fmt.Sprintf("serial read %s", s.name), err)
	}
	return "", faults.IO(fmt.Sprintf("serial read %s", s.name), err)
}

// Close releases the port.
func (s *Source) Close() error {
	return s.rc.Close()
}

func decodeASCII(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b))
	for _, c := range b {
		if c < utf8.RuneSelf {
			sb.WriteByte(c)
		} else {
			sb.WriteRune(utf8.RuneError)
		}
	}
	return sb.String()
}
