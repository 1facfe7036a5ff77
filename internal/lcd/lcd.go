// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package lcd drives a 16x2 HD44780 character display behind a PCF8574 I2C
// backpack in 4-bit mode.
//
// The backpack maps one I2C byte onto the controller pins:
//
//	P0=RS  P1=RW  P2=E  P3=backlight  P4..P7=D4..D7
//
// so every controller byte goes out as two nibbles, each latched by pulsing E.
package lcd

import (
	"fmt"
	"time"

	"periph.io/x/conn/v3/i2c"

	"github.com/relabs-tech/rdas/internal/faults"
)

const (
	// DefaultAddr is the usual PCF8574 backpack address.
	DefaultAddr uint16 = 0x27
	// Width is the number of characters per row.
	Width = 16

	Backlight byte = 0x08
	Enable    byte = 0x04

	// EPulse is how long E is held high, EDelay the settle time around it.
	EPulse = 500 * time.Microsecond
	EDelay = 500 * time.Microsecond
)

// Mode selects the RS pin: command register or data register.
type Mode byte

const (
	ModeCommand Mode = 0
	ModeData    Mode = 1
)

// Line is the DDRAM set-address command for the start of a row.
type Line byte

const (
	Line1 Line = 0x80
	Line2 Line = 0xC0
)

func (l Line) String() string {
	switch l {
	case Line1:
		return "line1"
	case Line2:
		return "line2"
	}
	return fmt.Sprintf("line(0x%02X)", byte(l))
}

// initSequence switches the controller into 4-bit, 2-line mode.
var initSequence = []byte{
	0x33, // 110011 initialise
	0x32, // 110010 initialise, 4-bit
	0x06, // 000110 cursor move direction
	0x0C, // 001100 display on, cursor off, blink off
	0x28, // 101000 data length, number of lines, font size
	0x01, // 000001 clear display
}

// Display owns the I2C device handle of one LCD.
type Display struct {
	dev   *i2c.Dev
	sleep func(time.Duration)
}

// Option configures a Display.
type Option func(*Display)

// WithSleep replaces time.Sleep for the latch delays.
func WithSleep(fn func(time.Duration)) Option {
	return func(d *Display) { d.sleep = fn }
}

// New binds a display at addr on bus. Call Init before writing.
func New(bus i2c.Bus, addr uint16, opts ...Option) *Display {
	d := &Display{
		dev:   &i2c.Dev{Bus: bus, Addr: addr},
		sleep: time.Sleep,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Init sends the fixed initialization sequence. Run it once, first.
func (d *Display) Init() error {
	for _, cmd := range initSequence {
		if err := d.transferByte(cmd, ModeCommand); err != nil {
			return fmt.Errorf("lcd init: %w", err)
		}
	}
	d.sleep(EDelay)
	return nil
}

// Clear blanks both rows and homes the cursor.
func (d *Display) Clear() error {
	if err := d.transferByte(0x01, ModeCommand); err != nil {
		return fmt.Errorf("lcd clear: %w", err)
	}
	d.sleep(EDelay)
	return nil
}

// WriteLine shows text on one row, left-justified, padded or cut to Width.
func (d *Display) WriteLine(text string, line Line) error {
	if err := d.transferByte(byte(line), ModeCommand); err != nil {
		return fmt.Errorf("lcd %s: %w", line, err)
	}
	for _, c := range toBytes(Pad(text)) {
		if err := d.transferByte(c, ModeData); err != nil {
			return fmt.Errorf("lcd %s: %w", line, err)
		}
	}
	return nil
}

// WriteLines fills both rows. The first failure stops the update.
func (d *Display) WriteLines(first, second string) error {
	if err := d.WriteLine(first, Line1); err != nil {
		return err
	}
	return d.WriteLine(second, Line2)
}

// Pad returns text as exactly Width characters.
func Pad(text string) string {
	r := []rune(text)
	if len(r) >= Width {
		return string(r[:Width])
	}
	out := make([]rune, Width)
	copy(out, r)
	for i := len(r); i < Width; i++ {
		out[i] = ' '
	}
	return string(out)
}

// toBytes maps characters to the controller's 8-bit character codes.
func toBytes(s string) []byte {
	out := make([]byte, 0, Width)
	for _, r := range s {
		if r > 0xFF {
			r = '?'
		}
		out = append(out, byte(r))
	}
	return out
}

// transferByte sends value as high nibble then low nibble.
func (d *Display) transferByte(value byte, mode Mode) error {
	high := byte(mode) | (value & 0xF0) | Backlight
	low := byte(mode) | ((value << 4) & 0xF0) | Backlight

	if err := d.pulseEnable(high); err != nil {
		return err
	}
	return d.pulseEnable(low)
}

// pulseEnable puts nibble on the bus and latches it with a high-low E pulse.
// The order and both delays are what the controller needs to latch.
func (d *Display) pulseEnable(nibble byte) error {
	if err := d.write(nibble); err != nil {
		return err
	}
	d.sleep(EDelay)
	if err := d.write(nibble | Enable); err != nil {
		return err
	}
	d.sleep(EPulse)
	if err := d.write(nibble &^ Enable); err != nil {
		return err
	}
	d.sleep(EDelay)
	return nil
}

func (d *Display) write(b byte) error {
	if _, err := d.dev.Write([]byte{b}); err != nil {
		return faults.IO(fmt.Sprintf("i2c write 0x%02X to 0x%02X", b, d.dev.Addr), err)
	}
	return nil
}
