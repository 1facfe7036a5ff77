// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/rdas/internal/gpio"
	"github.com/relabs-tech/rdas/internal/gps"
	"github.com/relabs-tech/rdas/internal/lcd"
)

// Status text shown every iteration. It does not follow GPS or ack state.
const (
	StatusLine1 = "   DRIVER IS "
	StatusLine2 = "    MISSING  "
)

// DefaultInterval is the pause between iterations.
const DefaultInterval = 1 * time.Second

// Display is the part of lcd.Display the loop uses.
type Display interface {
	WriteLine(text string, line lcd.Line) error
}

// Handshake is the part of gpio.Line the loop uses.
type Handshake interface {
	SetDirection(d gpio.Direction) error
	WriteValue(v int) error
	ReadValue() (string, bool)
	Unexport() error
}

// LineReader yields raw serial lines.
type LineReader interface {
	ReadLine() (string, error)
}

// Parser decodes one $GPRMC line.
type Parser func(line string) (gps.Fix, error)

// Deps are the resources a Loop owns for its lifetime.
type Deps struct {
	Display   Display
	Handshake Handshake
	Reader    LineReader
	Parse     Parser // defaults to gps.ParseRMC
	Log       *logrus.Entry
}

// State of the control loop.
type State int32

const (
	StateStarting State = iota
	StateRunning
	StateShuttingDown
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateStarting:
		return "starting"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting down"
	case StateStopped:
		return "stopped"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

// Iteration is what one Step observed.
type Iteration struct {
	Fix    *gps.Fix // nil unless an RMC sentence parsed
	Ack    bool
	Errors []error
}

// Loop refreshes the display, ingests one GPS line and polls the
// acknowledgment pin, once per interval, until its context ends.
type Loop struct {
	display  Display
	hs       Handshake
	reader   LineReader
	parse    Parser
	log      *logrus.Entry
	interval time.Duration

	state    atomic.Int32
	stopOnce sync.Once
}

// Option configures a Loop.
type Option func(*Loop)

// WithInterval overrides DefaultInterval.
func WithInterval(d time.Duration) Option {
	return func(l *Loop) {
		if d > 0 {
			l.interval = d
		}
	}
}

// NewLoop builds a loop in StateStarting.
func NewLoop(deps Deps, opts ...Option) *Loop {
	l := &Loop{
		display:  deps.Display,
		hs:       deps.Handshake,
		reader:   deps.Reader,
		parse:    deps.Parse,
		log:      deps.Log,
		interval: DefaultInterval,
	}
	if l.parse == nil {
		l.parse = gps.ParseRMC
	}
	if l.log == nil {
		l.log = logrus.NewEntry(logrus.StandardLogger())
	}
	for _, o := range opts {
		o(l)
	}
	l.state.Store(int32(StateStarting))
	return l
}

// State is safe to call from any goroutine.
func (l *Loop) State() State { return State(l.state.Load()) }

func (l *Loop) setState(s State) {
	l.state.Store(int32(s))
	l.log.WithField("state", s.String()).Debug("control loop state")
}

// Run iterates until ctx is done, then tears down and returns nil.
// Cancellation is seen between iterations and during the pause; a blocking
// serial read finishes first (it is bounded by the port timeout).
func (l *Loop) Run(ctx context.Context) error {
	l.setState(StateRunning)
	l.log.WithField("interval", l.interval).Info("control loop running")

	for ctx.Err() == nil {
		l.Step()

		t := time.NewTimer(l.interval)
		select {
		case <-ctx.Done():
			t.Stop()
		case <-t.C:
		}
	}

	l.Shutdown()
	return nil
}

// Shutdown releases the handshake pin. Only the first call does anything.
func (l *Loop) Shutdown() {
	l.stopOnce.Do(func() {
		l.setState(StateShuttingDown)
		l.log.Info("exiting gracefully")
		if err := l.hs.Unexport(); err != nil {
			l.log.WithError(err).Error("error unexporting GPIO pin")
		}
		l.setState(StateStopped)
	})
}

// Step runs one iteration. Every failure is logged and recorded; none of
// them stop the loop.
func (l *Loop) Step() Iteration {
	var it Iteration

	// 1) Status message
	if err := l.display.WriteLine(StatusLine1, lcd.Line1); err != nil {
		l.log.WithError(err).Warn("display update failed")
		it.Errors = append(it.Errors, err)
	}
	if err := l.display.WriteLine(StatusLine2, lcd.Line2); err != nil {
		l.log.WithError(err).Warn("display update failed")
		it.Errors = append(it.Errors, err)
	}

	// 2) One GPS line
	if fix, err := l.readFix(); err != nil {
		it.Errors = append(it.Errors, err)
	} else if fix != nil {
		it.Fix = fix
	}

	// 3) Acknowledgment handshake
	ack, errs := ProbeAck(l.hs)
	for _, err := range errs {
		l.log.WithError(err).Warn("handshake GPIO error")
	}
	it.Errors = append(it.Errors, errs...)
	it.Ack = ack
	l.log.WithField("ack", ack).Infof("Acknowledgment button status: %v", ack)

	return it
}

// readFix returns (nil, nil) for lines that are not $GPRMC.
func (l *Loop) readFix() (*gps.Fix, error) {
	line, err := l.reader.ReadLine()
	if err != nil {
		l.log.WithError(err).Warn("error reading data")
		return nil, err
	}
	if !gps.IsRMC(line) {
		return nil, nil
	}

	fix, err := l.parse(line)
	if err != nil {
		l.log.WithError(err).Warn("parse error")
		return nil, err
	}
	l.log.WithFields(logrus.Fields{
		"lat":      fix.Latitude,
		"lon":      fix.Longitude,
		"speed_kn": fix.SpeedKnots,
	}).Infof("Latitude: %v, Longitude: %v, Speed (knots): %v", fix.Latitude, fix.Longitude, fix.SpeedKnots)
	return &fix, nil
}

// ProbeAck drives the pin high as a probe, turns it around and reads it
// back. The external hardware acknowledges by pulling it to "0". A failed
// read counts as no acknowledgment.
func ProbeAck(h Handshake) (ack bool, errs []error) {
	if err := h.SetDirection(gpio.Out); err != nil {
		errs = append(errs, err)
	}
	if err := h.WriteValue(1); err != nil {
		errs = append(errs, err)
	}
	if err := h.SetDirection(gpio.In); err != nil {
		errs = append(errs, err)
	}
	v, ok := h.ReadValue()
	return ok && v == "0", errs
}
