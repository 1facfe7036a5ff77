// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/rdas/internal/config"
	"github.com/relabs-tech/rdas/internal/gpio"
	"github.com/relabs-tech/rdas/internal/lcd"
)

// RunLCDMessage initializes the LCD and shows two lines once.
func RunLCDMessage(cfg *config.Config, first, second string, log *logrus.Entry) error {
	bus, err := openBus(cfg.I2CBus)
	if err != nil {
		return err
	}
	defer bus.Close()

	display := lcd.New(bus, cfg.LCDI2CAddr)
	if err := display.Init(); err != nil {
		return err
	}
	if err := display.WriteLines(first, second); err != nil {
		return err
	}
	log.WithField("addr", fmt.Sprintf("0x%02X", cfg.LCDI2CAddr)).Infof("shown %q / %q", lcd.Pad(first), lcd.Pad(second))
	return nil
}

// RunHandshakeProbe exports the pin, runs the acknowledgment handshake
// cycles times (forever when cycles <= 0) and always unexports on return.
func RunHandshakeProbe(ctx context.Context, cfg *config.Config, h Handshake, cycles int, log *logrus.Entry) error {
	if h == nil {
		pin := gpio.New(cfg.GPIOSysfsRoot, cfg.GPIOPin, log)
		if err := pin.Export(); err != nil {
			return err
		}
		h = pin
	}
	defer func() {
		if err := h.Unexport(); err != nil {
			log.WithError(err).Error("error unexporting GPIO pin")
		}
	}()

	for i := 0; cycles <= 0 || i < cycles; i++ {
		ack, errs := ProbeAck(h)
		for _, err := range errs {
			log.WithError(err).Warn("handshake GPIO error")
		}
		log.WithFields(logrus.Fields{"cycle": i + 1, "ack": ack}).Info("acknowledgment probe")

		if i+1 == cycles {
			break
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(cfg.LoopInterval()):
		}
	}
	return nil
}
