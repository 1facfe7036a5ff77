package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/rdas/internal/config"
	"github.com/relabs-tech/rdas/internal/gpio"
	"github.com/relabs-tech/rdas/internal/gps"
	"github.com/relabs-tech/rdas/internal/lcd"
	"github.com/relabs-tech/rdas/internal/logging"
)

// RunRDAS brings up the LCD, the handshake pin and the GPS port, then runs
// the control loop until ctx is cancelled.
func RunRDAS(ctx context.Context, cfg *config.Config, log *logrus.Entry) error {
	bus, err := openBus(cfg.I2CBus)
	if err != nil {
		return err
	}
	defer bus.Close()

	// ---- 1) LCD ----
	lcdLog := logging.Component(log, "lcd").WithField("addr", fmt.Sprintf("0x%02X", cfg.LCDI2CAddr))
	display := lcd.New(bus, cfg.LCDI2CAddr)
	if err := display.Init(); err != nil {
		lcdLog.WithError(err).Error("display init failed, continuing without a usable display")
	} else {
		lcdLog.Info("display initialized")
	}

	// ---- 2) Handshake pin ----
	pin := gpio.New(cfg.GPIOSysfsRoot, cfg.GPIOPin, logging.Component(log, "gpio"))
	if err := pin.Export(); err != nil {
		logging.Component(log, "gpio").WithError(err).Error("error exporting GPIO pin, acknowledgment disabled")
	}

	// ---- 3) GPS serial port ----
	gpsLog := logging.Component(log, "gps").WithField("port", cfg.SerialPort)
	src, err := gps.OpenSerial(cfg.SerialPort, cfg.SerialBaudRate, cfg.SerialTimeout())
	if err != nil {
		if uerr := pin.Unexport(); uerr != nil {
			logging.Component(log, "gpio").WithError(uerr).Error("error unexporting GPIO pin")
		}
		return fmt.Errorf("failed to open GPS serial port: %w", err)
	}
	defer src.Close()
	gpsLog.WithField("baud", cfg.SerialBaudRate).Info("opened serial port")

	// ---- 4) Loop ----
	loop := NewLoop(Deps{
		Display:   display,
		Handshake: pin,
		Reader:    src,
		Parse:     gps.ParseRMC,
		Log:       logging.Component(log, "loop"),
	}, WithInterval(cfg.LoopInterval()))

	return loop.Run(ctx)
}

// openBus initializes the periph host drivers and opens an I2C bus by name
// or number ("0" is /dev/i2c-0).
func openBus(name string) (i2c.BusCloser, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize periph: %w", err)
	}
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("failed to open I2C bus %q: %w", name, err)
	}
	return bus, nil
}
