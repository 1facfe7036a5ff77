package main

import (
	"flag"

	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/rdas/internal/app"
	"github.com/relabs-tech/rdas/internal/config"
	"github.com/relabs-tech/rdas/internal/logging"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "KEY=VALUE or YAML config file")
	first := flag.String("line1", app.StatusLine1, "text for the first row")
	second := flag.String("line2", app.StatusLine2, "text for the second row")
	logging.InitParam()
	flag.Parse()

	if err := config.InitGlobal(*configPath); err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	cfg := config.Get()

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		logrus.Fatalf("fatal: %v", err)
	}
	if config.UsingDefaults() {
		log.WithField("path", config.DefaultPath).Warn("config file not found, using defaults")
	}

	if err := app.RunLCDMessage(cfg, *first, *second, logging.Component(log, "lcd")); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
