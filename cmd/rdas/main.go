// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/relabs-tech/rdas/internal/app"
	"github.com/relabs-tech/rdas/internal/config"
	"github.com/relabs-tech/rdas/internal/logging"
)

func main() {
	configPath := flag.String("config", config.DefaultPath, "KEY=VALUE or YAML config file")
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
	log.Info("starting RDAS (GPS → LCD, acknowledgment handshake)")

	// Ctrl+C / SIGTERM end the loop; the pin is released before exit.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunRDAS(ctx, cfg, log); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
