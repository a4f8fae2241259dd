// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"log"

	"github.com/relabs-tech/gps_telemetry/internal/app"
	"github.com/relabs-tech/gps_telemetry/internal/config"
)

func main() {
	configPath := flag.String("config", "gps_config.txt", "path to KEY=VALUE config file")
	flag.Parse()

	log.Println("starting gps-telemetry console (MQTT subscriber)")

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	if err := app.RunConsoleMQTT(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}
