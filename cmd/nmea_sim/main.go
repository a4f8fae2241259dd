// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"flag"
	"io"
	"log"
	"os"
	"time"

	"github.com/relabs-tech/gps_telemetry/internal/app"
	"github.com/relabs-tech/gps_telemetry/internal/config"
	"github.com/relabs-tech/gps_telemetry/internal/gps"
	"github.com/relabs-tech/gps_telemetry/internal/sim"
)

func main() {
	configPath := flag.String("config", "gps_config.txt", "path to KEY=VALUE config file (SIM_* keys)")
	port := flag.String("port", "", "serial device to write to (default stdout)")
	baud := flag.Int("baud", 9600, "baud rate for -port")
	epochs := flag.Int("epochs", 0, "stop after this many seconds of output (0 = run forever)")
	flag.Parse()

	log.SetOutput(os.Stderr)
	log.Println("starting NMEA simulator")

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	var out io.Writer = os.Stdout
	if *port != "" {
		p, err := gps.OpenSerial(gps.SerialConfig{Port: *port, Baud: *baud})
		if err != nil {
			log.Fatalf("fatal: %v", err)
		}
		defer p.Close()
		out = p
		log.Printf("writing to %s at %d baud", *port, *baud)
	}

	gen := sim.NewGenerator(app.SimConfig(cfg, time.Now()))
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		if err := gen.WriteEpoch(out); err != nil {
			log.Printf("fatal: %v", err)
			return
		}
		if *epochs > 0 && gen.Epoch() >= *epochs {
			return
		}
		<-ticker.C
	}
}
