// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/relabs-tech/gps_telemetry/internal/config"
	"github.com/relabs-tech/gps_telemetry/internal/display"
	"github.com/relabs-tech/gps_telemetry/internal/gps"
	"github.com/relabs-tech/gps_telemetry/internal/platform"
	"github.com/relabs-tech/gps_telemetry/internal/sim"
	"github.com/relabs-tech/gps_telemetry/internal/supervisor"
	"github.com/relabs-tech/gps_telemetry/internal/telemetry"
)

// splashHold is how long the start-up screen stays up before the first tick.
const splashHold = time.Second

// closers collects peripheral shutdown functions, run in reverse order.
type closers []func() error

func (c *closers) add(fn func() error) { *c = append(*c, fn) }

func (c closers) closeAll() {
	for i := len(c) - 1; i >= 0; i-- {
		if err := c[i](); err != nil {
			log.Printf("app: close: %v", err)
		}
	}
}

// RunTelemetry opens every peripheral named in cfg, runs the supervisor loop
// until SIGINT/SIGTERM, and releases everything on the way out.
func RunTelemetry(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var cl closers
	defer cl.closeAll()

	source, err := openSource(cfg, &cl)
	if err != nil {
		return err
	}

	panel, err := openPanel(cfg, &cl)
	if err != nil {
		return err
	}
	if err := panel.Show(display.SplashLines()); err != nil {
		return fmt.Errorf("app: splash: %w", err)
	}

	led, err := openHeartbeat(cfg, &cl)
	if err != nil {
		return err
	}

	store := telemetry.NewStore()
	sinks := []supervisor.Sink{store}
	if cfg.MQTTBroker != "" {
		pub, err := telemetry.ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientID, cfg.TopicGPSFix)
		if err != nil {
			return err
		}
		cl.add(func() error { pub.Close(); return nil })
		sinks = append(sinks, pub)
	}

	if cfg.WebServerPort != 0 {
		srv := NewStatusServer(store, cfg.WatchdogTimeout())
		go func() {
			if err := srv.Serve(ctx, cfg.WebServerPort); err != nil {
				log.Printf("app: %v", err)
			}
		}()
	}

	time.Sleep(splashHold)

	// The watchdog is armed last: from here on the loop must feed it.
	wd, err := openWatchdog(cfg)
	if err != nil {
		return err
	}

	loop, err := supervisor.New(supervisor.Options{
		TickInterval: cfg.TickInterval(),
		FaultHold:    cfg.FaultHold(),
	}, supervisor.Peripherals{
		Source:    source,
		Panel:     panel,
		Heartbeat: platform.NewHeartbeat(led),
		Watchdog:  wd,
		FaultLog:  platform.NewFaultLog(cfg.FaultLogPath),
		Sinks:     sinks,
	}, gps.NewTracker())
	if err != nil {
		closeWatchdog(wd)
		return err
	}

	if err := loop.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Println("app: shutting down")
	return nil
}

func openSource(cfg *config.Config, cl *closers) (supervisor.LineSource, error) {
	switch cfg.GPSSource {
	case "serial":
		port, err := gps.OpenSerial(gps.SerialConfig{
			Port:        cfg.GPSSerialPort,
			Baud:        cfg.GPSBaudRate,
			ReadTimeout: cfg.GPSReadTimeout(),
		})
		if err != nil {
			return nil, err
		}
		cl.add(port.Close)
		log.Printf("app: GPS serial port opened on %s at %d baud", cfg.GPSSerialPort, cfg.GPSBaudRate)
		return gps.NewLineReader(port), nil

	case "file":
		f, err := os.Open(cfg.GPSReplayFile)
		if err != nil {
			return nil, fmt.Errorf("app: open replay file: %w", err)
		}
		cl.add(f.Close)
		log.Printf("app: replaying NMEA from %s", cfg.GPSReplayFile)
		return gps.NewLineReader(f), nil

	case "sim":
		log.Printf("app: simulating a receiver at %.1f m/s heading %.0f°", cfg.SimSpeedMPS, cfg.SimBearingDeg)
		return sim.NewSource(sim.NewGenerator(SimConfig(cfg, time.Now()))), nil
	}
	return nil, fmt.Errorf("app: unknown GPS source %q", cfg.GPSSource)
}

// SimConfig builds the simulator settings from cfg, starting the clock at
// start.
func SimConfig(cfg *config.Config, start time.Time) sim.Config {
	return sim.Config{
		Route: sim.Route{
			Start:      gps.Position{Lat: cfg.SimStartLat, Lon: cfg.SimStartLon},
			BearingDeg: cfg.SimBearingDeg,
			SpeedMPS:   cfg.SimSpeedMPS,
			Satellites: cfg.SimSatellites,
			StartTime:  start.UTC().Truncate(time.Second),
		},
		EmitRMC:    cfg.SimEmitRMC,
		NoiseEvery: cfg.SimNoiseEvery,
		Seed:       cfg.SimSeed,
	}
}

func openPanel(cfg *config.Config, cl *closers) (display.Panel, error) {
	switch cfg.DisplayDriver {
	case "ssd1306":
		oled, err := display.OpenOLED(cfg.DisplayI2CBus)
		if err != nil {
			return nil, err
		}
		cl.add(oled.Close)
		return oled, nil
	case "console":
		return display.NewConsolePanel(os.Stdout), nil
	case "none":
		return display.NopPanel{}, nil
	}
	return nil, fmt.Errorf("app: unknown display driver %q", cfg.DisplayDriver)
}

func openHeartbeat(cfg *config.Config, cl *closers) (platform.Output, error) {
	switch cfg.HeartbeatDriver {
	case "periph":
		pin, err := platform.OpenPeriphPin(cfg.HeartbeatPin)
		if err != nil {
			return nil, err
		}
		cl.add(func() error { return pin.Set(false) })
		return pin, nil
	case "gpiod":
		line, err := platform.OpenGPIODLine(cfg.HeartbeatPin)
		if err != nil {
			return nil, err
		}
		cl.add(line.Close)
		return line, nil
	case "none":
		return platform.NopOutput{}, nil
	}
	return nil, fmt.Errorf("app: unknown heartbeat driver %q", cfg.HeartbeatDriver)
}

// closeWatchdog disarms a watchdog that no loop will feed.
func closeWatchdog(wd platform.Watchdog) {
	if err := wd.Close(); err != nil {
		log.Printf("app: close: %v", err)
	}
}

func openWatchdog(cfg *config.Config) (platform.Watchdog, error) {
	if cfg.WatchdogDevice == "" {
		log.Println("app: no watchdog device configured")
		return platform.NopWatchdog{}, nil
	}
	wd, err := platform.OpenHardwareWatchdog(cfg.WatchdogDevice, cfg.WatchdogTimeout())
	if err != nil {
		return nil, err
	}
	return wd, nil
}
