// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Ticks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gps_loop_ticks_total",
		Help: "Running ticks attempted by the control loop",
	})
	Faults = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gps_loop_faults_total",
		Help: "Ticks that ended in the fault state",
	})
	FaultLogErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gps_fault_log_errors_total",
		Help: "Fault records that could not be persisted",
	})
	InFault = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gps_loop_in_fault",
		Help: "1 while the loop holds in the fault state",
	})
	LinesRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gps_lines_read_total",
		Help: "Complete lines read from the receiver",
	})
	LinesRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gps_lines_rejected_total",
		Help: "Lines dropped before parsing (bad encoding)",
	})
	LinesDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gps_lines_dropped_total",
		Help: "Overlong unterminated fragments discarded by the line reader",
	})
	ReadErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gps_read_errors_total",
		Help: "Transient read errors on the receiver link",
	})
	Sentences = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "gps_sentences_total",
		Help: "Parsed lines by recognised kind (kind=none when nothing was learned)",
	}, []string{"kind"})
	FixesMerged = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gps_fixes_merged_total",
		Help: "Complete fixes merged into the tracker",
	})
	PublishErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gps_publish_errors_total",
		Help: "Telemetry snapshots that could not be published",
	})
	Satellites = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gps_satellites",
		Help: "Satellites reported by the last GGA",
	})
	SpeedMPS = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gps_speed_mps",
		Help: "Ground speed since the previous fix",
	})
	HasFix = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "gps_has_fix",
		Help: "1 once a complete fix has been seen",
	})
	TickLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "gps_tick_latency_seconds",
		Help:    "Duration of a running tick, excluding the post-tick sleep",
		Buckets: prometheus.DefBuckets,
	})
)

func ObserveTickLatency(start time.Time) {
	TickLatency.Observe(time.Since(start).Seconds())
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// SetFixGauges mirrors the tracker's headline values.
func SetFixGauges(hasFix bool, satellites int, speedMPS float64) {
	HasFix.Set(boolGauge(hasFix))
	Satellites.Set(float64(satellites))
	SpeedMPS.Set(speedMPS)
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
