/*
NAME
  testdevice.go

DESCRIPTION
  testdevice.go provides a synthetic, deterministic device.Device
  implementation: on Rx it generates a tone (or accepts manually
  written samples) instead of reading real hardware; on Tx it discards
  (or records, for test assertions) whatever it receives. It plays the
  role the teacher's ManualInput plays for AV pipelines: a manual,
  in-process stand-in for real capture/render hardware.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package testdevice provides a synthetic device.Device used in place
// of real SDR hardware, both as a -t test CLI selection and as a test
// fixture.
package testdevice

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/sdrd/buffer"
	"github.com/ausocean/sdrd/iq"
)

// Device is a synthetic SDR front-end: it generates a deterministic
// tone for Rx and records whatever arrives for Tx.
type Device struct {
	mu             sync.Mutex
	log            logging.Logger
	freqHz         uint64
	sampleRateHz   uint32
	bytesPerSample uint8
	effectiveBits  uint8

	// ToneHz and Amplitude parameterize the synthetic Rx waveform; a
	// ToneHz of 0 generates a DC tone at the given amplitude, useful
	// for the halfband round-trip property tests.
	ToneHz    float64
	Amplitude float64

	// Received accumulates every sample vector consumed on Tx, for
	// test assertions.
	Received iq.Vector
}

// New returns a synthetic Device.
func New(log logging.Logger, sampleRateHz uint32) *Device {
	return &Device{
		log:            log,
		sampleRateHz:   sampleRateHz,
		bytesPerSample: 2,
		effectiveBits:  16,
		Amplitude:      1.0,
	}
}

func (d *Device) Name() string { return "Test" }

// Configure accepts no device-specific keys; everything is rejected.
func (d *Device) Configure(kv map[string]string) map[string]string {
	out := make(map[string]string, len(kv))
	for k := range kv {
		out[k] = "rejected:unsupported"
	}
	return out
}

func (d *Device) Frequency() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.freqHz
}

// SetFrequency records a tuned frequency for Frequency to report.
func (d *Device) SetFrequency(hz uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.freqHz = hz
}

func (d *Device) SampleRate() uint32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sampleRateHz
}

func (d *Device) SampleSize() (uint8, uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.bytesPerSample, d.effectiveBits
}

// genChunkSamples is the size of each synthetic tone burst pushed per
// producer iteration.
const genChunkSamples = 1024

// StartProducer pushes a deterministic tone into dst, genChunkSamples
// at a time, until stop is set.
func (d *Device) StartProducer(dst *buffer.SampleBuffer, stop *atomic.Bool) error {
	d.mu.Lock()
	toneHz, amp, rate := d.ToneHz, d.Amplitude, float64(d.sampleRateHz)
	d.mu.Unlock()

	var n int
	for !stop.Load() {
		v := make(iq.Vector, genChunkSamples)
		for i := range v {
			phase := 2 * math.Pi * toneHz * float64(n) / rate
			v[i] = iq.Sample{
				I: int16(amp * math.MaxInt16 * math.Cos(phase)),
				Q: int16(amp * math.MaxInt16 * math.Sin(phase)),
			}
			n++
		}
		dst.Push(v)
	}
	dst.PushEnd()
	return nil
}

// StartConsumer pulls sample vectors from src, appending each to
// Received, until src ends or stop is set.
func (d *Device) StartConsumer(src *buffer.SampleBuffer, stop *atomic.Bool) error {
	for !stop.Load() {
		v := src.Pull()
		if v == nil {
			return nil
		}
		d.mu.Lock()
		d.Received = append(d.Received, v...)
		d.mu.Unlock()
	}
	return nil
}

func (d *Device) Stop() error { return nil }

func (d *Device) PrintSpecificParams() {
	d.log.Info("test device parameters", "toneHz", d.ToneHz, "amplitude", d.Amplitude)
}
