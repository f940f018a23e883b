/*
NAME
  device.go

DESCRIPTION
  device.go provides Device, the interface describing a configurable
  SDR front-end from which (Rx) or to which (Tx) I/Q samples flow, and
  a small registry of device openers keyed by device type.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package device provides the device adapter contract consumed by the
// controller, and registration for the externally-supplied drivers
// (rtlsdr, hackrf, airspy, bladerf, test, file) that implement it.
package device

import (
	"fmt"
	"sync/atomic"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/sdrd/buffer"
)

// Device describes a configurable SDR front-end. An Rx device is
// started as a producer, pushing sample vectors into a destination
// buffer; a Tx device is started as a consumer, pulling sample
// vectors from a source buffer to render.
type Device interface {
	// Name returns the name of this device instance.
	Name() string

	// Configure applies device-specific parameters (gain, bwfilter,
	// and the like), returning a per-key outcome: "ok",
	// "clamped", or "rejected:<reason>".
	Configure(kv map[string]string) map[string]string

	// Frequency returns the device's current tuned center frequency, Hz.
	Frequency() uint64

	// SampleRate returns the device's current sample rate, Hz.
	SampleRate() uint32

	// SampleSize returns the device's native sample width in bytes per
	// I/Q component (1 or 2) and the effective bit depth (8..16).
	SampleSize() (bytesPerSample, effectiveBits uint8)

	// StartProducer starts the device pushing captured sample vectors
	// into dst until stop is set or an unrecoverable device error
	// occurs.
	StartProducer(dst *buffer.SampleBuffer, stop *atomic.Bool) error

	// StartConsumer starts the device pulling sample vectors from src
	// and rendering them until src signals end-of-stream or stop is
	// set.
	StartConsumer(src *buffer.SampleBuffer, stop *atomic.Bool) error

	// Stop stops a running producer or consumer and releases the
	// device handle.
	Stop() error

	// PrintSpecificParams logs the device's current specific parameter
	// values; advisory only.
	PrintSpecificParams()
}

// MultiError collects multiple errors, e.g. from validating several
// configuration parameters at once.
type MultiError []error

func (me MultiError) Error() string {
	if len(me) == 0 {
		panic("device: invalid use of MultiError")
	}
	return fmt.Sprintf("%v", []error(me))
}

// Opener constructs a Device of the registered type for the given
// device index, logging through log and defaulting to sampleRateHz.
type Opener func(log logging.Logger, index int, sampleRateHz uint32) (Device, error)

// Lister returns the names of devices available for a given type.
type Lister func() ([]string, error)

// registry maps a device type name (rtlsdr, hackrf, test, file, ...)
// to its Opener and Lister. Concrete drivers register themselves from
// their own package's init; only test and file are implemented in
// this module, the rest being external collaborators per §1.
var registry = make(map[string]driverEntry)

type driverEntry struct {
	open Opener
	list Lister
}

// Register associates a device type name with its Opener and Lister.
func Register(typ string, open Opener, list Lister) {
	registry[typ] = driverEntry{open: open, list: list}
}

// Open opens device index of the given type.
func Open(typ string, log logging.Logger, index int, sampleRateHz uint32) (Device, error) {
	e, ok := registry[typ]
	if !ok {
		return nil, fmt.Errorf("device: unknown device type %q", typ)
	}
	return e.open(log, index, sampleRateHz)
}

// List returns the device names available for typ.
func List(typ string) ([]string, error) {
	e, ok := registry[typ]
	if !ok {
		return nil, fmt.Errorf("device: unknown device type %q", typ)
	}
	return e.list()
}
