/*
NAME
  file.go

DESCRIPTION
  file.go provides an implementation of the device.Device interface
  backed by a raw interleaved 16-bit I/Q file: useful as a drop-in Rx
  source or Tx sink without real SDR hardware.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package file provides a device.Device implementation backed by a
// raw interleaved I/Q file.
package file

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/sdrd/buffer"
	"github.com/ausocean/sdrd/iq"
)

// readChunkSamples is the number of samples read per producer
// iteration.
const readChunkSamples = 4096

// File is a device.Device backed by a file of raw interleaved
// little-endian int16 I/Q samples.
type File struct {
	mu             sync.Mutex
	path           string
	loop           bool
	log            logging.Logger
	sampleRateHz   uint32
	freqHz         uint64
	bytesPerSample uint8
	effectiveBits  uint8
	f              *os.File
	running        bool
}

// New returns a File device reading/writing path.
func New(log logging.Logger, path string, loop bool, sampleRateHz uint32, effectiveBits uint8) *File {
	return &File{
		log:            log,
		path:           path,
		loop:           loop,
		sampleRateHz:   sampleRateHz,
		effectiveBits:  effectiveBits,
		bytesPerSample: 2,
	}
}

// Name returns the name of the device.
func (f *File) Name() string { return "File" }

// Configure supports the "file" device-specific key to redirect the
// backing path; all other keys are rejected.
func (f *File) Configure(kv map[string]string) map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(kv))
	for k, v := range kv {
		if k != "file" {
			out[k] = "rejected:unsupported"
			continue
		}
		f.path = v
		out[k] = "ok"
	}
	return out
}

// Frequency returns the device's nominal center frequency; a file
// source has no real RF frequency, so this reports the value last
// recorded by SetFrequency, defaulting to 0. The controller does not
// call SetFrequency.
func (f *File) Frequency() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.freqHz
}

// SetFrequency records a tuned frequency for Frequency to report; File
// does not act on it.
func (f *File) SetFrequency(hz uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.freqHz = hz
}

// SampleRate returns the configured sample rate.
func (f *File) SampleRate() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sampleRateHz
}

// SampleSize returns (2, effectiveBits): the file format is always
// 16-bit per I/Q component.
func (f *File) SampleSize() (uint8, uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bytesPerSample, f.effectiveBits
}

// StartProducer opens the file for reading and pushes sample vectors
// into dst until EOF (or, if loop is set, forever), or stop is set.
// It blocks; callers run it on their own goroutine.
func (f *File) StartProducer(dst *buffer.SampleBuffer, stop *atomic.Bool) error {
	if err := f.open(os.O_RDONLY, 0); err != nil {
		return err
	}
	defer f.Stop()

	buf := make([]byte, readChunkSamples*4)
	for !stop.Load() {
		n, err := f.f.Read(buf)
		if n > 0 {
			dst.Push(iq.Decode16(buf[:n-n%4]))
		}
		if err == nil {
			continue
		}
		if err != io.EOF {
			return fmt.Errorf("file: read error: %w", err)
		}
		if !f.loop {
			break
		}
		f.log.Info("looping input file", "path", f.path)
		if _, err := f.f.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("file: seek to start for loop: %w", err)
		}
	}
	dst.PushEnd()
	return nil
}

// StartConsumer opens the file for writing and drains src, encoding
// each sample vector as it arrives, until src ends or stop is set.
func (f *File) StartConsumer(src *buffer.SampleBuffer, stop *atomic.Bool) error {
	if err := f.open(os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644); err != nil {
		return err
	}
	defer f.Stop()

	for !stop.Load() {
		v := src.Pull()
		if v == nil {
			return nil
		}
		if _, err := f.f.Write(iq.Encode16(nil, v)); err != nil {
			return fmt.Errorf("file: write error: %w", err)
		}
	}
	return nil
}

func (f *File) open(flag int, perm os.FileMode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.path == "" {
		return errors.New("file: no path configured")
	}
	file, err := os.OpenFile(f.path, flag, perm)
	if err != nil {
		return fmt.Errorf("file: could not open %q: %w", f.path, err)
	}
	f.f = file
	f.running = true
	return nil
}

// Stop closes the backing file.
func (f *File) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.f == nil {
		return nil
	}
	err := f.f.Close()
	f.f = nil
	f.running = false
	return err
}

// PrintSpecificParams logs the file device's current parameters.
func (f *File) PrintSpecificParams() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.log.Info("file device parameters", "path", f.path, "loop", f.loop)
}
