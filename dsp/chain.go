/*
NAME
  chain.go

DESCRIPTION
  chain.go implements the power-of-two halfband cascade described by
  the daemon's DSP stage: a configurable number of halfband stages,
  with an optional Fs/4 mixer ahead of the first stage on the Rx side.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package dsp implements the decimation/interpolation stage: a
// power-of-two halfband cascade with a configurable placement of the
// tuned frequency relative to the decimated band.
package dsp

import (
	"fmt"

	"github.com/ausocean/sdrd/iq"
)

// MaxLog2Factor is the largest decimation/interpolation factor,
// expressed as a log2 integer.
const MaxLog2Factor = 6

// Chain is a power-of-two halfband cascade. A single Chain is used for
// either the Rx decimator (built by NewDecimator, run with Decimate) or
// the Tx interpolator (built by NewInterpolator, run with Interpolate).
type Chain struct {
	stages []*stage
	mixer  *fs4Mixer // nil for the interpolator; interpolation is always centered.
}

// NewDecimator returns a Chain configured for Rx-side decimation by
// 2^log2Factor, with the tuned RF placed per pos.
func NewDecimator(log2Factor int, pos FCPos) (*Chain, error) {
	if log2Factor < 0 || log2Factor > MaxLog2Factor {
		return nil, fmt.Errorf("dsp: decim factor %d out of range [0,%d]", log2Factor, MaxLog2Factor)
	}
	if !pos.Valid() {
		return nil, fmt.Errorf("dsp: invalid fcpos %d", uint8(pos))
	}
	c := &Chain{mixer: newFS4Mixer(pos)}
	for i := 0; i < log2Factor; i++ {
		c.stages = append(c.stages, newStage())
	}
	return c, nil
}

// NewInterpolator returns a Chain configured for Tx-side interpolation
// by 2^log2Factor. Interpolation is always centered.
func NewInterpolator(log2Factor int) (*Chain, error) {
	if log2Factor < 0 || log2Factor > MaxLog2Factor {
		return nil, fmt.Errorf("dsp: interp factor %d out of range [0,%d]", log2Factor, MaxLog2Factor)
	}
	c := &Chain{}
	for i := 0; i < log2Factor; i++ {
		c.stages = append(c.stages, newStage())
	}
	return c, nil
}

// Reset clears all cascade and mixer state and discards the in-flight
// buffer without emission, as required whenever decim/interp/fcpos is
// reconfigured mid-stream.
func (c *Chain) Reset() {
	for _, s := range c.stages {
		s.reset()
	}
	if c.mixer != nil {
		c.mixer.reset()
	}
}

// Decimate runs the Rx cascade: the Fs/4 mixer (if any), then one
// halfband decimation stage per unit of log2 factor. The output length
// is len(in) >> log2Factor. A factor of 0 with fcpos Center is a
// pass-through; a factor of 0 with Infra or Supra still applies the
// Fs/4 mixer.
func (c *Chain) Decimate(in iq.Vector) iq.Vector {
	if len(c.stages) == 0 && (c.mixer == nil || c.mixer.pos == Center) {
		out := make(iq.Vector, len(in))
		copy(out, in)
		return out
	}
	work := make(iq.Vector, len(in))
	copy(work, in)
	if c.mixer != nil {
		c.mixer.process(work)
	}
	data := toComplex(work)
	for _, s := range c.stages {
		data = s.decimate(data)
	}
	return fromComplex(data)
}

// Interpolate runs the Tx cascade: one halfband interpolation stage
// per unit of log2 factor. The output length is len(in) << log2Factor;
// a factor of 0 is a pass-through.
func (c *Chain) Interpolate(in iq.Vector) iq.Vector {
	if len(c.stages) == 0 {
		out := make(iq.Vector, len(in))
		copy(out, in)
		return out
	}
	data := toComplex(in)
	for _, s := range c.stages {
		data = s.interpolate(data)
	}
	return fromComplex(data)
}

// Log2Factor returns the configured cascade depth.
func (c *Chain) Log2Factor() int { return len(c.stages) }
