/*
NAME
  chain_test.go

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package dsp

import (
	"testing"

	"github.com/ausocean/sdrd/iq"
)

func TestFCPosValid(t *testing.T) {
	for p := FCPos(0); p < 4; p++ {
		want := p <= Center
		if got := p.Valid(); got != want {
			t.Errorf("FCPos(%d).Valid() = %v, want %v", p, got, want)
		}
	}
}

func TestNewDecimatorRejectsOutOfRangeFactor(t *testing.T) {
	if _, err := NewDecimator(-1, Center); err == nil {
		t.Error("expected error for negative log2Factor")
	}
	if _, err := NewDecimator(MaxLog2Factor+1, Center); err == nil {
		t.Error("expected error for log2Factor exceeding MaxLog2Factor")
	}
	if _, err := NewDecimator(0, FCPos(99)); err == nil {
		t.Error("expected error for invalid fcpos")
	}
}

func TestDecimatePassThroughAtZeroFactor(t *testing.T) {
	c, err := NewDecimator(0, Center)
	if err != nil {
		t.Fatalf("NewDecimator: %v", err)
	}
	in := iq.Vector{{I: 1, Q: 2}, {I: 3, Q: 4}}
	out := c.Decimate(in)
	if len(out) != len(in) {
		t.Fatalf("got length %d, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Errorf("sample %d: got %+v, want %+v", i, out[i], in[i])
		}
	}
}

func TestInterpolatePassThroughAtZeroFactor(t *testing.T) {
	c, err := NewInterpolator(0)
	if err != nil {
		t.Fatalf("NewInterpolator: %v", err)
	}
	in := iq.Vector{{I: 1, Q: 2}}
	out := c.Interpolate(in)
	if len(out) != len(in) {
		t.Fatalf("got length %d, want %d", len(out), len(in))
	}
}

func TestDecimateHalvesLengthPerStage(t *testing.T) {
	const log2Factor = 2
	c, err := NewDecimator(log2Factor, Center)
	if err != nil {
		t.Fatalf("NewDecimator: %v", err)
	}
	in := make(iq.Vector, 256)
	out := c.Decimate(in)
	want := len(in) >> log2Factor
	if len(out) != want {
		t.Fatalf("got length %d, want %d", len(out), want)
	}
}

func TestInterpolateDoublesLengthPerStage(t *testing.T) {
	const log2Factor = 2
	c, err := NewInterpolator(log2Factor)
	if err != nil {
		t.Fatalf("NewInterpolator: %v", err)
	}
	in := make(iq.Vector, 64)
	out := c.Interpolate(in)
	want := len(in) << log2Factor
	if len(out) != want {
		t.Fatalf("got length %d, want %d", len(out), want)
	}
}

func TestResetClearsDelayLineState(t *testing.T) {
	c, err := NewDecimator(1, Center)
	if err != nil {
		t.Fatalf("NewDecimator: %v", err)
	}
	loud := make(iq.Vector, 32)
	for i := range loud {
		loud[i] = iq.Sample{I: 30000, Q: -30000}
	}
	c.Decimate(loud)
	c.Reset()

	silent := make(iq.Vector, 32)
	out := c.Decimate(silent)
	for i, s := range out {
		if s.I != 0 || s.Q != 0 {
			t.Fatalf("sample %d: got %+v after reset, want zero (residual filter state)", i, s)
		}
	}
}

func TestDecimateDCPassesThroughNearUnityGain(t *testing.T) {
	c, err := NewDecimator(1, Center)
	if err != nil {
		t.Fatalf("NewDecimator: %v", err)
	}
	const amplitude = 10000
	in := make(iq.Vector, 512)
	for i := range in {
		in[i] = iq.Sample{I: amplitude, Q: amplitude}
	}
	out := c.Decimate(in)
	// Skip the filter's settling transient; the steady-state DC value
	// should be within a few LSBs of the input amplitude.
	for i := len(out) / 2; i < len(out); i++ {
		if diff := int(out[i].I) - amplitude; diff > 5 || diff < -5 {
			t.Fatalf("sample %d: I = %d, want close to %d", i, out[i].I, amplitude)
		}
	}
}

func TestLog2Factor(t *testing.T) {
	c, err := NewDecimator(3, Center)
	if err != nil {
		t.Fatalf("NewDecimator: %v", err)
	}
	if got := c.Log2Factor(); got != 3 {
		t.Errorf("got %d, want 3", got)
	}
}
