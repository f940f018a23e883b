/*
NAME
  mixer_test.go

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

func TestFS4MixerCenterIsNoOp(t *testing.T) {
	m := newFS4Mixer(Center)
	v := iq.Vector{{I: 1, Q: 2}, {I: 3, Q: 4}, {I: 5, Q: 6}, {I: 7, Q: 8}}
	want := append(iq.Vector{}, v...)
	m.process(v)
	for i := range v {
		if v[i] != want[i] {
			t.Errorf("sample %d: got %+v, want %+v unchanged", i, v[i], want[i])
		}
	}
}

func TestFS4MixerInfraCyclesFourPhases(t *testing.T) {
	m := newFS4Mixer(Infra)
	s := iq.Sample{I: 100, Q: 50}
	v := iq.Vector{s, s, s, s, s}
	m.process(v)
	want := iq.Vector{
		{I: 100, Q: 50},
		{I: 50, Q: -100},
		{I: -100, Q: -50},
		{I: -50, Q: 100},
		{I: 100, Q: 50}, // phase wraps back to 0 on the 5th sample.
	}
	for i := range want {
		if v[i] != want[i] {
			t.Errorf("sample %d: got %+v, want %+v", i, v[i], want[i])
		}
	}
}

func TestFS4MixerSupraCyclesFourPhases(t *testing.T) {
	m := newFS4Mixer(Supra)
	s := iq.Sample{I: 100, Q: 50}
	v := iq.Vector{s, s, s, s}
	m.process(v)
	want := iq.Vector{
		{I: 100, Q: 50},
		{I: -50, Q: 100},
		{I: -100, Q: -50},
		{I: 50, Q: -100},
	}
	for i := range want {
		if v[i] != want[i] {
			t.Errorf("sample %d: got %+v, want %+v", i, v[i], want[i])
		}
	}
}

func TestFS4MixerPhasePersistsAcrossCalls(t *testing.T) {
	m := newFS4Mixer(Infra)
	s := iq.Sample{I: 100, Q: 50}

	first := iq.Vector{s, s}
	m.process(first)
	second := iq.Vector{s}
	m.process(second)

	// second's single sample should land at phase 2 (having consumed
	// phases 0 and 1 in the first call).
	want := infraPhase(s, 2)
	if second[0] != want {
		t.Errorf("got %+v, want %+v", second[0], want)
	}
}

func TestFS4MixerResetReturnsToPhaseZero(t *testing.T) {
	m := newFS4Mixer(Infra)
	s := iq.Sample{I: 100, Q: 50}
	m.process(iq.Vector{s, s, s})
	m.reset()

	v := iq.Vector{s}
	m.process(v)
	if v[0] != s {
		t.Errorf("got %+v after reset, want unchanged phase-0 sample %+v", v[0], s)
	}
}
