/*
NAME
  mixer.go

DESCRIPTION
  mixer.go implements the exact Fs/4 mixer used to translate the tuned
  RF frequency before the first halfband decimation stage (fcpos infra
  or supra). The mixer multiplies by e^(-+jπn/2), which cycles through
  {1, -+j, -1, +-j} and is therefore implemented as a 4-phase lookup
  rather than a true multiplier, so it is branchless and bit-exact.

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

import "github.com/ausocean/sdrd/iq"

// fs4Mixer applies the exact Fs/4 frequency translation, cycling phase
// 0..3 with the sample index modulo 4. It carries its phase across
// calls so that chunk boundaries don't disturb the translation.
type fs4Mixer struct {
	pos   FCPos
	phase int
}

// newFS4Mixer returns a mixer for the given fcpos. Center performs no
// translation.
func newFS4Mixer(pos FCPos) *fs4Mixer {
	return &fs4Mixer{pos: pos}
}

// reset returns the mixer to phase 0, as required when fcpos or decim
// changes mid-stream.
func (m *fs4Mixer) reset() { m.phase = 0 }

// process translates v in place.
func (m *fs4Mixer) process(v iq.Vector) {
	switch m.pos {
	case Center:
		return
	case Infra:
		for i, s := range v {
			v[i] = infraPhase(s, m.phase)
			m.phase = (m.phase + 1) & 3
		}
	case Supra:
		for i, s := range v {
			v[i] = supraPhase(s, m.phase)
			m.phase = (m.phase + 1) & 3
		}
	}
}

// infraPhase multiplies s by e^(-jπn/2) for n%4 == phase: the sequence
// {(I,Q), (Q,-I), (-I,-Q), (-Q,I)}.
func infraPhase(s iq.Sample, phase int) iq.Sample {
	switch phase {
	case 0:
		return s
	case 1:
		return iq.Sample{I: s.Q, Q: -s.I}
	case 2:
		return iq.Sample{I: -s.I, Q: -s.Q}
	default: // 3
		return iq.Sample{I: -s.Q, Q: s.I}
	}
}

// supraPhase multiplies s by e^(+jπn/2) for n%4 == phase: the sequence
// {(I,Q), (-Q,I), (-I,-Q), (Q,-I)}.
func supraPhase(s iq.Sample, phase int) iq.Sample {
	switch phase {
	case 0:
		return s
	case 1:
		return iq.Sample{I: -s.Q, Q: s.I}
	case 2:
		return iq.Sample{I: -s.I, Q: -s.Q}
	default: // 3
		return iq.Sample{I: s.Q, Q: -s.I}
	}
}
