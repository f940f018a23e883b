/*
NAME
  halfband.go

DESCRIPTION
  halfband.go implements a single halfband FIR stage: a classical
  two-path decimator/interpolator where one polyphase arm is an
  identity delay and the other is a symmetric low-pass kernel. Every
  other coefficient of a halfband filter is exactly zero (except the
  center tap), which is what makes the two-path decomposition exact;
  this implementation keeps the zero taps explicit rather than
  special-casing the decomposition, since the arithmetic is identical
  either way.

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
	"math"

	"github.com/ausocean/sdrd/iq"
)

// halfbandTaps is a 15-tap windowed-sinc halfband lowpass, symmetric
// about the center tap, with every other coefficient zero except the
// center. The taps sum to 1, giving unity gain at DC. Stopband
// attenuation is modest: about 30dB above 0.4 of the stage's input
// sample rate and about 41dB above 0.45 of it, well short of the
// dynamic range of 16-bit I/Q.
var halfbandTaps = []float64{
	-0.0054, 0, 0.0287, 0, -0.0977, 0, 0.3244, 0.5, 0.3244, 0, -0.0977, 0, 0.0287, 0, -0.0054,
}

// stage is one halfband FIR stage with persistent delay-line state,
// usable for either decimation-by-2 or interpolation-by-2.
type stage struct {
	delay  []complex128 // oldest at index 0, newest at the end.
	parity int          // decimation phase, carried across calls.
}

func newStage() *stage {
	return &stage{delay: make([]complex128, len(halfbandTaps))}
}

// reset clears the delay line and decimation phase, as required when
// decim/interp/fcpos changes mid-stream.
func (s *stage) reset() {
	for i := range s.delay {
		s.delay[i] = 0
	}
	s.parity = 0
}

// push shifts x into the delay line and returns the filtered output at
// the current position.
func (s *stage) push(x complex128) complex128 {
	copy(s.delay, s.delay[1:])
	s.delay[len(s.delay)-1] = x
	n := len(halfbandTaps)
	var acc complex128
	for k := 0; k < n; k++ {
		if halfbandTaps[k] == 0 {
			continue
		}
		acc += complex(halfbandTaps[k], 0) * s.delay[n-1-k]
	}
	return acc
}

// decimate filters in and returns every other output sample, carrying
// phase across calls so that chunk boundaries never shift the
// decimation parity.
func (s *stage) decimate(in []complex128) []complex128 {
	out := make([]complex128, 0, len(in)/2+1)
	for _, x := range in {
		y := s.push(x)
		if s.parity == 1 {
			out = append(out, y)
		}
		s.parity ^= 1
	}
	return out
}

// interpolate zero-stuffs in by 2 and filters, scaling by 2 to
// compensate for the zero-stuffing gain loss.
func (s *stage) interpolate(in []complex128) []complex128 {
	out := make([]complex128, 0, len(in)*2)
	for _, x := range in {
		out = append(out, s.push(x)*2)
		out = append(out, s.push(0)*2)
	}
	return out
}

func toComplex(v iq.Vector) []complex128 {
	out := make([]complex128, len(v))
	for i, s := range v {
		out[i] = complex(float64(s.I), float64(s.Q))
	}
	return out
}

func fromComplex(v []complex128) iq.Vector {
	out := make(iq.Vector, len(v))
	for i, c := range v {
		out[i] = iq.Sample{I: clampInt16(real(c)), Q: clampInt16(imag(c))}
	}
	return out
}

func clampInt16(f float64) int16 {
	f = math.Round(f)
	switch {
	case f > math.MaxInt16:
		return math.MaxInt16
	case f < math.MinInt16:
		return math.MinInt16
	default:
		return int16(f)
	}
}
