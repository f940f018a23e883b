/*
NAME
  sample.go

DESCRIPTION
  sample.go defines the IQ sample and sample vector types shared by the
  buffer, dsp and frame packages.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package iq defines the complex baseband sample type used throughout
// the streaming daemon, and the little-endian byte encodings used on
// the wire for 8-bit and 16-bit sample widths.
package iq

import "encoding/binary"

// Sample is a single complex baseband (in-phase, quadrature) sample.
// Values are always stored widened to int16, even when the wire width
// is 8 bits; per the data model, width is promoted to 16 bits after
// any decimation and never demoted for that stream.
type Sample struct {
	I, Q int16
}

// Vector is an ordered sequence of IQ samples in temporal sample order.
type Vector []Sample

// Encode16 appends the little-endian 16-bit I then Q encoding of v to
// dst and returns the extended slice.
func Encode16(dst []byte, v Vector) []byte {
	for _, s := range v {
		var buf [4]byte
		binary.LittleEndian.PutUint16(buf[0:2], uint16(s.I))
		binary.LittleEndian.PutUint16(buf[2:4], uint16(s.Q))
		dst = append(dst, buf[:]...)
	}
	return dst
}

// Decode16 decodes a little-endian 16-bit I/Q byte slice into a Vector.
// len(b) must be a multiple of 4.
func Decode16(b []byte) Vector {
	v := make(Vector, len(b)/4)
	for i := range v {
		off := i * 4
		v[i] = Sample{
			I: int16(binary.LittleEndian.Uint16(b[off : off+2])),
			Q: int16(binary.LittleEndian.Uint16(b[off+2 : off+4])),
		}
	}
	return v
}

// Encode8 appends the 8-bit I then Q encoding of v to dst.
func Encode8(dst []byte, v Vector) []byte {
	for _, s := range v {
		dst = append(dst, byte(int8(s.I)), byte(int8(s.Q)))
	}
	return dst
}

// Decode8 decodes an 8-bit I/Q byte slice into a Vector. len(b) must be
// a multiple of 2.
func Decode8(b []byte) Vector {
	v := make(Vector, len(b)/2)
	for i := range v {
		v[i] = Sample{
			I: int16(int8(b[i*2])),
			Q: int16(int8(b[i*2+1])),
		}
	}
	return v
}

// Promote widens an 8-bit-native sample vector to 16 bits in place,
// scaling so full-scale 8-bit maps to full-scale 16-bit. Called before
// the first halfband stage whenever decimation > 0 but the upstream
// device provides only 8-bit samples.
func Promote(v Vector) {
	for i, s := range v {
		v[i] = Sample{I: s.I << 8, Q: s.Q << 8}
	}
}
