/*
NAME
  meta.go

DESCRIPTION
  meta.go builds and parses the meta block (block index 0) body: the
  24-byte self-describing header carried at the start of every frame.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package frame

import (
	"encoding/binary"
	"hash/crc32"
	"time"

	"github.com/pkg/errors"
)

// MetaSize is the size in bytes of the meaningful prefix of the meta
// block body; the remainder of the 508-byte body is reserved and
// zero-filled.
const MetaSize = 24

// ErrMetaCRC is returned when a meta block's CRC32 does not match its
// first 20 bytes.
var ErrMetaCRC = errors.New("frame: meta block CRC32 mismatch")

// Meta holds the fields carried by the meta block.
type Meta struct {
	CenterFreqKHz  uint32
	SampleRate     uint32
	BytesPerSample uint8
	EffectiveBits  uint8
	DataBlocks     uint8 // always DataBlocks (128); the FEC-protected data-block count.
	FECBlocks      uint8 // R, 0..127.
	Seconds        uint32 // Unix epoch seconds at frame origination.
	Micros         uint32 // microseconds within that second.
}

// Build writes m into a 508-byte block body, computing and storing the
// CRC32 over the first 20 bytes at offset 20. The remaining 484 bytes
// are zero-filled.
func (m Meta) Build() [BodySize]byte {
	var body [BodySize]byte
	binary.LittleEndian.PutUint32(body[0:4], m.CenterFreqKHz)
	binary.LittleEndian.PutUint32(body[4:8], m.SampleRate)
	body[8] = m.BytesPerSample
	body[9] = m.EffectiveBits
	body[10] = m.DataBlocks
	body[11] = m.FECBlocks
	binary.LittleEndian.PutUint32(body[12:16], m.Seconds)
	binary.LittleEndian.PutUint32(body[16:20], m.Micros)
	binary.LittleEndian.PutUint32(body[20:24], crc32.ChecksumIEEE(body[:20]))
	return body
}

// NewMeta returns a Meta stamped with the current wall-clock time.
func NewMeta(centerFreqKHz, sampleRate uint32, bytesPerSample, effectiveBits, fecBlocks uint8, now time.Time) Meta {
	return Meta{
		CenterFreqKHz:  centerFreqKHz,
		SampleRate:     sampleRate,
		BytesPerSample: bytesPerSample,
		EffectiveBits:  effectiveBits,
		DataBlocks:     DataBlocks,
		FECBlocks:      fecBlocks,
		Seconds:        uint32(now.Unix()),
		Micros:         uint32(now.Nanosecond() / 1000),
	}
}

// ParseMeta validates the CRC32 over the first 20 bytes of body and, on
// success, decodes the meta fields.
func ParseMeta(body [BodySize]byte) (Meta, error) {
	want := binary.LittleEndian.Uint32(body[20:24])
	got := crc32.ChecksumIEEE(body[:20])
	if want != got {
		return Meta{}, errors.Wrapf(ErrMetaCRC, "want %#x got %#x", want, got)
	}
	return Meta{
		CenterFreqKHz:  binary.LittleEndian.Uint32(body[0:4]),
		SampleRate:     binary.LittleEndian.Uint32(body[4:8]),
		BytesPerSample: body[8],
		EffectiveBits:  body[9],
		DataBlocks:     body[10],
		FECBlocks:      body[11],
		Seconds:        binary.LittleEndian.Uint32(body[12:16]),
		Micros:         binary.LittleEndian.Uint32(body[16:20]),
	}, nil
}

// Time returns the wall-clock origination time of the frame this meta
// describes.
func (m Meta) Time() time.Time {
	return time.Unix(int64(m.Seconds), int64(m.Micros)*1000)
}

// SamplesPerBlock returns the number of IQ samples carried by a single
// sample block (1..127) given bytesPerSample.
func SamplesPerBlock(bytesPerSample uint8) int {
	return BodySize / (2 * int(bytesPerSample))
}
