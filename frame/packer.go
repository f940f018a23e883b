/*
NAME
  packer.go

DESCRIPTION
  packer.go implements the Rx-side frame packer: it accumulates
  decimated IQ samples and, once a full frame's worth has arrived,
  builds the meta block, the 127 sample blocks, and asks the FEC codec
  for the parity blocks.

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
	"fmt"
	"sync"
	"time"

	"github.com/ausocean/sdrd/iq"
)

// Encoder is the subset of fec.Codec that the packer needs. Kept as an
// interface here so that this package doesn't import fec (which would
// be a needless dependency for callers who only want to parse/build
// blocks without FEC).
type Encoder interface {
	Encode(data [][]byte) ([][]byte, error)
	M() int
}

// Packer accumulates decimated IQ sample vectors and emits whole
// frames once 127*samplesPerBlock samples have arrived. Per the data
// model there is no emission of a partial frame: the accumulator only
// flushes once full.
type Packer struct {
	mu sync.Mutex

	codec Encoder
	now   func() time.Time

	bytesPerSample uint8
	effectiveBits  uint8
	centerFreqKHz  uint32
	sampleRate     uint32

	samplesPerBlock int
	acc             iq.Vector
	frameIndex      uint16
}

// NewPacker returns a Packer using codec for FEC parity generation.
// bytesPerSample must be 1 or 2.
func NewPacker(codec Encoder, bytesPerSample, effectiveBits uint8) (*Packer, error) {
	if bytesPerSample != 1 && bytesPerSample != 2 {
		return nil, fmt.Errorf("frame: bytesPerSample must be 1 or 2, got %d", bytesPerSample)
	}
	return &Packer{
		codec:           codec,
		now:             time.Now,
		bytesPerSample:  bytesPerSample,
		effectiveBits:   effectiveBits,
		samplesPerBlock: SamplesPerBlock(bytesPerSample),
	}, nil
}

// SetClock overrides the packer's source of wall-clock time; intended
// for deterministic tests.
func (p *Packer) SetClock(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

// SetEncoder swaps the FEC encoder used for subsequently built frames,
// e.g. when fecblk is reconfigured live.
func (p *Packer) SetEncoder(codec Encoder) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.codec = codec
}

// Configure updates the stream parameters carried in the next frame's
// meta block. This is called by the controller under its live
// reconfiguration critical section, at a frame boundary, so that no
// in-flight accumulator is split across two configurations.
func (p *Packer) Configure(centerFreqKHz, sampleRate uint32, bytesPerSample, effectiveBits uint8) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if bytesPerSample != 1 && bytesPerSample != 2 {
		return fmt.Errorf("frame: bytesPerSample must be 1 or 2, got %d", bytesPerSample)
	}
	if bytesPerSample != p.bytesPerSample {
		// Changing sample width mid-accumulation would misalign the
		// in-flight buffer; discard it, matching the DSP reset-on-
		// reconfigure behaviour in §4.2.
		p.acc = p.acc[:0]
	}
	p.centerFreqKHz = centerFreqKHz
	p.sampleRate = sampleRate
	p.bytesPerSample = bytesPerSample
	p.effectiveBits = effectiveBits
	p.samplesPerBlock = SamplesPerBlock(bytesPerSample)
	return nil
}

// Push appends v to the accumulator. If a full frame's worth of
// samples is now available, Push builds and returns the frame's
// blocks in index order (0..127+R); otherwise it returns nil.
func (p *Packer) Push(v iq.Vector) ([]Block, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.acc = append(p.acc, v...)
	need := SampleBlocks * p.samplesPerBlock
	if len(p.acc) < need {
		return nil, nil
	}
	frameSamples := p.acc[:need]
	p.acc = append(iq.Vector(nil), p.acc[need:]...)

	meta := NewMeta(p.centerFreqKHz, p.sampleRate, p.bytesPerSample, p.effectiveBits, uint8(p.codec.M()), p.now())
	metaBody := meta.Build()

	data := make([][]byte, DataBlocks)
	data[0] = append([]byte(nil), metaBody[:]...)
	for i := 1; i < DataBlocks; i++ {
		start := (i - 1) * p.samplesPerBlock
		end := start + p.samplesPerBlock
		var body [BodySize]byte
		var encoded []byte
		if p.bytesPerSample == 2 {
			encoded = iq.Encode16(nil, frameSamples[start:end])
		} else {
			encoded = iq.Encode8(nil, frameSamples[start:end])
		}
		copy(body[:], encoded)
		data[i] = append([]byte(nil), body[:]...)
	}

	parity, err := p.codec.Encode(data)
	if err != nil {
		return nil, fmt.Errorf("frame: fec encode: %w", err)
	}

	blocks := make([]Block, 0, DataBlocks+len(parity))
	for i, b := range data {
		var blk Block
		blk.FrameIndex = p.frameIndex
		blk.BlockIndex = uint8(i)
		copy(blk.Body[:], b)
		blocks = append(blocks, blk)
	}
	for i, b := range parity {
		var blk Block
		blk.FrameIndex = p.frameIndex
		blk.BlockIndex = uint8(DataBlocks + i)
		copy(blk.Body[:], b)
		blocks = append(blocks, blk)
	}

	p.frameIndex++ // wraps at 65536 via uint16 overflow.
	return blocks, nil
}
