/*
NAME
  unpacker.go

DESCRIPTION
  unpacker.go implements the Tx-side frame unpacker: a bounded window
  of in-flight frames keyed by frame index, FEC recovery once a frame
  holds at least 128 of its 128+R blocks, and ordered delivery (or
  silence padding on loss) to the DSP/device pipeline.

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

	"github.com/ausocean/sdrd/iq"
)

// Decoder is the subset of fec.Codec that the unpacker needs.
type Decoder interface {
	Decode(present map[int][]byte) ([][]byte, error)
	K() int
	M() int
}

// DefaultWindow is the reassembly window size W: the oldest tracked
// frame is forcibly evicted once the newest tracked frame index is more
// than W/2 ahead of it.
const DefaultWindow = 8

// Result is one decoded (or lost) frame, in frame-index order.
type Result struct {
	FrameIndex uint16
	Meta       Meta
	Samples    iq.Vector // nil when Lost.
	Lost       bool
	Err        error // set when Lost, classifying why.
}

type pendingFrame struct {
	present map[int][]byte
}

// Unpacker reassembles frames from arriving blocks, tolerating both
// block loss within a frame (via FEC) and frame reordering across the
// network, within a bounded window.
type Unpacker struct {
	codec Decoder

	bytesPerSample uint8 // used to size silence padding for lost frames.

	window int
	order  []uint16 // tracked frame indices, oldest first.
	frames map[uint16]*pendingFrame
	inited bool

	// lastDone is the index of the most recently finalized frame, valid
	// once haveDone is set.
	lastDone uint16
	haveDone bool
}

// NewUnpacker returns an Unpacker using codec for FEC recovery.
// bytesPerSample sizes the silence padding emitted for lost frames and
// must match the currently configured stream sample width.
func NewUnpacker(codec Decoder, bytesPerSample uint8) (*Unpacker, error) {
	if bytesPerSample != 1 && bytesPerSample != 2 {
		return nil, fmt.Errorf("frame: bytesPerSample must be 1 or 2, got %d", bytesPerSample)
	}
	return &Unpacker{
		codec:          codec,
		bytesPerSample: bytesPerSample,
		window:         DefaultWindow,
		frames:         make(map[uint16]*pendingFrame),
	}, nil
}

// SetBytesPerSample updates the silence-padding width for subsequently
// evicted frames. Called by the controller at a reconfiguration frame
// boundary, mirroring Packer.Configure on the Rx side.
func (u *Unpacker) SetBytesPerSample(b uint8) error {
	if b != 1 && b != 2 {
		return fmt.Errorf("frame: bytesPerSample must be 1 or 2, got %d", b)
	}
	u.bytesPerSample = b
	return nil
}

// SetDecoder swaps the FEC decoder used for subsequently finalized
// frames, e.g. when fecblk is reconfigured live.
func (u *Unpacker) SetDecoder(codec Decoder) {
	u.codec = codec
}

// forwardDistance returns the modular distance, in [0,65535], by which
// newer follows older on the 16-bit frame index wheel. newer is
// "after" older iff the result is in [1,32768).
func forwardDistance(newer, older uint16) int {
	d := int(newer) - int(older)
	if d < 0 {
		d += 1 << 16
	}
	return d
}

// Feed ingests one arriving block and returns any frames that are now
// finalized (decoded or declared lost), in frame-index order. Most
// calls return nil; a frame only finalizes once it is FEC-recoverable
// or evicted by window pressure.
func (u *Unpacker) Feed(b Block) ([]Result, error) {
	if u.haveDone {
		// A late block of a frame already finalized (or of an older one)
		// is ignored rather than reopening that frame.
		if d := forwardDistance(b.FrameIndex, u.lastDone); d == 0 || d >= 1<<15 {
			return nil, nil
		}
	}
	if !u.inited {
		u.order = append(u.order, b.FrameIndex)
		u.frames[b.FrameIndex] = &pendingFrame{present: make(map[int][]byte)}
		u.inited = true
	} else if _, ok := u.frames[b.FrameIndex]; !ok {
		u.order = append(u.order, b.FrameIndex)
		u.frames[b.FrameIndex] = &pendingFrame{present: make(map[int][]byte)}
	}

	pf := u.frames[b.FrameIndex]
	if _, dup := pf.present[int(b.BlockIndex)]; !dup {
		body := make([]byte, BodySize)
		copy(body, b.Body[:])
		pf.present[int(b.BlockIndex)] = body
	}

	var results []Result

	// A frame at the head of the window that becomes recoverable
	// finalizes immediately, preserving index order since nothing
	// older remains ahead of it.
	for len(u.order) > 0 {
		head := u.order[0]
		hf := u.frames[head]
		if len(hf.present) < DataBlocks {
			break
		}
		results = append(results, u.finalize(head, hf))
		u.order = u.order[1:]
		delete(u.frames, head)
	}

	// Window eviction: if the newest tracked frame has drifted more
	// than half the window ahead of the oldest, force the oldest out,
	// recoverable or not.
	for len(u.order) > 1 {
		oldest := u.order[0]
		newest := u.order[len(u.order)-1]
		if forwardDistance(newest, oldest) <= u.window/2 {
			break
		}
		hf := u.frames[oldest]
		results = append(results, u.finalize(oldest, hf))
		u.order = u.order[1:]
		delete(u.frames, oldest)
	}

	return results, nil
}

func (u *Unpacker) finalize(index uint16, pf *pendingFrame) Result {
	u.lastDone, u.haveDone = index, true
	data, err := u.codec.Decode(pf.present)
	if err != nil {
		return u.lost(index, err)
	}
	meta, err := ParseMeta([BodySize]byte(data[0][:BodySize]))
	if err != nil {
		return u.lost(index, err)
	}
	samplesPerBlock := SamplesPerBlock(meta.BytesPerSample)
	samples := make(iq.Vector, 0, SampleBlocks*samplesPerBlock)
	for i := 1; i < DataBlocks; i++ {
		var v iq.Vector
		if meta.BytesPerSample == 2 {
			v = iq.Decode16(data[i][:BodySize])
		} else {
			v = iq.Decode8(data[i][:BodySize])
		}
		samples = append(samples, v...)
	}
	return Result{FrameIndex: index, Meta: meta, Samples: samples}
}

func (u *Unpacker) lost(index uint16, err error) Result {
	samplesPerBlock := SamplesPerBlock(u.bytesPerSample)
	return Result{
		FrameIndex: index,
		Samples:    make(iq.Vector, SampleBlocks*samplesPerBlock),
		Lost:       true,
		Err:        err,
	}
}

// Pending reports how many frames are currently tracked in the window.
func (u *Unpacker) Pending() int { return len(u.order) }
