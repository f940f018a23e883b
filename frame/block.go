/*
NAME
  block.go

DESCRIPTION
  block.go defines the wire layout of a block: the fixed 512-byte unit
  of loss and of erasure coding carried in a single UDP datagram.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package frame implements the block/frame wire format described by the
// streaming daemon: a fixed-geometry frame of 128 data blocks plus 0-127
// FEC parity blocks, each block a 512-byte datagram payload.
package frame

import (
	"encoding/binary"
	"errors"
)

// Fixed frame geometry.
const (
	// Size is the total size in bytes of a block, header included.
	Size = 512

	// HeaderSize is the size in bytes of a block's header.
	HeaderSize = 4

	// BodySize is the size in bytes of a block's body, following the header.
	BodySize = Size - HeaderSize

	// DataBlocks is the fixed number of data blocks per frame, block 0
	// (meta) plus blocks 1..127 (samples).
	DataBlocks = 128

	// MaxParityBlocks is the maximum number of FEC parity blocks that may
	// accompany a frame; DataBlocks+MaxParityBlocks must fit an 8-bit
	// block index.
	MaxParityBlocks = 127

	// MetaBlockIndex is the block index that always carries the meta body.
	MetaBlockIndex = 0

	// SampleBlocks is the number of blocks per frame carrying IQ samples
	// (blocks 1..127).
	SampleBlocks = DataBlocks - 1
)

var (
	// ErrWrongSize is returned when a datagram is not exactly Size bytes.
	ErrWrongSize = errors.New("frame: block is not 512 bytes")
)

// Block is a single 512-byte datagram payload: a 4-byte header followed
// by a 508-byte body.
type Block struct {
	FrameIndex uint16 // wraps at 65536.
	BlockIndex uint8  // range 0..(127+R).
	Body       [BodySize]byte
}

// Marshal encodes b into a 512-byte slice suitable for sending on the
// wire. If buf is nil or too small, a new slice is allocated.
func (b *Block) Marshal(buf []byte) []byte {
	if cap(buf) < Size {
		buf = make([]byte, Size)
	}
	buf = buf[:Size]
	binary.LittleEndian.PutUint16(buf[0:2], b.FrameIndex)
	buf[2] = b.BlockIndex
	buf[3] = 0 // reserved, zero on send.
	copy(buf[HeaderSize:], b.Body[:])
	return buf
}

// Unmarshal decodes a 512-byte datagram into b. The reserved byte is
// ignored, per the wire contract: it is accepted if nonzero but
// otherwise parseable.
func (b *Block) Unmarshal(buf []byte) error {
	if len(buf) != Size {
		return ErrWrongSize
	}
	b.FrameIndex = binary.LittleEndian.Uint16(buf[0:2])
	b.BlockIndex = buf[2]
	copy(b.Body[:], buf[HeaderSize:])
	return nil
}
