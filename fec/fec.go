/*
NAME
  fec.go

DESCRIPTION
  fec.go implements the Cauchy-MDS block erasure code: a (k, k+m)
  systematic code over GF(2^8) protecting a fixed-size set of data
  blocks with m parity blocks.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package fec implements the Cauchy-MDS block erasure code used to
// protect a frame's data blocks against datagram loss. The heavy
// lifting — GF(2^8) arithmetic, Cauchy matrix construction, and
// Gaussian-elimination-based reconstruction — is delegated to
// github.com/klauspost/reedsolomon, which implements exactly this
// erasure code. This package knows nothing of the frame wire format;
// it operates purely on k data shards and m parity shards of equal
// length.
package fec

import (
	"github.com/klauspost/reedsolomon"
	"github.com/pkg/errors"
)

// ErrInsufficientBlocks is returned when fewer than k distinct block
// indices are available to decode a frame.
var ErrInsufficientBlocks = errors.New("fec: insufficient blocks to recover frame")

// Codec encodes and decodes k data shards against m parity shards.
type Codec struct {
	k, m int
	enc  reedsolomon.Encoder // nil when m == 0.
}

// New returns a Codec for k data shards and m parity shards. m must be
// in [0, 255-k] so that k+m fits an 8-bit block index.
func New(k, m int) (*Codec, error) {
	if k <= 0 {
		return nil, errors.Errorf("fec: data shard count %d must be positive", k)
	}
	if m < 0 || k+m > 255 {
		return nil, errors.Errorf("fec: parity shard count %d out of range [0,%d]", m, 255-k)
	}
	c := &Codec{k: k, m: m}
	if m == 0 {
		// Per spec, m=0 is a no-op code: no parity, any missing data
		// block makes the frame unrecoverable.
		return c, nil
	}
	enc, err := reedsolomon.New(k, m, reedsolomon.WithCauchyMatrix())
	if err != nil {
		return nil, errors.Wrap(err, "fec: constructing Cauchy-MDS codec")
	}
	c.enc = enc
	return c, nil
}

// K returns the configured data shard count.
func (c *Codec) K() int { return c.k }

// M returns the configured parity shard count.
func (c *Codec) M() int { return c.m }

// Encode takes the k data shards (in shard-index order 0..k-1, all the
// same length) and returns the m parity shards. If m == 0, it returns
// nil and does nothing, per the no-op contract.
func (c *Codec) Encode(data [][]byte) ([][]byte, error) {
	if c.m == 0 {
		return nil, nil
	}
	if len(data) != c.k {
		return nil, errors.Errorf("fec: expected %d data shards, got %d", c.k, len(data))
	}
	shardSize := len(data[0])
	shards := make([][]byte, c.k+c.m)
	copy(shards, data)
	for i := c.k; i < c.k+c.m; i++ {
		shards[i] = make([]byte, shardSize)
	}
	if err := c.enc.Encode(shards); err != nil {
		return nil, errors.Wrap(err, "fec: encode")
	}
	return shards[c.k:], nil
}

// Decode reconstructs the k data shards from a partial set of shards,
// identified by their original shard index (0..k+m-1, mixing data and
// parity). present maps shard index to shard bytes; missing indices
// are simply absent from the map.
//
// Decode requires at least k distinct present shards; otherwise it
// returns ErrInsufficientBlocks and the frame must be dropped.
func (c *Codec) Decode(present map[int][]byte) ([][]byte, error) {
	if len(present) < c.k {
		return nil, ErrInsufficientBlocks
	}
	if c.m == 0 {
		data := make([][]byte, c.k)
		for i := 0; i < c.k; i++ {
			b, ok := present[i]
			if !ok {
				return nil, ErrInsufficientBlocks
			}
			data[i] = b
		}
		return data, nil
	}
	shards := make([][]byte, c.k+c.m)
	for idx, body := range present {
		if idx < 0 || idx >= c.k+c.m {
			continue
		}
		shards[idx] = body
	}
	if err := c.enc.ReconstructData(shards); err != nil {
		return nil, errors.Wrap(ErrInsufficientBlocks, err.Error())
	}
	return shards[:c.k], nil
}
