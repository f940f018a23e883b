/*
NAME
  block_test.go

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
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	var b Block
	b.FrameIndex = 0xabcd
	b.BlockIndex = 42
	for i := range b.Body {
		b.Body[i] = byte(i)
	}

	buf := b.Marshal(nil)
	if len(buf) != Size {
		t.Fatalf("got marshalled length %d, want %d", len(buf), Size)
	}

	var got Block
	if err := got.Unmarshal(buf); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff(b, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalReusesCapacity(t *testing.T) {
	var b Block
	b.FrameIndex = 1
	buf := make([]byte, 0, Size)
	out := b.Marshal(buf)
	if len(out) != Size {
		t.Fatalf("got length %d, want %d", len(out), Size)
	}
}

func TestUnmarshalWrongSize(t *testing.T) {
	var b Block
	if err := b.Unmarshal(make([]byte, Size-1)); err != ErrWrongSize {
		t.Errorf("got %v, want ErrWrongSize", err)
	}
	if err := b.Unmarshal(make([]byte, Size+1)); err != ErrWrongSize {
		t.Errorf("got %v, want ErrWrongSize", err)
	}
}

func TestFrameIndexWrapsAtUint16Overflow(t *testing.T) {
	idx := uint16(65535)
	idx++
	if idx != 0 {
		t.Fatalf("uint16 did not wrap as expected: %d", idx)
	}
}
