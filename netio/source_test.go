/*
NAME
  source_test.go

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package netio

import (
	"net"
	"testing"
	"time"

	"github.com/ausocean/utils/logging"
)

func TestSourceRecvReturnsWellFormedDatagram(t *testing.T) {
	log := (*logging.TestLogger)(t)
	src, err := NewSource("127.0.0.1:0", log, 512)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	defer src.Close()

	conn, err := net.Dial("udp", src.conn.LocalAddr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	want := make([]byte, 512)
	for i := range want {
		want[i] = byte(i)
	}
	if _, err := conn.Write(want); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := src.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("got length %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func TestSourceDiscardsMalformedDatagrams(t *testing.T) {
	log := (*logging.TestLogger)(t)
	src, err := NewSource("127.0.0.1:0", log, 512)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}
	defer src.Close()

	conn, err := net.Dial("udp", src.conn.LocalAddr().String())
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	defer conn.Close()

	if _, err := conn.Write(make([]byte, 10)); err != nil {
		t.Fatalf("Write malformed: %v", err)
	}
	if _, err := conn.Write(make([]byte, 512)); err != nil {
		t.Fatalf("Write well-formed: %v", err)
	}

	got, err := src.Recv()
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	if len(got) != 512 {
		t.Fatalf("got length %d, want 512 (malformed datagram should have been skipped)", len(got))
	}
	if src.Malformed() != 1 {
		t.Errorf("got Malformed() = %d, want 1", src.Malformed())
	}
}

func TestSourceCloseUnblocksRecv(t *testing.T) {
	log := (*logging.TestLogger)(t)
	src, err := NewSource("127.0.0.1:0", log, 512)
	if err != nil {
		t.Fatalf("NewSource: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := src.Recv()
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	src.Close()

	select {
	case err := <-done:
		if err == nil {
			t.Error("expected an error from Recv after Close")
		}
	case <-time.After(time.Second):
		t.Fatal("Recv did not unblock after Close")
	}
}
