/*
NAME
  sink_test.go

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

func TestSinkWriteDeliversDatagram(t *testing.T) {
	log := (*logging.TestLogger)(t)

	lc, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	defer lc.Close()

	sink, err := NewSink(lc.LocalAddr().String(), log, 0)
	if err != nil {
		t.Fatalf("NewSink: %v", err)
	}
	defer sink.Close()

	want := make([]byte, 512)
	for i := range want {
		want[i] = byte(i)
	}
	if _, err := sink.Write(want); err != nil {
		t.Fatalf("Write: %v", err)
	}

	lc.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1024)
	n, _, err := lc.ReadFromUDP(buf)
	if err != nil {
		t.Fatalf("ReadFromUDP: %v", err)
	}
	if n != len(want) {
		t.Fatalf("got length %d, want %d", n, len(want))
	}
	for i := range want {
		if buf[i] != want[i] {
			t.Fatalf("byte %d: got %d, want %d", i, buf[i], want[i])
		}
	}
}

func TestSinkEnforcesPacingFloor(t *testing.T) {
	log := (*logging.TestLogger)(t)

	lc, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	defer lc.Close()

	const delay = 50 * time.Millisecond
	sink, err := NewSink(lc.LocalAddr().String(), log, delay)
	if err != nil {
		t.Fatalf("NewSink: %v", err)
	}
	defer sink.Close()

	block := make([]byte, 512)
	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := sink.Write(block); err != nil {
			t.Fatalf("Write: %v", err)
		}
	}

	lc.SetReadDeadline(time.Now().Add(3 * time.Second))
	buf := make([]byte, 1024)
	for i := 0; i < 3; i++ {
		if _, _, err := lc.ReadFromUDP(buf); err != nil {
			t.Fatalf("ReadFromUDP %d: %v", i, err)
		}
	}
	elapsed := time.Since(start)
	// Three datagrams paced at `delay` apart should take at least 2*delay.
	if elapsed < 2*delay {
		t.Errorf("got elapsed %v, want at least %v (pacing not enforced)", elapsed, 2*delay)
	}
}

func TestSinkSetTxDelayTakesEffect(t *testing.T) {
	log := (*logging.TestLogger)(t)
	lc, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("ListenUDP: %v", err)
	}
	defer lc.Close()

	sink, err := NewSink(lc.LocalAddr().String(), log, time.Hour)
	if err != nil {
		t.Fatalf("NewSink: %v", err)
	}
	defer sink.Close()

	sink.SetTxDelay(0)

	block := make([]byte, 512)
	if _, err := sink.Write(block); err != nil {
		t.Fatalf("Write: %v", err)
	}

	lc.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1024)
	if _, _, err := lc.ReadFromUDP(buf); err != nil {
		t.Fatalf("ReadFromUDP after disabling pacing: %v", err)
	}
}
