/*
NAME
  testdevice_test.go

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package testdevice

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/sdrd/buffer"
	"github.com/ausocean/sdrd/iq"
)

func TestConfigureRejectsEveryKey(t *testing.T) {
	log := (*logging.TestLogger)(t)
	d := New(log, 48000)

	out := d.Configure(map[string]string{"gain": "30", "bwfilter": "1"})
	for k, v := range out {
		if v != "rejected:unsupported" {
			t.Errorf("key %q: got %q, want rejected:unsupported", k, v)
		}
	}
	if len(out) != 2 {
		t.Errorf("got %d outcomes, want 2", len(out))
	}
}

func TestSetFrequencyRoundTrips(t *testing.T) {
	log := (*logging.TestLogger)(t)
	d := New(log, 48000)
	d.SetFrequency(14300000)
	if d.Frequency() != 14300000 {
		t.Errorf("got %d, want 14300000", d.Frequency())
	}
}

func TestSampleSizeReportsFixedWidth(t *testing.T) {
	log := (*logging.TestLogger)(t)
	d := New(log, 48000)
	bps, bits := d.SampleSize()
	if bps != 2 || bits != 16 {
		t.Errorf("got (%d, %d), want (2, 16)", bps, bits)
	}
}

func TestStartProducerStopsOnFlag(t *testing.T) {
	log := (*logging.TestLogger)(t)
	d := New(log, 48000)
	buf := buffer.New()

	var stop atomic.Bool
	done := make(chan error, 1)
	go func() { done <- d.StartProducer(buf, &stop) }()

	v := buf.Pull()
	if len(v) == 0 {
		t.Fatal("expected a non-empty sample chunk")
	}

	stop.Store(true)
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("StartProducer returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("StartProducer did not return after stop was set")
	}
}

func TestStartConsumerAccumulatesReceived(t *testing.T) {
	log := (*logging.TestLogger)(t)
	d := New(log, 48000)
	buf := buffer.New()

	var stop atomic.Bool
	done := make(chan error, 1)
	go func() { done <- d.StartConsumer(buf, &stop) }()

	want := iq.Vector{{I: 1, Q: 2}, {I: 3, Q: 4}}
	buf.Push(want)
	buf.PushEnd()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("StartConsumer returned %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("StartConsumer did not return after end-of-stream")
	}

	if len(d.Received) != len(want) {
		t.Fatalf("got %d received samples, want %d", len(d.Received), len(want))
	}
	for i := range want {
		if d.Received[i] != want[i] {
			t.Errorf("sample %d: got %+v, want %+v", i, d.Received[i], want[i])
		}
	}
}
