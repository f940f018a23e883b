/*
NAME
  config_test.go

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ausocean/utils/logging"
)

func TestParseGrammarBareKeyDefaultsToOne(t *testing.T) {
	kv, err := ParseGrammar("agc,freq=14200")
	if err != nil {
		t.Fatalf("ParseGrammar: %v", err)
	}
	want := map[string]string{"agc": "1", "freq": "14200"}
	if diff := cmp.Diff(want, kv); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseGrammarEmptyStringIsEmptyMap(t *testing.T) {
	kv, err := ParseGrammar("")
	if err != nil {
		t.Fatalf("ParseGrammar: %v", err)
	}
	if len(kv) != 0 {
		t.Errorf("got %v, want empty map", kv)
	}
}

func TestParseGrammarFailsWholeStringOnEmptySegment(t *testing.T) {
	if _, err := ParseGrammar("freq=14200,,decim=2"); err == nil {
		t.Error("expected error for an empty segment")
	}
	if _, err := ParseGrammar("=14200"); err == nil {
		t.Error("expected error for an empty key")
	}
}

func TestApplyAppliesGroupsInDeviceDSPPackagingOrder(t *testing.T) {
	log := (*logging.TestLogger)(t)
	c := New(log)
	c.DeviceParams = make(map[string]string)

	outcomes, deviceParams, err := c.Apply("fecblk=10,decim=3,freq=7000000")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(deviceParams) != 0 {
		t.Errorf("got device params %v, want none", deviceParams)
	}
	if len(outcomes) != 3 {
		t.Fatalf("got %d outcomes, want 3", len(outcomes))
	}
	// freq (device) must be applied before decim (DSP), before fecblk
	// (packaging), regardless of input order.
	order := []string{outcomes[0].Key, outcomes[1].Key, outcomes[2].Key}
	want := []string{KeyFreq, KeyDecim, KeyFECBlk}
	if diff := cmp.Diff(want, order); diff != "" {
		t.Errorf("application order mismatch (-want +got):\n%s", diff)
	}
	if c.FreqHz != 7000000 || c.Decim != 3 || c.FECBlocks != 10 {
		t.Errorf("fields not applied: freq=%d decim=%d fecblk=%d", c.FreqHz, c.Decim, c.FECBlocks)
	}
}

func TestApplyRoutesDeviceSpecificKeys(t *testing.T) {
	log := (*logging.TestLogger)(t)
	c := New(log)

	outcomes, deviceParams, err := c.Apply("gain=30,freq=14200")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Key != KeyFreq {
		t.Fatalf("got outcomes %+v, want only freq applied here", outcomes)
	}
	if deviceParams["gain"] != "30" {
		t.Errorf("got device params %v, want gain=30", deviceParams)
	}
}

func TestApplyRejectsUnknownKey(t *testing.T) {
	log := (*logging.TestLogger)(t)
	c := New(log)

	outcomes, _, err := c.Apply("bogus=1")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Outcome != rejected("unknown") {
		t.Errorf("got %+v, want rejected:unknown", outcomes)
	}
}

func TestApplyFailsEntirelyOnMalformedGrammar(t *testing.T) {
	log := (*logging.TestLogger)(t)
	c := New(log)
	before := *c

	_, _, err := c.Apply("freq=14200,,decim=2")
	if err == nil {
		t.Fatal("expected an error for malformed grammar")
	}
	if c.FreqHz != before.FreqHz || c.Decim != before.Decim {
		t.Error("Config was mutated despite a parse failure")
	}
}

func TestEffectivePPMPrefersPositive(t *testing.T) {
	c := &Config{PPMPos: 5, PPMNeg: 3}
	if got := c.EffectivePPM(); got != 5 {
		t.Errorf("got %d, want 5", got)
	}
	c = &Config{PPMNeg: 3}
	if got := c.EffectivePPM(); got != -3 {
		t.Errorf("got %d, want -3", got)
	}
}

func TestFormatOutcomes(t *testing.T) {
	got := FormatOutcomes([]KeyOutcome{
		{Key: "freq", Outcome: outcomeOK},
		{Key: "decim", Outcome: outcomeClamped},
		{Key: "bogus", Outcome: rejected("unknown")},
	})
	want := "freq=ok,decim=clamped,bogus=rejected:unknown"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
