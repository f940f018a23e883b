/*
NAME
  config.go

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package config contains the live configuration grammar and snapshot
// for the streaming daemon: parsing of comma-separated key=value
// strings, grouped application ordering (device, then DSP, then
// packaging), and per-key outcome reporting.
package config

import (
	"fmt"
	"strings"

	"github.com/ausocean/utils/logging"
)

// fcpos values.
const (
	FCPosInfra  = 0
	FCPosSupra  = 1
	FCPosCenter = 2
)

// Outcome is a key's application result: "ok", "clamped", or
// "rejected:<reason>".
type Outcome string

const outcomeOK Outcome = "ok"
const outcomeClamped Outcome = "clamped"

func rejected(reason string) Outcome { return Outcome("rejected:" + reason) }

// KeyOutcome pairs a configuration key with its Outcome, in the order
// the key was applied.
type KeyOutcome struct {
	Key     string
	Outcome Outcome
}

// Config is the daemon's live configuration snapshot. It is guarded by
// the controller's mutex on the producer side; the worker reads a copy
// at frame boundaries only.
type Config struct {
	// Logger must be set for config validation/update logging to work.
	Logger   logging.Logger
	LogLevel int8
	Suppress bool

	// Transport.
	TxDelayMicros uint32 // txdelay.
	FECBlocks     uint8  // fecblk, 0..127.

	// DSP.
	Decim int // decim, log2 factor 0..6.
	Interp int // interp, log2 factor 0..6.
	FCPos int // fcpos, 0|1|2.

	// Device-common.
	FreqHz       uint64 // freq.
	SampleRateHz uint32 // srate.
	PPMPos       int    // ppmp.
	PPMNeg       int    // ppmn.
	AGC          bool   // agc.
	AntennaBias  bool   // antbias.

	// DeviceParams holds device-specific keys (gain, lgain, mgain,
	// vgain, v1gain, v2gain, bwfilter, bw, extamp, lagc, magc, pwidle,
	// blklen, power, dfp, dfn, file) verbatim, for the device adapter's
	// own Configure to interpret.
	DeviceParams map[string]string
}

// New returns a Config with the daemon's documented defaults.
func New(log logging.Logger) *Config {
	return &Config{
		Logger:        log,
		TxDelayMicros: defaultTxDelayMicros,
		SampleRateHz:  defaultSampleRateHz,
		FCPos:         FCPosCenter,
		DeviceParams:  make(map[string]string),
	}
}

// EffectivePPM returns the configured PPM correction: ppmp wins when
// both ppmp and ppmn are set.
func (c *Config) EffectivePPM() int {
	if c.PPMPos != 0 {
		return c.PPMPos
	}
	return -c.PPMNeg
}

// LogInvalidField logs that a field was bad or unset and has been
// defaulted.
func (c *Config) LogInvalidField(name string, def interface{}) {
	c.Logger.Info(name+" bad or unset, defaulting", name, def)
}

// ParseGrammar parses a comma-separated key[=value] string into a map.
// A bare key (no '=') is treated as key=1. ParseGrammar fails the
// whole string (returning an error, no partial map) if any segment is
// empty or names an empty key, matching the "parse all keys; if
// parsing fails for any key, no key is applied" rule.
func ParseGrammar(s string) (map[string]string, error) {
	kv := make(map[string]string)
	if strings.TrimSpace(s) == "" {
		return kv, nil
	}
	for _, seg := range strings.Split(s, ",") {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			return nil, fmt.Errorf("config: empty key in %q", s)
		}
		if i := strings.IndexByte(seg, '='); i >= 0 {
			key := strings.TrimSpace(seg[:i])
			val := strings.TrimSpace(seg[i+1:])
			if key == "" {
				return nil, fmt.Errorf("config: empty key in %q", s)
			}
			kv[key] = val
		} else {
			kv[seg] = "1"
		}
	}
	return kv, nil
}

// Apply parses raw and applies every recognized key to c, in group
// order: device, DSP, packaging (§4.7). Device-specific keys are
// collected into deviceParams rather than applied here, for the
// device adapter's own Configure to interpret; any remaining unknown
// key is reported rejected:unknown. Apply returns an error only if
// raw itself fails to parse, in which case no key (structured or
// device-specific) is applied.
func (c *Config) Apply(raw string) (outcomes []KeyOutcome, deviceParams map[string]string, err error) {
	kv, err := ParseGrammar(raw)
	if err != nil {
		return nil, nil, err
	}

	remaining := make(map[string]string, len(kv))
	for k, v := range kv {
		remaining[k] = v
	}

	for _, group := range []int{groupDevice, groupDSP, groupPackaging} {
		for _, v := range Variables {
			if v.Group != group {
				continue
			}
			val, ok := remaining[v.Name]
			if !ok {
				continue
			}
			delete(remaining, v.Name)
			outcomes = append(outcomes, KeyOutcome{Key: v.Name, Outcome: v.Apply(c, val)})
		}
	}

	deviceParams = make(map[string]string, len(remaining))
	for k, v := range remaining {
		if deviceSpecificKeys[k] {
			deviceParams[k] = v
			continue
		}
		c.Logger.Warning("unknown configuration key", "key", k)
		outcomes = append(outcomes, KeyOutcome{Key: k, Outcome: rejected("unknown")})
	}
	return outcomes, deviceParams, nil
}

// FormatOutcomes renders a slice of KeyOutcomes as the control
// channel's acknowledgement reply: "key=outcome,key=outcome,...".
func FormatOutcomes(outcomes []KeyOutcome) string {
	parts := make([]string, len(outcomes))
	for i, o := range outcomes {
		parts[i] = fmt.Sprintf("%s=%s", o.Key, o.Outcome)
	}
	return strings.Join(parts, ",")
}
