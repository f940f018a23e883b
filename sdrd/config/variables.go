/*
NAME
  variables.go

DESCRIPTION
  variables.go contains a list of structs that provide a variable
  Name, the reconfiguration Group it belongs to, and a function for
  applying the variable's string value to a Config, reporting a
  per-key Outcome.

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
	"strconv"
	"strings"
)

// Reconfiguration groups, applied in this order per §4.7: device,
// then DSP, then packaging.
const (
	groupDevice = iota
	groupDSP
	groupPackaging
)

// Config map keys.
const (
	KeyTxDelay = "txdelay"
	KeyFECBlk  = "fecblk"
	KeyDecim   = "decim"
	KeyInterp  = "interp"
	KeyFCPos   = "fcpos"
	KeyFreq    = "freq"
	KeySRate   = "srate"
	KeyPPMPos  = "ppmp"
	KeyPPMNeg  = "ppmn"
	KeyAGC     = "agc"
	KeyAntBias = "antbias"
)

// Defaults.
const (
	defaultTxDelayMicros = 0
	defaultSampleRateHz  = 48000
)

// deviceSpecificKeys are forwarded verbatim to the device adapter's
// own Configure, rather than applied against Config fields.
var deviceSpecificKeys = map[string]bool{
	"gain": true, "lgain": true, "mgain": true, "vgain": true,
	"v1gain": true, "v2gain": true, "bwfilter": true, "bw": true,
	"extamp": true, "lagc": true, "magc": true, "pwidle": true,
	"blklen": true, "power": true, "dfp": true, "dfn": true, "file": true,
}

// Variables describes every structured key accepted by the
// configuration grammar, its Group, and its Apply function.
var Variables = []struct {
	Name  string
	Group int
	Apply func(c *Config, v string) Outcome
}{
	{
		Name:  KeyFreq,
		Group: groupDevice,
		Apply: func(c *Config, v string) Outcome {
			n, err := strconv.ParseUint(v, 10, 64)
			if err != nil {
				return rejected("parse")
			}
			c.FreqHz = n
			return outcomeOK
		},
	},
	{
		Name:  KeySRate,
		Group: groupDevice,
		Apply: func(c *Config, v string) Outcome {
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return rejected("parse")
			}
			c.SampleRateHz = uint32(n)
			return outcomeOK
		},
	},
	{
		Name:  KeyPPMPos,
		Group: groupDevice,
		Apply: func(c *Config, v string) Outcome {
			n, err := strconv.Atoi(v)
			if err != nil {
				return rejected("parse")
			}
			c.PPMPos = n
			return outcomeOK
		},
	},
	{
		Name:  KeyPPMNeg,
		Group: groupDevice,
		Apply: func(c *Config, v string) Outcome {
			n, err := strconv.Atoi(v)
			if err != nil {
				return rejected("parse")
			}
			c.PPMNeg = n
			return outcomeOK
		},
	},
	{
		Name:  KeyAGC,
		Group: groupDevice,
		Apply: func(c *Config, v string) Outcome {
			b, ok := parseBoolSwitch(v)
			if !ok {
				return rejected("parse")
			}
			c.AGC = b
			return outcomeOK
		},
	},
	{
		Name:  KeyAntBias,
		Group: groupDevice,
		Apply: func(c *Config, v string) Outcome {
			b, ok := parseBoolSwitch(v)
			if !ok {
				return rejected("parse")
			}
			c.AntennaBias = b
			return outcomeOK
		},
	},
	{
		Name:  KeyDecim,
		Group: groupDSP,
		Apply: func(c *Config, v string) Outcome {
			n, err := strconv.Atoi(v)
			if err != nil {
				return rejected("parse")
			}
			return clampLog2Factor(&c.Decim, n)
		},
	},
	{
		Name:  KeyInterp,
		Group: groupDSP,
		Apply: func(c *Config, v string) Outcome {
			n, err := strconv.Atoi(v)
			if err != nil {
				return rejected("parse")
			}
			return clampLog2Factor(&c.Interp, n)
		},
	},
	{
		Name:  KeyFCPos,
		Group: groupDSP,
		Apply: func(c *Config, v string) Outcome {
			n, err := strconv.Atoi(v)
			if err != nil || n < FCPosInfra || n > FCPosCenter {
				return rejected("range")
			}
			c.FCPos = n
			return outcomeOK
		},
	},
	{
		Name:  KeyTxDelay,
		Group: groupPackaging,
		Apply: func(c *Config, v string) Outcome {
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				return rejected("parse")
			}
			c.TxDelayMicros = uint32(n)
			return outcomeOK
		},
	},
	{
		Name:  KeyFECBlk,
		Group: groupPackaging,
		Apply: func(c *Config, v string) Outcome {
			n, err := strconv.Atoi(v)
			if err != nil {
				return rejected("parse")
			}
			if n < 0 {
				c.FECBlocks = 0
				return outcomeClamped
			}
			if n > 127 {
				c.FECBlocks = 127
				return outcomeClamped
			}
			c.FECBlocks = uint8(n)
			return outcomeOK
		},
	},
}

// clampLog2Factor clamps n to [0,6] (dsp.MaxLog2Factor), reporting
// clamped when the requested value was out of range.
func clampLog2Factor(dst *int, n int) Outcome {
	switch {
	case n < 0:
		*dst = 0
		return outcomeClamped
	case n > 6:
		*dst = 6
		return outcomeClamped
	default:
		*dst = n
		return outcomeOK
	}
}

// parseBoolSwitch accepts "1"/"0", "true"/"false" (case-insensitive).
func parseBoolSwitch(v string) (bool, bool) {
	switch strings.ToLower(v) {
	case "1", "true":
		return true, true
	case "0", "false":
		return false, true
	default:
		return false, false
	}
}
