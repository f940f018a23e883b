/*
NAME
  fcpos.go

DESCRIPTION
  fcpos.go defines the placement of the tuned RF frequency relative to
  a decimated output band.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package dsp

import "fmt"

// FCPos selects where, within the decimated output band, the tuned RF
// frequency is placed. It only applies to the Rx (decimation) chain;
// interpolation is always centered.
type FCPos uint8

const (
	// Infra translates by -Fs/4 before the first halfband stage, placing
	// the tuned RF at -Fs_out/4 of the output band.
	Infra FCPos = 0
	// Supra translates by +Fs/4, placing the tuned RF at +Fs_out/4.
	Supra FCPos = 1
	// Center applies no translation; the tuned RF sits at DC.
	Center FCPos = 2
)

// Valid reports whether p is one of Infra, Supra or Center.
func (p FCPos) Valid() bool { return p <= Center }

func (p FCPos) String() string {
	switch p {
	case Infra:
		return "infra"
	case Supra:
		return "supra"
	case Center:
		return "center"
	default:
		return fmt.Sprintf("FCPos(%d)", uint8(p))
	}
}
