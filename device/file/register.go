/*
NAME
  register.go

DESCRIPTION
  register.go registers this package as the "file" device type. The
  backing path is unset until a "file" key arrives over the control
  channel or the initial configuration string; see Configure.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package file

import (
	"github.com/ausocean/utils/logging"

	"github.com/ausocean/sdrd/device"
)

const defaultEffectiveBits = 16

func init() {
	device.Register("file",
		func(log logging.Logger, index int, sampleRateHz uint32) (device.Device, error) {
			return New(log, "", false, sampleRateHz, defaultEffectiveBits), nil
		},
		func() ([]string, error) { return []string{"File"}, nil },
	)
}
