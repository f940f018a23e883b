/*
NAME
  register.go

DESCRIPTION
  register.go registers this package as the "test" device type.

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
	"github.com/ausocean/utils/logging"

	"github.com/ausocean/sdrd/device"
)

func init() {
	device.Register("test",
		func(log logging.Logger, index int, sampleRateHz uint32) (device.Device, error) {
			return New(log, sampleRateHz), nil
		},
		func() ([]string, error) { return []string{"Test"}, nil },
	)
}
