/*
NAME
  sdrd is the bidirectional SDR streaming daemon core's CLI entry
  point: it opens a device adapter, starts a controller for the
  requested direction, and serves the control channel until signalled
  to stop.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main is the sdrd CLI: argument parsing and process wiring
// only, following the teacher's cmd/rv in keeping this layer thin.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"

	"github.com/ausocean/sdrd/control"
	"github.com/ausocean/sdrd/device"
	_ "github.com/ausocean/sdrd/device/file"
	_ "github.com/ausocean/sdrd/device/testdevice"
	"github.com/ausocean/sdrd/sdrd"
)

// Logging configuration.
const (
	logPath      = "/var/log/sdrd/sdrd.log"
	logMaxSize   = 100 // MB
	logMaxBackup = 10
	logMaxAge    = 28 // days
	logVerbosity = logging.Info
	logSuppress  = false
)

const (
	defaultDataPort    = 9090
	defaultControlPort = 9091
	defaultSampleRate  = 48000
	pkg                = "sdrd: "
)

func main() {
	var (
		devType     = flag.String("t", "test", "device type: rtlsdr|hackrf|airspy|bladerf|test|file")
		devIndex    = flag.String("d", "0", `device index, or "list" to enumerate devices of -t`)
		direction   = flag.String("x", "rx", "direction: rx|tx")
		addr        = flag.String("I", "127.0.0.1", "remote (rx) or local (tx) address for data")
		dataPort    = flag.Int("D", defaultDataPort, "data datagram port")
		controlPort = flag.Int("C", defaultControlPort, "control message port")
		initConfig  = flag.String("c", "", "initial configuration string")
	)
	flag.Parse()

	fileLog := &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    logMaxSize,
		MaxBackups: logMaxBackup,
		MaxAge:     logMaxAge,
	}
	log := logging.New(logVerbosity, io.MultiWriter(os.Stderr, fileLog), logSuppress)

	log.Info("starting sdrd", "type", *devType, "direction", *direction)

	if *devIndex == "list" {
		names, err := device.List(*devType)
		if err != nil {
			log.Fatal(pkg+"could not list devices", "error", err.Error())
		}
		for i, n := range names {
			fmt.Printf("%d: %s\n", i, n)
		}
		return
	}
	index, err := strconv.Atoi(*devIndex)
	if err != nil {
		log.Fatal(pkg+"invalid device index", "index", *devIndex)
	}

	dev, err := device.Open(*devType, log, index, defaultSampleRate)
	if err != nil {
		log.Fatal(pkg+"could not open device", "error", err.Error())
	}

	var dir sdrd.Direction
	switch *direction {
	case "rx":
		dir = sdrd.Rx
	case "tx":
		dir = sdrd.Tx
	default:
		log.Fatal(pkg+"invalid direction", "direction", *direction)
	}

	dataAddr := fmt.Sprintf("%s:%d", *addr, *dataPort)
	ctrl, err := sdrd.New(dir, dev, log, dataAddr)
	if err != nil {
		log.Fatal(pkg+"could not create controller", "error", err.Error())
	}

	if *initConfig != "" {
		log.Info("applying initial configuration", "config", *initConfig)
		log.Info("initial configuration applied", "outcomes", ctrl.Reconfigure(*initConfig))
	}

	if err := ctrl.Start(); err != nil {
		log.Fatal(pkg+"could not start controller", "error", err.Error())
	}
	dev.PrintSpecificParams()

	controlAddr := fmt.Sprintf(":%d", *controlPort)
	srv, err := control.NewServer(controlAddr, log, ctrl.Reconfigure)
	if err != nil {
		log.Fatal(pkg+"could not start control server", "error", err.Error())
	}
	go func() {
		if err := srv.Serve(); err != nil {
			log.Error(pkg+"control server stopped", "error", err.Error())
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("received shutdown signal, draining")
	srv.Close()
	ctrl.Stop()
	log.Info("sdrd stopped cleanly")
}
