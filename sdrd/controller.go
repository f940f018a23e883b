/*
NAME
  controller.go

DESCRIPTION
  controller.go implements the daemon's controller: it owns the
  device adapter, the DSP chain, the frame packer/unpacker, and the
  datagram transport, wiring them into the Rx or Tx data flow and
  applying live reconfiguration through a versioned snapshot read at
  frame boundaries.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package sdrd wires the frame, fec, dsp, netio and device packages
// into the bidirectional streaming daemon: a Controller per direction
// (Rx or Tx), driven by configuration received over the control
// channel.
package sdrd

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ausocean/utils/bitrate"
	"github.com/ausocean/utils/logging"

	"github.com/ausocean/sdrd/buffer"
	"github.com/ausocean/sdrd/device"
	"github.com/ausocean/sdrd/dsp"
	"github.com/ausocean/sdrd/fec"
	"github.com/ausocean/sdrd/frame"
	"github.com/ausocean/sdrd/iq"
	"github.com/ausocean/sdrd/netio"
	"github.com/ausocean/sdrd/sdrd/config"
)

// bufferOverrunFactor is the multiple of the configured sample rate
// beyond which the sample buffer is considered to be growing unbounded
// (§4.1): the device producer is outrunning the processing+network
// worker.
const bufferOverrunFactor = 10

// Direction selects which half of the bidirectional daemon a
// Controller drives.
type Direction int

const (
	Rx Direction = iota
	Tx
)

// State is the daemon's lifecycle state (§4.7).
type State int32

const (
	StateCreated State = iota
	StateStreaming
	StateDraining
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateStreaming:
		return "streaming"
	case StateDraining:
		return "draining"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// snapshot is the versioned configuration read by the worker at frame
// boundaries only; the controller mutex guards only its production.
type snapshot struct {
	version              uint64
	centerFreqKHz        uint32
	sampleRateHz         uint32
	nativeBytesPerSample uint8 // the device's own native sample width.
	bytesPerSample       uint8 // the width actually packed/unpacked on the wire.
	effectiveBits        uint8
	decim                int
	interp               int
	fcpos                int
	fecBlocks            uint8
	txDelay              time.Duration
}

// Controller drives one direction (Rx or Tx) of the streaming daemon.
type Controller struct {
	dir Direction
	log logging.Logger

	dev device.Device
	buf *buffer.SampleBuffer

	dsp      *dsp.Chain
	codec    *fec.Codec
	packer   *frame.Packer   // Rx only.
	unpacker *frame.Unpacker // Tx only.
	sink     *netio.Sink     // Rx only.
	source   *netio.Source   // Tx only.

	cfgMu sync.Mutex // guards cfg and snapshot production (producer side only).
	cfg   *config.Config
	snap  atomic.Value // *snapshot

	bitrate  bitrate.Calculator
	state    atomic.Int32
	stopFlag atomic.Bool
	wg       sync.WaitGroup
	err      chan error
}

// New returns a Controller for dir, talking to dev, with data sent to
// or received from dataAddr.
func New(dir Direction, dev device.Device, log logging.Logger, dataAddr string) (*Controller, error) {
	c := &Controller{
		dir: dir,
		log: log,
		dev: dev,
		buf: buffer.New(),
		err: make(chan error, 8),
	}
	c.cfg = config.New(log)
	bps, bits := dev.SampleSize()
	c.cfg.SampleRateHz = dev.SampleRate()
	c.cfg.FreqHz = dev.Frequency()
	if c.cfg.FreqHz == 0 {
		c.cfg.LogInvalidField("freq", c.cfg.FreqHz)
	}

	codec, err := fec.New(frame.DataBlocks, 0)
	if err != nil {
		return nil, fmt.Errorf("sdrd: constructing fec codec: %w", err)
	}
	c.codec = codec

	switch dir {
	case Rx:
		chain, err := dsp.NewDecimator(0, config.FCPosCenter)
		if err != nil {
			return nil, err
		}
		c.dsp = chain
		packer, err := frame.NewPacker(codec, bps, bits)
		if err != nil {
			return nil, err
		}
		c.packer = packer
		sink, err := netio.NewSink(dataAddr, log, 0)
		if err != nil {
			return nil, fmt.Errorf("sdrd: constructing sink: %w", err)
		}
		c.sink = sink
	case Tx:
		chain, err := dsp.NewInterpolator(0)
		if err != nil {
			return nil, err
		}
		c.dsp = chain
		unpacker, err := frame.NewUnpacker(codec, bps)
		if err != nil {
			return nil, err
		}
		c.unpacker = unpacker
		source, err := netio.NewSource(dataAddr, log, frame.Size)
		if err != nil {
			return nil, fmt.Errorf("sdrd: constructing source: %w", err)
		}
		c.source = source
	}

	c.installSnapshot()
	c.state.Store(int32(StateCreated))
	return c, nil
}

func (c *Controller) currentSnapshot() *snapshot {
	return c.snap.Load().(*snapshot)
}

// correctedFreqHz applies a crystal PPM correction to freqHz, per
// Config.EffectivePPM (ppmp wins over ppmn).
func correctedFreqHz(freqHz uint64, ppm int) uint64 {
	if ppm == 0 {
		return freqHz
	}
	return uint64(float64(freqHz) * (1 + float64(ppm)/1e6))
}

// installSnapshotLocked publishes a new snapshot derived from c.cfg and
// dev's stream parameters. Must be called with cfgMu held.
//
// Per §3, a device's native sample width is promoted to 16 bits
// whenever decimation is active: the halfband cascade operates on
// full-scale samples, so an 8-bit-native device packs/unpacks at
// bytesPerSample=2 once decim>0, with the Rx worker promoting each
// vector (iq.Promote) before it reaches the cascade.
func (c *Controller) installSnapshotLocked(version uint64) {
	bps, bits := c.dev.SampleSize()
	effBps, effBits := bps, bits
	if c.cfg.Decim > 0 {
		effBps, effBits = 2, 16
	}
	c.snap.Store(&snapshot{
		version:              version,
		centerFreqKHz:        uint32(correctedFreqHz(c.cfg.FreqHz, c.cfg.EffectivePPM()) / 1000),
		sampleRateHz:         c.cfg.SampleRateHz,
		nativeBytesPerSample: bps,
		bytesPerSample:       effBps,
		effectiveBits:        effBits,
		decim:                c.cfg.Decim,
		interp:               c.cfg.Interp,
		fcpos:                c.cfg.FCPos,
		fecBlocks:            c.cfg.FECBlocks,
		txDelay:              time.Duration(c.cfg.TxDelayMicros) * time.Microsecond,
	})
}

func (c *Controller) installSnapshot() {
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()
	c.installSnapshotLocked(0)
}

// State returns the controller's current lifecycle state.
func (c *Controller) State() State { return State(c.state.Load()) }

// Bitrate returns the result of the most recent throughput check of
// the datagram transport: the sink's on Rx, the source's on Tx.
func (c *Controller) Bitrate() int {
	switch {
	case c.sink != nil:
		return c.sink.Bitrate()
	case c.source != nil:
		return c.source.Bitrate()
	}
	return c.bitrate.Bitrate()
}

// Start transitions Created/Draining → Streaming and spawns the
// device activity and processing+network activity goroutines.
func (c *Controller) Start() error {
	if State(c.state.Load()) == StateStreaming {
		c.log.Warning("start called, controller already streaming")
		return nil
	}
	c.stopFlag.Store(false)
	c.state.Store(int32(StateStreaming))

	c.wg.Add(2)
	go c.runDevice()
	go c.runWorker()
	go c.handleErrors()
	return nil
}

func (c *Controller) runDevice() {
	defer c.wg.Done()
	var err error
	switch c.dir {
	case Rx:
		err = c.dev.StartProducer(c.buf, &c.stopFlag)
	case Tx:
		err = c.dev.StartConsumer(c.buf, &c.stopFlag)
	}
	if err != nil {
		c.err <- fmt.Errorf("sdrd: device error: %w", err)
	}
}

func (c *Controller) runWorker() {
	defer c.wg.Done()
	switch c.dir {
	case Rx:
		c.runRx()
	case Tx:
		c.runTx()
	}
}

func (c *Controller) handleErrors() {
	for err := range c.err {
		c.log.Error("sdrd controller error", "error", err.Error())
		if c.dir == Rx {
			// Device errors transition the state machine to Stopped (§4.7).
			c.state.Store(int32(StateStopped))
			c.stopFlag.Store(true)
		}
	}
}

// runRx is the Rx processing+network activity: pull samples, decimate,
// pack frames, FEC-encode (inside the packer), send datagrams.
func (c *Controller) runRx() {
	var applied *snapshot
	var overrunActive bool
	for {
		v := c.buf.Pull()
		if v == nil {
			return
		}
		snap := c.currentSnapshot()
		if applied == nil || snap.version != applied.version {
			c.applyRxSnapshot(snap, applied)
			applied = snap
		}

		// BufferOverrun: the device producer is outrunning this worker.
		// Logged once per occurrence, not on every pull while it persists.
		if queued := c.buf.QueuedSamples(); queued > bufferOverrunFactor*int(snap.sampleRateHz) {
			if !overrunActive {
				c.log.Warning("BufferOverrun", "queuedSamples", queued)
				overrunActive = true
			}
		} else {
			overrunActive = false
		}

		// Promote 8-bit-native samples to full-scale 16-bit before the
		// halfband cascade whenever decimation is active (§3, §9).
		if snap.decim > 0 && snap.nativeBytesPerSample == 1 {
			iq.Promote(v)
		}

		decimated := c.dsp.Decimate(v)
		if len(decimated) == 0 {
			continue
		}
		blocks, err := c.packer.Push(decimated)
		if err != nil {
			c.err <- err
			continue
		}
		if blocks == nil {
			continue
		}
		for i := range blocks {
			c.sink.Write(blocks[i].Marshal(nil))
		}
	}
}

// applyRxSnapshot installs snap at a frame boundary. DSP state is only
// reset when decim or fcpos actually changed (§4.2); the FEC codec is
// only rebuilt when fecblk changed, so an unrelated reconfiguration
// (e.g. txdelay alone) never disturbs in-flight DSP or packer state.
func (c *Controller) applyRxSnapshot(snap, prev *snapshot) {
	if prev == nil || snap.decim != prev.decim || snap.fcpos != prev.fcpos {
		chain, err := dsp.NewDecimator(snap.decim, dsp.FCPos(snap.fcpos))
		if err == nil {
			c.dsp = chain
		}
	}
	if prev == nil || snap.fecBlocks != prev.fecBlocks {
		codec, err := fec.New(frame.DataBlocks, int(snap.fecBlocks))
		if err == nil {
			c.codec = codec
			c.packer.SetEncoder(codec)
		}
	}
	c.packer.Configure(snap.centerFreqKHz, snap.sampleRateHz, snap.bytesPerSample, snap.effectiveBits)
	c.sink.SetTxDelay(snap.txDelay)
}

// runTx is the Tx processing+network activity: receive datagrams,
// FEC-decode and reassemble frames, interpolate, push to the device
// buffer.
func (c *Controller) runTx() {
	var applied *snapshot
	for {
		raw, err := c.source.Recv()
		if err != nil {
			if c.stopFlag.Load() {
				c.buf.PushEnd()
				return
			}
			c.err <- fmt.Errorf("sdrd: source recv: %w", err)
			continue
		}
		var blk frame.Block
		if err := blk.Unmarshal(raw); err != nil {
			continue // ProtocolError: already counted by the source.
		}

		results, err := c.unpacker.Feed(blk)
		if err != nil {
			c.err <- err
			continue
		}
		for _, res := range results {
			if res.Lost {
				c.log.Warning("frame lost", "frameIndex", res.FrameIndex, "error", res.Err)
			}

			snap := c.currentSnapshot()
			if applied == nil || snap.version != applied.version {
				c.applyTxSnapshot(snap, applied)
				applied = snap
			}

			out := c.dsp.Interpolate(res.Samples)
			c.buf.Push(out)
		}
	}
}

// applyTxSnapshot installs snap at a frame boundary: the interpolator
// is only rebuilt when interp changed, and the FEC decoder only when
// fecblk changed (mirroring applyRxSnapshot).
func (c *Controller) applyTxSnapshot(snap, prev *snapshot) {
	if prev == nil || snap.interp != prev.interp {
		chain, err := dsp.NewInterpolator(snap.interp)
		if err == nil {
			c.dsp = chain
		}
	}
	if prev == nil || snap.fecBlocks != prev.fecBlocks {
		codec, err := fec.New(frame.DataBlocks, int(snap.fecBlocks))
		if err == nil {
			c.codec = codec
			c.unpacker.SetDecoder(codec)
		}
	}
	c.unpacker.SetBytesPerSample(snap.bytesPerSample)
}

// Reconfigure applies raw (a comma-separated key=value string) per
// §4.7's live reconfiguration ordering and returns the acknowledgement
// reply. It is safe to call while streaming.
func (c *Controller) Reconfigure(raw string) string {
	c.cfgMu.Lock()
	defer c.cfgMu.Unlock()

	outcomes, deviceParams, err := c.cfg.Apply(raw)
	if err != nil {
		c.log.Warning("control: malformed configuration string", "error", err.Error())
		return "error:parse"
	}
	if len(deviceParams) > 0 {
		for k, o := range c.dev.Configure(deviceParams) {
			outcomes = append(outcomes, config.KeyOutcome{Key: k, Outcome: config.Outcome(o)})
		}
	}
	if me := rejectedOutcomeErrors(outcomes); len(me) > 0 {
		c.log.Warning("control: one or more keys were rejected", "error", me.Error())
	}

	c.cfg.SampleRateHz = c.dev.SampleRate()
	version := c.bumpVersion()
	c.installSnapshotLocked(version)
	return config.FormatOutcomes(outcomes)
}

// rejectedOutcomeErrors collects every rejected outcome in outcomes
// into a device.MultiError, for a single aggregated log line instead
// of one per key.
func rejectedOutcomeErrors(outcomes []config.KeyOutcome) device.MultiError {
	var me device.MultiError
	for _, o := range outcomes {
		if strings.HasPrefix(string(o.Outcome), "rejected:") {
			me = append(me, fmt.Errorf("%s: %s", o.Key, o.Outcome))
		}
	}
	return me
}

func (c *Controller) bumpVersion() uint64 {
	return c.currentSnapshot().version + 1
}

// Stop transitions Streaming → Draining → Stopped: the device is told
// to stop producing/consuming, the sample buffer is drained, the
// current partial frame is discarded, and both goroutines join.
func (c *Controller) Stop() {
	if State(c.state.Load()) != StateStreaming {
		c.log.Warning("stop called but controller isn't streaming")
		return
	}
	c.state.Store(int32(StateDraining))
	c.stopFlag.Store(true)

	if err := c.dev.Stop(); err != nil {
		c.log.Error("could not stop device", "error", err.Error())
	}
	if c.sink != nil {
		c.sink.Close()
	}
	if c.source != nil {
		c.source.Close()
	}
	c.buf.PushEnd()

	c.wg.Wait()
	close(c.err)
	c.state.Store(int32(StateStopped))
}
