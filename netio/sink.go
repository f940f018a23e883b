/*
NAME
  sink.go

DESCRIPTION
  sink.go implements the paced UDP block sink: outgoing 512-byte
  blocks are handed off through a ring buffer to a dedicated output
  routine that enforces the configured inter-datagram delay floor and
  tracks throughput.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package netio implements the datagram transport: a paced UDP sink
// on the Rx side and a malformed-datagram-tolerant UDP source on the
// Tx side.
package netio

import (
	"io"
	"net"
	"sync"
	"time"

	"github.com/ausocean/utils/bitrate"
	"github.com/ausocean/utils/logging"
	"github.com/ausocean/utils/pool"
)

const (
	sinkPoolReadTimeout = 1 * time.Second
	sinkPoolElementSize = 1024 // comfortably larger than a 512-byte block.
	sinkPoolNumElements = 4096
)

// Sink paces outgoing blocks onto a UDP socket, enforcing txDelay as a
// floor between consecutive datagrams. Write hands a block's bytes
// off to a ring buffer; a dedicated routine drains it and performs
// the paced conn.Write, decoupling the producer from socket timing.
type Sink struct {
	conn    net.Conn
	log     logging.Logger
	pool    *pool.Buffer
	rate    bitrate.Calculator
	done    chan struct{}
	wg      sync.WaitGroup
	mu      sync.Mutex // guards txDelay and last.
	txDelay time.Duration
	last    time.Time
}

// NewSink dials addr over UDP and starts the pacing output routine.
// txDelay is the minimum duration between consecutive datagram writes;
// zero disables pacing.
func NewSink(addr string, log logging.Logger, txDelay time.Duration) (*Sink, error) {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return nil, err
	}
	s := &Sink{
		conn:    conn,
		log:     log,
		pool:    pool.NewBuffer(sinkPoolNumElements, sinkPoolElementSize, 5*time.Second),
		done:    make(chan struct{}),
		txDelay: txDelay,
	}
	s.wg.Add(1)
	go s.output()
	return s, nil
}

// SetTxDelay updates the pacing floor, taking effect on the next
// datagram.
func (s *Sink) SetTxDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txDelay = d
}

// Bitrate returns the result of the most recent throughput check.
func (s *Sink) Bitrate() int { return s.rate.Bitrate() }

// output is the sink's socket-owning routine: it drains the ring
// buffer, paces, and writes.
func (s *Sink) output() {
	defer s.wg.Done()
	var chunk *pool.Chunk
	for {
		select {
		case <-s.done:
			s.log.Info("terminating sink output routine")
			return
		default:
			if chunk == nil {
				var err error
				chunk, err = s.pool.Next(sinkPoolReadTimeout)
				switch err {
				case nil, io.EOF:
					continue
				case pool.ErrTimeout:
					continue
				default:
					s.log.Error("unexpected pool read error", "error", err.Error())
					continue
				}
			}
			s.pace()
			n, err := s.conn.Write(chunk.Bytes())
			if err != nil {
				s.log.Warning("datagram write failed", "error", err.Error())
			} else {
				s.rate.Report(n)
			}
			chunk.Close()
			chunk = nil
		}
	}
}

func (s *Sink) pace() {
	s.mu.Lock()
	delay := s.txDelay
	last := s.last
	s.mu.Unlock()
	if delay <= 0 {
		return
	}
	if elapsed := time.Since(last); elapsed < delay {
		time.Sleep(delay - elapsed)
	}
	s.mu.Lock()
	s.last = time.Now()
	s.mu.Unlock()
}

// Write queues d, a single block's wire bytes, for paced transmission.
func (s *Sink) Write(d []byte) (int, error) {
	n, err := s.pool.Write(d)
	if err != nil {
		s.log.Warning("sink pool buffer write error", "error", err.Error())
		return n, err
	}
	s.pool.Flush()
	return len(d), nil
}

// Close stops the output routine and closes the underlying socket.
func (s *Sink) Close() error {
	close(s.done)
	s.wg.Wait()
	return s.conn.Close()
}
