/*
NAME
  source.go

DESCRIPTION
  source.go implements the UDP block source: a listener that reads
  incoming datagrams, discarding and counting any that are not exactly
  blockSize bytes, per the loss- and corruption-tolerant receive path.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package netio

import (
	"net"
	"sync/atomic"

	"github.com/ausocean/utils/bitrate"
	"github.com/ausocean/utils/logging"
)

// Source receives fixed-size blocks over UDP, tolerating and counting
// malformed datagrams rather than failing the stream.
type Source struct {
	conn      *net.UDPConn
	log       logging.Logger
	blockSize int
	malformed uint64
	rate      bitrate.Calculator
}

// NewSource listens for UDP datagrams on addr. blockSize is the
// expected datagram size; anything else is discarded and counted.
func NewSource(addr string, log logging.Logger, blockSize int) (*Source, error) {
	udpAddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, err
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return nil, err
	}
	return &Source{conn: conn, log: log, blockSize: blockSize}, nil
}

// Recv blocks until a well-formed datagram arrives and returns its
// bytes, or returns an error if the socket is closed or a read fails.
// Malformed datagrams are discarded, logged, and counted; Recv does
// not return on their account.
func (s *Source) Recv() ([]byte, error) {
	buf := make([]byte, 65536)
	for {
		n, _, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			return nil, err
		}
		if n != s.blockSize {
			atomic.AddUint64(&s.malformed, 1)
			s.log.Warning("discarding malformed datagram", "size", n, "want", s.blockSize)
			continue
		}
		s.rate.Report(n)
		out := make([]byte, n)
		copy(out, buf[:n])
		return out, nil
	}
}

// Malformed returns the running count of discarded malformed datagrams.
func (s *Source) Malformed() uint64 { return atomic.LoadUint64(&s.malformed) }

// Bitrate returns the result of the most recent throughput check.
func (s *Source) Bitrate() int { return s.rate.Bitrate() }

// Close stops the source, unblocking any pending Recv with an error.
func (s *Source) Close() error { return s.conn.Close() }
