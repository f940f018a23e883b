/*
NAME
  control.go

DESCRIPTION
  control.go implements the paired, message-oriented control channel:
  a TCP-equivalent listener accepting one connection at a time,
  exchanging length-delimited UTF-8 configuration strings for
  acknowledgement replies.

AUTHORS
  Saxon A. Nelson-Milton <saxon@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package control implements the daemon's control channel: a paired,
// message-oriented transport accepting comma-separated key=value
// configuration strings and replying with per-key outcomes.
package control

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/ausocean/utils/logging"
)

// MaxMessageSize is the largest control message accepted, in bytes.
const MaxMessageSize = 4096

// DefaultTimeout is the default per-request read/write deadline.
const DefaultTimeout = 2 * time.Second

var errMessageTooLarge = errors.New("control: message exceeds size limit")

// Handler processes one received configuration message and returns
// the acknowledgement reply to send back.
type Handler func(msg string) string

// Server is the control channel listener. It accepts at most one
// connection at a time; a second concurrent connection attempt is
// refused.
type Server struct {
	log     logging.Logger
	ln      net.Listener
	handler Handler
	timeout time.Duration

	mu      sync.Mutex
	active  net.Conn
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewServer starts listening on addr (a TCP-equivalent host:port) and
// returns a Server. Call Serve to begin accepting connections.
func NewServer(addr string, log logging.Logger, handler Handler) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("control: listen: %w", err)
	}
	return &Server{
		log:     log,
		ln:      ln,
		handler: handler,
		timeout: DefaultTimeout,
		done:    make(chan struct{}),
	}, nil
}

// SetTimeout overrides the per-request read/write deadline.
func (s *Server) SetTimeout(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timeout = d
}

// Serve accepts connections until Close is called, handling at most
// one connection at a time.
func (s *Server) Serve() error {
	s.wg.Add(1)
	defer s.wg.Done()
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
				return fmt.Errorf("control: accept: %w", err)
			}
		}

		s.mu.Lock()
		if s.active != nil {
			s.mu.Unlock()
			s.log.Warning("control: refusing second connection", "remote", conn.RemoteAddr().String())
			conn.Close()
			continue
		}
		s.active = conn
		s.mu.Unlock()

		s.wg.Add(1)
		go s.serveConn(conn)
	}
}

func (s *Server) serveConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		conn.Close()
		s.mu.Lock()
		s.active = nil
		s.mu.Unlock()
	}()

	for {
		s.mu.Lock()
		timeout := s.timeout
		s.mu.Unlock()

		msg, err := readMessage(conn, timeout)
		if err != nil {
			if err != io.EOF {
				s.log.Debug("control: read error", "error", err.Error())
			}
			return
		}
		reply := s.handler(msg)
		if err := writeMessage(conn, reply, timeout); err != nil {
			s.log.Warning("control: write error", "error", err.Error())
			return
		}
	}
}

// Close stops accepting connections and closes any active connection.
func (s *Server) Close() error {
	close(s.done)
	err := s.ln.Close()
	s.mu.Lock()
	if s.active != nil {
		s.active.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
	return err
}

// readMessage reads one length-delimited message: a 2-byte big-endian
// length prefix followed by that many bytes of UTF-8 payload.
func readMessage(conn net.Conn, timeout time.Duration) (string, error) {
	if timeout > 0 {
		conn.SetReadDeadline(time.Now().Add(timeout))
	}
	var lenBuf [2]byte
	if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
		return "", err
	}
	n := binary.BigEndian.Uint16(lenBuf[:])
	if int(n) > MaxMessageSize {
		return "", errMessageTooLarge
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(conn, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// writeMessage writes one length-delimited message.
func writeMessage(conn net.Conn, msg string, timeout time.Duration) error {
	if len(msg) > MaxMessageSize {
		return errMessageTooLarge
	}
	if timeout > 0 {
		conn.SetWriteDeadline(time.Now().Add(timeout))
	}
	var lenBuf [2]byte
	binary.BigEndian.PutUint16(lenBuf[:], uint16(len(msg)))
	if _, err := conn.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err := conn.Write([]byte(msg))
	return err
}
