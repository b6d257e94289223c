/*
 * Copyright 2026 the recfifo authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package endpoint exposes a gateway-guarded fifo as a byte-stream service
// on a unix-domain socket. Each client connection opens with a one-byte
// mode: a writer connection streams its bytes into the fifo, a reader
// connection drains what is currently buffered and is then closed. This
// mirrors the read/write file contract of the buffer's origin: short
// transfers, never errors, on a full or empty buffer.
package endpoint

import (
	"context"
	"errors"
	"io"
	"net"

	logging "github.com/ipfs/go-log/v2"

	"github.com/sysprog21/recfifo/gateway"
)

var log = logging.Logger("endpoint")

// Connection mode bytes sent by the client immediately after connect.
const (
	ModeWrite = byte('W')
	ModeRead  = byte('R')
)

// chunkSize bounds a single gateway transfer per loop iteration.
const chunkSize = 4096

// Endpoint accepts byte-stream connections and forwards them through a
// Gateway. Construct with New only after the fifo self-test has passed; a
// buffer that failed verification must never become reachable.
type Endpoint struct {
	gw *gateway.Gateway
	ln net.Listener
}

// New listens on the given unix socket path. The socket file is owned by
// the endpoint and removed when the listener closes.
func New(gw *gateway.Gateway, socketPath string) (*Endpoint, error) {
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, err
	}
	return &Endpoint{gw: gw, ln: ln}, nil
}

// Addr returns the listening address.
func (e *Endpoint) Addr() net.Addr {
	return e.ln.Addr()
}

// Close stops the accept loop and unlinks the socket.
func (e *Endpoint) Close() error {
	return e.ln.Close()
}

// Serve accepts connections until ctx is cancelled or the listener fails.
// It returns nil on a context-driven shutdown.
func (e *Endpoint) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		e.ln.Close()
	}()

	for {
		conn, err := e.ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		go e.handle(ctx, conn)
	}
}

func (e *Endpoint) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	var mode [1]byte
	if _, err := io.ReadFull(conn, mode[:]); err != nil {
		log.Debugf("connection closed before mode byte: %v", err)
		return
	}

	switch mode[0] {
	case ModeWrite:
		e.serveWriter(ctx, conn)
	case ModeRead:
		e.serveReader(ctx, conn)
	default:
		log.Warnf("rejecting connection with unknown mode %q", mode[0])
	}
}

// serveWriter copies the connection's bytes into the fifo. A short gateway
// write means the buffer filled; the remainder of the stream is refused and
// the connection closed, reporting the drop like a short write(2).
func (e *Endpoint) serveWriter(ctx context.Context, conn net.Conn) {
	buf := make([]byte, chunkSize)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			w, werr := e.gw.Write(ctx, buf[:n])
			if werr != nil {
				log.Debugf("writer interrupted: %v", werr)
				return
			}
			if w < n {
				log.Warnf("fifo full: dropped %d of %d bytes", n-w, n)
				return
			}
		}
		if err != nil {
			if err != io.EOF {
				log.Debugf("writer connection: %v", err)
			}
			return
		}
	}
}

// serveReader drains the bytes buffered at call time and closes, giving the
// client EOF once the fifo reports an empty read.
func (e *Endpoint) serveReader(ctx context.Context, conn net.Conn) {
	buf := make([]byte, chunkSize)
	for {
		n, err := e.gw.Read(ctx, buf)
		if err != nil {
			log.Debugf("reader interrupted: %v", err)
			return
		}
		if n == 0 {
			return
		}
		if _, err := conn.Write(buf[:n]); err != nil {
			log.Debugf("reader connection: %v", err)
			return
		}
	}
}
