// File: api/transport.go
// Package api defines the transport boundary.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

import "net"

// Transport is the terminal collaborator behind the head sentinel. The
// pipeline core never performs I/O itself: outbound operations that
// reach the head are translated into exactly one Transport call, and
// the resulting error (nil on success) completes the operation's
// promise.
//
// The transport (or the event loop driving it) is also responsible for
// delivering raw I/O readiness back into the pipeline via the Fire*
// entry points, on the pipeline's executor.
type Transport interface {
	Bind(addr net.Addr) error
	Connect(remote, local net.Addr) error
	Disconnect() error
	Close() error
	Deregister() error
	// BeginRead signals read interest; delivery happens asynchronously
	// through FireChannelRead.
	BeginRead() error
	Write(msg any) error
	Flush() error
}
