package server

import (
	"errors"
	"io"
	"net"
	"syscall"

	mcserver "github.com/gstoney/mcserver"
)

var (
	// ErrChannelClosed means the other side of a queue is already gone.
	// It is expected during teardown and never logged as a failure.
	ErrChannelClosed = errors.New("channel closed")

	ErrSlowConsumer     = errors.New("outbound queue full")
	ErrRateLimited      = errors.New("packet rate limit exceeded")
	ErrKeepAliveTimeout = errors.New("keep-alive timed out")
	ErrKicked           = errors.New("disconnected by server")
	ErrServerClosed     = errors.New("server closed")
	ErrInvalidUsername  = errors.New("invalid username")
)

// errDone ends a session that completed normally, like a status ping.
var errDone = errors.New("session complete")

// peerGone reports whether err only says the remote end went away.
func peerGone(err error) bool {
	var ioErr *mcserver.IOError
	if !errors.As(err, &ioErr) {
		return false
	}
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE)
}

// quiet reports close reasons that are part of normal operation.
func quiet(err error) bool {
	return err == nil ||
		errors.Is(err, errDone) ||
		errors.Is(err, ErrKicked) ||
		errors.Is(err, ErrServerClosed) ||
		errors.Is(err, ErrChannelClosed) ||
		peerGone(err)
}
