package core

import "errors"

// Frame is a raw JSON payload ready for the wire.
type Frame []byte

// ErrBackpressure is returned by TrySend when the recipient's send buffer
// is full. The caller skips that recipient and continues.
var ErrBackpressure = errors.New("backpressure")

// ErrConnClosed is returned by TrySend once the connection has been torn
// down; late deliveries racing with a disconnect land here harmlessly.
var ErrConnClosed = errors.New("connection closed")

// SignalConnection abstracts a system messaging transport.
// Owned by the adapter; the adapter must Close() it.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}
