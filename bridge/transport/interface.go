// Package transport presents framed byte channels as logical message
// channels. An adapter pairs one frame codec with one duplex byte channel
// and knows nothing about call identifiers or call semantics.
package transport

import (
	"github.com/lni/dragonboat/v4/logger"

	"github.com/toolbridge/toolbridge/bridge/common"
)

var Logger = logger.GetLogger("bridge/transport")

// IMessageTransport is the interface for one attached duplex channel.
//
// Send serializes concurrent callers onto the channel without interleaving
// partial frames: the whole encoded frame for one message is written before
// the next begins. Receive yields messages strictly in arrival order and
// returns io.EOF once the channel is closed; a malformed frame is returned
// as an error wrapping codec.ErrMalformedFrame without closing the channel
// where the framing permits resynchronization.
type IMessageTransport interface {
	// Send writes one logical message as a single complete frame
	Send(msg *common.Message) error
	// Receive reads the next logical message from the channel
	Receive() (*common.Message, error)
	// Close tears down the underlying byte channel
	Close() error
	// GetName returns the name of the transport type (e.g. "stream", "ws")
	GetName() string
}

// AttachFunc is called by a listener for every far-side channel it accepts.
type AttachFunc func(t IMessageTransport)

// IFarListener accepts far-side connections and hands each one to the
// bridge via the attach callback.
type IFarListener interface {
	// Serve blocks, accepting connections until Close is called
	Serve(attach AttachFunc) error
	// Close stops the listener
	Close() error
	// GetName returns the name of the listener type (e.g. "tcp", "ws")
	GetName() string
}
