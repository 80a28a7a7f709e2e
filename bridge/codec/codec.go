// Package codec implements the wire framing of logical messages. Two frame
// formats are supported: newline-delimited JSON (the near-side line
// protocol) and length-prefixed binary JSON (the far-side socket protocol).
// Both share the same in-memory Message type, only the byte framing differs.
package codec

import (
	"bufio"
	"errors"

	"github.com/toolbridge/toolbridge/bridge/common"
)

const (
	// MaxFrameSize is the upper bound for a single binary frame payload
	MaxFrameSize = 1 << 20 // 1 MiB
)

var (
	// ErrMalformedFrame signals a frame whose payload failed to parse as
	// JSON. The byte stream itself stays in sync; subsequent frames on the
	// same stream remain decodable.
	ErrMalformedFrame = errors.New("malformed frame")

	// ErrFrameTooLarge signals a binary length field outside (0, MaxFrameSize].
	// The stream cannot be resynchronized after this.
	ErrFrameTooLarge = errors.New("frame length out of range")
)

// IFrameCodec encodes one logical message to its wire frame and decodes the
// next frame from a buffered stream. The bufio.Reader carries partial-frame
// state across reads, so frames may arrive in arbitrarily small chunks or
// several to a chunk. Decode returns io.EOF on a clean end of stream.
type IFrameCodec interface {
	// Encode serializes a message into a single complete frame
	Encode(msg *common.Message) ([]byte, error)
	// Decode reads and parses the next frame from the stream
	Decode(r *bufio.Reader) (*common.Message, error)
	// GetName returns the name of the frame format (e.g. "line", "binary")
	GetName() string
}
