package codec

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"

	"github.com/toolbridge/toolbridge/bridge/common"
)

// NewBinaryCodec creates a codec framing each message as a 4-byte unsigned
// little-endian length field followed by that many UTF-8 JSON bytes.
func NewBinaryCodec() IFrameCodec {
	return &binaryCodec{}
}

// binaryCodec implements the IFrameCodec interface using length-prefixed JSON
type binaryCodec struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.IFrameCodec)
// --------------------------------------------------------------------------

func (c *binaryCodec) GetName() string {
	return "binary"
}

func (c *binaryCodec) Encode(msg *common.Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	if len(payload) > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(payload))
	}

	buf := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(buf[:4], uint32(len(payload)))
	copy(buf[4:], payload)
	return buf, nil
}

func (c *binaryCodec) Decode(r *bufio.Reader) (*common.Message, error) {
	// Read the 4-byte length prefix. io.ReadFull loops over short reads;
	// end of stream during either read is a clean close, not a parse error.
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, mapEOF(err)
	}

	length := binary.LittleEndian.Uint32(header[:])
	if length == 0 || length > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, mapEOF(err)
	}

	var msg common.Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return &msg, nil
}

// mapEOF folds a mid-frame end of stream into a plain io.EOF
func mapEOF(err error) error {
	if err == io.ErrUnexpectedEOF {
		return io.EOF
	}
	return err
}
