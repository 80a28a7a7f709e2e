package codec

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/toolbridge/toolbridge/bridge/common"
)

// NewLineCodec creates a codec framing each message as one JSON object
// followed by a single line feed.
func NewLineCodec() IFrameCodec {
	return &lineCodec{}
}

// lineCodec implements the IFrameCodec interface using newline-delimited JSON
type lineCodec struct{}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.IFrameCodec)
// --------------------------------------------------------------------------

func (c *lineCodec) GetName() string {
	return "line"
}

func (c *lineCodec) Encode(msg *common.Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (c *lineCodec) Decode(r *bufio.Reader) (*common.Message, error) {
	for {
		line, err := r.ReadBytes('\n')
		if err != nil {
			// A partial line at end of stream is dropped: without the
			// delimiter the frame was never completed by the peer.
			if err == io.EOF {
				return nil, io.EOF
			}
			return nil, err
		}

		// Fully empty lines are skipped, not errors
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var msg common.Message
		if err := json.Unmarshal(line, &msg); err != nil {
			// The offending line is already consumed, so the stream
			// stays decodable for subsequent frames
			return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}
		return &msg, nil
	}
}
