// Package ws implements the far-side WebSocket variant: one JSON-RPC
// object per text message on a message-oriented socket.
package ws

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/toolbridge/toolbridge/bridge/codec"
	"github.com/toolbridge/toolbridge/bridge/common"
	"github.com/toolbridge/toolbridge/bridge/transport"
)

// wsTransport implements transport.IMessageTransport over a WebSocket
// connection. The socket is message-oriented, so no length or delimiter
// framing is needed; each message carries exactly one JSON object.
type wsTransport struct {
	conn *websocket.Conn

	// gorilla/websocket supports one concurrent writer only
	writeMu sync.Mutex
}

// NewWSTransport wraps an established WebSocket connection.
func NewWSTransport(conn *websocket.Conn) transport.IMessageTransport {
	conn.SetReadLimit(codec.MaxFrameSize)
	return &wsTransport{conn: conn}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IMessageTransport)
// --------------------------------------------------------------------------

func (t *wsTransport) GetName() string {
	return "ws"
}

func (t *wsTransport) Send(msg *common.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	return t.conn.WriteMessage(websocket.TextMessage, data)
}

func (t *wsTransport) Receive() (*common.Message, error) {
	for {
		msgType, data, err := t.conn.ReadMessage()
		if err != nil {
			// Any closed socket reads as a clean end of stream
			return nil, io.EOF
		}

		if msgType != websocket.TextMessage {
			transport.Logger.Debugf("Ignoring non-text WebSocket message (%d)", msgType)
			continue
		}

		var msg common.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, fmt.Errorf("%w: %v", codec.ErrMalformedFrame, err)
		}
		return &msg, nil
	}
}

func (t *wsTransport) Close() error {
	return t.conn.Close()
}
