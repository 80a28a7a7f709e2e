package ws

import (
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/toolbridge/toolbridge/bridge/common"
	"github.com/toolbridge/toolbridge/bridge/transport"
)

// dialTestServer upgrades both ends of a test WebSocket connection
func dialTestServer(t *testing.T) (bridgeSide, farSide transport.IMessageTransport, cleanup func()) {
	t.Helper()

	upgrader := websocket.Upgrader{}
	accepted := make(chan transport.IMessageTransport, 1)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		accepted <- NewWSTransport(conn)
	}))

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial failed: %v", err)
	}

	select {
	case bridgeSide = <-accepted:
	case <-time.After(time.Second):
		srv.Close()
		t.Fatalf("server never accepted the connection")
	}
	farSide = NewWSTransport(conn)

	return bridgeSide, farSide, func() {
		farSide.Close()
		bridgeSide.Close()
		srv.Close()
	}
}

// TestWSTransportRoundTrip tests one call/reply exchange over a real
// WebSocket connection
func TestWSTransportRoundTrip(t *testing.T) {
	bridgeSide, farSide, cleanup := dialTestServer(t)
	defer cleanup()

	go func() {
		msg, err := farSide.Receive()
		if err != nil {
			t.Errorf("far receive failed: %v", err)
			return
		}
		if err := farSide.Send(common.NewRawReply(msg.ID, json.RawMessage(`{"ok":true}`))); err != nil {
			t.Errorf("far send failed: %v", err)
		}
	}()

	call := common.NewCall(1, "tools/call", json.RawMessage(`{"name":"screenshot","arguments":{}}`))
	if err := bridgeSide.Send(call); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	reply, err := bridgeSide.Receive()
	if err != nil {
		t.Fatalf("receive failed: %v", err)
	}
	if string(reply.ID) != "1" || string(reply.Result) != `{"ok":true}` {
		t.Errorf("unexpected reply: %+v", reply)
	}
}

// TestWSTransportPeerCloseReadsAsEOF tests that a closed socket surfaces
// as a clean end of stream
func TestWSTransportPeerCloseReadsAsEOF(t *testing.T) {
	bridgeSide, farSide, cleanup := dialTestServer(t)
	defer cleanup()

	farSide.Close()
	if _, err := bridgeSide.Receive(); err != io.EOF {
		t.Errorf("expected io.EOF after peer close, got %v", err)
	}
}

// TestWSListenerAttachesConnections tests the accept path end to end
func TestWSListenerAttachesConnections(t *testing.T) {
	// Reserve an ephemeral port for the listener
	probe, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to reserve port: %v", err)
	}
	endpoint := probe.Addr().String()
	probe.Close()

	l := NewListener(common.FarConfig{Kind: common.FarKindWS, Endpoint: endpoint})
	defer l.Close()

	attached := make(chan transport.IMessageTransport, 1)
	go func() {
		if err := l.Serve(func(tr transport.IMessageTransport) { attached <- tr }); err != nil {
			t.Errorf("serve failed: %v", err)
		}
	}()

	// The accept loop needs a moment to bind
	var conn *websocket.Conn
	for i := 0; i < 50; i++ {
		conn, _, err = websocket.DefaultDialer.Dial("ws://"+endpoint+"/ws", nil)
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	select {
	case tr := <-attached:
		if tr.GetName() != "ws" {
			t.Errorf("unexpected transport name %s", tr.GetName())
		}
	case <-time.After(time.Second):
		t.Fatalf("listener never attached the connection")
	}
}
