package stream

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"net"
	"sync"
	"testing"

	"github.com/toolbridge/toolbridge/bridge/codec"
	"github.com/toolbridge/toolbridge/bridge/common"
)

// lockedBuffer collects frames written by the transport
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// TestConcurrentSendsDoNotInterleave tests that frames from concurrent
// senders arrive whole: every written frame decodes, and all identifiers
// are accounted for
func TestConcurrentSendsDoNotInterleave(t *testing.T) {
	for name, factory := range map[string]func() codec.IFrameCodec{
		"Line":   codec.NewLineCodec,
		"Binary": codec.NewBinaryCodec,
	} {
		t.Run(name, func(t *testing.T) {
			var buf lockedBuffer
			tr := NewStreamTransport(nil, &buf, nil, factory())

			const n = 50
			var wg sync.WaitGroup
			for i := 1; i <= n; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					msg := common.NewCall(uint64(i), "tools/call", json.RawMessage(`{"name":"click"}`))
					if err := tr.Send(msg); err != nil {
						t.Errorf("send %d failed: %v", i, err)
					}
				}(i)
			}
			wg.Wait()

			// Every frame must decode cleanly and each identifier appear once
			c := factory()
			r := bufio.NewReader(bytes.NewReader(buf.buf.Bytes()))
			seen := make(map[uint64]bool)
			for i := 0; i < n; i++ {
				msg, err := c.Decode(r)
				if err != nil {
					t.Fatalf("frame %d corrupted: %v", i, err)
				}
				id, ok := common.DecodeID(msg.ID)
				if !ok || seen[id] {
					t.Fatalf("frame %d has bad or duplicate identifier %s", i, msg.ID)
				}
				seen[id] = true
			}
			if _, err := c.Decode(r); err != io.EOF {
				t.Errorf("expected io.EOF after %d frames, got %v", n, err)
			}
		})
	}
}

// TestReceiveYieldsArrivalOrder tests that frames come out strictly in the
// order they were written
func TestReceiveYieldsArrivalOrder(t *testing.T) {
	c := codec.NewLineCodec()

	var buf bytes.Buffer
	for i := 1; i <= 10; i++ {
		frame, err := c.Encode(common.NewCall(uint64(i), "tools/list", nil))
		if err != nil {
			t.Fatalf("encode failed: %v", err)
		}
		buf.Write(frame)
	}

	tr := NewStreamTransport(&buf, io.Discard, nil, codec.NewLineCodec())
	for i := 1; i <= 10; i++ {
		msg, err := tr.Receive()
		if err != nil {
			t.Fatalf("receive %d failed: %v", i, err)
		}
		if id, _ := common.DecodeID(msg.ID); id != uint64(i) {
			t.Errorf("expected frame %d, got identifier %s", i, msg.ID)
		}
	}
	if _, err := tr.Receive(); err != io.EOF {
		t.Errorf("expected io.EOF at end of stream, got %v", err)
	}
}

// TestConnTransportRoundTrip tests the binary-framed transport over a real
// duplex connection
func TestConnTransportRoundTrip(t *testing.T) {
	a, b := net.Pipe()
	bridgeSide := NewConnTransport(a, codec.NewBinaryCodec())
	farSide := NewConnTransport(b, codec.NewBinaryCodec())

	go func() {
		msg, err := farSide.Receive()
		if err != nil {
			t.Errorf("far receive failed: %v", err)
			return
		}
		reply := common.NewRawReply(msg.ID, json.RawMessage(`{"ok":true}`))
		if err := farSide.Send(reply); err != nil {
			t.Errorf("far send failed: %v", err)
		}
	}()

	call := common.NewCall(1, "tools/call", json.RawMessage(`{"name":"navigate","arguments":{"url":"https://example.com"}}`))
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

	farSide.Close()
	if _, err := bridgeSide.Receive(); err != io.EOF {
		t.Errorf("expected io.EOF after peer close, got %v", err)
	}
}
