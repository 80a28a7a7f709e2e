package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/toolbridge/toolbridge/bridge/calls"
	"github.com/toolbridge/toolbridge/bridge/codec"
	"github.com/toolbridge/toolbridge/bridge/common"
	"github.com/toolbridge/toolbridge/bridge/transport"
)

// ErrNotConnected fails a call attempted while no far-side channel is
// attached. The failure is immediate; no pending call is registered and no
// timer is armed.
var ErrNotConnected = errors.New("far side not connected")

// Remote owns the current far-side channel and the correlation table tied
// to it. It is injected into the server rather than held as process-wide
// state, so several bridge instances (or tests) can run side by side.
type Remote struct {
	table *calls.Table

	mu      sync.Mutex
	current transport.IMessageTransport
}

// NewRemote creates a far-side connection manager around a correlation table.
func NewRemote(table *calls.Table) *Remote {
	return &Remote{table: table}
}

// Attach adopts a newly accepted far-side channel and starts its receive
// loop. A previously attached channel is closed and its pending calls are
// drained; calls issued from then on ride the new channel.
func (r *Remote) Attach(t transport.IMessageTransport) {
	r.mu.Lock()
	old := r.current
	if old != nil {
		old.Close()
		r.table.Drain()
	}
	r.current = t
	r.mu.Unlock()

	if old != nil {
		Logger.Warningf("Far side replaced; previous connection closed")
	}
	farConnects.Inc()

	go r.recvLoop(t)
}

// Connected reports whether a far-side channel is currently attached.
func (r *Remote) Connected() bool {
	return r.transport() != nil
}

// Call issues one outbound call on the far-side channel and blocks until
// its reply, fault, timeout or disconnect. Far-side faults are returned as
// *common.RPCError.
func (r *Remote) Call(ctx context.Context, method string, params json.RawMessage) (json.RawMessage, error) {
	t := r.transport()
	if t == nil {
		return nil, ErrNotConnected
	}

	// Register before sending so the reply can never race the bookkeeping
	id, ch := r.table.Register()

	if err := t.Send(common.NewCall(id, method, params)); err != nil {
		r.table.Fail(id, fmt.Errorf("failed to send call: %w", err))
	}

	select {
	case out := <-ch:
		return out.Result, out.Err
	case <-ctx.Done():
		r.table.Fail(id, ctx.Err())
		return nil, ctx.Err()
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (r *Remote) transport() transport.IMessageTransport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// recvLoop reads the far-side channel until it closes, routing each message
// to the correlation table. On exit the table is drained exactly once.
func (r *Remote) recvLoop(t transport.IMessageTransport) {
	for {
		msg, err := t.Receive()
		if err != nil {
			if errors.Is(err, codec.ErrMalformedFrame) {
				// The frame is consumed; the channel stays usable
				farFrameFaults.Inc()
				Logger.Warningf("Dropping malformed far-side frame: %v", err)
				continue
			}
			if err != io.EOF {
				Logger.Errorf("Far-side receive failed: %v", err)
			}
			break
		}

		r.route(t, msg)
	}

	t.Close()
	r.detach(t)
}

// route dispatches one inbound far-side message
func (r *Remote) route(t transport.IMessageTransport, msg *common.Message) {
	switch msg.Kind() {
	case common.KindReply, common.KindFault:
		id, ok := common.DecodeID(msg.ID)
		if !ok {
			Logger.Warningf("Far-side reply with non-numeric identifier %s", msg.ID)
			return
		}

		if msg.Error != nil {
			if !r.table.Fail(id, msg.Error) {
				Logger.Debugf("Late fault for call %d ignored", id)
			}
			return
		}
		if !r.table.Resolve(id, msg.Result) {
			Logger.Debugf("Late reply for call %d ignored", id)
		}

	case common.KindCall:
		// The protocol is bidirectional, but the bridge exposes no
		// methods to the far side
		Logger.Infof("Rejecting far-initiated call %s", msg.Method)
		if err := t.Send(common.NewFault(msg.ID, common.CodeMethodNotFound, "method not found")); err != nil {
			Logger.Errorf("Failed to reject far-initiated call: %v", err)
		}

	case common.KindNotification:
		Logger.Debugf("Dropping far-side notification %s", msg.Method)

	default:
		Logger.Warningf("Dropping unroutable far-side message")
	}
}

// detach clears the current channel if it is still the one that closed and
// drains its pending calls. A channel already replaced by Attach was
// drained there; draining again would fail calls issued on the new channel.
func (r *Remote) detach(t transport.IMessageTransport) {
	r.mu.Lock()
	active := r.current == t
	if active {
		r.current = nil
	}
	r.mu.Unlock()

	if active {
		farDisconnects.Inc()
		Logger.Infof("Far side disconnected")
		r.table.Drain()
	}
}
