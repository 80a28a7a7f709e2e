// Package server implements the RPC dispatcher at the center of the
// bridge: it interprets inbound near-side messages as calls to handle or
// replies to correlate, drives the correlation table, and translates
// far-side error conditions into the near protocol's error shape.
package server

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/lni/dragonboat/v4/logger"

	"github.com/toolbridge/toolbridge/bridge/codec"
	"github.com/toolbridge/toolbridge/bridge/common"
	"github.com/toolbridge/toolbridge/bridge/tools"
	"github.com/toolbridge/toolbridge/bridge/transport"
)

var Logger = logger.GetLogger("bridge/server")

// handlerFunc processes one inbound near-side call and returns the reply
// or fault to emit with the original identifier
type handlerFunc func(ctx context.Context, req *common.Message) *common.Message

// Server is the bridge dispatcher wired from a near-side transport, a
// far-side connection manager and the static tool registry.
//
// Usage:
//
//	table := calls.NewTable(config.CallTimeout())
//	remote := server.NewRemote(table)
//	s := server.NewServer(config, near, remote, tools.NewRegistry())
//
//	if err := s.Serve(ctx); err != nil {
//		panic(err)
//	}
type Server struct {
	config   common.Config
	near     transport.IMessageTransport
	remote   *Remote
	registry *tools.Registry
	handlers map[string]handlerFunc
	wg       sync.WaitGroup
}

// NewServer creates a bridge dispatcher. The handler registry is fixed:
// initialize, tools/list and tools/call.
func NewServer(config common.Config, near transport.IMessageTransport, remote *Remote, registry *tools.Registry) *Server {
	s := &Server{
		config:   config,
		near:     near,
		remote:   remote,
		registry: registry,
	}
	s.handlers = map[string]handlerFunc{
		"initialize": s.handleInitialize,
		"tools/list": s.handleToolsList,
		"tools/call": s.handleToolsCall,
	}
	return s
}

// Remote returns the far-side connection manager owned by this dispatcher.
func (s *Server) Remote() *Remote {
	return s.remote
}

// Serve runs the near-side receive loop until the stream ends or the
// context is canceled. Frames are processed strictly in arrival order;
// calls are handled in their own goroutine so a slow bridged call never
// blocks the loop or other in-flight calls.
func (s *Server) Serve(ctx context.Context) error {
	Logger.Infof("Bridge dispatcher started")

	for {
		if ctx.Err() != nil {
			break
		}

		msg, err := s.near.Receive()
		if err != nil {
			if errors.Is(err, io.EOF) {
				Logger.Infof("Near side closed the stream")
				break
			}
			if errors.Is(err, codec.ErrMalformedFrame) {
				// Reported to the near side, stream continues
				nearParseFaults.Inc()
				s.send(common.NewFault(common.NullID, common.CodeParseError, "parse error"))
				continue
			}
			return err
		}

		switch msg.Kind() {
		case common.KindNotification:
			s.handleNotification(msg)

		case common.KindCall:
			s.wg.Add(1)
			go func() {
				defer s.wg.Done()
				s.dispatch(ctx, msg)
			}()

		case common.KindReply, common.KindFault:
			// A reply arriving on the near side correlates like any
			// other: matched against the shared table, no outbound frame
			s.correlate(msg)

		default:
			Logger.Warningf("Dropping near-side message with neither identifier nor method")
		}
	}

	s.wg.Wait()
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// dispatch routes one inbound near-side call through the handler registry
func (s *Server) dispatch(ctx context.Context, req *common.Message) {
	nearRequests(req.Method).Inc()

	handler, ok := s.handlers[req.Method]
	if !ok {
		s.send(common.NewFault(req.ID, common.CodeMethodNotFound, "method not found"))
		return
	}

	s.send(handler(ctx, req))
}

// handleNotification executes a notification and produces no outbound
// frame. notifications/initialized is a recognized no-op; unrecognized
// methods are silently accepted as no-ops too.
func (s *Server) handleNotification(msg *common.Message) {
	switch msg.Method {
	case "notifications/initialized":
		Logger.Debugf("Near side finished initialization")
	default:
		Logger.Debugf("Ignoring notification %s", msg.Method)
	}
}

// correlate forwards a reply or fault into the correlation table
func (s *Server) correlate(msg *common.Message) {
	id, ok := common.DecodeID(msg.ID)
	if !ok {
		Logger.Warningf("Reply with non-numeric identifier %s", msg.ID)
		return
	}
	if msg.Error != nil {
		s.remote.table.Fail(id, msg.Error)
		return
	}
	s.remote.table.Resolve(id, msg.Result)
}

// send emits one outbound frame on the near side
func (s *Server) send(msg *common.Message) {
	if msg.Error != nil {
		nearFaults(msg.Error.Code).Inc()
	}
	if err := s.near.Send(msg); err != nil {
		Logger.Errorf("Failed to send near-side frame: %v", err)
	}
}
