package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/toolbridge/toolbridge/bridge/calls"
	"github.com/toolbridge/toolbridge/bridge/common"
	"github.com/toolbridge/toolbridge/bridge/tools"
)

const (
	protocolVersion = "2024-11-05"
	serverName      = "toolbridge"
	serverVersion   = "1.0.0"
)

// --------------------------------------------------------------------------
// Handler result types
// --------------------------------------------------------------------------

// initializeResult is the fixed capabilities descriptor
type initializeResult struct {
	ProtocolVersion string       `json:"protocolVersion"`
	Capabilities    capabilities `json:"capabilities"`
	ServerInfo      serverInfo   `json:"serverInfo"`
}

type capabilities struct {
	Tools struct{} `json:"tools"`
}

type serverInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// toolsListResult wraps the static registry for tools/list
type toolsListResult struct {
	Tools []tools.Tool `json:"tools"`
}

// toolCallParams is the near-side tools/call parameter shape. Arguments are
// opaque and forwarded unmodified.
type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// --------------------------------------------------------------------------
// Handlers
// --------------------------------------------------------------------------

func (s *Server) handleInitialize(_ context.Context, req *common.Message) *common.Message {
	reply, err := common.NewReply(req.ID, initializeResult{
		ProtocolVersion: protocolVersion,
		ServerInfo:      serverInfo{Name: serverName, Version: serverVersion},
	})
	if err != nil {
		return common.NewFault(req.ID, common.CodeCallFailure, err.Error())
	}
	return reply
}

func (s *Server) handleToolsList(_ context.Context, req *common.Message) *common.Message {
	reply, err := common.NewReply(req.ID, toolsListResult{Tools: s.registry.List()})
	if err != nil {
		return common.NewFault(req.ID, common.CodeCallFailure, err.Error())
	}
	return reply
}

// handleToolsCall bridges one tool invocation to the far side: it registers
// a pending call, transmits it on the far-side channel and awaits the
// correlated outcome before producing the near-side reply or fault.
func (s *Server) handleToolsCall(ctx context.Context, req *common.Message) *common.Message {
	var params toolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return common.NewFault(req.ID, common.CodeCallFailure,
			fmt.Sprintf("invalid tools/call params: %v", err))
	}

	if !s.registry.Has(params.Name) {
		// No far-side traffic for a tool the bridge never advertised
		return common.NewFault(req.ID, common.CodeCallFailure,
			fmt.Sprintf("unknown tool: %s", params.Name))
	}

	result, err := s.remote.Call(ctx, req.Method, req.Params)
	if err != nil {
		return common.NewFault(req.ID, common.CodeCallFailure, faultMessage(err))
	}
	return common.NewRawReply(req.ID, result)
}

// faultMessage maps a call failure to the message text surfaced near-side.
// Far-side faults keep their original message; every cause shares the one
// generic code.
func faultMessage(err error) string {
	var rpcErr *common.RPCError
	switch {
	case errors.As(err, &rpcErr):
		return rpcErr.Message
	case errors.Is(err, ErrNotConnected):
		return "far side not connected"
	case errors.Is(err, calls.ErrTimeout):
		return "call timed out"
	case errors.Is(err, calls.ErrConnectionLost):
		return "connection to far side lost"
	default:
		return err.Error()
	}
}
