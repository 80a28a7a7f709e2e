package common

import (
	"encoding/json"
	"strconv"
)

// --------------------------------------------------------------------------
// Message Structure
// --------------------------------------------------------------------------

// Message represents a single JSON-RPC 2.0 envelope used for calls,
// notifications, replies and faults. Which fields are set depends on the
// kind of message; the wire framing is handled separately by the codec layer.
type Message struct {
	// Protocol marker, set to "2.0" on everything the bridge emits
	JSONRPC string `json:"jsonrpc,omitempty"`

	// Call identifier. Kept as raw JSON so identifiers assigned by the
	// near-side peer (numbers or strings) round-trip byte for byte.
	ID json.RawMessage `json:"id,omitempty"`

	// Call / notification fields
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`

	// Reply / fault fields
	Result json.RawMessage `json:"result,omitempty"`
	Error  *RPCError       `json:"error,omitempty"`
}

// RPCError is the JSON-RPC error object carried by a fault message.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Error implements the error interface so far-side faults can travel
// through regular error returns and be unwrapped at the near side.
func (e *RPCError) Error() string {
	return e.Message
}

// --------------------------------------------------------------------------
// Error Codes
// --------------------------------------------------------------------------

const (
	// CodeParseError signals a frame that could not be parsed as JSON
	CodeParseError = -32700
	// CodeMethodNotFound signals a call for a method outside the registry
	CodeMethodNotFound = -32601
	// CodeCallFailure covers every runtime call failure: far side not
	// connected, call timed out, or a fault reported by the far side.
	// The causes are distinguished by message text only.
	CodeCallFailure = -32000
)

// --------------------------------------------------------------------------
// Message Kind
// --------------------------------------------------------------------------

// Kind classifies a decoded message for routing.
type Kind uint8

const (
	KindInvalid      Kind = iota // neither identifier nor method
	KindCall                     // identifier + method
	KindNotification             // method, no identifier, no reply expected
	KindReply                    // identifier + result, no method
	KindFault                    // identifier + error, no method
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	switch k {
	case KindCall:
		return "call"
	case KindNotification:
		return "notification"
	case KindReply:
		return "reply"
	case KindFault:
		return "fault"
	default:
		return "invalid"
	}
}

// HasID reports whether the message carries a non-null identifier.
func (m *Message) HasID() bool {
	return len(m.ID) > 0 && string(m.ID) != "null"
}

// Kind classifies the message. Replies and faults always carry an
// identifier; notifications never do.
func (m *Message) Kind() Kind {
	switch {
	case m.Method != "" && m.HasID():
		return KindCall
	case m.Method != "":
		return KindNotification
	case m.HasID() && m.Error != nil:
		return KindFault
	case m.HasID():
		return KindReply
	default:
		return KindInvalid
	}
}

// --------------------------------------------------------------------------
// Identifier helpers
// --------------------------------------------------------------------------

// NullID is the identifier used on faults for unparseable frames.
var NullID = json.RawMessage("null")

// EncodeID renders a bridge-assigned numeric identifier as raw JSON.
func EncodeID(id uint64) json.RawMessage {
	return json.RawMessage(strconv.AppendUint(nil, id, 10))
}

// DecodeID parses a raw identifier as a bridge-assigned numeric identifier.
// Identifiers assigned by other peers (strings, floats) return ok=false.
func DecodeID(raw json.RawMessage) (uint64, bool) {
	id, err := strconv.ParseUint(string(raw), 10, 64)
	return id, err == nil
}

// --------------------------------------------------------------------------
// Message Factory Functions
// --------------------------------------------------------------------------

// NewCall creates an outbound call with a bridge-assigned identifier.
func NewCall(id uint64, method string, params json.RawMessage) *Message {
	return &Message{
		JSONRPC: "2.0",
		ID:      EncodeID(id),
		Method:  method,
		Params:  params,
	}
}

// NewNotification creates a notification (no identifier, no reply expected).
func NewNotification(method string, params json.RawMessage) *Message {
	return &Message{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
	}
}

// NewReply creates a successful reply for the given identifier. The result
// is marshalled here so handlers can pass plain structs.
func NewReply(id json.RawMessage, result any) (*Message, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &Message{
		JSONRPC: "2.0",
		ID:      id,
		Result:  raw,
	}, nil
}

// NewRawReply creates a successful reply carrying an already-encoded result.
func NewRawReply(id json.RawMessage, result json.RawMessage) *Message {
	return &Message{
		JSONRPC: "2.0",
		ID:      id,
		Result:  result,
	}
}

// NewFault creates an error reply for the given identifier.
func NewFault(id json.RawMessage, code int, message string) *Message {
	if len(id) == 0 {
		id = NullID
	}
	return &Message{
		JSONRPC: "2.0",
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	}
}
