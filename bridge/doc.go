// Package bridge provides the request/response correlation layer that
// connects an MCP-style tool-invocation protocol spoken over a
// line-delimited stream to the same logical protocol spoken over a
// framing-incompatible far-side channel.
//
// The package is organized into several subpackages:
//
//   - common: The JSON-RPC message envelope, error codes, configuration
//     structures, and logging shared across the bridge.
//
//   - codec: Wire framing of logical messages, with newline-delimited and
//     length-prefixed binary implementations.
//
//   - transport: Message-level adapters over duplex byte channels (process
//     streams, TCP/Unix sockets, WebSockets) plus the far-side listeners.
//
//   - calls: The correlation table matching asynchronous far-side replies
//     to the outbound calls that issued them, with timeout eviction.
//
//   - server: The dispatcher driving both sides: it handles near-side
//     calls, bridges tool invocations to the far side, and translates
//     error conditions into the near protocol's error shape.
//
//   - tools: The static registry of advertised browser tools.
package bridge
