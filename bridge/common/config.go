package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// --------------------------------------------------------------------------
// Far-side transport configuration
// --------------------------------------------------------------------------

// FarKind selects how the browser-side agent attaches to the bridge.
type FarKind string

const (
	// FarKindWS accepts one JSON object per WebSocket text message
	FarKindWS FarKind = "ws"
	// FarKindTCP accepts length-prefixed binary frames on a TCP socket
	FarKindTCP FarKind = "tcp"
	// FarKindUnix accepts length-prefixed binary frames on a Unix socket
	FarKindUnix FarKind = "unix"
)

// ParseFarKind validates a far-side transport name from flags/env.
func ParseFarKind(s string) (FarKind, error) {
	switch FarKind(strings.ToLower(s)) {
	case FarKindWS:
		return FarKindWS, nil
	case FarKindTCP:
		return FarKindTCP, nil
	case FarKindUnix:
		return FarKindUnix, nil
	default:
		return "", fmt.Errorf("invalid far transport: %s (expected one of: ws, tcp, unix)", s)
	}
}

// FarConfig holds the listener settings for the far-side channel.
type FarConfig struct {
	// Kind of transport (ws, tcp, unix)
	Kind FarKind
	// Endpoint to listen on (host:port for ws/tcp, socket path for unix)
	Endpoint string
	// WSPath is the HTTP path upgraded to a WebSocket (ws only)
	WSPath string

	// Socket tuning (tcp only)
	TCPNoDelay      bool
	TCPKeepAliveSec int
	ReadBufferSize  int
	WriteBufferSize int
}

// --------------------------------------------------------------------------
// Bridge configuration
// --------------------------------------------------------------------------

// Config holds all configuration parameters for one bridge process.
type Config struct {
	// CallTimeoutSecond bounds how long a bridged call may stay pending
	// before it fails with a timeout fault
	CallTimeoutSecond int64

	// LogLevel is the level at which logs will be output (debug, info, warn, error)
	LogLevel string

	// MetricsAddr optionally exposes a Prometheus /metrics endpoint
	MetricsAddr string

	// Far is the far-side listener configuration
	Far FarConfig
}

// CallTimeout returns the pending-call timeout as a duration.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.CallTimeoutSecond) * time.Second
}

// String returns a human-readable representation of the configuration.
func (c *Config) String() string {
	var sb strings.Builder

	// Create helper functions for consistent formatting
	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Bridge Configuration")
	addField("Call Timeout", fmt.Sprintf("%d sec", c.CallTimeoutSecond))
	addField("Log Level", c.LogLevel)
	if c.MetricsAddr != "" {
		addField("Metrics", c.MetricsAddr)
	}

	addSection("Far Side")
	addField("Transport", string(c.Far.Kind))
	addField("Endpoint", c.Far.Endpoint)
	if c.Far.Kind == FarKindWS {
		addField("Path", c.Far.WSPath)
	}
	if c.Far.Kind == FarKindTCP {
		addField("TCP NoDelay", strconv.FormatBool(c.Far.TCPNoDelay))
		addField("TCP KeepAlive", fmt.Sprintf("%d sec", c.Far.TCPKeepAliveSec))
	}

	return sb.String()
}
