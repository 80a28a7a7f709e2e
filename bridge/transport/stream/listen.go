package stream

import (
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/toolbridge/toolbridge/bridge/codec"
	"github.com/toolbridge/toolbridge/bridge/common"
	"github.com/toolbridge/toolbridge/bridge/transport"
)

// socketListener accepts stream socket connections and wraps each in a
// binary-framed message transport
type socketListener struct {
	network  string
	config   common.FarConfig
	listener net.Listener
	mu       sync.Mutex
	closed   bool
}

// NewSocketListener creates a far-side listener for the length-prefixed
// binary protocol on a TCP or Unix stream socket.
func NewSocketListener(network string, config common.FarConfig) transport.IFarListener {
	return &socketListener{
		network: network,
		config:  config,
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IFarListener)
// --------------------------------------------------------------------------

func (l *socketListener) GetName() string {
	return l.network
}

func (l *socketListener) Serve(attach transport.AttachFunc) error {
	// A stale socket file blocks rebinding after an unclean shutdown
	if l.network == "unix" {
		_ = os.Remove(l.config.Endpoint)
	}

	listener, err := net.Listen(l.network, l.config.Endpoint)
	if err != nil {
		return fmt.Errorf("failed to create %s socket: %v", l.network, err)
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		listener.Close()
		return nil
	}
	l.listener = listener
	l.mu.Unlock()

	transport.Logger.Infof("Listening for far side on %s (%s)", l.config.Endpoint, l.network)

	for {
		conn, err := listener.Accept()
		if err != nil {
			l.mu.Lock()
			closed := l.closed
			l.mu.Unlock()
			if closed {
				return nil
			}
			transport.Logger.Errorf("Accept error: %v", err)
			continue
		}

		if err := l.upgradeConnection(conn); err != nil {
			transport.Logger.Warningf("Failed to tune connection: %v", err)
		}

		transport.Logger.Infof("Far side connected from %s", conn.RemoteAddr())
		attach(NewConnTransport(conn, codec.NewBinaryCodec()))
	}
}

func (l *socketListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	if l.listener != nil {
		return l.listener.Close()
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// upgradeConnection applies socket tuning from the configuration
func (l *socketListener) upgradeConnection(conn net.Conn) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil // Not a TCP connection, nothing to tune
	}

	if err := tcpConn.SetNoDelay(l.config.TCPNoDelay); err != nil {
		return err
	}

	if l.config.WriteBufferSize > 0 {
		if err := tcpConn.SetWriteBuffer(l.config.WriteBufferSize); err != nil {
			return err
		}
	}

	if l.config.ReadBufferSize > 0 {
		if err := tcpConn.SetReadBuffer(l.config.ReadBufferSize); err != nil {
			return err
		}
	}

	if l.config.TCPKeepAliveSec > 0 {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}
		if err := tcpConn.SetKeepAlivePeriod(time.Duration(l.config.TCPKeepAliveSec) * time.Second); err != nil {
			return err
		}
	}

	return nil
}
