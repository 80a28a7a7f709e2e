package ws

import (
	"net"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/toolbridge/toolbridge/bridge/common"
	"github.com/toolbridge/toolbridge/bridge/transport"
)

// wsListener accepts WebSocket connections on a fixed local endpoint and
// wraps each in a message transport
type wsListener struct {
	config   common.FarConfig
	upgrader websocket.Upgrader
	server   *http.Server
	mu       sync.Mutex
	closed   bool
}

// NewListener creates a far-side WebSocket listener. The browser-side agent
// connects to ws://<endpoint><path>.
func NewListener(config common.FarConfig) transport.IFarListener {
	if config.WSPath == "" {
		config.WSPath = "/ws"
	}
	return &wsListener{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The endpoint is bound locally; the extension's origin is
			// not a meaningful access control here
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IFarListener)
// --------------------------------------------------------------------------

func (l *wsListener) GetName() string {
	return "ws"
}

func (l *wsListener) Serve(attach transport.AttachFunc) error {
	mux := http.NewServeMux()
	mux.HandleFunc(l.config.WSPath, func(w http.ResponseWriter, r *http.Request) {
		conn, err := l.upgrader.Upgrade(w, r, nil)
		if err != nil {
			transport.Logger.Errorf("WebSocket upgrade failed: %v", err)
			return
		}

		transport.Logger.Infof("Far side connected from %s", conn.RemoteAddr())
		attach(NewWSTransport(conn))
	})

	listener, err := net.Listen("tcp", l.config.Endpoint)
	if err != nil {
		return err
	}

	server := &http.Server{Handler: mux}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		listener.Close()
		return nil
	}
	l.server = server
	l.mu.Unlock()

	transport.Logger.Infof("Listening for far side on ws://%s%s", l.config.Endpoint, l.config.WSPath)

	if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (l *wsListener) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	if l.server != nil {
		return l.server.Close()
	}
	return nil
}
