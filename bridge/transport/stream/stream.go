// Package stream adapts any duplex byte stream (process standard streams,
// TCP or Unix socket connections) into a logical message transport using a
// frame codec.
package stream

import (
	"bufio"
	"io"
	"sync"

	"github.com/toolbridge/toolbridge/bridge/codec"
	"github.com/toolbridge/toolbridge/bridge/common"
	"github.com/toolbridge/toolbridge/bridge/transport"
)

// streamTransport implements transport.IMessageTransport over an io stream
type streamTransport struct {
	codec  codec.IFrameCodec
	reader *bufio.Reader
	writer io.Writer

	// Write lock: multiple goroutines share one channel, writes must be
	// serialized so frames from different messages never interleave
	writeMu sync.Mutex

	closer io.Closer
}

// NewStreamTransport creates a message transport from separate read and
// write streams, e.g. a process's stdin/stdout pair. The optional closer is
// invoked by Close.
func NewStreamTransport(r io.Reader, w io.Writer, closer io.Closer, c codec.IFrameCodec) transport.IMessageTransport {
	return &streamTransport{
		codec:  c,
		reader: bufio.NewReader(r),
		writer: w,
		closer: closer,
	}
}

// NewConnTransport creates a message transport from a duplex connection.
func NewConnTransport(conn io.ReadWriteCloser, c codec.IFrameCodec) transport.IMessageTransport {
	return NewStreamTransport(conn, conn, conn, c)
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IMessageTransport)
// --------------------------------------------------------------------------

func (t *streamTransport) GetName() string {
	return "stream/" + t.codec.GetName()
}

func (t *streamTransport) Send(msg *common.Message) error {
	frame, err := t.codec.Encode(msg)
	if err != nil {
		return err
	}

	// The frame is encoded up front so the lock only covers one Write call
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	_, err = t.writer.Write(frame)
	return err
}

func (t *streamTransport) Receive() (*common.Message, error) {
	// Single reader per transport: the bufio.Reader keeps partial-frame
	// state between calls and must not be shared
	return t.codec.Decode(t.reader)
}

func (t *streamTransport) Close() error {
	if t.closer == nil {
		return nil
	}
	return t.closer.Close()
}
