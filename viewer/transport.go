package viewer

import (
	"encoding/gob"
	"io"
	"os"
	"time"
)

// Transport moves gob-encoded messages over a duplex byte pipe between
// the host and the render worker. Delivery is ordered and exactly-once;
// every payload is deep-copied by the encoding, so no buffer is ever
// shared across the process boundary.
//
// A dedicated goroutine decodes incoming messages into a channel so
// that Recv can honor a bounded wait.
type Transport struct {
	enc  *gob.Encoder
	conn io.ReadWriteCloser
	recv chan received
}

type received struct {
	msg interface{}
	err error
}

// Create a transport over a duplex connection. The reader goroutine
// runs until the connection fails or is closed.
func NewTransport(conn io.ReadWriteCloser) *Transport {
	t := &Transport{
		enc:  gob.NewEncoder(conn),
		conn: conn,
		recv: make(chan received, 16),
	}
	go t.readLoop(gob.NewDecoder(conn))
	return t
}

// Send a message. Blocks until the message is handed to the pipe.
func (t *Transport) Send(msg interface{}) error {
	return t.enc.Encode(&msg)
}

// Receive the next message, waiting at most the given duration.
// A non-positive timeout blocks without bound. Returns ErrTimeout when
// the wait elapses and the underlying read error once the peer is gone.
func (t *Transport) Recv(timeout time.Duration) (interface{}, error) {
	if timeout <= 0 {
		res := <-t.recv
		return res.msg, res.err
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-t.recv:
		return res.msg, res.err
	case <-timer.C:
		return nil, ErrTimeout
	}
}

// Close the underlying connection. Pending and future receives fail.
func (t *Transport) Close() error {
	return t.conn.Close()
}

func (t *Transport) readLoop(dec *gob.Decoder) {
	for {
		var msg interface{}
		if err := dec.Decode(&msg); err != nil {
			t.recv <- received{err: err}
			return
		}
		t.recv <- received{msg: msg}
	}
}

// Stdio returns the worker-side duplex connection over the process
// standard streams: commands arrive on stdin, replies leave on stdout.
// Log output goes to stderr so it never corrupts the command pipe.
func Stdio() io.ReadWriteCloser {
	return &stdioConn{}
}

type stdioConn struct{}

func (c *stdioConn) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (c *stdioConn) Write(p []byte) (int, error) { return os.Stdout.Write(p) }

func (c *stdioConn) Close() error {
	return os.Stdout.Close()
}
