// Package room holds the single persistent connection to the room
// service and surfaces its events to the relay pipeline.
//
// The connection is a websocket carrying JSON frames: inbound data and
// presence events, outbound publishes, and delivery acks for reliable
// publishes. One socket read loop decodes frames; data and presence
// events are handed to a single dispatch goroutine so handlers run
// strictly sequentially in receipt order while acks stay readable during
// a blocked handler (a reliable publish awaited inside a handler would
// otherwise starve its own ack).
//
// A dropped connection is fatal: there is no reconnect. Done closes and
// Err reports the cause; the process is expected to exit.
package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// ErrConnect is returned when the connection handshake fails.
// Fatal to startup; there is no automatic reconnect.
var ErrConnect = errors.New("room connection failed")

// ErrNotConnected is returned by Publish before Connect or after the
// connection has dropped.
var ErrNotConnected = errors.New("room not connected")

// State is the connection lifecycle state.
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// DataHandler is invoked once per inbound payload, in receipt order,
// with the raw bytes and the topic they arrived on.
type DataHandler func(topic string, payload []byte)

// PresenceHandler is invoked when a participant joins the room.
type PresenceHandler func(identity string)

// Conn is the process-wide room connection.
type Conn struct {
	onData   DataHandler
	onJoined PresenceHandler

	conn    *websocket.Conn
	writeMu sync.Mutex

	state atomic.Int32
	seq   atomic.Uint64

	pendingMu sync.Mutex
	pending   map[uint64]chan struct{}

	events chan frame

	done      chan struct{}
	closeOnce sync.Once
	errMu     sync.Mutex
	err       error
}

// New creates an unconnected room connection.
func New() *Conn {
	return &Conn{
		pending: make(map[uint64]chan struct{}),
		events:  make(chan frame, 256),
		done:    make(chan struct{}),
	}
}

// OnData registers the inbound payload handler. Must be called before
// Connect; handlers are not reentrant and run one at a time.
func (c *Conn) OnData(fn DataHandler) {
	c.onData = fn
}

// OnParticipantJoined registers the presence handler. Observability
// only; no pipeline coupling.
func (c *Conn) OnParticipantJoined(fn PresenceHandler) {
	c.onJoined = fn
}

// Connect dials the room service and starts the read and dispatch
// loops. The credential token authenticates the join.
func (c *Conn) Connect(ctx context.Context, url string, token string) error {
	c.state.Store(int32(StateConnecting))

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		c.state.Store(int32(StateDisconnected))
		if resp != nil {
			return fmt.Errorf("%w: %v (status %d)", ErrConnect, err, resp.StatusCode)
		}
		return fmt.Errorf("%w: %v", ErrConnect, err)
	}

	c.conn = conn
	c.state.Store(int32(StateConnected))

	go c.readLoop()
	go c.dispatchLoop()
	return nil
}

// Publish sends payload on topic. With reliable set, a sequence number
// is assigned and the call blocks until the gateway acks delivery or ctx
// expires; otherwise it returns once the frame is written.
func (c *Conn) Publish(ctx context.Context, topic string, payload []byte, reliable bool) error {
	if c.State() != StateConnected {
		return ErrNotConnected
	}

	f := frame{Type: framePublish, Topic: topic, Data: payload, Reliable: reliable}
	if !reliable {
		return c.writeFrame(f)
	}

	f.Seq = c.seq.Add(1)
	ack := make(chan struct{}, 1)
	c.pendingMu.Lock()
	c.pending[f.Seq] = ack
	c.pendingMu.Unlock()
	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, f.Seq)
		c.pendingMu.Unlock()
	}()

	if err := c.writeFrame(f); err != nil {
		return err
	}

	select {
	case <-ack:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("publish ack: %w", ctx.Err())
	case <-c.done:
		return ErrNotConnected
	}
}

// State returns the current connection state.
func (c *Conn) State() State {
	return State(c.state.Load())
}

// Done is closed when the connection terminates for any reason.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Err reports why the connection terminated. Nil after a deliberate
// Close; non-nil after a fatal I/O error.
func (c *Conn) Err() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	return c.err
}

// Close shuts the connection down deliberately.
func (c *Conn) Close() error {
	if c.conn == nil {
		c.fail(nil)
		return nil
	}
	// Mark the shutdown deliberate before the read loop sees the socket
	// close, so Err stays nil.
	c.fail(nil)
	c.writeMu.Lock()
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()
	return c.conn.Close()
}

func (c *Conn) writeFrame(f frame) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// readLoop decodes frames off the socket. Acks resolve in place; data
// and presence events go to the dispatch loop.
func (c *Conn) readLoop() {
	defer close(c.events)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			c.fail(fmt.Errorf("read: %w", err))
			return
		}

		var f frame
		if err := json.Unmarshal(data, &f); err != nil {
			log.Printf("[room] dropping malformed frame: %v", err)
			continue
		}

		switch f.Type {
		case frameAck:
			c.pendingMu.Lock()
			ack, ok := c.pending[f.Seq]
			c.pendingMu.Unlock()
			if ok {
				ack <- struct{}{}
			}
		case frameData, frameParticipantJoined:
			select {
			case c.events <- f:
			case <-c.done:
				return
			}
		default:
			log.Printf("[room] ignoring frame type %q", f.Type)
		}
	}
}

// dispatchLoop invokes handlers one event at a time, in receipt order.
func (c *Conn) dispatchLoop() {
	for f := range c.events {
		switch f.Type {
		case frameData:
			if c.onData != nil {
				c.onData(f.Topic, f.Data)
			}
		case frameParticipantJoined:
			if c.onJoined != nil {
				c.onJoined(f.Identity)
			}
		}
	}
}

// fail records the terminal error and marks the connection down.
func (c *Conn) fail(err error) {
	c.closeOnce.Do(func() {
		c.errMu.Lock()
		c.err = err
		c.errMu.Unlock()
		c.state.Store(int32(StateDisconnected))
		close(c.done)
	})
}
