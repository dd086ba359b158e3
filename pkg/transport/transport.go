// Copyright © 2026 Niko Carpenter <niko@nikocarpenter.com>
//
// This source code is governed by the MIT license, which can be found in the LICENSE file.

// Package transport carries frames over a single websocket connection.
// A Conn never retries; reconnecting is left to its owner.
package transport

import (
	"context"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrNotOpen is returned when sending on a connection that isn't open.
var ErrNotOpen = errors.New("Connection not open")

// EventKind identifies what happened on a connection.
type EventKind int

// Event kinds, in the order a connection can report them.
// Error and Closed are each reported at most once; Closed is always last.
const (
	Opened EventKind = iota
	Message
	Error
	Closed
)

func (k EventKind) String() string {
	switch k {
	case Opened:
		return "opened"
	case Message:
		return "message"
	case Error:
		return "error"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// An Event is reported by a Conn to its owner.
type Event struct {
	Conn    *Conn
	Kind    EventKind
	Payload []byte // Message only
	Err     error  // Error, and Closed if the connection wasn't closed cleanly
	Clean   bool   // Closed only
	Code    int    // Closed only; the websocket close code, if one was received
}

// Config configures a Conn.
type Config struct {
	// URL is the websocket endpoint, usually built with EndpointURL.
	URL string

	// HandshakeTimeout bounds the opening handshake. If 0, DefaultHandshakeTimeout is used.
	HandshakeTimeout time.Duration

	// WriteTimeout bounds each frame write. If 0, writes don't time out.
	WriteTimeout time.Duration

	// MaxMessageSize limits inbound frames. If 0, there is no limit.
	MaxMessageSize int64

	Log *logrus.Logger
}

// DefaultHandshakeTimeout is used when Config.HandshakeTimeout is 0.
const DefaultHandshakeTimeout = 10 * time.Second

// EndpointURL gets the well-known endpoint of the intercom server on host.
func EndpointURL(host string, secure bool) string {
	u := url.URL{Scheme: "ws", Host: host, Path: "/ws"}
	if secure {
		u.Scheme = "wss"
	}
	return u.String()
}

type connState int

const (
	stateConnecting connState = iota
	stateOpen
	stateClosed
)

// Conn is one attempt at a websocket connection.
type Conn struct {
	ID string

	cfg    Config
	log    *logrus.Entry
	events chan<- Event
	ctx    context.Context // Ends when the owner stops listening for events.
	cancel context.CancelFunc

	lock    sync.Mutex // Protects ws, state and closing, and serializes writes
	ws      *websocket.Conn
	state   connState
	closing bool
}

// Open starts connecting to cfg.URL, and returns immediately.
// Everything that happens to the connection, including a failure to connect,
// is reported on events. Events stop being delivered once ctx is done.
func Open(ctx context.Context, cfg Config, events chan<- Event) *Conn {
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = DefaultHandshakeTimeout
	}

	id := uuid.NewString()
	connCtx, cancel := context.WithCancel(ctx)
	conn := &Conn{
		ID:     id,
		cfg:    cfg,
		events: events,
		ctx:    ctx,
		cancel: cancel,
		log: cfg.Log.WithFields(logrus.Fields{
			"conn_id": id,
			"url":     cfg.URL,
		}),
	}
	go conn.run(connCtx)
	return conn
}

// IsOpen reports whether frames can currently be sent.
func (conn *Conn) IsOpen() bool {
	conn.lock.Lock()
	defer conn.lock.Unlock()
	return conn.state == stateOpen
}

// Send writes one frame.
// If the connection isn't open, nothing is sent and ErrNotOpen is returned.
// A failed write closes the connection.
func (conn *Conn) Send(payload []byte) error {
	conn.lock.Lock()
	defer conn.lock.Unlock()
	if conn.state != stateOpen {
		return ErrNotOpen
	}

	if conn.cfg.WriteTimeout > 0 {
		conn.ws.SetWriteDeadline(time.Now().Add(conn.cfg.WriteTimeout))
	}
	if err := conn.ws.WriteMessage(websocket.TextMessage, payload); err != nil {
		conn.log.WithField("error", err).Debug("Write failed; closing connection")
		conn.ws.Close() // The read loop will report Closed.
		return errors.Wrap(err, "Send")
	}
	return nil
}

// Close closes the connection, or abandons the attempt if it isn't open yet.
// Close is idempotent; Closed will be reported once.
func (conn *Conn) Close() error {
	conn.lock.Lock()
	defer conn.lock.Unlock()
	conn.closing = true
	conn.cancel()
	if conn.state != stateOpen {
		return nil
	}

	conn.ws.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second),
	)
	return conn.ws.Close()
}

func (conn *Conn) run(ctx context.Context) {
	conn.log.Debug("Connecting")
	dialer := websocket.Dialer{
		Proxy:            websocket.DefaultDialer.Proxy,
		HandshakeTimeout: conn.cfg.HandshakeTimeout,
	}
	ws, _, err := dialer.DialContext(ctx, conn.cfg.URL, nil)
	if err != nil {
		if conn.isClosing() {
			conn.finish(nil, true, 0)
			return
		}
		conn.finish(errors.Wrap(err, "Dial"), false, 0)
		return
	}
	if conn.cfg.MaxMessageSize > 0 {
		ws.SetReadLimit(conn.cfg.MaxMessageSize)
	}

	conn.lock.Lock()
	if conn.closing {
		// Closed while the handshake was in flight.
		conn.lock.Unlock()
		ws.Close()
		conn.finish(nil, true, websocket.CloseNormalClosure)
		return
	}
	conn.ws = ws
	conn.state = stateOpen
	conn.lock.Unlock()

	conn.log.Debug("Connected")
	conn.emit(Event{Kind: Opened})
	conn.receive(ws)
}

// receive reads frames until the connection fails or is closed.
func (conn *Conn) receive(ws *websocket.Conn) {
	for {
		_, data, err := ws.ReadMessage()
		if err == nil {
			conn.emit(Event{Kind: Message, Payload: data})
			continue
		}

		conn.lock.Lock()
		conn.state = stateClosed
		closing := conn.closing
		conn.lock.Unlock()
		ws.Close()

		var closeErr *websocket.CloseError
		switch {
		case errors.As(err, &closeErr):
			clean := websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway)
			if clean {
				err = nil
			}
			conn.finish(err, clean, closeErr.Code)
		case closing:
			conn.finish(nil, true, websocket.CloseNormalClosure)
		default:
			conn.finish(errors.Wrap(err, "Receive"), false, 0)
		}
		return
	}
}

func (conn *Conn) isClosing() bool {
	conn.lock.Lock()
	defer conn.lock.Unlock()
	return conn.closing
}

// finish reports the end of the connection.
func (conn *Conn) finish(err error, clean bool, code int) {
	conn.lock.Lock()
	conn.state = stateClosed
	conn.lock.Unlock()
	conn.cancel()

	fields := logrus.Fields{
		"clean": clean,
		"code":  code,
	}
	if err != nil {
		fields["error"] = err
		conn.emit(Event{Kind: Error, Err: err})
	}
	conn.log.WithFields(fields).Debug("Connection closed")
	conn.emit(Event{Kind: Closed, Err: err, Clean: clean, Code: code})
}

func (conn *Conn) emit(ev Event) {
	ev.Conn = conn
	select {
	case conn.events <- ev:
	case <-conn.ctx.Done():
	}
}
