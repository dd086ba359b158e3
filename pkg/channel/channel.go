// Copyright © 2026 Niko Carpenter <niko@nikocarpenter.com>
//
// This source code is governed by the MIT license, which can be found in the LICENSE file.

// Package channel keeps a connection to the intercom server alive.
//
// A Channel owns one transport at a time. Whenever that transport closes,
// the Channel waits for its backoff strategy and opens a new one, forever.
// Callers see a single stream of events and a Send method that works
// whenever a transport happens to be open.
package channel

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sirupsen/logrus"

	"github.com/n0ot/intercomctl/pkg/transport"
)

// State is the connection state of a Channel.
type State int32

// Channel states. A Channel cycles Connecting -> Open -> Closed -> Connecting.
const (
	Connecting State = iota
	Open
	Closed
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// EventKind identifies a channel event.
type EventKind int

// Channel event kinds.
const (
	// Connected is sent each time a transport opens.
	Connected EventKind = iota
	// Inbound carries a frame received from the server.
	Inbound
	// Disconnected is sent once per outage, no matter how many reconnect attempts fail.
	Disconnected
)

// An Event is delivered to the Channel's consumer.
type Event struct {
	Kind    EventKind
	Payload []byte // Inbound only
}

// Config configures a Channel.
type Config struct {
	// Transport configures each connection attempt.
	Transport transport.Config

	// Backoff decides how long to wait before reconnecting.
	// If nil, the Channel reconnects immediately.
	Backoff backoff.BackOff

	Log *logrus.Logger
}

// Channel is a connection to the server that reconnects itself.
type Channel struct {
	cfg    Config
	log    *logrus.Logger
	events chan Event

	// conn is written only by Run; Send reads it.
	conn  atomic.Pointer[transport.Conn]
	state atomic.Int32

	// hasNotifiedDisconnect is true while a disconnect notice is outstanding.
	// Only Run touches it.
	hasNotifiedDisconnect bool
}

// New creates a channel. Nothing happens until Run is called.
func New(cfg Config) *Channel {
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	if cfg.Transport.Log == nil {
		cfg.Transport.Log = cfg.Log
	}
	if cfg.Backoff == nil {
		cfg.Backoff = &backoff.ZeroBackOff{}
	}
	return &Channel{
		cfg:    cfg,
		log:    cfg.Log,
		events: make(chan Event),
	}
}

// Events gets the channel's events. It is closed when Run returns.
func (ch *Channel) Events() <-chan Event {
	return ch.events
}

// State gets the channel's current connection state.
func (ch *Channel) State() State {
	return State(ch.state.Load())
}

// Send sends a frame on the current transport.
// If no transport is open, the frame is dropped and transport.ErrNotOpen is returned.
func (ch *Channel) Send(payload []byte) error {
	conn := ch.conn.Load()
	if conn == nil {
		return transport.ErrNotOpen
	}
	return conn.Send(payload)
}

// Run connects to the server, and keeps reconnecting until ctx is done.
func (ch *Channel) Run(ctx context.Context) error {
	defer close(ch.events)
	transportEvents := make(chan transport.Event)

	ch.connect(ctx, transportEvents)
	for {
		select {
		case <-ctx.Done():
			if conn := ch.conn.Load(); conn != nil {
				conn.Close()
			}
			return ctx.Err()

		case ev := <-transportEvents:
			if ev.Conn != ch.conn.Load() {
				continue // From a transport we already gave up on.
			}
			switch ev.Kind {
			case transport.Opened:
				ch.setState(Open)
				ch.emit(ctx, Event{Kind: Connected})

			case transport.Message:
				ch.hasNotifiedDisconnect = false
				ch.cfg.Backoff.Reset()
				ch.emit(ctx, Event{Kind: Inbound, Payload: ev.Payload})

			case transport.Error:
				ch.log.WithFields(logrus.Fields{
					"conn_id": ev.Conn.ID,
					"error":   ev.Err,
				}).Debug("Transport error")

			case transport.Closed:
				ch.setState(Closed)
				if !ch.hasNotifiedDisconnect {
					ch.hasNotifiedDisconnect = true
					ch.log.WithFields(logrus.Fields{
						"conn_id": ev.Conn.ID,
						"clean":   ev.Clean,
						"code":    ev.Code,
					}).Info("Disconnected from the server")
					ch.emit(ctx, Event{Kind: Disconnected})
				}
				if !ch.wait(ctx) {
					continue // ctx is done; the next iteration returns.
				}
				ch.connect(ctx, transportEvents)
			}
		}
	}
}

// connect replaces the current transport with a new one.
func (ch *Channel) connect(ctx context.Context, events chan<- transport.Event) {
	ch.setState(Connecting)
	ch.conn.Store(transport.Open(ctx, ch.cfg.Transport, events))
}

// wait sleeps for the next backoff delay.
// It returns false if ctx was done first.
func (ch *Channel) wait(ctx context.Context) bool {
	delay := ch.cfg.Backoff.NextBackOff()
	if delay < 0 { // backoff.Stop; this channel never gives up.
		delay = 0
	}
	if delay == 0 {
		return ctx.Err() == nil
	}

	ch.log.WithField("delay", delay).Debug("Waiting to reconnect")
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}

func (ch *Channel) setState(s State) {
	ch.state.Store(int32(s))
}

func (ch *Channel) emit(ctx context.Context, ev Event) {
	select {
	case ch.events <- ev:
	case <-ctx.Done():
	}
}
