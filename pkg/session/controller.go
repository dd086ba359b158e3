// Copyright © 2026 Niko Carpenter <niko@nikocarpenter.com>
//
// This source code is governed by the MIT license, which can be found in the LICENSE file.

// Package session turns server frames into renderer updates, and operator actions into commands.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/n0ot/intercomctl/pkg/channel"
	"github.com/n0ot/intercomctl/pkg/protocol"
)

// State is the state of a Controller.
type State int

// Controller states.
// Operator actions are only sent in Ready.
const (
	// Uninitialized means no snapshot has been received yet.
	Uninitialized State = iota
	// Reinitializing means a snapshot is being applied.
	Reinitializing
	// Ready means the last snapshot was applied.
	Ready
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Reinitializing:
		return "reinitializing"
	case Ready:
		return "ready"
	}
	return "unknown"
}

// Config configures a Controller.
type Config struct {
	Sender   Sender
	Renderer Renderer

	// Keepalive is how often Run sends a ping frame. If 0, no pings are sent.
	Keepalive time.Duration

	Log *logrus.Logger
}

// Controller holds the client side of a session with the intercom server.
// Its methods must be called from a single goroutine; Run provides one.
type Controller struct {
	sender    Sender
	renderer  Renderer
	keepalive time.Duration
	log       *logrus.Logger

	state      State
	devices    []protocol.Device
	microphone *int
	speaker    *int
}

// New creates a controller.
func New(cfg Config) *Controller {
	if cfg.Log == nil {
		cfg.Log = logrus.StandardLogger()
	}
	return &Controller{
		sender:    cfg.Sender,
		renderer:  cfg.Renderer,
		keepalive: cfg.Keepalive,
		log:       cfg.Log,
	}
}

// State gets the controller's state.
func (c *Controller) State() State {
	return c.state
}

// Frozen reports whether operator actions are currently being dropped.
func (c *Controller) Frozen() bool {
	return c.state != Ready
}

// Devices gets the devices from the last snapshot.
func (c *Controller) Devices() []protocol.Device {
	return c.devices
}

// Selection gets the selected microphone and speaker.
func (c *Controller) Selection() (microphone, speaker *int) {
	return c.microphone, c.speaker
}

// Run handles channel events and operator actions until ctx is done or events is closed.
func (c *Controller) Run(ctx context.Context, events <-chan channel.Event, actions <-chan Action) error {
	var pings <-chan time.Time
	if c.keepalive > 0 {
		ticker := time.NewTicker(c.keepalive)
		defer ticker.Stop()
		pings = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Kind {
			case channel.Connected:
				c.log.Debug("Connected to the server")
			case channel.Inbound:
				c.HandleFrame(ev.Payload)
			case channel.Disconnected:
				c.HandleDisconnect()
			}

		case action := <-actions:
			c.Dispatch(action)

		case <-pings:
			c.send(protocol.NewCommand(protocol.TypePing))
		}
	}
}

// HandleFrame decodes and applies one frame from the server.
// Frames that can't be decoded are logged and ignored.
func (c *Controller) HandleFrame(payload []byte) {
	msg, err := protocol.Decode(payload)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"error": err,
			"frame": string(payload),
		}).Warn("Ignoring frame")
		return
	}

	switch msg := msg.(type) {
	case *protocol.LogMessage:
		c.renderer.AppendLog(msg.Log)
	case *protocol.StatusMessage:
		c.applyStatus(msg)
	case *protocol.InitMessage:
		c.applySnapshot(msg.Data)
	}
}

// HandleDisconnect tells the operator that the connection was lost.
func (c *Controller) HandleDisconnect() {
	c.renderer.AppendNotice(DisconnectedNotice)
}

func (c *Controller) applyStatus(msg *protocol.StatusMessage) {
	volume := UnknownVolume
	if msg.Volume != nil {
		volume = fmt.Sprintf("%d%%", *msg.Volume)
	}
	c.renderer.SetStatus(string(msg.VAD), volume)
}

// applySnapshot replaces all session state.
// Actions dispatched while it runs, such as selection changes the renderer
// reports while its lists are repopulated, are dropped.
func (c *Controller) applySnapshot(s protocol.Snapshot) {
	c.state = Reinitializing
	defer func() { c.state = Ready }()

	c.devices = s.Devices
	c.microphone = c.validSelection(s, s.Microphone, "microphone")
	c.speaker = c.validSelection(s, s.Speaker, "speaker")

	options := make([]Option, 0, len(s.Devices)+1)
	options = append(options, Option{Label: NoneLabel})
	for _, d := range s.Devices {
		options = append(options, Option{Label: d.Label(), ID: d.ID})
	}
	c.renderer.SetDevices(InputDevices, options, c.microphone)
	c.renderer.SetDevices(OutputDevices, options, c.speaker)

	for _, line := range s.Log {
		c.renderer.AppendLog(line)
	}
	c.log.WithFields(logrus.Fields{
		"devices":    len(s.Devices),
		"log_lines":  len(s.Log),
		"microphone": formatID(c.microphone),
		"speaker":    formatID(c.speaker),
	}).Debug("Applied snapshot")
}

func (c *Controller) validSelection(s protocol.Snapshot, id *int, name string) *int {
	if s.HasDevice(id) {
		return id
	}
	c.log.WithFields(logrus.Fields{
		"device": *id,
		"list":   name,
	}).Warn("Snapshot selects a device that isn't in its device list; selecting none")
	return nil
}

// Dispatch carries out an operator action.
// Unless the controller is Ready, the action is dropped.
// So is a selection of a card missing from the device list.
func (c *Controller) Dispatch(action Action) {
	if c.state != Ready {
		c.log.WithFields(logrus.Fields{
			"action": action.String(),
			"state":  c.state.String(),
		}).Debug("Dropping action")
		return
	}

	switch action.Kind {
	case SelectMicrophone, SelectSpeaker:
		if !protocol.HasDevice(c.devices, action.Device) {
			c.log.WithFields(logrus.Fields{
				"action": action.String(),
				"device": *action.Device,
			}).Warn("Dropping selection of a device that isn't in the device list")
			return
		}
	}

	switch action.Kind {
	case SelectMicrophone:
		c.microphone = action.Device
		c.renderer.SelectDevice(InputDevices, action.Device)
	case SelectSpeaker:
		c.speaker = action.Device
		c.renderer.SelectDevice(OutputDevices, action.Device)
	}

	if msg := action.command(); msg != nil {
		c.send(msg)
	}
}

// send transmits a message, dropping it if the channel is down.
func (c *Controller) send(msg protocol.Message) {
	data, err := protocol.Encode(msg)
	if err != nil {
		c.log.WithField("error", err).Error("Cannot encode command")
		return
	}
	if err := c.sender.Send(data); err != nil {
		c.log.WithFields(logrus.Fields{
			"type":  msg.Message(),
			"error": err,
		}).Debug("Command dropped")
	}
}

func formatID(id *int) string {
	if id == nil {
		return "none"
	}
	return fmt.Sprint(*id)
}
