// Copyright © 2026 Niko Carpenter <niko@nikocarpenter.com>
//
// This source code is governed by the MIT license, which can be found in the LICENSE file.

// Package protocol defines the JSON frames exchanged with an intercom server.
package protocol

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/pkg/errors"
)

// Frame types sent by the server.
const (
	TypeLog    = "log"
	TypeInit   = "init"
	TypeStatus = "status"
)

// Frame types sent by the client.
const (
	TypeReset         = "reset"
	TypeShutdown      = "shutdown"
	TypeVolumeUp      = "volume_up"
	TypeVolumeDown    = "volume_down"
	TypeSetMicrophone = "set_microphone"
	TypeSetSpeaker    = "set_speaker"
	TypePing          = "ping"
)

// A Message is sent to or from the server.
// All Messages should wrap DefaultMessage, so they have a Type field which marshals to json as "type."
type Message interface {
	Message() string
}

// DefaultMessage implements Message, and has a type.
type DefaultMessage struct {
	Type string `json:"type"`
}

// Message gets the type of a DefaultMessage.
func (msg DefaultMessage) Message() string {
	return msg.Type
}

// LogMessage carries one line of the server's event log.
type LogMessage struct {
	DefaultMessage
	Log string `json:"log"`
}

// StatusMessage carries the periodic device status.
// A nil Volume means the server doesn't know the volume.
type StatusMessage struct {
	DefaultMessage
	VAD    VoiceActivity `json:"vad"`
	Volume *int          `json:"volume"`
}

// InitMessage carries a full snapshot, and is sent whenever a client connects.
type InitMessage struct {
	DefaultMessage
	Data Snapshot `json:"data"`
}

// Snapshot is the complete device and log state of the server.
type Snapshot struct {
	Devices    []Device `json:"devices"`
	Speaker    *int     `json:"speaker"`
	Microphone *int     `json:"microphone"`
	Log        []string `json:"log"`
}

// HasDevice reports whether id refers to a device in the snapshot.
// A nil id always refers to "no device".
func (s Snapshot) HasDevice(id *int) bool {
	return HasDevice(s.Devices, id)
}

// HasDevice reports whether id refers to one of devices.
// A nil id always refers to "no device".
func HasDevice(devices []Device, id *int) bool {
	if id == nil {
		return true
	}
	for _, d := range devices {
		if d.ID != nil && *d.ID == *id {
			return true
		}
	}
	return false
}

// Device is an audio card known to the server.
// On the wire, a device is a two element array: [name, id].
type Device struct {
	Name string
	ID   *int
}

// Label gets the name shown to operators.
func (d Device) Label() string {
	if d.ID == nil {
		return d.Name
	}
	return fmt.Sprintf("Card %d: %s", *d.ID, d.Name)
}

// UnmarshalJSON decodes a [name, id] pair.
func (d *Device) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return errors.Wrap(err, "Device")
	}
	if len(pair) != 2 {
		return errors.Errorf("Device: expected [name, id], got %d elements", len(pair))
	}
	var dev Device
	if err := json.Unmarshal(pair[0], &dev.Name); err != nil {
		return errors.Wrap(err, "Device name")
	}
	id, err := decodeDeviceID(pair[1])
	if err != nil {
		return err
	}
	dev.ID = id
	*d = dev
	return nil
}

// MarshalJSON encodes a device as a [name, id] pair.
func (d Device) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{d.Name, d.ID})
}

// decodeDeviceID accepts a card index as a number or numeric string.
func decodeDeviceID(raw json.RawMessage) (*int, error) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, errors.Wrap(err, "Device id")
	}
	switch v := v.(type) {
	case nil:
		return nil, nil
	case float64:
		if v != math.Trunc(v) || v < math.MinInt32 || v > math.MaxInt32 {
			return nil, errors.Errorf("Device id: %v is not a card number", v)
		}
		id := int(v)
		return &id, nil
	case string:
		id, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.Wrap(err, "Device id")
		}
		return &id, nil
	default:
		return nil, errors.Errorf("Device id: unexpected %T", v)
	}
}

// VoiceActivity is the voice activity indicator.
// Servers send either a label or a numeric level; both are kept as text.
type VoiceActivity string

// UnmarshalJSON accepts a string or a number.
func (v *VoiceActivity) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = VoiceActivity(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.Wrap(err, "Voice activity")
	}
	*v = VoiceActivity(n.String())
	return nil
}

// SetDeviceMessage selects a microphone or speaker.
// Both set_microphone and set_speaker carry the id in the "speaker" field;
// the server reads it from there for either type.
type SetDeviceMessage struct {
	DefaultMessage
	Speaker *int `json:"speaker"`
}

// NewCommand creates a command without arguments, such as reset or volume_up.
func NewCommand(commandType string) DefaultMessage {
	return DefaultMessage{Type: commandType}
}

// NewSetMicrophone creates a set_microphone command.
func NewSetMicrophone(id *int) SetDeviceMessage {
	return SetDeviceMessage{
		DefaultMessage: DefaultMessage{Type: TypeSetMicrophone},
		Speaker:        id,
	}
}

// NewSetSpeaker creates a set_speaker command.
func NewSetSpeaker(id *int) SetDeviceMessage {
	return SetDeviceMessage{
		DefaultMessage: DefaultMessage{Type: TypeSetSpeaker},
		Speaker:        id,
	}
}
