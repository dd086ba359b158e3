// Copyright © 2026 Niko Carpenter <niko@nikocarpenter.com>
//
// This source code is governed by the MIT license, which can be found in the LICENSE file.

package session

// DeviceList identifies one of the two device selection lists.
type DeviceList int

// Device selection lists.
const (
	InputDevices DeviceList = iota
	OutputDevices
)

func (l DeviceList) String() string {
	if l == InputDevices {
		return "input"
	}
	return "output"
}

// An Option is one selectable entry in a device list.
// The "none" option has a nil ID.
type Option struct {
	Label string
	ID    *int
}

// NoneLabel is the label of the option that selects no device.
const NoneLabel = "None"

// UnknownVolume is shown when the server doesn't report a volume.
const UnknownVolume = "unknown"

// DisconnectedNotice is shown once per outage.
const DisconnectedNotice = "Disconnected from the server, attempting to reconnect..."

// A Renderer shows session state to the operator.
//
// Replacing a device list may cause the renderer to report a selection change
// (as some widget toolkits do), by calling back into Controller.Dispatch
// before SetDevices returns. The controller ignores such calls.
type Renderer interface {
	// AppendLog adds one line to the event log.
	// The renderer may drop the oldest lines to bound its history.
	AppendLog(line string)

	// AppendNotice adds a control line, such as a disconnect notice, to the event log.
	AppendNotice(line string)

	// SetStatus shows the voice activity and volume labels from one status frame.
	SetStatus(vad, volume string)

	// SetDevices replaces a device list, and selects the option with the given ID.
	SetDevices(list DeviceList, options []Option, selected *int)

	// SelectDevice changes the selection of a device list without replacing it.
	SelectDevice(list DeviceList, selected *int)
}

// A Sender transmits frames to the server on a best effort basis.
type Sender interface {
	Send(payload []byte) error
}
