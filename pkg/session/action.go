// Copyright © 2026 Niko Carpenter <niko@nikocarpenter.com>
//
// This source code is governed by the MIT license, which can be found in the LICENSE file.

package session

import (
	"fmt"

	"github.com/n0ot/intercomctl/pkg/protocol"
)

// ActionKind identifies an operator action.
type ActionKind int

// Operator actions.
const (
	Reset ActionKind = iota
	Shutdown
	VolumeUp
	VolumeDown
	SelectMicrophone
	SelectSpeaker
)

func (k ActionKind) String() string {
	switch k {
	case Reset:
		return "reset"
	case Shutdown:
		return "shutdown"
	case VolumeUp:
		return "volume up"
	case VolumeDown:
		return "volume down"
	case SelectMicrophone:
		return "select microphone"
	case SelectSpeaker:
		return "select speaker"
	}
	return "unknown"
}

// An Action is something the operator asked for.
type Action struct {
	Kind ActionKind

	// Device is the selected card for SelectMicrophone and SelectSpeaker; nil selects none.
	Device *int
}

func (a Action) String() string {
	switch a.Kind {
	case SelectMicrophone, SelectSpeaker:
		if a.Device == nil {
			return fmt.Sprintf("%s none", a.Kind)
		}
		return fmt.Sprintf("%s %d", a.Kind, *a.Device)
	}
	return a.Kind.String()
}

// command gets the frame that carries out the action.
func (a Action) command() protocol.Message {
	switch a.Kind {
	case Reset:
		return protocol.NewCommand(protocol.TypeReset)
	case Shutdown:
		return protocol.NewCommand(protocol.TypeShutdown)
	case VolumeUp:
		return protocol.NewCommand(protocol.TypeVolumeUp)
	case VolumeDown:
		return protocol.NewCommand(protocol.TypeVolumeDown)
	case SelectMicrophone:
		return protocol.NewSetMicrophone(a.Device)
	case SelectSpeaker:
		return protocol.NewSetSpeaker(a.Device)
	}
	return nil
}

// SelectionAction gets the action for a selection change in a device list.
func SelectionAction(list DeviceList, id *int) Action {
	if list == InputDevices {
		return Action{Kind: SelectMicrophone, Device: id}
	}
	return Action{Kind: SelectSpeaker, Device: id}
}
