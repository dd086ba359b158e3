// Copyright © 2026 Niko Carpenter <niko@nikocarpenter.com>
//
// This source code is governed by the MIT license, which can be found in the LICENSE file.

package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

var serverMessages = map[string]func() Message{
	TypeLog:    func() Message { return &LogMessage{} },
	TypeInit:   func() Message { return &InitMessage{} },
	TypeStatus: func() Message { return &StatusMessage{} },
}

// UnknownTypeError is returned by Decode for frames with an unrecognized type.
type UnknownTypeError struct {
	Type string
}

func (e UnknownTypeError) Error() string {
	return fmt.Sprintf("Unknown message type %q", e.Type)
}

// Decode parses one frame sent by the server.
// The returned Message is a *LogMessage, *InitMessage or *StatusMessage.
func Decode(data []byte) (Message, error) {
	var generic DefaultMessage
	if err := json.Unmarshal(data, &generic); err != nil {
		return nil, errors.Wrap(err, "Decode frame")
	}
	newMSG, ok := serverMessages[generic.Type]
	if !ok {
		return nil, UnknownTypeError{Type: generic.Type}
	}

	msg := newMSG()
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, errors.Wrapf(err, "Decode %s frame", generic.Type)
	}
	return msg, nil
}

// Encode serializes a message into one frame.
func Encode(msg Message) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, errors.Wrapf(err, "Encode %s frame", msg.Message())
	}
	return data, nil
}
