// Copyright © 2026 Niko Carpenter <niko@nikocarpenter.com>
//
// This source code is governed by the MIT license, which can be found in the LICENSE file.

package console

import (
	"bufio"
	"context"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/n0ot/intercomctl/pkg/session"
)

// Help describes the commands understood by ReadActions.
const Help = `Commands:
  reset                 reset the sound devices
  shutdown              shut the intercom down
  up, +, volume up      raise the volume
  down, -, volume down  lower the volume
  mic <card|none>       select the microphone
  speaker <card|none>   select the speaker
  devices               list devices
  status                show voice activity and volume
  history [n]           show the last n log lines
  help                  show this help`

// Display commands, served by the console without involving the server.
const (
	displayNone = iota
	displayHelp
	displayDevices
	displayStatus
	displayHistory
)

// A command is one parsed operator line.
// Exactly one of action and display is set.
type command struct {
	action  *session.Action
	display int
	count   int // history only
}

// parseLine parses one operator line.
func parseLine(line string) (command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return command{}, nil
	}

	simple := func(kind session.ActionKind) (command, error) {
		return command{action: &session.Action{Kind: kind}}, nil
	}
	switch strings.Join(fields, " ") {
	case "reset":
		return simple(session.Reset)
	case "shutdown":
		return simple(session.Shutdown)
	case "up", "+", "volume up", "volume_up":
		return simple(session.VolumeUp)
	case "down", "-", "volume down", "volume_down":
		return simple(session.VolumeDown)
	case "help", "?":
		return command{display: displayHelp}, nil
	case "devices":
		return command{display: displayDevices}, nil
	case "status":
		return command{display: displayStatus}, nil
	}

	switch fields[0] {
	case "mic", "microphone", "speaker":
		if len(fields) != 2 {
			return command{}, errors.Errorf("Usage: %s <card|none>", fields[0])
		}
		id, err := parseDeviceID(fields[1])
		if err != nil {
			return command{}, err
		}
		list := session.InputDevices
		if fields[0] == "speaker" {
			list = session.OutputDevices
		}
		action := session.SelectionAction(list, id)
		return command{action: &action}, nil

	case "history":
		n := DefaultHistorySize
		if len(fields) > 1 {
			var err error
			if n, err = strconv.Atoi(fields[1]); err != nil || n < 0 {
				return command{}, errors.Errorf("Invalid line count %q", fields[1])
			}
		}
		return command{display: displayHistory, count: n}, nil
	}
	return command{}, errors.Errorf("Unknown command %q; type help for a list of commands", line)
}

func parseDeviceID(s string) (*int, error) {
	if s == "none" {
		return nil, nil
	}
	id, err := strconv.Atoi(s)
	if err != nil || id < 0 {
		return nil, errors.Errorf("Invalid card %q", s)
	}
	return &id, nil
}

// ReadActions reads operator commands from in, one per line.
// Actions are sent on actions; display commands are served by con.
// ReadActions returns when in is exhausted or ctx is done.
func ReadActions(ctx context.Context, in io.Reader, con *Console, actions chan<- session.Action) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		cmd, err := parseLine(scanner.Text())
		if err != nil {
			con.Println(err)
			continue
		}

		switch {
		case cmd.action != nil:
			select {
			case actions <- *cmd.action:
			case <-ctx.Done():
				return ctx.Err()
			}
		case cmd.display == displayHelp:
			con.Println(Help)
		case cmd.display == displayDevices:
			con.PrintDevices()
		case cmd.display == displayStatus:
			con.PrintStatus()
		case cmd.display == displayHistory:
			con.PrintHistory(cmd.count)
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.Wrap(err, "Read commands")
	}
	return nil
}
