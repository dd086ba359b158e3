// Copyright © 2026 Niko Carpenter <niko@nikocarpenter.com>
//
// This source code is governed by the MIT license, which can be found in the LICENSE file.

package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/n0ot/intercomctl/pkg/protocol"
	"github.com/n0ot/intercomctl/pkg/transport"
)

var sendTimeout time.Duration

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send <command> [card|none]",
	Short: "Sends a single command to the intercom",
	Long: `send connects to the intercom, sends one command, and disconnects.

Commands: reset, shutdown, volume_up, volume_down,
set_microphone <card|none>, set_speaker <card|none>.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, err := commandFromArgs(args)
		if err != nil {
			return err
		}
		log, err := newLogger()
		if err != nil {
			return err
		}
		return sendOnce(transportConfig(log), msg, sendTimeout)
	},
}

func init() {
	RootCmd.AddCommand(sendCmd)
	sendCmd.Flags().DurationVarP(&sendTimeout, "timeout", "t", 10*time.Second, "how long to wait for the connection")
}

// commandFromArgs builds the command named on the command line.
func commandFromArgs(args []string) (protocol.Message, error) {
	switch args[0] {
	case protocol.TypeReset, protocol.TypeShutdown, protocol.TypeVolumeUp, protocol.TypeVolumeDown:
		if len(args) != 1 {
			return nil, errors.Errorf("%s takes no arguments", args[0])
		}
		return protocol.NewCommand(args[0]), nil

	case protocol.TypeSetMicrophone, protocol.TypeSetSpeaker:
		if len(args) != 2 {
			return nil, errors.Errorf("%s needs a card number or none", args[0])
		}
		var id *int
		if args[1] != "none" {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return nil, errors.Wrap(err, "Card number")
			}
			id = &n
		}
		if args[0] == protocol.TypeSetMicrophone {
			return protocol.NewSetMicrophone(id), nil
		}
		return protocol.NewSetSpeaker(id), nil
	}
	return nil, errors.Errorf("Unknown command %q", args[0])
}

// sendOnce opens one connection, sends msg, and closes the connection.
func sendOnce(cfg transport.Config, msg protocol.Message, timeout time.Duration) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	events := make(chan transport.Event)
	conn := transport.Open(ctx, cfg, events)
	defer conn.Close()

	for {
		select {
		case <-ctx.Done():
			return errors.Errorf("Timed out connecting to %s", cfg.URL)
		case ev := <-events:
			switch ev.Kind {
			case transport.Opened:
				if err := conn.Send(data); err != nil {
					return err
				}
				fmt.Printf("Sent %s to %s\n", msg.Message(), cfg.URL)
				return nil
			case transport.Closed:
				if ev.Err != nil {
					return errors.Wrap(ev.Err, "Connect to intercom")
				}
				return errors.New("Connection closed by remote host")
			}
		}
	}
}
