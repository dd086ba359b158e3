// Copyright © 2026 Niko Carpenter <niko@nikocarpenter.com>
//
// This source code is governed by the MIT license, which can be found in the LICENSE file.

package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/n0ot/intercomctl/pkg/channel"
	"github.com/n0ot/intercomctl/pkg/console"
	"github.com/n0ot/intercomctl/pkg/session"
)

// connectCmd represents the connect command
var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Connects to the intercom and controls it interactively",
	Long: `connect shows the intercom's event log and status,
and reads commands from standard input. Type help for a list of commands.

The connection is retried until intercomctl is interrupted.`,
	RunE: runConnect,
}

func init() {
	RootCmd.AddCommand(connectCmd)

	connectCmd.Flags().StringP("backoff", "b", "none", "Reconnect strategy: none retries immediately, exponential backs off up to max-delay")
	viper.BindPFlag("reconnect.backoff", connectCmd.Flags().Lookup("backoff"))
	connectCmd.Flags().Duration("initial-delay", 500*time.Millisecond, "First reconnect delay for the exponential strategy")
	viper.BindPFlag("reconnect.initialDelay", connectCmd.Flags().Lookup("initial-delay"))
	connectCmd.Flags().Duration("max-delay", 30*time.Second, "Longest reconnect delay for the exponential strategy")
	viper.BindPFlag("reconnect.maxDelay", connectCmd.Flags().Lookup("max-delay"))
	connectCmd.Flags().IntP("history", "n", console.DefaultHistorySize, "Number of log lines to remember")
	viper.BindPFlag("console.history", connectCmd.Flags().Lookup("history"))
	connectCmd.Flags().IntP("keepalive", "k", 0, "How often to ping the server in seconds (0 disables)")
	viper.BindPFlag("server.keepalive", connectCmd.Flags().Lookup("keepalive"))
}

// reconnectStrategy builds the configured reconnect strategy.
func reconnectStrategy() (backoff.BackOff, error) {
	switch name := viper.GetString("reconnect.backoff"); name {
	case "", "none":
		return &backoff.ZeroBackOff{}, nil
	case "exponential":
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = viper.GetDuration("reconnect.initialDelay")
		b.MaxInterval = viper.GetDuration("reconnect.maxDelay")
		b.Reset()
		return b, nil
	default:
		return nil, errors.Errorf("Unknown reconnect strategy %q", name)
	}
}

func runConnect(cmd *cobra.Command, args []string) error {
	log, err := newLogger()
	if err != nil {
		return err
	}
	strategy, err := reconnectStrategy()
	if err != nil {
		return err
	}

	tcfg := transportConfig(log)
	ch := channel.New(channel.Config{
		Transport: tcfg,
		Backoff:   strategy,
		Log:       log,
	})
	con := console.New(os.Stdout, viper.GetInt("console.history"))
	controller := session.New(session.Config{
		Sender:    ch,
		Renderer:  con,
		Keepalive: viper.GetDuration("server.keepalive") * time.Second,
		Log:       log,
	})
	con.OnSelect(func(list session.DeviceList, id *int) {
		controller.Dispatch(session.SelectionAction(list, id))
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(logrus.Fields{
		"url":     tcfg.URL,
		"backoff": viper.GetString("reconnect.backoff"),
	}).Info("Starting intercomctl")
	con.Println("Connecting to", tcfg.URL, "- type help for a list of commands.")

	actions := make(chan session.Action)
	go ch.Run(ctx)
	go func() {
		if err := console.ReadActions(ctx, os.Stdin, con, actions); err != nil && ctx.Err() == nil {
			log.WithField("error", err).Error("Stopped reading commands")
		}
	}()

	if err := controller.Run(ctx, ch.Events(), actions); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
