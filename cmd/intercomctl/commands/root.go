// Copyright © 2026 Niko Carpenter <niko@nikocarpenter.com>
//
// This source code is governed by the MIT license, which can be found in the LICENSE file.

package commands

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/n0ot/intercomctl/pkg/transport"
)

var cfgDir string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "intercomctl",
	Short: "Intercom remote control",
	Long: `intercomctl controls an intercom from a terminal.

It shows the intercom's event log and status, and sends it commands
such as resetting the sound devices or changing the volume.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	DisableAutoGenTag: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	RootCmd.PersistentFlags().StringVar(&cfgDir, "config", "", "config directory (default is $HOME/.config/intercomctl)")
	RootCmd.PersistentFlags().StringP("host", "H", "localhost:8000", "host:port of the intercom")
	viper.BindPFlag("server.host", RootCmd.PersistentFlags().Lookup("host"))
	RootCmd.PersistentFlags().BoolP("secure", "s", false, "connect with wss:// instead of ws://")
	viper.BindPFlag("server.secure", RootCmd.PersistentFlags().Lookup("secure"))
	RootCmd.PersistentFlags().String("log-level", "warning", "diagnostic log level (debug, info, warning, error)")
	viper.BindPFlag("log.level", RootCmd.PersistentFlags().Lookup("log-level"))

	viper.SetDefault("server.handshakeTimeout", 10)
	viper.SetDefault("server.writeTimeout", 10)
	viper.SetDefault("server.maxMessageSize", 1<<20)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgDir == "" {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		// Search for config in $HOME/.config/intercomctl
		cfgDir = path.Join(home, ".config", "intercomctl")
	}

	viper.AddConfigPath(cfgDir)
	viper.SetConfigName("intercomctl")
	viper.SetEnvPrefix("intercomctl")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// The config file is optional; flags and defaults are enough to connect.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "Error loading config file: %s\n", err)
			os.Exit(1)
		}
	}
}

// newLogger creates the diagnostic logger.
func newLogger() (*logrus.Logger, error) {
	log := logrus.New()
	log.Out = os.Stderr
	log.Formatter = new(logrus.TextFormatter)

	level, err := logrus.ParseLevel(viper.GetString("log.level"))
	if err != nil {
		return nil, errors.Wrap(err, "Log level")
	}
	log.Level = level
	return log, nil
}

// transportConfig gets the transport configuration for the configured server.
func transportConfig(log *logrus.Logger) transport.Config {
	return transport.Config{
		URL:              transport.EndpointURL(viper.GetString("server.host"), viper.GetBool("server.secure")),
		HandshakeTimeout: viper.GetDuration("server.handshakeTimeout") * time.Second,
		WriteTimeout:     viper.GetDuration("server.writeTimeout") * time.Second,
		MaxMessageSize:   viper.GetInt64("server.maxMessageSize"),
		Log:              log,
	}
}
