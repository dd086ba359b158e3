// Copyright © 2026 Niko Carpenter <niko@nikocarpenter.com>
//
// This source code is governed by the MIT license, which can be found in the LICENSE file.

package commands

import (
	"fmt"
	"io"
	"runtime"

	"github.com/spf13/cobra"
)

// Version is the version of intercomctl, set by the build.
var Version = "unset"

// Copyright is the copyright including authors of intercomctl.
var Copyright = "Copyright © 2026 Niko Carpenter <niko@nikocarpenter.com>"

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of intercomctl",
	Run: func(cmd *cobra.Command, args []string) {
		printVersion(cmd.OutOrStdout(), versionShort)
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the version number")
}

func printVersion(out io.Writer, short bool) {
	if short {
		fmt.Fprintln(out, Version)
		return
	}
	fmt.Fprintf(out, "intercomctl version %s (%s %s/%s)\n%s\n",
		Version, runtime.Version(), runtime.GOOS, runtime.GOARCH, Copyright)
}
