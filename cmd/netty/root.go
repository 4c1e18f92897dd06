package main

import (
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "netty",
	Short: "netty hosts a web application directory over HTTP",
	Long: `netty serves a physical directory under a virtual path on a local port.

The application's web.config may be altered for the lifetime of the run and is
restored byte for byte on shutdown.

Configuration can be provided via flags, environment variables (NETTY_*), or a
.nettyrc.yaml file in the current directory.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}
