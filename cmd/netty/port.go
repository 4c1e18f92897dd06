package main

import (
	"fmt"

	"github.com/getmockd/netty/pkg/ports"
	"github.com/spf13/cobra"
)

var portCheck int

var portCmd = &cobra.Command{
	Use:   "port",
	Short: "Print a free port netty can bind",
	Long: fmt.Sprintf(`Print a port in [%d, %d] that no socket is listening on.

With --check, report whether the given port can be used instead.`, ports.MinPort, ports.MaxPort),
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		if cmd.Flags().Changed("check") {
			if portCheck < ports.MinPort || portCheck > ports.MaxPort {
				return fmt.Errorf("port %d is out of range (%d-%d)", portCheck, ports.MinPort, ports.MaxPort)
			}
			if err := ports.Check(portCheck); err != nil {
				return err
			}
			fmt.Fprintf(out, "%d is available\n", portCheck)
			return nil
		}

		port, err := ports.FindOpenPort()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, port)
		return nil
	},
}

func init() {
	portCmd.Flags().IntVar(&portCheck, "check", 0, "Check whether this port is usable")
	rootCmd.AddCommand(portCmd)
}
