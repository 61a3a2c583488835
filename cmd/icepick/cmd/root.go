package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "icepick",
	Short: "TI ICEPick TAP router identification",
	Long: `Addresses and identifies TI ICEPick TAP routers on a JTAG scan chain.

The tool shifts the router's identification instruction through the chain
(holding every other device in bypass), reads the 32-bit controller ID code
and checks it against the accepted type-D signature.

Examples:
  icepick identify --chain 6,4 --target 0 --sim-code 0x2100b3d0
  icepick identify --layout board.chain --layout-chain am3358 --target 0
  icepick probes`,
	Version: "0.1.0",
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
