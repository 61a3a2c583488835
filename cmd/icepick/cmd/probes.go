package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceICEPick/pkg/jtag"
)

var probesCmd = &cobra.Command{
	Use:   "probes",
	Short: "List attached debug probes",
	Long: `Enumerate connected USB devices that match known debug-probe VID/PID
pairs. The simulator entry is always listed so the tool can run without
hardware.`,
	RunE: runProbes,
}

func init() {
	rootCmd.AddCommand(probesCmd)
}

func runProbes(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	probes, err := jtag.DiscoverProbes(ctx)
	if err != nil {
		return fmt.Errorf("probe discovery failed: %w", err)
	}

	fmt.Printf("Found %d probe(s):\n", len(probes))
	for i, p := range probes {
		fmt.Printf("  %d. %s\n", i+1, p.Label())
		if verbose && p.VendorID != 0 {
			fmt.Printf("     VID:PID %04X:%04X  kind %s\n", p.VendorID, p.ProductID, p.Kind)
		}
	}
	return nil
}
