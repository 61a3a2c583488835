package jtag

import (
	"context"
	"fmt"

	"github.com/google/gousb"
)

// ProbeKind categorizes debug-probe families.
type ProbeKind string

const (
	ProbeKindCMSISDAP ProbeKind = "cmsis-dap"
	ProbeKindPico     ProbeKind = "picoprobe"
	ProbeKindSim      ProbeKind = "simulator"
)

// ProbeInfo describes a detected debug probe.
type ProbeInfo struct {
	Kind        ProbeKind
	Description string
	VendorID    uint16
	ProductID   uint16
	Serial      string
}

// Label returns a user-friendly description for the probe.
func (p ProbeInfo) Label() string {
	if p.Description != "" {
		return p.Description
	}
	if p.Kind != "" {
		return fmt.Sprintf("%s (%04X:%04X)", string(p.Kind), p.VendorID, p.ProductID)
	}
	return fmt.Sprintf("Probe %04X:%04X", p.VendorID, p.ProductID)
}

// DiscoverProbes enumerates connected USB devices matching known debug-probe
// VID/PID pairs. The simulator entry is always appended so callers can run
// without hardware attached.
func DiscoverProbes(ctx context.Context) ([]ProbeInfo, error) {
	var results []ProbeInfo
	usb := gousb.NewContext()
	defer usb.Close()

	_, err := usb.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}

		if info, ok := classifyUSBDevice(desc); ok {
			results = append(results, info)
		}
		return false
	})
	if err != nil && err != gousb.ErrorAccess {
		return results, err
	}

	results = append(results, ProbeInfo{
		Kind:        ProbeKindSim,
		Description: "Simulator (no hardware)",
	})

	return results, nil
}

func classifyUSBDevice(desc *gousb.DeviceDesc) (ProbeInfo, bool) {
	for _, known := range knownProbes {
		if uint16(desc.Vendor) == known.VendorID && uint16(desc.Product) == known.ProductID {
			return known, true
		}
	}
	return ProbeInfo{}, false
}

var knownProbes = []ProbeInfo{
	{Kind: ProbeKindCMSISDAP, VendorID: 0x2e8a, ProductID: 0x000c, Description: "Raspberry Pi Debug Probe (CMSIS-DAP)"},
	{Kind: ProbeKindCMSISDAP, VendorID: 0x0d28, ProductID: 0x0204, Description: "DAPLink CMSIS-DAP"},
	{Kind: ProbeKindCMSISDAP, VendorID: 0x1366, ProductID: 0x0101, Description: "SEGGER J-Link CMSIS-DAP"},
	{Kind: ProbeKindCMSISDAP, VendorID: 0x1d50, ProductID: 0x6018, Description: "Black Magic Probe"},
	{Kind: ProbeKindPico, VendorID: 0x2e8a, ProductID: 0x000a, Description: "Raspberry Pi Pico (CDC/JTAG)"},
}
