// Package scan models a discovered JTAG scan chain and implements
// instruction-register addressing across it: driving one device's IR while
// every other device is parked in bypass.
package scan

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceICEPick/pkg/jtag"
	"github.com/OpenTraceLab/OpenTraceICEPick/pkg/tap"
)

// Bypass is the sentinel CurrentIR value meaning "in bypass". The bypass
// opcode is all ones at any IR width, so a single sentinel covers every
// device regardless of its actual register size.
const Bypass = ^uint32(0)

// Device is one position in the scan chain. IRLen, IRPrescan and IRPostscan
// are fixed by the physical wiring once the chain is built; CurrentIR is the
// mutable shift-time instruction bookkeeping the IR writer maintains.
type Device struct {
	IRLen      int
	IRPrescan  int
	IRPostscan int
	CurrentIR  uint32
}

// Chain is an ordered scan chain bound to an adapter. It owns the transport
// and the local TAP state tracking; callers must serialize access — the
// physical shift register and the CurrentIR bookkeeping corrupt together if
// two operations interleave.
type Chain struct {
	devices []*Device
	xport   *transport
}

// NewChain builds a chain description from the per-device IR widths, in
// chain order (closest to TDI first). Prescan and postscan counts are
// derived from the widths of the surrounding devices.
func NewChain(adapter jtag.Adapter, irLens []int) (*Chain, error) {
	if adapter == nil {
		return nil, fmt.Errorf("scan: adapter is nil")
	}
	if len(irLens) == 0 {
		return nil, fmt.Errorf("scan: chain needs at least one device")
	}
	total := 0
	for i, width := range irLens {
		if width <= 0 {
			return nil, fmt.Errorf("scan: device %d has invalid IR length %d", i, width)
		}
		total += width
	}

	devices := make([]*Device, len(irLens))
	prescan := 0
	for i, width := range irLens {
		devices[i] = &Device{
			IRLen:      width,
			IRPrescan:  prescan,
			IRPostscan: total - prescan - width,
			CurrentIR:  Bypass,
		}
		prescan += width
	}

	return &Chain{
		devices: devices,
		xport:   newTransport(adapter),
	}, nil
}

// Len returns the number of devices on the chain.
func (c *Chain) Len() int {
	return len(c.devices)
}

// Device returns the descriptor at the given chain position. An out-of-range
// position is a caller bug and panics.
func (c *Chain) Device(index int) *Device {
	return c.devices[index]
}

// Devices returns a copy of the device list.
func (c *Chain) Devices() []*Device {
	out := make([]*Device, len(c.devices))
	copy(out, c.devices)
	return out
}

// State reports the TAP state the chain transport believes the hardware
// controller is in.
func (c *Chain) State() tap.State {
	return c.xport.state()
}

// Reset forces the TAP controller into Test-Logic-Reset and settles in
// Run-Test/Idle, clearing the logical IR model back to bypass.
func (c *Chain) Reset() error {
	for _, dev := range c.devices {
		dev.CurrentIR = Bypass
	}
	if err := c.xport.reset(); err != nil {
		return err
	}
	return c.xport.gotoState(tap.StateRunTestIdle)
}

// WriteIR shifts ir into the device at index while holding every other
// device in bypass. The emitted stream is exactly IRPrescan + IRLen +
// IRPostscan bits; the transition to Exit1-IR rides on the final bit of the
// target's own instruction when the target ends the chain, otherwise on the
// final padding bit. The controller is left parked in Update-IR so callers
// can chain a DR operation directly. The index is a caller contract; an
// out-of-range value panics.
func (c *Chain) WriteIR(index int, ir uint32) error {
	// Every device's shift-time instruction must be pinned down before any
	// bit moves: reset the whole model to bypass, then set the target.
	// Bypass is idempotent, so no diffing against previous state.
	for _, dev := range c.devices {
		dev.CurrentIR = Bypass
	}
	target := c.devices[index]
	target.CurrentIR = ir

	if err := c.xport.gotoState(tap.StateShiftIR); err != nil {
		return fmt.Errorf("scan: entering Shift-IR: %w", err)
	}
	// Clock out 1's until the target's own bits are due.
	if err := c.emitIR(onesVector(target.IRPrescan), false); err != nil {
		return err
	}
	// The target's instruction. When nothing follows on the chain, its last
	// bit must coincide with the move to Exit1-IR.
	if err := c.emitIR(uint32ToBits(ir, target.IRLen), target.IRPostscan == 0); err != nil {
		return err
	}
	// 1's for the remaining devices, leaving Shift-IR on the last pad bit.
	if err := c.emitIR(onesVector(target.IRPostscan), true); err != nil {
		return err
	}
	// Latch through Update-IR and hold there, not Run-Test/Idle.
	if err := c.xport.gotoState(tap.StateUpdateIR); err != nil {
		return fmt.Errorf("scan: latching Update-IR: %w", err)
	}
	return nil
}

// emitIR shifts bits on the IR path, raising TMS on the final bit when exit
// is set. Zero-length emissions are skipped.
func (c *Chain) emitIR(bits []bool, exit bool) error {
	if len(bits) == 0 {
		return nil
	}
	tms := make([]bool, len(bits))
	if exit {
		tms[len(tms)-1] = true
	}
	if _, err := c.xport.shiftIR(tms, bits); err != nil {
		return fmt.Errorf("scan: IR shift: %w", err)
	}
	return nil
}

// ReadDR performs a capture-only data-register read of the given width. TDI
// is don't-care; the captured TDO bits come back LSB-first. The controller
// returns to Run-Test/Idle afterwards.
func (c *Chain) ReadDR(bits int) ([]bool, error) {
	if bits <= 0 {
		return nil, fmt.Errorf("scan: DR bit count must be positive, got %d", bits)
	}
	if err := c.xport.gotoState(tap.StateShiftDR); err != nil {
		return nil, fmt.Errorf("scan: entering Shift-DR: %w", err)
	}
	tms := make([]bool, bits)
	tms[bits-1] = true // exit Shift-DR on the final bit
	tdo, err := c.xport.shiftDR(tms, nil)
	if err != nil {
		return nil, fmt.Errorf("scan: DR shift: %w", err)
	}
	if err := c.xport.gotoState(tap.StateRunTestIdle); err != nil {
		return nil, fmt.Errorf("scan: returning to idle: %w", err)
	}
	return bytesToBools(tdo, bits), nil
}
