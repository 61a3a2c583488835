package scan

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/OpenTraceLab/OpenTraceICEPick/pkg/jtag"
	"github.com/OpenTraceLab/OpenTraceICEPick/pkg/tap"
)

// newTestChain builds a chain over a fresh simulator and settles it in
// Run-Test/Idle with the op log cleared, so tests observe only the operation
// under scrutiny.
func newTestChain(t *testing.T, irLens []int) (*Chain, *jtag.SimAdapter) {
	t.Helper()
	sim := jtag.NewSimAdapter(jtag.AdapterInfo{Name: "sim"})
	ch, err := NewChain(sim, irLens)
	if err != nil {
		t.Fatalf("NewChain failed: %v", err)
	}
	if err := ch.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	sim.ClearOps()
	return ch, sim
}

// dataEmissions extracts the shifts of a single WriteIR that carry chain
// bits. With the op log cleared beforehand, a WriteIR always records the
// Shift-IR entry transition first and the 1-bit Update-IR latch last; the
// ops between them are the prescan/IR/postscan emissions.
func dataEmissions(t *testing.T, ops []jtag.ShiftOp) []jtag.ShiftOp {
	t.Helper()
	if len(ops) < 3 {
		t.Fatalf("expected entry + emissions + latch, got %d ops", len(ops))
	}
	for _, op := range ops[1 : len(ops)-1] {
		if op.Region != jtag.ShiftRegionIR {
			t.Fatalf("emission on wrong register path: %+v", op)
		}
	}
	return ops[1 : len(ops)-1]
}

func opBits(t *testing.T, op jtag.ShiftOp) (tms, tdi []bool) {
	t.Helper()
	return bytesToBools(op.TMS, op.Bits), bytesToBools(op.TDI, op.Bits)
}

func TestNewChainComputesScanCounts(t *testing.T) {
	sim := jtag.NewSimAdapter(jtag.AdapterInfo{Name: "sim"})
	ch, err := NewChain(sim, []int{6, 4, 38})
	if err != nil {
		t.Fatalf("NewChain failed: %v", err)
	}

	want := []Device{
		{IRLen: 6, IRPrescan: 0, IRPostscan: 42, CurrentIR: Bypass},
		{IRLen: 4, IRPrescan: 6, IRPostscan: 38, CurrentIR: Bypass},
		{IRLen: 38, IRPrescan: 10, IRPostscan: 0, CurrentIR: Bypass},
	}
	for i := range want {
		if got := *ch.Device(i); got != want[i] {
			t.Fatalf("device %d = %+v, want %+v", i, got, want[i])
		}
	}
}

func TestNewChainRejectsBadInput(t *testing.T) {
	sim := jtag.NewSimAdapter(jtag.AdapterInfo{Name: "sim"})
	if _, err := NewChain(nil, []int{4}); err == nil {
		t.Fatalf("expected error for nil adapter")
	}
	if _, err := NewChain(sim, nil); err == nil {
		t.Fatalf("expected error for empty chain")
	}
	if _, err := NewChain(sim, []int{4, 0, 4}); err == nil {
		t.Fatalf("expected error for zero IR length")
	}
}

// The worked example: three 4-bit devices, IR 0x7 into device 1. The wire
// must carry 4 ones, then 0111 (LSB first), then 4 ones with the move to
// Exit1-IR on the very last padding bit, then a single Update-IR latch.
func TestWriteIRMiddleDeviceSequence(t *testing.T) {
	ch, sim := newTestChain(t, []int{4, 4, 4})

	if err := ch.WriteIR(1, 0x7); err != nil {
		t.Fatalf("WriteIR failed: %v", err)
	}

	want := []jtag.ShiftOp{
		// Run-Test/Idle -> Shift-IR entry (TMS 1,1,0,0), DR-path dispatch.
		{Region: jtag.ShiftRegionDR, TMS: []byte{0x03}, TDI: []byte{0x00}, Bits: 4},
		// Prescan bypass padding for device 0.
		{Region: jtag.ShiftRegionIR, TMS: []byte{0x00}, TDI: []byte{0x0f}, Bits: 4},
		// The target's IR value 0x7, staying in Shift-IR.
		{Region: jtag.ShiftRegionIR, TMS: []byte{0x00}, TDI: []byte{0x07}, Bits: 4},
		// Postscan padding for device 2, exiting on the final bit.
		{Region: jtag.ShiftRegionIR, TMS: []byte{0x08}, TDI: []byte{0x0f}, Bits: 4},
		// Exit1-IR -> Update-IR latch.
		{Region: jtag.ShiftRegionIR, TMS: []byte{0x01}, TDI: []byte{0x00}, Bits: 1},
	}
	if diff := cmp.Diff(want, sim.Ops()); diff != "" {
		t.Fatalf("op sequence mismatch (-want +got):\n%s", diff)
	}

	if ch.State() != tap.StateUpdateIR {
		t.Fatalf("resting state = %s, want %s", ch.State(), tap.StateUpdateIR)
	}
}

func TestWriteIRBitCountAndOffset(t *testing.T) {
	cases := []struct {
		name   string
		irLens []int
		target int
		ir     uint32
	}{
		{name: "first device", irLens: []int{4, 6, 8}, target: 0, ir: 0x5},
		{name: "middle device", irLens: []int{5, 6, 7}, target: 1, ir: 0x2a},
		{name: "last device", irLens: []int{4, 4, 6}, target: 2, ir: 0x19},
		{name: "single device", irLens: []int{6}, target: 0, ir: 0x05},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ch, sim := newTestChain(t, tc.irLens)
			if err := ch.WriteIR(tc.target, tc.ir); err != nil {
				t.Fatalf("WriteIR failed: %v", err)
			}

			dev := ch.Device(tc.target)
			var stream []bool
			for _, op := range dataEmissions(t, sim.Ops()) {
				_, tdi := opBits(t, op)
				stream = append(stream, tdi...)
			}

			wantTotal := dev.IRPrescan + dev.IRLen + dev.IRPostscan
			if len(stream) != wantTotal {
				t.Fatalf("emitted %d bits, want %d", len(stream), wantTotal)
			}
			for i := 0; i < dev.IRPrescan; i++ {
				if !stream[i] {
					t.Fatalf("prescan bit %d not high", i)
				}
			}
			got := BitsToUint32(stream[dev.IRPrescan : dev.IRPrescan+dev.IRLen])
			if got != tc.ir {
				t.Fatalf("target IR on wire = %#x, want %#x", got, tc.ir)
			}
			for i := dev.IRPrescan + dev.IRLen; i < wantTotal; i++ {
				if !stream[i] {
					t.Fatalf("postscan bit %d not high", i)
				}
			}
		})
	}
}

func TestWriteIRBypassesEveryOtherDevice(t *testing.T) {
	ch, _ := newTestChain(t, []int{4, 6, 8, 2})

	if err := ch.WriteIR(2, 0x55); err != nil {
		t.Fatalf("WriteIR failed: %v", err)
	}
	for i := 0; i < ch.Len(); i++ {
		dev := ch.Device(i)
		if i == 2 {
			if dev.CurrentIR != 0x55 {
				t.Fatalf("target CurrentIR = %#x, want 0x55", dev.CurrentIR)
			}
			continue
		}
		if dev.CurrentIR != Bypass {
			t.Fatalf("device %d CurrentIR = %#x, want bypass sentinel", i, dev.CurrentIR)
		}
	}

	// A second write to a different target must overwrite the old target's
	// instruction with the sentinel again.
	if err := ch.WriteIR(0, 0x3); err != nil {
		t.Fatalf("WriteIR failed: %v", err)
	}
	if ch.Device(2).CurrentIR != Bypass {
		t.Fatalf("previous target not returned to bypass")
	}
	if ch.Device(0).CurrentIR != 0x3 {
		t.Fatalf("new target CurrentIR = %#x, want 0x3", ch.Device(0).CurrentIR)
	}
}

// Exit1-IR timing: with no postscan the exit rides on the target's own final
// bit; with postscan it rides on the final padding bit only.
func TestWriteIRExitTiming(t *testing.T) {
	t.Run("postscan zero", func(t *testing.T) {
		ch, sim := newTestChain(t, []int{4, 6})
		if err := ch.WriteIR(1, 0x1f); err != nil {
			t.Fatalf("WriteIR failed: %v", err)
		}
		emissions := dataEmissions(t, sim.Ops())
		if len(emissions) != 2 {
			t.Fatalf("got %d emissions, want 2 (prescan + IR)", len(emissions))
		}
		tms, _ := opBits(t, emissions[1])
		if !tms[len(tms)-1] {
			t.Fatalf("exit flag missing on final bit of target IR emission")
		}
		for i := 0; i < len(tms)-1; i++ {
			if tms[i] {
				t.Fatalf("premature exit on IR bit %d", i)
			}
		}
	})

	t.Run("postscan nonzero", func(t *testing.T) {
		ch, sim := newTestChain(t, []int{6, 4})
		if err := ch.WriteIR(0, 0x2a); err != nil {
			t.Fatalf("WriteIR failed: %v", err)
		}
		emissions := dataEmissions(t, sim.Ops())
		if len(emissions) != 2 {
			t.Fatalf("got %d emissions, want 2 (IR + postscan)", len(emissions))
		}
		irTMS, _ := opBits(t, emissions[0])
		for i, bit := range irTMS {
			if bit {
				t.Fatalf("IR emission raised TMS at bit %d; exit belongs to the padding", i)
			}
		}
		padTMS, _ := opBits(t, emissions[1])
		if !padTMS[len(padTMS)-1] {
			t.Fatalf("exit flag missing on final padding bit")
		}
	})
}

func TestWriteIRIsIdempotent(t *testing.T) {
	ch, sim := newTestChain(t, []int{4, 4, 4})

	if err := ch.WriteIR(1, 0x9); err != nil {
		t.Fatalf("first WriteIR failed: %v", err)
	}
	first := dataEmissions(t, sim.Ops())

	sim.ClearOps()
	if err := ch.WriteIR(1, 0x9); err != nil {
		t.Fatalf("second WriteIR failed: %v", err)
	}
	second := dataEmissions(t, sim.Ops())

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("repeated WriteIR diverged (-first +second):\n%s", diff)
	}
}

func TestReadDRCapturesBits(t *testing.T) {
	ch, sim := newTestChain(t, []int{6})

	var code = uint32(0xb3d15300)
	sim.OnShift = func(region jtag.ShiftRegion, tms, tdi []byte, bits int) ([]byte, error) {
		if region == jtag.ShiftRegionDR && bits == 32 {
			return []byte{
				byte(code), byte(code >> 8), byte(code >> 16), byte(code >> 24),
			}, nil
		}
		return make([]byte, (bits+7)/8), nil
	}

	if err := ch.WriteIR(0, 0x05); err != nil {
		t.Fatalf("WriteIR failed: %v", err)
	}
	bits, err := ch.ReadDR(32)
	if err != nil {
		t.Fatalf("ReadDR failed: %v", err)
	}
	if len(bits) != 32 {
		t.Fatalf("got %d bits, want 32", len(bits))
	}
	if got := BitsToUint32(bits); got != code {
		t.Fatalf("captured %#08x, want %#08x", got, code)
	}
	if ch.State() != tap.StateRunTestIdle {
		t.Fatalf("state after ReadDR = %s, want %s", ch.State(), tap.StateRunTestIdle)
	}
}

func TestReadDRRejectsBadWidth(t *testing.T) {
	ch, _ := newTestChain(t, []int{4})
	if _, err := ch.ReadDR(0); err == nil {
		t.Fatalf("expected error for zero width")
	}
}
