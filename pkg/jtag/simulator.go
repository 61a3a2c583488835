package jtag

import "fmt"

// ShiftRegion identifies whether a shift targets the instruction or data
// register path.
type ShiftRegion uint8

const (
	ShiftRegionIR ShiftRegion = iota
	ShiftRegionDR
)

func (r ShiftRegion) String() string {
	switch r {
	case ShiftRegionIR:
		return "IR"
	case ShiftRegionDR:
		return "DR"
	default:
		return fmt.Sprintf("ShiftRegion(%d)", uint8(r))
	}
}

// ShiftHook lets a test supply deterministic TDO data for a shift request.
type ShiftHook func(region ShiftRegion, tms, tdi []byte, bits int) ([]byte, error)

// ShiftOp records one shift invocation. Chain addressing is all about exact
// bit sequencing, so tests audit the complete ordered log rather than just
// the last request.
type ShiftOp struct {
	Region ShiftRegion
	TMS    []byte
	TDI    []byte
	Bits   int
}

// SimAdapter is an in-memory adapter for unit tests. Every shift is appended
// to an op log, and OnShift can provide TDO data; without a hook, TDI is
// echoed back.
type SimAdapter struct {
	InfoData AdapterInfo
	SpeedHz  int

	OnShift ShiftHook

	ops       []ShiftOp
	resets    int
	hardReset int
}

// NewSimAdapter constructs a simulator with the provided AdapterInfo.
func NewSimAdapter(info AdapterInfo) *SimAdapter {
	return &SimAdapter{InfoData: info}
}

// Ops returns a copy of every shift recorded since construction or the last
// ClearOps.
func (s *SimAdapter) Ops() []ShiftOp {
	out := make([]ShiftOp, len(s.ops))
	for i, op := range s.ops {
		out[i] = copyOp(op)
	}
	return out
}

// LastShift returns the most recent shift request, or a zero ShiftOp when
// nothing has been shifted yet.
func (s *SimAdapter) LastShift() ShiftOp {
	if len(s.ops) == 0 {
		return ShiftOp{}
	}
	return copyOp(s.ops[len(s.ops)-1])
}

// ClearOps discards the op log, typically between test phases.
func (s *SimAdapter) ClearOps() {
	s.ops = s.ops[:0]
}

// ResetCounts reports how many TAP resets were requested (hard as subset).
func (s *SimAdapter) ResetCounts() (soft, hard int) {
	return s.resets, s.hardReset
}

func (s *SimAdapter) Info() (AdapterInfo, error) {
	return s.InfoData, nil
}

func (s *SimAdapter) ShiftIR(tms, tdi []byte, bits int) ([]byte, error) {
	return s.shift(ShiftRegionIR, tms, tdi, bits)
}

func (s *SimAdapter) ShiftDR(tms, tdi []byte, bits int) ([]byte, error) {
	return s.shift(ShiftRegionDR, tms, tdi, bits)
}

func (s *SimAdapter) ResetTAP(hard bool) error {
	s.resets++
	if hard {
		s.hardReset++
	}
	return nil
}

func (s *SimAdapter) SetSpeed(hz int) error {
	if hz <= 0 {
		return fmt.Errorf("jtag: invalid speed %dHz", hz)
	}
	s.SpeedHz = hz
	return nil
}

func (s *SimAdapter) shift(region ShiftRegion, tms, tdi []byte, bits int) ([]byte, error) {
	required, err := ValidateShiftBuffers(tms, tdi, bits)
	if err != nil {
		return nil, err
	}

	s.ops = append(s.ops, copyOp(ShiftOp{
		Region: region,
		TMS:    tms,
		TDI:    tdi,
		Bits:   bits,
	}))

	if s.OnShift != nil {
		return s.OnShift(region, tms, tdi, bits)
	}

	// Default: echo TDI to TDO to keep tests predictable.
	tdo := make([]byte, required)
	copy(tdo, tdi)
	return tdo, nil
}

func copyOp(op ShiftOp) ShiftOp {
	return ShiftOp{
		Region: op.Region,
		TMS:    append([]byte(nil), op.TMS...),
		TDI:    append([]byte(nil), op.TDI...),
		Bits:   op.Bits,
	}
}
