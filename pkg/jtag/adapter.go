package jtag

import (
	"errors"
	"fmt"
)

// AdapterInfo describes capabilities reported by a JTAG adapter
// implementation.
type AdapterInfo struct {
	Name         string
	Vendor       string
	Model        string
	SerialNumber string
	Firmware     string
	MinFrequency int // Hertz
	MaxFrequency int // Hertz
	SupportsSRST bool
	SupportsTRST bool
}

// Adapter abstracts a physical or virtual JTAG probe. Shift operations drive
// TCK for bits cycles with the given TMS/TDI levels (LSB-first within each
// byte) and return the captured TDO stream. A nil or short TDI buffer means
// don't-care data; the adapter drives zeros.
type Adapter interface {
	Info() (AdapterInfo, error)
	ShiftIR(tms, tdi []byte, bits int) (tdo []byte, err error)
	ShiftDR(tms, tdi []byte, bits int) (tdo []byte, err error)
	ResetTAP(hard bool) error
	SetSpeed(hz int) error
}

// ErrNotImplemented signals that a backend does not provide a requested
// capability. Callers treat it as "skip", not as a failure.
var ErrNotImplemented = errors.New("jtag: not implemented")

// ValidateShiftBuffers checks that any provided TMS/TDI buffers cover the
// requested bit count and returns the number of bytes the count occupies.
func ValidateShiftBuffers(tms, tdi []byte, bits int) (int, error) {
	if bits <= 0 {
		return 0, fmt.Errorf("jtag: bits must be positive, got %d", bits)
	}
	required := (bits + 7) / 8
	if len(tms) > 0 && len(tms) < required {
		return 0, fmt.Errorf("jtag: tms buffer too short, need %d bytes", required)
	}
	if len(tdi) > 0 && len(tdi) < required {
		return 0, fmt.Errorf("jtag: tdi buffer too short, need %d bytes", required)
	}
	return required, nil
}
