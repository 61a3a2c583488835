// Package icepick identifies TI ICEPick TAP routers: auxiliary controllers
// some TI parts place in the scan chain ahead of the functional debug TAPs.
//
// References:
// SPRUH35 - Using the ICEPick TAP (type-C)
// https://www.ti.com/lit/ug/spruh35/spruh35.pdf
package icepick

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceICEPick/pkg/diag"
	"github.com/OpenTraceLab/OpenTraceICEPick/pkg/scan"
)

// ICEPick instruction register opcodes.
const (
	IRRouter      uint32 = 0x02
	IRICEPickCode uint32 = 0x05
	IRConnect     uint32 = 0x07
)

// The type-C signature is taken from SPRUH35; the type-D value was read
// from a BeagleBone Black Industrial (AM3358BZCZA100).
const (
	TypeMask uint32 = 0xfff0
	TypeC    uint32 = 0x1cc0
	TypeD    uint32 = 0xb3d0
)

const (
	majorShift = 28
	majorMask  = 0xf
	minorShift = 24
	minorMask  = 0xf
)

// Code is a decoded ICEPick controller identification word.
type Code struct {
	Raw   uint32
	Major uint8 // [31:28]
	Minor uint8 // [27:24]
}

// ParseCode splits a raw identification word into its fields.
func ParseCode(raw uint32) Code {
	return Code{
		Raw:   raw,
		Major: uint8((raw >> majorShift) & majorMask),
		Minor: uint8((raw >> minorShift) & minorMask),
	}
}

// Type returns the masked controller-type field.
func (c Code) Type() uint32 {
	return c.Raw & TypeMask
}

func (c Code) String() string {
	return fmt.Sprintf("v%d.%d (%08x)", c.Major, c.Minor, c.Raw)
}

// Router addresses one chain position believed to host an ICEPick
// controller.
type Router struct {
	chain *scan.Chain
	index int
	log   diag.Logger
}

// NewRouter binds a router to a chain position. A nil logger suppresses
// diagnostics.
func NewRouter(chain *scan.Chain, index int, log diag.Logger) *Router {
	if log == nil {
		log = diag.NewNoOpLogger()
	}
	return &Router{chain: chain, index: index, log: log}
}

// Identify switches the router TAP into its controller identification mode,
// reads the 32-bit code, and accepts only the type-D signature. A signature
// mismatch is an expected outcome, reported with ok=false after an error
// diagnostic; only transport failures return a non-nil error. The type-C
// signature is deliberately rejected so identification semantics stay fixed
// for existing callers.
func (r *Router) Identify() (Code, bool, error) {
	if err := r.chain.WriteIR(r.index, IRICEPickCode); err != nil {
		return Code{}, false, fmt.Errorf("icepick: selecting ICEPICKCODE: %w", err)
	}
	bits, err := r.chain.ReadDR(32)
	if err != nil {
		return Code{}, false, fmt.Errorf("icepick: reading controller ID: %w", err)
	}
	raw := scan.BitsToUint32(bits)

	if raw&TypeMask != TypeD {
		r.log.Errorf("ICEPick is not a type-D controller (%08x)", raw)
		return Code{}, false, nil
	}

	code := ParseCode(raw)
	r.log.Infof("ICEPick type-D controller v%d.%d (%08x)", code.Major, code.Minor, raw)
	return code, true, nil
}
