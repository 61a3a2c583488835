package scan

import (
	"errors"

	"github.com/OpenTraceLab/OpenTraceICEPick/pkg/jtag"
	"github.com/OpenTraceLab/OpenTraceICEPick/pkg/tap"
)

// transport pairs an adapter with the local TAP state machine so every
// clocked TMS bit is mirrored into the tracked state before it reaches the
// hardware.
type transport struct {
	adapter jtag.Adapter
	tap     *tap.StateMachine
}

func newTransport(adapter jtag.Adapter) *transport {
	return &transport{adapter: adapter, tap: tap.NewStateMachine()}
}

func (t *transport) state() tap.State {
	return t.tap.State()
}

func (t *transport) reset() error {
	if err := t.adapter.ResetTAP(true); err != nil && !errors.Is(err, jtag.ErrNotImplemented) {
		return err
	}
	seq := t.tap.Reset()
	return t.apply(seq)
}

func (t *transport) gotoState(target tap.State) error {
	seq, err := t.tap.GoTo(target)
	if err != nil {
		return err
	}
	return t.apply(seq)
}

// apply drives a TMS-only sequence. The shift primitive is picked from the
// arm of the state diagram the sequence starts on.
func (t *transport) apply(seq tap.Sequence) error {
	if len(seq.TMS) == 0 {
		return nil
	}
	_, err := t.dispatch(seq.States[0].IRPath(), seq.TMS, nil)
	return err
}

func (t *transport) shiftIR(tms, tdi []bool) ([]byte, error) {
	t.clock(tms)
	return t.dispatch(true, tms, tdi)
}

func (t *transport) shiftDR(tms, tdi []bool) ([]byte, error) {
	t.clock(tms)
	return t.dispatch(false, tms, tdi)
}

func (t *transport) clock(tms []bool) {
	for _, bit := range tms {
		t.tap.Clock(bit)
	}
}

func (t *transport) dispatch(irPath bool, tms, tdi []bool) ([]byte, error) {
	if len(tms) == 0 {
		return nil, nil
	}
	bits := len(tms)
	tmsBytes := boolsToBytes(tms)
	var tdiBytes []byte
	if len(tdi) == 0 {
		tdiBytes = make([]byte, len(tmsBytes))
	} else {
		tdiBytes = boolsToBytes(tdi)
	}
	if irPath {
		return t.adapter.ShiftIR(tmsBytes, tdiBytes, bits)
	}
	return t.adapter.ShiftDR(tmsBytes, tdiBytes, bits)
}
