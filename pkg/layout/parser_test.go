package layout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseDescriptor(t *testing.T) {
	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}

	file, err := p.ParseString(`
# BeagleBone Black, single connector
chain "am3358" {
	device "icepick" ir 6
	device "dap" ir 4
	device "dsp" ir 38
}

chain "minimal" {
	device "icepick" ir 6
}
`)
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}

	if len(file.Chains) != 2 {
		t.Fatalf("got %d chains, want 2", len(file.Chains))
	}

	am, ok := file.Chain("am3358")
	if !ok {
		t.Fatalf("chain am3358 not found")
	}
	if diff := cmp.Diff([]int{6, 4, 38}, am.IRLengths()); diff != "" {
		t.Fatalf("IR lengths mismatch (-want +got):\n%s", diff)
	}
	if am.Devices[0].Name != "icepick" {
		t.Fatalf("first device = %q, want icepick", am.Devices[0].Name)
	}

	if _, ok := file.Chain("nonexistent"); ok {
		t.Fatalf("lookup of unknown chain succeeded")
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}

	cases := map[string]string{
		"missing brace":    `chain "a" { device "x" ir 4`,
		"missing ir width": `chain "a" { device "x" ir }`,
		"bare device":      `device "x" ir 4`,
	}
	for name, input := range cases {
		if _, err := p.ParseString(input); err == nil {
			t.Fatalf("%s: expected parse error", name)
		}
	}
}

func TestValidateCatchesSemanticErrors(t *testing.T) {
	p, err := NewParser()
	if err != nil {
		t.Fatalf("NewParser failed: %v", err)
	}

	if _, err := p.ParseString(`chain "empty" { }`); err == nil {
		t.Fatalf("expected error for chain with no devices")
	}
	if _, err := p.ParseString(`chain "zero" { device "x" ir 0 }`); err == nil {
		t.Fatalf("expected error for zero IR width")
	}
	if _, err := p.ParseString(`
chain "dup" { device "a" ir 4 }
chain "dup" { device "b" ir 4 }
`); err == nil {
		t.Fatalf("expected error for duplicate chain names")
	}
}
