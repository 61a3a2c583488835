package layout

import "fmt"

// File is a parsed chain-descriptor file. A file may describe several named
// chains for boards with more than one debug connector.
type File struct {
	Chains []*ChainDecl `parser:"@@*"`
}

// ChainDecl names one scan chain and lists its devices in chain order
// (closest to TDI first).
// Example: chain "am3358" { device "icepick" ir 6 }
type ChainDecl struct {
	Name    string        `parser:"'chain' @String '{'"`
	Devices []*DeviceDecl `parser:"@@* '}'"`
}

// DeviceDecl declares one device and its instruction register width.
type DeviceDecl struct {
	Name  string `parser:"'device' @String"`
	IRLen int    `parser:"'ir' @Int"`
}

// Chain returns the declaration with the given name.
func (f *File) Chain(name string) (*ChainDecl, bool) {
	for _, c := range f.Chains {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// IRLengths returns the per-device IR widths in chain order.
func (c *ChainDecl) IRLengths() []int {
	out := make([]int, len(c.Devices))
	for i, dev := range c.Devices {
		out[i] = dev.IRLen
	}
	return out
}

// Validate checks that every declared chain is usable: at least one device,
// positive IR widths, no duplicate chain names.
func (f *File) Validate() error {
	seen := make(map[string]bool)
	for _, c := range f.Chains {
		if seen[c.Name] {
			return fmt.Errorf("layout: duplicate chain %q", c.Name)
		}
		seen[c.Name] = true
		if len(c.Devices) == 0 {
			return fmt.Errorf("layout: chain %q has no devices", c.Name)
		}
		for _, dev := range c.Devices {
			if dev.IRLen <= 0 {
				return fmt.Errorf("layout: chain %q device %q has invalid IR length %d",
					c.Name, dev.Name, dev.IRLen)
			}
		}
	}
	return nil
}
