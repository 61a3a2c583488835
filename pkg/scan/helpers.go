package scan

// Bit vectors are LSB-first: index 0 is the first bit on the wire and maps
// to bit 0 of byte 0 in packed form.

func boolsToBytes(bits []bool) []byte {
	if len(bits) == 0 {
		return nil
	}
	out := make([]byte, (len(bits)+7)/8)
	for i, bit := range bits {
		if bit {
			out[i/8] |= 1 << (uint(i) % 8)
		}
	}
	return out
}

func bytesToBools(buf []byte, bits int) []bool {
	out := make([]bool, bits)
	for i := 0; i < bits; i++ {
		if i/8 < len(buf) {
			out[i] = buf[i/8]&(1<<(uint(i)%8)) != 0
		}
	}
	return out
}

// BitsToUint32 packs up to 32 LSB-first bits into a word. Extra bits are
// ignored.
func BitsToUint32(bits []bool) uint32 {
	var val uint32
	for i, bit := range bits {
		if i >= 32 {
			break
		}
		if bit {
			val |= 1 << uint(i)
		}
	}
	return val
}

func uint32ToBits(val uint32, width int) []bool {
	bits := make([]bool, width)
	for i := 0; i < width && i < 32; i++ {
		bits[i] = (val>>uint(i))&1 == 1
	}
	return bits
}

func onesVector(n int) []bool {
	bits := make([]bool, n)
	for i := range bits {
		bits[i] = true
	}
	return bits
}
