// Package codec holds the byte-level primitives shared by every AFP
// encoder: fixed-width big-endian integers, padding helpers and the
// legacy 8-bit text encoder used for object names and text data.
package codec

import "strings"

// Convert returns value as width big-endian bytes. Bits that do not fit
// are dropped; callers that care about range must check beforehand.
func Convert(value int, width int) []byte {
	out := make([]byte, width)
	v := uint64(value)
	for i := width - 1; i >= 0; i-- {
		out[i] = byte(v)
		v >>= 8
	}
	return out
}

// Int decodes an unsigned big-endian integer of up to 8 bytes.
func Int(b []byte) int {
	n := 0
	for _, c := range b {
		n = n<<8 | int(c)
	}
	return n
}

func PutUint16(b []byte, v int) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

func PutUint24(b []byte, v int) {
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

func AppendUint16(b []byte, v int) []byte {
	return append(b, byte(v>>8), byte(v))
}

func AppendUint24(b []byte, v int) []byte {
	return append(b, byte(v>>16), byte(v>>8), byte(v))
}

// FitsIn reports whether value is representable as an unsigned integer
// of width bytes.
func FitsIn(value, width int) bool {
	if value < 0 {
		return false
	}
	return width >= 8 || value < 1<<(8*uint(width))
}

// LeftPad pads s on the left with pad until it is n runes long. Longer
// strings are returned unchanged.
func LeftPad(s string, pad rune, n int) string {
	l := len([]rune(s))
	if l >= n {
		return s
	}
	return strings.Repeat(string(pad), n-l) + s
}

// PadRight truncates or space-pads s to exactly n runes.
func PadRight(s string, n int) string {
	r := []rune(s)
	if len(r) >= n {
		return string(r[:n])
	}
	return s + strings.Repeat(" ", n-len(r))
}
