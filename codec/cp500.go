package codec

import "golang.org/x/text/encoding/charmap"

// codePage is the part of a single-byte charmap the Encoder needs.
// *charmap.Charmap implements it.
type codePage interface {
	EncodeRune(r rune) (b byte, ok bool)
	DecodeByte(b byte) rune
}

// cp500 is EBCDIC International (CCSID 500). It shares every code point
// with CCSID 37 except the seven listed in cp500Diff.
var cp500 = newTable(charmap.CodePage037, cp500Diff)

var cp500Diff = map[byte]rune{
	0x4A: '[',
	0x4F: '!',
	0x5A: ']',
	0x5F: '^',
	0xB0: '¢',
	0xBA: '¬',
	0xBB: '|',
}

// table is a 256-entry code page.
type table struct {
	decode [256]rune
	encode map[rune]byte
}

// newTable copies base and replaces the entries in diff. diff must be a
// permutation of base's code points so every rune keeps one byte.
func newTable(base *charmap.Charmap, diff map[byte]rune) *table {
	t := &table{encode: make(map[rune]byte, 256)}
	for i := 0; i < 256; i++ {
		b := byte(i)
		r, ok := diff[b]
		if !ok {
			r = base.DecodeByte(b)
		}
		t.decode[b] = r
		t.encode[r] = b
	}
	return t
}

func (t *table) EncodeRune(r rune) (byte, bool) {
	b, ok := t.encode[r]
	return b, ok
}

func (t *table) DecodeByte(b byte) rune { return t.decode[b] }
