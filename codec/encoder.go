package codec

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/wudi/afpkit/observability"
)

// DefaultEncoding is the code page used for names and text when nothing
// else is configured.
const DefaultEncoding = "Cp1140"

// Substitute is the EBCDIC substitution character.
const Substitute byte = 0x3F

var codePages = map[string]codePage{
	"CP500":   cp500,
	"IBM500":  cp500,
	"IBM-500": cp500,
	"CP037":   charmap.CodePage037,
	"IBM037":  charmap.CodePage037,
	"IBM-037": charmap.CodePage037,
	"CP1047":  charmap.CodePage1047,
	"IBM1047": charmap.CodePage1047,
	"CP1140":  charmap.CodePage1140,
	"IBM1140": charmap.CodePage1140,
}

// Encoder converts text into a single-byte legacy code page. It never
// fails: unknown encodings fall back to raw bytes and unmappable
// characters become Substitute, both reported through the logger.
type Encoder struct {
	name   string
	cm     codePage
	logger observability.Logger
}

// NewEncoder returns an Encoder for the named code page. An empty name
// selects DefaultEncoding.
func NewEncoder(name string, logger observability.Logger) *Encoder {
	logger = observability.OrNop(logger)
	if name == "" {
		name = DefaultEncoding
	}
	e := &Encoder{name: name, logger: logger}
	if cm, ok := codePages[strings.ToUpper(name)]; ok {
		e.cm = cm
	} else {
		logger.Warn("unsupported encoding, falling back to raw bytes", observability.String("encoding", name))
	}
	return e
}

// Name returns the configured encoding name.
func (e *Encoder) Name() string { return e.name }

// Supported reports whether the encoding maps to a known code page.
func (e *Encoder) Supported() bool { return e.cm != nil }

// Encode converts s. The result has one byte per rune when the code page
// is supported.
func (e *Encoder) Encode(s string) []byte {
	if e.cm == nil {
		return []byte(s)
	}
	out := make([]byte, 0, len(s))
	replaced := 0
	for _, r := range s {
		b, ok := e.cm.EncodeRune(r)
		if !ok {
			b = Substitute
			replaced++
		}
		out = append(out, b)
	}
	if replaced > 0 {
		e.logger.Warn("characters not representable in code page",
			observability.String("encoding", e.name),
			observability.Int("replaced", replaced))
	}
	return out
}

// Decode converts code page bytes back to a string. Used by diagnostics.
func (e *Encoder) Decode(b []byte) string {
	if e.cm == nil {
		return string(b)
	}
	out := make([]byte, 0, len(b))
	for _, c := range b {
		out = utf8.AppendRune(out, e.cm.DecodeByte(c))
	}
	return string(out)
}
