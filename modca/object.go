package modca

import (
	"io"

	"github.com/wudi/afpkit/codec"
	"github.com/wudi/afpkit/field"
	"github.com/wudi/afpkit/observability"
	"github.com/wudi/afpkit/triplet"
)

// NameLen is the length of every MO:DCA object name.
const NameLen = 8

// Object is anything that serializes itself as structured fields.
type Object interface {
	io.WriterTo
}

// NamedObject is an object with an eight character name, the key other
// objects use to reference it.
type NamedObject interface {
	Object
	Name() string
}

// completer is implemented by containers that may still be open.
type completer interface {
	Complete() bool
}

func complete(o Object) bool {
	c, ok := o.(completer)
	return !ok || c.Complete()
}

// NormalizeName pads name with spaces or truncates it to NameLen
// characters. Truncation is logged.
func NormalizeName(name string, logger observability.Logger) string {
	r := []rune(name)
	if len(r) > NameLen {
		observability.OrNop(logger).Warn("name truncated",
			observability.String("name", name), observability.String("truncated", string(r[:NameLen])))
		return string(r[:NameLen])
	}
	return codec.PadRight(name, NameLen)
}

// named carries the name and triplets shared by begin fields.
type named struct {
	name      string
	nameBytes []byte
	triplets  triplet.Set
}

func newNamed(name string, enc *codec.Encoder, logger observability.Logger) named {
	name = NormalizeName(name, logger)
	b := enc.Encode(name)
	if len(b) != NameLen {
		fixed := make([]byte, NameLen)
		n := copy(fixed, b)
		for i := n; i < NameLen; i++ {
			fixed[i] = enc.Encode(" ")[0]
		}
		b = fixed
	}
	return named{name: name, nameBytes: b}
}

// Name returns the normalized name.
func (n *named) Name() string { return n.name }

// NameBytes returns the name in the document code page.
func (n *named) NameBytes() []byte { return n.nameBytes }

func (n *named) rename(to named) { n.name, n.nameBytes = to.name, to.nameBytes }

// renamer is implemented by every type embedding named.
type renamer interface {
	rename(to named)
}

// AddTriplet attaches t to the object's begin field.
func (n *named) AddTriplet(t triplet.Triplet) { n.triplets = append(n.triplets, t) }

// Triplets returns the attached triplets.
func (n *named) Triplets() triplet.Set { return n.triplets }

// beginData is the name followed by the triplets.
func (n *named) beginData(reserved int) []byte {
	b := make([]byte, 0, NameLen+reserved+n.triplets.Len())
	b = append(b, n.nameBytes...)
	b = append(b, make([]byte, reserved)...)
	return n.triplets.AppendTo(b)
}

// fieldWriter writes structured fields and keeps the first error, so
// the write phases read as straight-line code.
type fieldWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (fw *fieldWriter) field(id field.Identifier, data []byte) {
	if fw.err != nil {
		return
	}
	n, err := field.Write(fw.w, id, data)
	fw.n += n
	fw.err = err
}

func (fw *fieldWriter) chunked(id field.Identifier, payload []byte, max int) {
	if fw.err != nil {
		return
	}
	n, err := field.WriteChunked(fw.w, id, payload, max)
	fw.n += n
	fw.err = err
}

func (fw *fieldWriter) object(o Object) {
	if fw.err != nil || o == nil {
		return
	}
	n, err := o.WriteTo(fw.w)
	fw.n += n
	fw.err = err
}

// phases is the begin/content/end template every structured object
// follows.
type phases interface {
	writeStart(fw *fieldWriter)
	writeContent(fw *fieldWriter)
	writeEnd(fw *fieldWriter)
}

// writeDataStream runs the three phases of p against w.
func writeDataStream(w io.Writer, p phases) (int64, error) {
	fw := &fieldWriter{w: w}
	p.writeStart(fw)
	p.writeContent(fw)
	p.writeEnd(fw)
	return fw.n, fw.err
}

// raw is an object whose bytes are already framed.
type raw []byte

func (r raw) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r)
	return int64(n), err
}
