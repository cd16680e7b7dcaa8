// Package field implements MO:DCA structured fields: the 0x5A-introduced,
// length-prefixed records every AFP object is built from.
package field

import (
	"errors"
	"fmt"
	"io"
)

const (
	// Introducer is the carriage-control byte preceding every field.
	Introducer byte = 0x5A
	// Class is the identifier class for all MO:DCA structured fields.
	Class byte = 0xD3
	// HeaderLen is introducer + length + identifier + flags + reserved.
	HeaderLen = 9
	// MaxLength is the largest value the length field can hold.
	MaxLength = 0xFFFF
	// MaxData is the largest payload one field can carry.
	MaxData = MaxLength - (HeaderLen - 1)
)

// Architected maximum payload sizes for chunked data.
const (
	MaxObjectContainerData = 32759
	MaxNoOperationData     = 32759
	MaxImageSegmentData    = 30000
)

// Flag bits of the structured field introducer.
const (
	FlagExtension byte = 0x80
	FlagSegmented byte = 0x20
	FlagPadding   byte = 0x08
)

var (
	ErrFieldTooLarge  = errors.New("structured field exceeds maximum length")
	ErrMalformedField = errors.New("malformed structured field")
)

// Identifier is the three-byte structured field identifier.
type Identifier struct {
	Class    byte
	Type     byte
	Category byte
}

// ID builds an Identifier in the D3 class.
func ID(typ, category byte) Identifier { return Identifier{Class: Class, Type: typ, Category: category} }

func (id Identifier) Bytes() [3]byte { return [3]byte{id.Class, id.Type, id.Category} }

func (id Identifier) String() string {
	if n := Name(id); n != "" {
		return n
	}
	return fmt.Sprintf("%02X%02X%02X", id.Class, id.Type, id.Category)
}

// Field is one structured field.
type Field struct {
	ID    Identifier
	Flags byte
	Data  []byte
}

// Len returns the serialized size including the introducer.
func (f Field) Len() int { return HeaderLen + len(f.Data) }

// Encode serializes the field. The declared length counts every byte
// after the introducer.
func (f Field) Encode() ([]byte, error) {
	return f.AppendTo(make([]byte, 0, f.Len()))
}

// AppendTo appends the serialized field to b.
func (f Field) AppendTo(b []byte) ([]byte, error) {
	if len(f.Data) > MaxData {
		return b, fmt.Errorf("%s with %d data bytes: %w", f.ID, len(f.Data), ErrFieldTooLarge)
	}
	length := f.Len() - 1
	b = append(b, Introducer, byte(length>>8), byte(length),
		f.ID.Class, f.ID.Type, f.ID.Category, f.Flags, 0x00, 0x00)
	return append(b, f.Data...), nil
}

// WriteTo writes the serialized field to w.
func (f Field) WriteTo(w io.Writer) (int64, error) {
	b, err := f.Encode()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

// Write is a convenience that serializes a field built from its parts.
func Write(w io.Writer, id Identifier, data []byte) (int64, error) {
	return Field{ID: id, Data: data}.WriteTo(w)
}

// Decode parses one field from the start of b and returns the number of
// bytes consumed.
func Decode(b []byte) (Field, int, error) {
	if len(b) < HeaderLen {
		return Field{}, 0, fmt.Errorf("short header (%d bytes): %w", len(b), ErrMalformedField)
	}
	if b[0] != Introducer {
		return Field{}, 0, fmt.Errorf("introducer 0x%02X: %w", b[0], ErrMalformedField)
	}
	length := int(b[1])<<8 | int(b[2])
	total := length + 1
	if total < HeaderLen {
		return Field{}, 0, fmt.Errorf("declared length %d: %w", length, ErrMalformedField)
	}
	if len(b) < total {
		return Field{}, 0, fmt.Errorf("declared length %d exceeds %d available bytes: %w", length, len(b)-1, ErrMalformedField)
	}
	f := Field{
		ID:    Identifier{Class: b[3], Type: b[4], Category: b[5]},
		Flags: b[6],
		Data:  append([]byte(nil), b[HeaderLen:total]...),
	}
	return f, total, nil
}

// DecodeAll parses a complete data stream.
func DecodeAll(b []byte) ([]Field, error) {
	var out []Field
	for off := 0; off < len(b); {
		f, n, err := Decode(b[off:])
		if err != nil {
			return out, fmt.Errorf("offset %d: %w", off, err)
		}
		out = append(out, f)
		off += n
	}
	return out, nil
}
