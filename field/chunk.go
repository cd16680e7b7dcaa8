package field

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// Chunk splits payload into fields of at most max data bytes each. An
// empty payload yields no fields.
func Chunk(id Identifier, payload []byte, max int) []Field {
	if max <= 0 || max > MaxData {
		max = MaxData
	}
	if len(payload) == 0 {
		return nil
	}
	out := make([]Field, 0, (len(payload)+max-1)/max)
	for off := 0; off < len(payload); off += max {
		end := off + max
		if end > len(payload) {
			end = len(payload)
		}
		out = append(out, Field{ID: id, Data: payload[off:end]})
	}
	return out
}

// WriteChunked writes payload to w as a run of id fields.
func WriteChunked(w io.Writer, id Identifier, payload []byte, max int) (int64, error) {
	var total int64
	for _, f := range Chunk(id, payload, max) {
		n, err := f.WriteTo(w)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Reader reads structured fields sequentially from a stream.
type Reader struct {
	r      *bufio.Reader
	offset int64
}

// NewReader wraps r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: bufio.NewReader(r)}
}

// Offset returns the stream offset of the next field.
func (r *Reader) Offset() int64 { return r.offset }

// Next returns the next field, or io.EOF at a clean end of stream.
func (r *Reader) Next() (Field, error) {
	head := make([]byte, HeaderLen)
	if _, err := io.ReadFull(r.r, head[:1]); err != nil {
		return Field{}, err
	}
	if head[0] != Introducer {
		return Field{}, fmt.Errorf("offset %d: introducer 0x%02X: %w", r.offset, head[0], ErrMalformedField)
	}
	if _, err := io.ReadFull(r.r, head[1:]); err != nil {
		return Field{}, fmt.Errorf("offset %d: %w", r.offset, truncated(err))
	}
	length := int(head[1])<<8 | int(head[2])
	if length+1 < HeaderLen {
		return Field{}, fmt.Errorf("offset %d: declared length %d: %w", r.offset, length, ErrMalformedField)
	}
	data := make([]byte, length+1-HeaderLen)
	if _, err := io.ReadFull(r.r, data); err != nil {
		return Field{}, fmt.Errorf("offset %d: %w", r.offset, truncated(err))
	}
	r.offset += int64(length + 1)
	return Field{
		ID:    Identifier{Class: head[3], Type: head[4], Category: head[5]},
		Flags: head[6],
		Data:  data,
	}, nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("truncated field: %w", ErrMalformedField)
	}
	return err
}
