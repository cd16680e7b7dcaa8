package field

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestEncodeHeader(t *testing.T) {
	b, err := Field{ID: BeginPage, Data: []byte("PGN00001")}.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte{0x5A, 0x00, 0x10, 0xD3, 0xA8, 0xAF, 0x00, 0x00, 0x00}
	if !bytes.Equal(b[:9], want) {
		t.Fatalf("header = % X, want % X", b[:9], want)
	}
	if len(b) != 17 {
		t.Fatalf("len = %d, want 17", len(b))
	}
}

func TestLengthRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 2, 100, 8183, 32759, 65000, MaxData} {
		payload := bytes.Repeat([]byte{0xAB}, n)
		b, err := Field{ID: NoOperation, Data: payload}.Encode()
		if err != nil {
			t.Fatalf("Encode(%d): %v", n, err)
		}
		declared := int(b[1])<<8 | int(b[2])
		if declared != len(b)-1 {
			t.Fatalf("declared length %d for %d bytes", declared, len(b))
		}
		f, consumed, err := Decode(b)
		if err != nil {
			t.Fatalf("Decode(%d): %v", n, err)
		}
		if consumed != len(b) || len(f.Data) != n || f.ID != NoOperation {
			t.Fatalf("round trip mismatch for %d bytes", n)
		}
	}
}

func TestEncodeTooLarge(t *testing.T) {
	_, err := Field{ID: NoOperation, Data: make([]byte, MaxData+1)}.Encode()
	if !errors.Is(err, ErrFieldTooLarge) {
		t.Fatalf("expected ErrFieldTooLarge, got %v", err)
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := map[string][]byte{
		"short":      {0x5A, 0x00},
		"introducer": {0x5B, 0x00, 0x08, 0xD3, 0xEE, 0xEE, 0, 0, 0},
		"length":     {0x5A, 0x00, 0x02, 0xD3, 0xEE, 0xEE, 0, 0, 0},
		"overrun":    {0x5A, 0x00, 0x20, 0xD3, 0xEE, 0xEE, 0, 0, 0},
	}
	for name, in := range tests {
		if _, _, err := Decode(in); !errors.Is(err, ErrMalformedField) {
			t.Errorf("%s: expected ErrMalformedField, got %v", name, err)
		}
	}
}

func TestChunk(t *testing.T) {
	for _, max := range []int{MaxObjectContainerData, MaxImageSegmentData, 7} {
		for _, n := range []int{0, 1, max - 1, max, max + 1, 3 * max} {
			payload := make([]byte, n)
			for i := range payload {
				payload[i] = byte(i * 31)
			}
			chunks := Chunk(ObjectContainerData, payload, max)
			want := (n + max - 1) / max
			if len(chunks) != want {
				t.Fatalf("max %d len %d: %d chunks, want %d", max, n, len(chunks), want)
			}
			var joined []byte
			for _, c := range chunks {
				if len(c.Data) > max {
					t.Fatalf("chunk of %d exceeds %d", len(c.Data), max)
				}
				joined = append(joined, c.Data...)
			}
			if !bytes.Equal(joined, payload) {
				t.Fatalf("max %d len %d: payload not preserved", max, n)
			}
		}
	}
}

func TestWriteChunkedAndReader(t *testing.T) {
	payload := bytes.Repeat([]byte{1, 2, 3}, 20000)
	var buf bytes.Buffer
	n, err := WriteChunked(&buf, ImagePictureData, payload, MaxImageSegmentData)
	if err != nil {
		t.Fatalf("WriteChunked: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Fatalf("reported %d bytes, wrote %d", n, buf.Len())
	}
	r := NewReader(&buf)
	var got []byte
	count := 0
	for {
		f, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if f.ID != ImagePictureData {
			t.Fatalf("unexpected id %s", f.ID)
		}
		got = append(got, f.Data...)
		count++
	}
	if count != 2 || !bytes.Equal(got, payload) {
		t.Fatalf("reader returned %d fields", count)
	}
	if r.Offset() != n {
		t.Fatalf("offset %d, want %d", r.Offset(), n)
	}
}

func TestReaderTruncated(t *testing.T) {
	b, _ := Field{ID: NoOperation, Data: []byte("abc")}.Encode()
	_, err := NewReader(bytes.NewReader(b[:len(b)-1])).Next()
	if !errors.Is(err, ErrMalformedField) {
		t.Fatalf("expected ErrMalformedField, got %v", err)
	}
}

func TestNames(t *testing.T) {
	tests := map[Identifier]string{
		BeginDocument:        "BDT",
		PresentationTextData: "PTX",
		IncludeObject:        "IOB",
		MapCodedFont:         "MCF",
	}
	for id, want := range tests {
		if got := id.String(); got != want {
			t.Errorf("%X: got %s want %s", id.Bytes(), got, want)
		}
	}
	if got := ID(0x01, 0x02).String(); got != "D30102" {
		t.Fatalf("unknown id string %q", got)
	}
}
