package ioca

import (
	"bytes"
	"errors"
	"testing"
)

func TestCompressionFor(t *testing.T) {
	tests := []struct {
		src  SourceCompression
		want Compression
	}{
		{SourceNone, CompressionNone},
		{SourceFaxG3_1D, CompressionG3MH},
		{SourceFaxG3_2D, CompressionG3MR},
		{SourceFaxG4, CompressionMMR},
		{SourceJPEG, CompressionJPEG},
	}
	for _, tt := range tests {
		got, err := CompressionFor(tt.src)
		if err != nil || got != tt.want {
			t.Errorf("CompressionFor(%d) = %v, %v", tt.src, got, err)
		}
	}
	if _, err := CompressionFor(SourceCompression(42)); !errors.Is(err, ErrUnsupportedCompression) {
		t.Fatalf("expected ErrUnsupportedCompression, got %v", err)
	}
}

func TestConvertToGrayscale(t *testing.T) {
	// black, yellow (Y=236.6), red (Y=42.5)
	rgb := []byte{0, 0, 0, 255, 255, 0, 200, 0, 0}

	one, err := ConvertToGrayscale(rgb, 3, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	// black and red are dark
	if !bytes.Equal(one, []byte{0xA0}) {
		t.Fatalf("1-bit = % X", one)
	}

	four, err := ConvertToGrayscale(rgb, 3, 1, 4)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(four, []byte{0x0E, 0x20}) {
		t.Fatalf("4-bit = % X", four)
	}

	eight, err := ConvertToGrayscale(rgb, 3, 1, 8)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(eight, []byte{0x00, 0xEC, 0x2A}) {
		t.Fatalf("8-bit = % X", eight)
	}

	again, _ := ConvertToGrayscale(rgb, 3, 1, 8)
	if !bytes.Equal(again, eight) {
		t.Fatalf("conversion is not deterministic")
	}
}

func TestConvertToGrayscaleRows(t *testing.T) {
	// 9x2 white image with a black first pixel per row
	rgb := bytes.Repeat([]byte{255}, 9*2*3)
	rgb[0], rgb[1], rgb[2] = 0, 0, 0
	rgb[27], rgb[28], rgb[29] = 0, 0, 0
	out, err := ConvertToGrayscale(rgb, 9, 2, 1)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out, []byte{0x80, 0x00, 0x80, 0x00}) {
		t.Fatalf("rows = % X", out)
	}
}

func TestConvertToGrayscaleErrors(t *testing.T) {
	if _, err := ConvertToGrayscale(make([]byte, 3), 1, 1, 2); !errors.Is(err, ErrUnsupportedBitDepth) {
		t.Fatalf("expected ErrUnsupportedBitDepth, got %v", err)
	}
	if _, err := ConvertToGrayscale(make([]byte, 2), 1, 1, 8); !errors.Is(err, ErrShortRaster) {
		t.Fatalf("expected ErrShortRaster, got %v", err)
	}
}

func TestSegmentBytes(t *testing.T) {
	s := &Segment{XRes: 2400, YRes: 2400, Width: 2, Height: 1, IDESize: 24, ColorModel: ColorModelRGB, Data: []byte{1, 2, 3, 4, 5, 6}}
	got := s.Bytes()
	want := []byte{
		0x70, 0x00,
		0x91, 0x01, 0xFF,
		0x94, 0x09, 0x00, 0x09, 0x60, 0x09, 0x60, 0x00, 0x02, 0x00, 0x01,
		0x95, 0x02, 0x03, 0x01,
		0x96, 0x01, 0x18,
		0x9B, 0x08, 0x00, 0x01, 0x00, 0x00, 0x00, 0x08, 0x08, 0x08,
		0xFE, 0x92, 0x00, 0x06, 1, 2, 3, 4, 5, 6,
		0x93, 0x00,
		0x71, 0x00,
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("segment =\n% X\nwant\n% X", got, want)
	}
}

func TestSegmentSplitsImageData(t *testing.T) {
	s := &Segment{Width: 1, Height: 1, IDESize: 8, Data: make([]byte, MaxImageDataParameter+10)}
	got := s.Bytes()
	if n := bytes.Count(got, []byte{0xFE, 0x92}); n < 2 {
		t.Fatalf("expected two image data parameters, found %d", n)
	}
	if len(got) != 2+3+11+4+3+2*4+len(s.Data)+4 {
		t.Fatalf("unexpected segment length %d", len(got))
	}
}

func TestDescriptorData(t *testing.T) {
	got := DescriptorData(2400, 2400, 10, 20, FunctionSetFor(1, false))
	want := []byte{0x00, 0x09, 0x60, 0x09, 0x60, 0x00, 0x0A, 0x00, 0x14, 0xF7, 0x02, 0x01, 0x0A}
	if !bytes.Equal(got, want) {
		t.Fatalf("IDD = % X", got)
	}
	if FunctionSetFor(24, true) != FS11 || FunctionSetFor(32, true) != FS45 {
		t.Fatalf("function set selection wrong")
	}
}
