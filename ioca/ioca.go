// Package ioca encodes IOCA image segments and the raster conversions
// needed before raw pixels can be placed in an image object.
package ioca

import (
	"errors"
	"fmt"
)

// Compression is the IOCA compression algorithm id.
type Compression byte

const (
	CompressionNone Compression = 0x03
	CompressionG3MH Compression = 0x80
	CompressionG3MR Compression = 0x81
	CompressionMMR  Compression = 0x82
	CompressionJPEG Compression = 0x83
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionG3MH:
		return "g3-mh"
	case CompressionG3MR:
		return "g3-mr"
	case CompressionMMR:
		return "mmr"
	case CompressionJPEG:
		return "jpeg"
	}
	return fmt.Sprintf("compression(0x%02X)", byte(c))
}

// SourceCompression is the compression of the bytes handed to the
// encoder.
type SourceCompression int

const (
	SourceNone SourceCompression = iota
	SourceFaxG3_1D
	SourceFaxG3_2D
	SourceFaxG4
	SourceJPEG
)

var (
	ErrUnsupportedCompression = errors.New("unsupported image compression")
	ErrUnsupportedBitDepth    = errors.New("unsupported bits per pixel")
	ErrShortRaster            = errors.New("raster shorter than width*height*3")
)

var compressionTable = map[SourceCompression]Compression{
	SourceNone:     CompressionNone,
	SourceFaxG3_1D: CompressionG3MH,
	SourceFaxG3_2D: CompressionG3MR,
	SourceFaxG4:    CompressionMMR,
	SourceJPEG:     CompressionJPEG,
}

// CompressionFor maps a source compression to its IOCA id.
func CompressionFor(src SourceCompression) (Compression, error) {
	c, ok := compressionTable[src]
	if !ok {
		return 0, fmt.Errorf("source compression %d: %w", int(src), ErrUnsupportedCompression)
	}
	return c, nil
}

// FunctionSet is the IOCA function set an image conforms to.
type FunctionSet byte

const (
	FS10 FunctionSet = 0x0A
	FS11 FunctionSet = 0x0B
	FS45 FunctionSet = 0x2D
)

// FunctionSetFor picks the smallest function set able to carry images of
// the given IDE size.
func FunctionSetFor(ideSize int, color bool) FunctionSet {
	switch {
	case ideSize == 1 && !color:
		return FS10
	case ideSize > 24:
		return FS45
	default:
		return FS11
	}
}

// DescriptorData returns the image data descriptor (IDD) payload:
// resolutions in units per ten inches, sizes in pixels, and the function
// set parameter.
func DescriptorData(xRes, yRes, width, height int, fs FunctionSet) []byte {
	return []byte{
		0x00,
		byte(xRes >> 8), byte(xRes),
		byte(yRes >> 8), byte(yRes),
		byte(width >> 8), byte(width),
		byte(height >> 8), byte(height),
		0xF7, 0x02, 0x01, byte(fs),
	}
}

// Luminance weights.
const (
	weightR = 0.212671
	weightG = 0.715160
	weightB = 0.072169
)

// ConvertToGrayscale reduces packed 24-bit RGB to 1, 4 or 8 bits per
// pixel. Rows are padded to a whole byte. With one bit per pixel a set
// bit marks a dark pixel.
func ConvertToGrayscale(rgb []byte, width, height, bits int) ([]byte, error) {
	if bits != 1 && bits != 4 && bits != 8 {
		return nil, fmt.Errorf("%d: %w", bits, ErrUnsupportedBitDepth)
	}
	if len(rgb) < width*height*3 {
		return nil, fmt.Errorf("%d bytes for %dx%d: %w", len(rgb), width, height, ErrShortRaster)
	}
	perByte := 8 / bits
	rowBytes := (width + perByte - 1) / perByte
	out := make([]byte, height*rowBytes)
	for y := 0; y < height; y++ {
		var acc byte
		i := 3 * y * width
		for x := 0; x < width; x, i = x+1, i+3 {
			gray := weightR*float64(rgb[i]) + weightG*float64(rgb[i+1]) + weightB*float64(rgb[i+2])
			switch bits {
			case 1:
				if gray < 128 {
					acc |= 1 << (7 - uint(x%8))
				}
			case 4:
				acc |= byte(gray/16) << (uint(1-x%2) * 4)
			case 8:
				acc = byte(gray)
			}
			if x%perByte == perByte-1 || x+1 == width {
				out[y*rowBytes+x/perByte] = acc
				acc = 0
			}
		}
	}
	return out, nil
}
