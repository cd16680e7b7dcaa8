package ioca

import "github.com/wudi/afpkit/codec"

// MaxImageDataParameter is the most data one image data parameter holds.
const MaxImageDataParameter = 0xFFFF

// Color models for the IDE structure parameter.
const (
	ColorModelRGB   byte = 0x01
	ColorModelYCrCb byte = 0x04
	ColorModelCMYK  byte = 0x06
	ColorModelYCbCr byte = 0x12
)

// Segment is one IOCA image segment.
type Segment struct {
	// XRes and YRes are in units per ten inches.
	XRes, YRes    int
	Width, Height int
	Compression   Compression
	// IDESize is the number of bits per image data element.
	IDESize int
	// ColorModel is written in an IDE structure parameter when IDESize
	// covers more than one component. Zero omits the parameter.
	ColorModel byte
	Data       []byte
}

func (s *Segment) components() []byte {
	switch s.ColorModel {
	case ColorModelCMYK:
		return []byte{8, 8, 8, 8}
	case 0:
		return nil
	default:
		return []byte{8, 8, 8}
	}
}

// Bytes returns the self-defining fields of the segment, ready to be
// split into image picture data fields.
func (s *Segment) Bytes() []byte {
	comp := s.Compression
	if comp == 0 {
		comp = CompressionNone
	}
	out := make([]byte, 0, len(s.Data)+64)
	out = append(out, 0x70, 0x00)
	out = append(out, 0x91, 0x01, 0xFF)

	out = append(out, 0x94, 0x09, 0x00)
	out = codec.AppendUint16(out, s.XRes)
	out = codec.AppendUint16(out, s.YRes)
	out = codec.AppendUint16(out, s.Width)
	out = codec.AppendUint16(out, s.Height)

	out = append(out, 0x95, 0x02, byte(comp), 0x01)
	out = append(out, 0x96, 0x01, byte(s.IDESize))
	if c := s.components(); len(c) > 0 {
		out = append(out, 0x9B, byte(5+len(c)), 0x00, s.ColorModel, 0x00, 0x00, 0x00)
		out = append(out, c...)
	}

	for off := 0; off < len(s.Data); off += MaxImageDataParameter {
		end := off + MaxImageDataParameter
		if end > len(s.Data) {
			end = len(s.Data)
		}
		out = append(out, 0xFE, 0x92)
		out = codec.AppendUint16(out, end-off)
		out = append(out, s.Data[off:end]...)
	}

	out = append(out, 0x93, 0x00)
	return append(out, 0x71, 0x00)
}
