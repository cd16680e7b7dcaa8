package goca

import (
	"errors"
	"fmt"

	"github.com/wudi/afpkit/codec"
	"github.com/wudi/afpkit/ptoca"
)

// MaxData bounds the payload of one graphics data field.
const MaxData = 8192

// segmentHeader is the length of a begin segment introducer.
const segmentHeader = 14

// Segment append modes.
const (
	segmentNew    byte = 0x00
	segmentAppend byte = 0x60
)

// MaxOrderData is the most data a long format order can carry.
const MaxOrderData = 255

var ErrOrderTooLarge = errors.New("drawing order exceeds 255 data bytes")

// Status is shared with ptoca so callers drive both segmentation loops
// the same way.
type Status = ptoca.Status

const (
	Emitted         = ptoca.Emitted
	NeedsNewSegment = ptoca.NeedsNewSegment
)

type segment struct {
	id     int
	orders []byte
}

// Data is the payload of one GAD field: one or more chained segments.
type Data struct {
	segments []*segment
	size     int
	nextID   int
}

// NewData starts a graphics data payload whose first segment gets the
// given id. Segments of later payloads continue the chain through their
// predecessor ids.
func NewData(firstID int) *Data {
	if firstID < 1 {
		firstID = 1
	}
	return &Data{nextID: firstID}
}

// NextID returns the id the next segment will use. Pass it to NewData to
// continue the chain in a new payload.
func (d *Data) NextID() int { return d.nextID }

// Len returns the encoded size.
func (d *Data) Len() int { return d.size }

// Empty reports whether no order has been added.
func (d *Data) Empty() bool {
	for _, s := range d.segments {
		if len(s.orders) > 0 {
			return false
		}
	}
	return true
}

// NewSegment closes the current segment and starts a chained one.
func (d *Data) NewSegment() {
	d.segments = append(d.segments, &segment{id: d.nextID})
	d.nextID++
	d.size += segmentHeader
}

// Add appends o to the current segment. It returns NeedsNewSegment,
// without adding anything, when the payload is full.
func (d *Data) Add(o Order) (Status, error) {
	if o.Len()-2 > MaxOrderData {
		return Emitted, fmt.Errorf("order of %d bytes: %w", o.Len(), ErrOrderTooLarge)
	}
	need := o.Len()
	if len(d.segments) == 0 {
		need += segmentHeader
	}
	if d.size+need > MaxData {
		return NeedsNewSegment, nil
	}
	if len(d.segments) == 0 {
		d.NewSegment()
	}
	cur := d.segments[len(d.segments)-1]
	cur.orders = o.AppendTo(cur.orders)
	d.size += o.Len()
	return Emitted, nil
}

// Bytes encodes every segment with its begin segment introducer.
func (d *Data) Bytes() []byte {
	out := make([]byte, 0, d.size)
	for _, s := range d.segments {
		out = append(out, 0x70, 0x0C)
		out = append(out, codec.Convert(s.id, 4)...)
		out = append(out, 0x00)
		if s.id > 1 {
			out = append(out, segmentAppend)
		} else {
			out = append(out, segmentNew)
		}
		out = codec.AppendUint16(out, len(s.orders))
		if s.id > 1 {
			out = append(out, codec.Convert(s.id-1, 4)...)
		} else {
			out = append(out, 0x00, 0x00, 0x00, 0x00)
		}
		out = append(out, s.orders...)
	}
	return out
}

// DescriptorData returns the graphics data descriptor (GDD) payload: the
// drawing order subset and a window covering width x height at the given
// resolution in units per ten inches.
func DescriptorData(xRes, yRes, width, height int) []byte {
	out := []byte{0xF7, 0x07, 0xB0, 0x00, 0x00, 0x02, 0x00, 0x01, 0x00}
	out = append(out, 0xF6, 0x11, 0x20, 0x00, 0x00)
	out = codec.AppendUint16(out, xRes)
	out = codec.AppendUint16(out, yRes)
	out = append(out, 0x00, 0x00)
	out = codec.AppendUint16(out, 0)
	out = codec.AppendUint16(out, width)
	out = codec.AppendUint16(out, 0)
	return codec.AppendUint16(out, height)
}
