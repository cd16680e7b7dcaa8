package ptoca

import (
	"fmt"
	"math"

	"github.com/wudi/afpkit/codec"
	"github.com/wudi/afpkit/observability"
)

// recordHeader is the structured field header preceding PTX data.
const recordHeader = 9

// Options configures a Builder.
type Options struct {
	// MaxRecordSize bounds the PTX field including its header.
	MaxRecordSize int
	// Introducer writes the chain escape before the first sequence. Only
	// the first record of a text object starts a chain.
	Introducer bool
	Logger     observability.Logger
}

// Builder accumulates the control sequences of one PTX record. It only
// emits modal sequences whose value differs from the tracked State.
type Builder struct {
	buf        []byte
	state      State
	capacity   int
	introducer bool
	introduced bool
	ended      bool
	logger     observability.Logger
}

// NewBuilder starts a record that continues from state.
func NewBuilder(state State, opts Options) *Builder {
	if opts.MaxRecordSize <= recordHeader || opts.MaxRecordSize > 0xFFFF+1 {
		opts.MaxRecordSize = DefaultMaxRecordSize
	}
	return &Builder{
		buf:        make([]byte, 0, 256),
		state:      state,
		capacity:   opts.MaxRecordSize - recordHeader,
		introducer: opts.Introducer,
		logger:     observability.OrNop(opts.Logger),
	}
}

// State returns the text state after everything emitted so far.
func (b *Builder) State() State { return b.state }

// Len returns the record data length.
func (b *Builder) Len() int { return len(b.buf) }

// Empty reports whether no control sequence has been written.
func (b *Builder) Empty() bool { return len(b.buf) == 0 }

// Ended reports whether the chain terminator has been written.
func (b *Builder) Ended() bool { return b.ended }

// Bytes returns the record data.
func (b *Builder) Bytes() []byte { return b.buf }

// seq is a pending chain of control sequences for one call.
type seq []byte

func (s seq) add(fn byte, data ...byte) seq {
	s = append(s, byte(len(data)+2), fn|ChainBit)
	return append(s, data...)
}

// commit appends s unless the record would overflow. Two bytes stay
// reserved for the chain terminator.
func (b *Builder) commit(s seq, next State) (Status, error) {
	if b.ended {
		return Dropped, ErrChainEnded
	}
	need := len(s)
	if b.introducer && !b.introduced {
		need += len(Escape)
	}
	if len(b.buf)+need+2 > b.capacity {
		return NeedsNewSegment, nil
	}
	if b.introducer && !b.introduced {
		b.buf = append(b.buf, Escape[0], Escape[1])
		b.introduced = true
	}
	b.buf = append(b.buf, s...)
	b.state = next
	return Emitted, nil
}

// CreateText emits the sequences needed to place run and its transparent
// data. The order is STO, SCFL, AMB, AMI, SVI, SIA, SEC, TRN.
func (b *Builder) CreateText(run TextRun) (Status, error) {
	s, next, err := b.textHeader(run)
	if err != nil {
		return Dropped, err
	}
	s, _ = appendTransparent(s, run.Data, math.MaxInt)
	return b.commit(s, next)
}

// CreateTextPrefix emits run like CreateText but with only as much of
// run.Data as fits the record. It returns the number of data bytes
// emitted; the rest goes to ContinueText in a following record.
func (b *Builder) CreateTextPrefix(run TextRun) (int, Status, error) {
	if b.ended {
		return 0, Dropped, ErrChainEnded
	}
	s, next, err := b.textHeader(run)
	if err != nil {
		return 0, Dropped, err
	}
	s, n := appendTransparent(s, run.Data, b.room(s))
	if n == 0 && len(run.Data) > 0 {
		return 0, NeedsNewSegment, nil
	}
	st, err := b.commit(s, next)
	return n, st, err
}

// ContinueText presents data from the current inline position on
// baseline y, as much as fits the record. AMB is repeated when the
// record does not know the baseline. It returns the bytes emitted.
func (b *Builder) ContinueText(y int, data []byte) (int, Status, error) {
	if b.ended {
		return 0, Dropped, ErrChainEnded
	}
	next := b.state
	var s seq
	if y != next.Y {
		s = s.add(AMB, codec.AppendUint16(nil, y)...)
		next.Y = y
	}
	next.X = Unset
	s, n := appendTransparent(s, data, b.room(s))
	if n == 0 && len(data) > 0 {
		return 0, NeedsNewSegment, nil
	}
	st, err := b.commit(s, next)
	return n, st, err
}

func (b *Builder) textHeader(run TextRun) (seq, State, error) {
	if err := checkOrientation(run.Orientation); err != nil {
		return nil, b.state, err
	}
	if run.Font < 0 || run.Font > 0xFF {
		return nil, b.state, fmt.Errorf("font %d: %w", run.Font, ErrInvalidFont)
	}
	next := b.state
	var s seq
	s, next = orient(s, next, run.Orientation)
	if run.Font != next.Font {
		s = s.add(SCFL, byte(run.Font))
		next.Font = run.Font
	}
	s, next = move(s, next, run.X, run.Y)
	if run.VariableSpaceIncrement != next.VariableSpaceIncrement {
		s = s.add(SVI, codec.AppendUint16(nil, abs(run.VariableSpaceIncrement))...)
		next.VariableSpaceIncrement = run.VariableSpaceIncrement
	}
	if run.InterCharacterAdjustment != next.InterCharacterAdjustment {
		dir := byte(0)
		if run.InterCharacterAdjustment < 0 {
			dir = 1
		}
		data := codec.AppendUint16(nil, abs(run.InterCharacterAdjustment))
		s = s.add(SIA, append(data, dir)...)
		next.InterCharacterAdjustment = run.InterCharacterAdjustment
	}
	s, next = recolor(s, next, run)
	return s, next, nil
}

// room returns the bytes left for s's successors in this record.
func (b *Builder) room(s seq) int {
	n := b.capacity - len(b.buf) - len(s) - 2
	if b.introducer && !b.introduced {
		n -= len(Escape)
	}
	return n
}

// appendTransparent adds TRNs carrying the longest prefix of data that
// fits in room bytes and returns its length.
func appendTransparent(s seq, data []byte, room int) (seq, int) {
	n := 0
	for n < len(data) && room > 2 {
		chunk := min(len(data)-n, MaxTransparentData, room-2)
		s = s.add(TRN, data[n:n+chunk]...)
		n += chunk
		room -= chunk + 2
	}
	return s, n
}

// CreateLine draws r as an I-axis or B-axis rule. Diagonal rules cannot
// be expressed in PTOCA and are dropped.
func (b *Builder) CreateLine(r Rule) (Status, error) {
	if err := checkOrientation(r.Orientation); err != nil {
		return Dropped, err
	}
	var fn byte
	var length int
	switch {
	case r.X1 == r.X2:
		fn, length = DBR, r.Y2-r.Y1
	case r.Y1 == r.Y2:
		fn, length = DIR, r.X2-r.X1
	default:
		b.logger.Warn("diagonal rule dropped",
			observability.Int("x1", r.X1), observability.Int("y1", r.Y1),
			observability.Int("x2", r.X2), observability.Int("y2", r.Y2))
		return Dropped, nil
	}
	next := b.state
	var s seq
	s, next = orient(s, next, r.Orientation)
	s, next = move(s, next, r.X1, r.Y1)
	s, next = recolor(s, next, TextRun{Color: r.Color})
	data := codec.AppendUint16(nil, length)
	data = codec.AppendUint16(data, r.Thickness)
	s = s.add(fn, append(data, 0x00)...)
	return b.commit(s, next)
}

// RelativeMoveInline moves the inline position by n.
func (b *Builder) RelativeMoveInline(n int) (Status, error) {
	next := b.state
	if next.X != Unset {
		next.X += n
	}
	return b.commit(seq(nil).add(RMI, codec.AppendUint16(nil, n)...), next)
}

// RelativeMoveBaseline moves the baseline position by n.
func (b *Builder) RelativeMoveBaseline(n int) (Status, error) {
	next := b.state
	if next.Y != Unset {
		next.Y += n
	}
	next.X = Unset
	return b.commit(seq(nil).add(RMB, codec.AppendUint16(nil, n)...), next)
}

// SetBaselineIncrement sets the baseline advance used by line breaks.
func (b *Builder) SetBaselineIncrement(n int) (Status, error) {
	return b.commit(seq(nil).add(SBI, codec.AppendUint16(nil, n)...), b.state)
}

// RepeatString repeats data until length bytes have been presented.
func (b *Builder) RepeatString(length int, data []byte) (Status, error) {
	if len(data) > MaxTransparentData-2 {
		data = data[:MaxTransparentData-2]
	}
	return b.commit(seq(nil).add(RPS, append(codec.AppendUint16(nil, length), data...)...), b.state)
}

// Underscore starts or stops underscoring of following text.
func (b *Builder) Underscore(on bool) (Status, error) {
	var v byte
	if on {
		v = 0x01
	}
	return b.commit(seq(nil).add(USC, v), b.state)
}

// BeginSuppression and EndSuppression bracket text suppressed by the
// suppression id lid.
func (b *Builder) BeginSuppression(lid byte) (Status, error) {
	return b.commit(seq(nil).add(BSU, lid), b.state)
}

func (b *Builder) EndSuppression(lid byte) (Status, error) {
	return b.commit(seq(nil).add(ESU, lid), b.state)
}

// SetTextColor selects a named OCA color. It invalidates any extended
// color so the next SEC is emitted again.
func (b *Builder) SetTextColor(named uint16) (Status, error) {
	next := b.state
	next.Color = nil
	return b.commit(seq(nil).add(STC, codec.AppendUint16(nil, int(named))...), next)
}

// End terminates the chain with an unchained NOP. It always fits.
func (b *Builder) End() {
	if b.ended {
		return
	}
	if b.introducer && !b.introduced {
		b.buf = append(b.buf, Escape[0], Escape[1])
		b.introduced = true
	}
	b.buf = append(b.buf, 0x02, NOP)
	b.ended = true
}

func orient(s seq, st State, o int) (seq, State) {
	if o == st.Orientation {
		return s, st
	}
	ob := OrientationBytes(o)
	s = s.add(STO, ob[:]...)
	st.Orientation = o
	st.X, st.Y = Unset, Unset
	return s, st
}

// move emits AMB then AMI. A new baseline invalidates the inline
// position.
func move(s seq, st State, x, y int) (seq, State) {
	if y != st.Y {
		s = s.add(AMB, codec.AppendUint16(nil, y)...)
		st.Y = y
		st.X = Unset
	}
	if x != st.X {
		s = s.add(AMI, codec.AppendUint16(nil, x)...)
		st.X = x
	}
	return s, st
}

func recolor(s seq, st State, run TextRun) (seq, State) {
	if run.Color == nil || SameColor(run.Color, st.Color) {
		return s, st
	}
	s = s.add(SEC, extendedColor(run.Color)...)
	st.Color = run.Color
	return s, st
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
