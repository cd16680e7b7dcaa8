package modca

import (
	"fmt"
	"io"

	"github.com/wudi/afpkit/field"
	"github.com/wudi/afpkit/observability"
	"github.com/wudi/afpkit/ptoca"
)

// TextOptions configures presentation text records.
type TextOptions struct {
	MaxRecordSize int
	Logger        observability.Logger
}

func (o TextOptions) builder(state ptoca.State, first bool) *ptoca.Builder {
	return ptoca.NewBuilder(state, ptoca.Options{
		MaxRecordSize: o.MaxRecordSize,
		Introducer:    first,
		Logger:        o.Logger,
	})
}

// PresentationText is a PTOCA text object: BPT, one or more PTX records
// holding a single control sequence chain, EPT.
type PresentationText struct {
	named
	opts    TextOptions
	records []*ptoca.Builder
}

func newPresentationText(n named, opts TextOptions) *PresentationText {
	return &PresentationText{named: n, opts: opts}
}

func (pt *PresentationText) current() *ptoca.Builder {
	if len(pt.records) == 0 {
		pt.records = append(pt.records, pt.opts.builder(ptoca.NewState(), true))
	}
	return pt.records[len(pt.records)-1]
}

// rollover starts a new record continuing the chain with the position
// forgotten.
func (pt *PresentationText) rollover() *ptoca.Builder {
	next := pt.opts.builder(pt.current().State().Reposition(), false)
	pt.records = append(pt.records, next)
	return next
}

// emit runs fn against the current record and moves to a new record
// when the current one is full. NeedsNewSegment is returned only when
// the sequences do not fit an empty record either.
func (pt *PresentationText) emit(fn func(b *ptoca.Builder) (ptoca.Status, error)) (ptoca.Status, error) {
	cur := pt.current()
	if cur.Ended() {
		return ptoca.Dropped, ptoca.ErrChainEnded
	}
	st, err := fn(cur)
	if err != nil || st != ptoca.NeedsNewSegment {
		return st, err
	}
	next := pt.opts.builder(cur.State().Reposition(), false)
	if st, err = fn(next); err != nil || st == ptoca.NeedsNewSegment {
		return st, err
	}
	pt.records = append(pt.records, next)
	return st, nil
}

// drop logs a sequence that no record can hold.
func (pt *PresentationText) drop(what string) ptoca.Status {
	observability.OrNop(pt.opts.Logger).Warn("control sequence larger than a text record dropped",
		observability.String("object", pt.name), observability.String("sequence", what),
		observability.Int("max_record_size", pt.opts.MaxRecordSize))
	return ptoca.Dropped
}

// CreateText adds a text run. A run whose transparent data does not fit
// one record is split: the data continues in following records from
// the current inline position.
func (pt *PresentationText) CreateText(run ptoca.TextRun) error {
	st, err := pt.emit(func(b *ptoca.Builder) (ptoca.Status, error) { return b.CreateText(run) })
	if err != nil || st != ptoca.NeedsNewSegment {
		return err
	}
	cur := pt.current()
	n, st, err := cur.CreateTextPrefix(run)
	if err != nil {
		return err
	}
	if st == ptoca.NeedsNewSegment {
		cur = pt.rollover()
		if n, st, err = cur.CreateTextPrefix(run); err != nil {
			return err
		}
		if st == ptoca.NeedsNewSegment {
			pt.drop("text")
			return nil
		}
	}
	fresh := false
	for rest := run.Data[n:]; len(rest) > 0; {
		n, st, err = cur.ContinueText(run.Y, rest)
		if err != nil {
			return err
		}
		if st == ptoca.NeedsNewSegment {
			if fresh {
				pt.drop("text")
				return nil
			}
			cur, fresh = pt.rollover(), true
			continue
		}
		rest, fresh = rest[n:], false
	}
	return nil
}

// CreateLine adds an axis-aligned rule. Diagonal rules are dropped.
func (pt *PresentationText) CreateLine(r ptoca.Rule) (ptoca.Status, error) {
	st, err := pt.emit(func(b *ptoca.Builder) (ptoca.Status, error) { return b.CreateLine(r) })
	if err == nil && st == ptoca.NeedsNewSegment {
		st = pt.drop("rule")
	}
	return st, err
}

// Do runs an arbitrary builder call, such as RelativeMoveInline, with
// record rollover.
func (pt *PresentationText) Do(fn func(b *ptoca.Builder) (ptoca.Status, error)) error {
	st, err := pt.emit(fn)
	if err == nil && st == ptoca.NeedsNewSegment {
		pt.drop("control")
	}
	return err
}

// End terminates the control sequence chain.
func (pt *PresentationText) End() {
	pt.current().End()
}

// Ended reports whether the chain has been terminated.
func (pt *PresentationText) Ended() bool {
	return len(pt.records) > 0 && pt.records[len(pt.records)-1].Ended()
}

// Records returns the number of PTX records.
func (pt *PresentationText) Records() int { return len(pt.records) }

// State returns the text state after the last emitted sequence.
func (pt *PresentationText) State() ptoca.State { return pt.current().State() }

func (pt *PresentationText) WriteTo(w io.Writer) (int64, error) { return writeDataStream(w, pt) }

func (pt *PresentationText) writeStart(fw *fieldWriter) {
	fw.field(field.BeginPresentationText, pt.beginData(0))
}

func (pt *PresentationText) writeContent(fw *fieldWriter) {
	for _, r := range pt.records {
		if r.Empty() {
			continue
		}
		fw.field(field.PresentationTextData, r.Bytes())
	}
}

func (pt *PresentationText) writeEnd(fw *fieldWriter) {
	fw.field(field.EndPresentationText, pt.nameBytes)
}

func (pt *PresentationText) String() string {
	return fmt.Sprintf("%s(%d records)", pt.name, len(pt.records))
}
