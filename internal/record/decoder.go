package record

import (
	"errors"
	"fmt"

	"github.com/danmuck/memlogctl/internal/registry"
	"github.com/rs/zerolog/log"
)

const (
	StateLayout = "PAL_STATE_QUEUE"
	ACDLayout   = "acd_info"

	StreamTypeDomain = "pal_stream_type_t"
	ACDTag           = "ACD"
)

// Decoder reads PAL state queue entries. Every entry occupies the base
// layout followed by a variant slot of fixed size, whether or not the
// slot holds ACD data.
type Decoder struct {
	reg     *registry.Registry
	base    registry.Layout
	variant registry.Layout
}

// NewDecoder resolves the base and variant layouts from reg.
func NewDecoder(reg *registry.Registry, baseLayout, variantLayout string) (*Decoder, error) {
	base, err := reg.Layout(baseLayout)
	if err != nil {
		return nil, err
	}
	variant, err := reg.Layout(variantLayout)
	if err != nil {
		return nil, err
	}
	if n := base.ValueCount(); n != stateValueCount {
		return nil, fmt.Errorf("%w: %s has %d value fields, want %d", ErrLayoutShape, base.Name, n, stateValueCount)
	}
	if n := variant.ValueCount(); n != acdValueCount {
		return nil, fmt.Errorf("%w: %s has %d value fields, want %d", ErrLayoutShape, variant.Name, n, acdValueCount)
	}
	return &Decoder{reg: reg, base: base, variant: variant}, nil
}

// NewStateDecoder uses the default PAL_STATE_QUEUE and acd_info layouts.
func NewStateDecoder(reg *registry.Registry) (*Decoder, error) {
	return NewDecoder(reg, StateLayout, ACDLayout)
}

// BaseSize is the byte size of the base layout.
func (d *Decoder) BaseSize() int { return d.base.Size() }

// VariantSize is the byte size of the variant slot.
func (d *Decoder) VariantSize() int { return d.variant.Size() }

// Stride is the number of bytes consumed by every Decode call.
func (d *Decoder) Stride() int { return d.base.Size() + d.variant.Size() }

// Decode reads one entry at offset and returns it with the offset of the
// next entry. Fewer than Stride() remaining bytes yields ErrTruncated.
func (d *Decoder) Decode(buf []byte, offset int) (Record, int, error) {
	stride := d.Stride()
	if offset < 0 || len(buf)-offset < stride {
		return nil, offset, truncated(buf, offset, stride)
	}
	values, err := DecodeFields(buf, offset, d.base)
	if err != nil {
		return nil, offset, err
	}
	state := stateFromValues(values)
	next := offset + stride

	switch d.reg.ResolveEnum(StreamTypeDomain, state.StreamType) {
	case ACDTag:
		vv, err := DecodeFields(buf, offset+d.base.Size(), d.variant)
		if err != nil {
			return nil, offset, err
		}
		return ACDRecord{StateRecord: state, ACD: acdFromValues(vv)}, next, nil
	default:
		return BaseRecord{StateRecord: state}, next, nil
	}
}

// ScanResult summarizes one pass over a dump.
type ScanResult struct {
	Records  int
	Trailing int
}

// Scan decodes entries from the start of buf, calling fn for each, until
// fewer than one stride remains. Truncation ends the scan without error.
func (d *Decoder) Scan(buf []byte, fn func(Record) error) (ScanResult, error) {
	var res ScanResult
	offset := 0
	for {
		rec, next, err := d.Decode(buf, offset)
		if errors.Is(err, ErrTruncated) {
			res.Trailing = len(buf) - offset
			break
		}
		if err != nil {
			return res, err
		}
		if err := fn(rec); err != nil {
			return res, err
		}
		res.Records++
		offset = next
	}
	if res.Trailing > 0 {
		log.Warn().Msgf("record.Decoder.Scan trailing=%d stride=%d records=%d", res.Trailing, d.Stride(), res.Records)
	}
	return res, nil
}

// Encode writes one entry in the decoder's wire layout. The variant slot is
// zero-filled for BaseRecord.
func (d *Decoder) Encode(rec Record) ([]byte, error) {
	base, err := EncodeFields(d.base, StateValues(rec.State()))
	if err != nil {
		return nil, err
	}
	slot := make([]byte, d.variant.Size())
	switch r := rec.(type) {
	case ACDRecord:
		slot, err = EncodeFields(d.variant, ACDValues(r.ACD))
		if err != nil {
			return nil, err
		}
	case BaseRecord:
	}
	return append(base, slot...), nil
}
