package record

import (
	"bytes"
	"fmt"

	"github.com/danmuck/memlogctl/internal/registry"
)

// Value is one decoded layout field. Integer kinds keep their bits in Raw,
// sign-extended for signed kinds; char kinds keep their text in Text.
type Value struct {
	Name string
	Kind registry.Kind
	Raw  uint64
	Text string
}

// Uint builds an unsigned value for encoding.
func Uint(v uint64) Value {
	return Value{Raw: v}
}

// Int builds a signed value for encoding.
func Int(v int64) Value {
	return Value{Raw: uint64(v)}
}

// Text builds a char value for encoding.
func Text(s string) Value {
	return Value{Text: s}
}

// Uint returns the value as an unsigned integer.
func (v Value) Uint() uint64 {
	return v.Raw
}

// Int returns the value as a signed integer.
func (v Value) Int() int64 {
	return int64(v.Raw)
}

// Bool reports whether a bool or integer value is non-zero.
func (v Value) Bool() bool {
	return v.Raw != 0
}

// DecodeFields decodes the non-pad fields of layout at offset in order.
func DecodeFields(buf []byte, offset int, layout registry.Layout) ([]Value, error) {
	size := layout.Size()
	if offset < 0 || len(buf)-offset < size {
		return nil, truncated(buf, offset, size)
	}
	out := make([]Value, 0, layout.ValueCount())
	pos := offset
	for _, f := range layout.Fields {
		w := f.Width()
		chunk := buf[pos : pos+w]
		pos += w
		if f.Kind == registry.KindPad {
			continue
		}
		v := Value{Name: f.Name, Kind: f.Kind}
		switch f.Kind {
		case registry.KindU8, registry.KindBool:
			v.Raw = uint64(chunk[0])
		case registry.KindI8:
			v.Raw = uint64(int64(int8(chunk[0])))
		case registry.KindU16:
			v.Raw = uint64(layout.Order.Uint16(chunk))
		case registry.KindI16:
			v.Raw = uint64(int64(int16(layout.Order.Uint16(chunk))))
		case registry.KindU32:
			v.Raw = uint64(layout.Order.Uint32(chunk))
		case registry.KindI32:
			v.Raw = uint64(int64(int32(layout.Order.Uint32(chunk))))
		case registry.KindU64, registry.KindI64:
			v.Raw = layout.Order.Uint64(chunk)
		case registry.KindChar:
			v.Text = cString(chunk)
		}
		out = append(out, v)
	}
	return out, nil
}

// EncodeFields writes values positionally into a buffer of layout.Size()
// bytes. Pad bytes are zero; char values are truncated to their width.
func EncodeFields(layout registry.Layout, values []Value) ([]byte, error) {
	if len(values) != layout.ValueCount() {
		return nil, fmt.Errorf("%w: layout %s wants %d values, got %d", ErrValueMismatch, layout.Name, layout.ValueCount(), len(values))
	}
	buf := make([]byte, layout.Size())
	pos := 0
	i := 0
	for _, f := range layout.Fields {
		w := f.Width()
		chunk := buf[pos : pos+w]
		pos += w
		if f.Kind == registry.KindPad {
			continue
		}
		v := values[i]
		i++
		switch f.Kind {
		case registry.KindU8, registry.KindI8, registry.KindBool:
			chunk[0] = byte(v.Raw)
		case registry.KindU16, registry.KindI16:
			layout.Order.PutUint16(chunk, uint16(v.Raw))
		case registry.KindU32, registry.KindI32:
			layout.Order.PutUint32(chunk, uint32(v.Raw))
		case registry.KindU64, registry.KindI64:
			layout.Order.PutUint64(chunk, v.Raw)
		case registry.KindChar:
			copy(chunk, v.Text)
		}
	}
	return buf, nil
}

// Each decodes consecutive layout-sized records from buf until fewer than
// one full record remains. It returns the number of records visited.
func Each(buf []byte, layout registry.Layout, fn func(idx int, values []Value) error) (int, error) {
	n := 0
	for offset := 0; ; offset += layout.Size() {
		values, err := DecodeFields(buf, offset, layout)
		if err != nil {
			return n, nil
		}
		if err := fn(n, values); err != nil {
			return n, err
		}
		n++
	}
}

func cString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
