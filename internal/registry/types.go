package registry

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Kind is the wire type of one layout field.
type Kind string

const (
	KindU8   Kind = "u8"
	KindI8   Kind = "i8"
	KindU16  Kind = "u16"
	KindI16  Kind = "i16"
	KindU32  Kind = "u32"
	KindI32  Kind = "i32"
	KindU64  Kind = "u64"
	KindI64  Kind = "i64"
	KindBool Kind = "bool"
	KindChar Kind = "char"
	KindPad  Kind = "pad"
)

// ParseKind validates a definitions type name.
func ParseKind(raw string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(raw)))
	switch k {
	case KindU8, KindI8, KindU16, KindI16, KindU32, KindI32, KindU64, KindI64, KindBool, KindChar, KindPad:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownType, raw)
	}
}

// Sized reports whether the kind takes its width from Field.Count.
func (k Kind) Sized() bool {
	return k == KindChar || k == KindPad
}


// Field describes one positional member of a record layout.
type Field struct {
	Name  string
	Kind  Kind
	Count int
}

// Width is the number of bytes the field occupies.
func (f Field) Width() int {
	switch f.Kind {
	case KindU8, KindI8, KindBool:
		return 1
	case KindU16, KindI16:
		return 2
	case KindU32, KindI32:
		return 4
	case KindU64, KindI64:
		return 8
	case KindChar, KindPad:
		return f.Count
	default:
		return 0
	}
}

// Layout is an immutable, packed record description. Alignment gaps are
// expressed with explicit pad fields.
type Layout struct {
	Name   string
	Order  binary.ByteOrder
	Fields []Field
}

// Size is the packed byte size of one record.
func (l Layout) Size() int {
	n := 0
	for _, f := range l.Fields {
		n += f.Width()
	}
	return n
}

// ValueCount is the number of fields that produce a decoded value.
func (l Layout) ValueCount() int {
	n := 0
	for _, f := range l.Fields {
		if f.Kind != KindPad {
			n++
		}
	}
	return n
}

// EnumTable maps integer values of one domain to symbolic names.
type EnumTable struct {
	Name  string
	items map[int64]string
}

// Lookup returns the symbol for v.
func (e EnumTable) Lookup(v int64) (string, bool) {
	name, ok := e.items[v]
	return name, ok
}

// Len is the number of entries in the table.
func (e EnumTable) Len() int {
	return len(e.items)
}

func parseByteOrder(raw string) (binary.ByteOrder, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "little":
		return binary.LittleEndian, nil
	case "big":
		return binary.BigEndian, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidByteOrder, raw)
	}
}
