// Package fixedwidth decodes and encodes fixed-width text records.
//
// A Layout is an immutable, ordered list of fields with exact column widths.
// Lines are cut on byte offsets, so the package assumes a single-byte source
// encoding (ISO-8859-1); text fields are transcoded to UTF-8 after cutting.
package fixedwidth

import (
	"errors"
	"fmt"
)

// Kind is the semantic type of a field.
type Kind int

const (
	// Int is a plain base-10 integer.
	Int Kind = iota
	// Scaled is an integer with Scale implied decimal places. The raw integer
	// is kept as-is; dividing by 10^Scale is left to presentation code.
	Scaled
	// Text is trimmed, transcoded text.
	Text
	// Category is Text with a small value domain; values are interned.
	Category
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "int"
	case Scaled:
		return "scaled"
	case Text:
		return "text"
	case Category:
		return "category"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Numeric reports whether values of this kind are held in Value.Int.
func (k Kind) Numeric() bool { return k == Int || k == Scaled }

// Field is one column of a Layout.
type Field struct {
	Name  string
	Width int
	Kind  Kind
	Scale int // implied decimal places, Scaled only
}

// Layout is an ordered field list with a fixed total record length.
// The zero value is an empty layout; build one with NewLayout.
type Layout struct {
	fields  []Field
	offsets []int
	length  int
	index   map[string]int
}

// NewLayout validates fields and returns an immutable Layout.
//
// Fails when no field is given, a width is not positive, a name is empty or
// repeated, or a Scale is set on a non-Scaled field.
func NewLayout(fields ...Field) (Layout, error) {
	if len(fields) == 0 {
		return Layout{}, errors.New("layout has no fields")
	}

	l := Layout{
		fields:  make([]Field, len(fields)),
		offsets: make([]int, len(fields)),
		index:   make(map[string]int, len(fields)),
	}
	copy(l.fields, fields)

	for i, f := range l.fields {
		if f.Name == "" {
			return Layout{}, fmt.Errorf("field %d has no name", i)
		}
		if f.Width <= 0 {
			return Layout{}, fmt.Errorf("field %s has non-positive width %d", f.Name, f.Width)
		}
		if f.Scale < 0 || (f.Scale > 0 && f.Kind != Scaled) {
			return Layout{}, fmt.Errorf("field %s: scale %d not allowed for kind %s", f.Name, f.Scale, f.Kind)
		}
		if _, dup := l.index[f.Name]; dup {
			return Layout{}, fmt.Errorf("duplicate field %s", f.Name)
		}
		l.index[f.Name] = i
		l.offsets[i] = l.length
		l.length += f.Width
	}
	return l, nil
}

// MustLayout is NewLayout for layouts that are compile-time constants.
func MustLayout(fields ...Field) Layout {
	l, err := NewLayout(fields...)
	if err != nil {
		panic(err)
	}
	return l
}

// Fields returns a copy of the field list.
func (l Layout) Fields() []Field {
	out := make([]Field, len(l.fields))
	copy(out, l.fields)
	return out
}

// Len is the number of fields.
func (l Layout) Len() int { return len(l.fields) }

// Field returns the i-th field.
func (l Layout) Field(i int) Field { return l.fields[i] }

// Offset is the byte offset where field i starts.
func (l Layout) Offset(i int) int { return l.offsets[i] }

// RecordLength is the sum of all widths.
func (l Layout) RecordLength() int { return l.length }

// Index returns the position of the named field.
func (l Layout) Index(name string) (int, bool) {
	i, ok := l.index[name]
	return i, ok
}
