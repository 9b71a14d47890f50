// Package record decodes and encodes fixed-layout binary records described by
// a declarative schema. It is used for every on-disk structure of a FAT
// image: partition table entries, the BIOS parameter block and directory
// entries.
//
// Integers are little endian. Encoding is deliberately unchecked: values
// wider than their field are truncated byte by byte.
package record

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aligator/fatimg/checkpoint"
)

// These errors may occur while decoding or encoding a record.
var (
	ErrArity       = errors.New("record: value set does not match the schema")
	ErrShortBuffer = errors.New("record: buffer too short for schema")
	ErrField       = errors.New("record: invalid field definition")
)

// Kind tells how the bytes of a field are interpreted.
type Kind uint8

const (
	// KindByte is a single unsigned byte.
	KindByte Kind = iota
	// KindUint is a little-endian unsigned integer of 1 to 8 bytes.
	KindUint
	// KindText maps every byte to one character.
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindByte:
		return "byte"
	case KindUint:
		return "uint"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Field describes one named field of a record.
type Field struct {
	Name   string
	Offset int
	Length int
	Kind   Kind
}

func (f Field) end() int {
	return f.Offset + f.Length
}

func (f Field) validate() error {
	switch {
	case f.Offset < 0 || f.Length <= 0:
		return fmt.Errorf("%w: %s has offset %d and length %d", ErrField, f.Name, f.Offset, f.Length)
	case f.Kind == KindByte && f.Length != 1:
		return fmt.Errorf("%w: byte field %s must be 1 byte long", ErrField, f.Name)
	case f.Kind == KindUint && f.Length > 8:
		return fmt.Errorf("%w: integer field %s is wider than 8 bytes", ErrField, f.Name)
	case f.Kind > KindText:
		return fmt.Errorf("%w: %s has unknown kind %v", ErrField, f.Name, f.Kind)
	}
	return nil
}

// Schema is the ordered list of fields of a record.
type Schema []Field

// Size is the number of bytes needed to hold every field of the schema.
func (s Schema) Size() int {
	size := 0
	for _, f := range s {
		if f.end() > size {
			size = f.end()
		}
	}
	return size
}

// Field returns the field with the given name.
func (s Schema) Field(name string) (Field, bool) {
	for _, f := range s {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Value is the decoded content of one field. Integer and byte fields use
// Uint, text fields use Text.
type Value struct {
	Uint uint64
	Text string
}

// Uint returns an integer value.
func Uint(v uint64) Value {
	return Value{Uint: v}
}

// Text returns a text value.
func Text(s string) Value {
	return Value{Text: s}
}

// Values maps field names to their values.
type Values map[string]Value

// Decode reads every field of the schema from buf.
func Decode(s Schema, buf []byte) (Values, error) {
	if len(buf) < s.Size() {
		return nil, checkpoint.Wrap(fmt.Errorf("need %d bytes, got %d", s.Size(), len(buf)), ErrShortBuffer)
	}

	values := make(Values, len(s))
	for _, f := range s {
		if err := f.validate(); err != nil {
			return nil, checkpoint.From(err)
		}

		raw := buf[f.Offset:f.end()]
		switch f.Kind {
		case KindByte:
			values[f.Name] = Uint(uint64(raw[0]))
		case KindUint:
			var v uint64
			for i, b := range raw {
				v |= uint64(b) << (8 * i)
			}
			values[f.Name] = Uint(v)
		case KindText:
			values[f.Name] = Text(string(raw))
		}
	}

	return values, nil
}

// Encode packs values into a new buffer of s.Size() bytes. Exactly one value
// per declared field is required. Bytes not covered by any field stay zero.
func Encode(s Schema, values Values) ([]byte, error) {
	if len(values) != len(s) {
		return nil, checkpoint.Wrap(fmt.Errorf("schema has %d fields, got %d values", len(s), len(values)), ErrArity)
	}

	buf := make([]byte, s.Size())
	for _, f := range s {
		if err := f.validate(); err != nil {
			return nil, checkpoint.From(err)
		}

		v, ok := values[f.Name]
		if !ok {
			return nil, checkpoint.Wrap(fmt.Errorf("missing value for %q", f.Name), ErrArity)
		}

		raw := buf[f.Offset:f.end()]
		switch f.Kind {
		case KindByte, KindUint:
			for i := range raw {
				raw[i] = byte(v.Uint >> (8 * i))
			}
		case KindText:
			n := copy(raw, v.Text)
			for i := n; i < len(raw); i++ {
				raw[i] = ' '
			}
		}
	}

	return buf, nil
}

// Format renders values in schema order, e.g. "Partition(indicator: 128, type: 6)".
// Text is quoted, fields without a value are skipped.
func (s Schema) Format(name string, values Values) string {
	parts := make([]string, 0, len(s))
	for _, f := range s {
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		if f.Kind == KindText {
			parts = append(parts, fmt.Sprintf("%s: %q", f.Name, v.Text))
		} else {
			parts = append(parts, fmt.Sprintf("%s: %d", f.Name, v.Uint))
		}
	}
	return name + "(" + strings.Join(parts, ", ") + ")"
}
