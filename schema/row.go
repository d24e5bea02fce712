package schema

import (
	"bytes"
	"fmt"

	"heapdb/codec"
)

// Row binds a row byte image to its schema. The bytes are an owned copy;
// setting a field changes only this row until the row is written back through
// a page.
type Row struct {
	schema *Schema
	cdc    codec.Codec
	data   []byte
}

// NewRow returns a zeroed row for the schema.
func NewRow(cdc codec.Codec, s *Schema) *Row {
	return &Row{
		schema: s,
		cdc:    cdc,
		data:   make([]byte, s.RowSize()),
	}
}

// RowFromBytes copies a full row image. The image must be exactly the
// schema's row size.
func RowFromBytes(cdc codec.Codec, s *Schema, b []byte) *Row {
	if len(b) != s.RowSize() {
		panic(fmt.Sprintf("schema: row image is %d bytes, schema %s needs %d", len(b), s.Name(), s.RowSize()))
	}
	data := make([]byte, len(b))
	copy(data, b)
	return &Row{schema: s, cdc: cdc, data: data}
}

func (r *Row) Schema() *Schema {
	return r.schema
}

// Bytes returns the row's backing image. Callers that hand it to a page must
// not mutate it afterwards.
func (r *Row) Bytes() []byte {
	return r.data
}

// field resolves a field name to its descriptor and row subrange.
func (r *Row) field(name string) (Field, []byte, error) {
	i, ok := r.schema.FieldIndex(name)
	if !ok {
		return Field{}, nil, fmt.Errorf("schema %s has no field %s", r.schema.Name(), name)
	}
	offset := r.schema.FieldOffset(i)
	f := r.schema.Field(i)
	return f, r.data[offset : offset+f.Size], nil
}

func (r *Row) Uint(name string) (uint64, error) {
	_, b, err := r.field(name)
	if err != nil {
		return 0, err
	}
	return r.cdc.Uint(b), nil
}

func (r *Row) SetUint(name string, v uint64) error {
	_, b, err := r.field(name)
	if err != nil {
		return err
	}
	r.cdc.PutUint(b, v)
	return nil
}

// String returns a character field with trailing zero padding trimmed.
func (r *Row) String(name string) (string, error) {
	_, b, err := r.field(name)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimRight(b, "\x00")), nil
}

// SetString writes a character field, zero padded on the right. Values longer
// than the field are truncated.
func (r *Row) SetString(name string, v string) error {
	_, b, err := r.field(name)
	if err != nil {
		return err
	}
	n := copy(b, v)
	for i := n; i < len(b); i++ {
		b[i] = 0
	}
	return nil
}

func (r *Row) Float(name string) (float64, error) {
	f, b, err := r.field(name)
	if err != nil {
		return 0, err
	}
	if f.Size <= 4 {
		return float64(r.cdc.Float32(b)), nil
	}
	return r.cdc.Float64(b), nil
}

func (r *Row) SetFloat(name string, v float64) error {
	f, b, err := r.field(name)
	if err != nil {
		return err
	}
	if f.Size <= 4 {
		r.cdc.PutFloat32(b, float32(v))
		return nil
	}
	r.cdc.PutFloat64(b, v)
	return nil
}

func (r *Row) Bool(name string) (bool, error) {
	_, b, err := r.field(name)
	if err != nil {
		return false, err
	}
	return b[0] != 0, nil
}

func (r *Row) SetBool(name string, v bool) error {
	_, b, err := r.field(name)
	if err != nil {
		return err
	}
	b[0] = 0
	if v {
		b[0] = 1
	}
	return nil
}

// FieldBytes returns a copy of the field's raw bytes.
func (r *Row) FieldBytes(name string) ([]byte, error) {
	_, b, err := r.field(name)
	if err != nil {
		return nil, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// SetFieldBytes writes a field's raw bytes verbatim. The value must match the
// field width exactly.
func (r *Row) SetFieldBytes(name string, v []byte) error {
	f, b, err := r.field(name)
	if err != nil {
		return err
	}
	if len(v) != f.Size {
		return fmt.Errorf("field %s is %d bytes, got %d", name, f.Size, len(v))
	}
	copy(b, v)
	return nil
}

// SetDate writes a date field as a day byte, a month byte, and a two byte
// year.
func (r *Row) SetDate(name string, day, month, year int) error {
	f, b, err := r.field(name)
	if err != nil {
		return err
	}
	if f.Size < 4 {
		return fmt.Errorf("field %s is %d bytes, a date needs 4", name, f.Size)
	}
	b[0] = byte(day)
	b[1] = byte(month)
	r.cdc.PutUint(b[2:4], uint64(year))
	return nil
}

// FormatField renders field i for display. Dates render as day : month :
// year, the day and month each one byte and the year the remaining two.
func (r *Row) FormatField(i int) string {
	f := r.schema.Field(i)
	offset := r.schema.FieldOffset(i)
	b := r.data[offset : offset+f.Size]
	switch f.Type {
	case Integer:
		return fmt.Sprintf("%d", r.cdc.Uint(b))
	case Float:
		if f.Size <= 4 {
			return fmt.Sprintf("%g", r.cdc.Float32(b))
		}
		return fmt.Sprintf("%g", r.cdc.Float64(b))
	case Boolean:
		return fmt.Sprintf("%t", b[0] != 0)
	case Date:
		return fmt.Sprintf("%d : %d : %d", b[0], b[1], r.cdc.Uint(b[2:4]))
	}
	return string(bytes.TrimRight(b, "\x00"))
}
