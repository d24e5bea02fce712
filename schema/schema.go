// Package schema models user declared table schemas and the rows that conform
// to them. A schema is immutable once created. A row is a byte image of one
// tuple, laid out field after field at fixed widths.
package schema

// Type identifies a field's data type. Every field occupies a fixed number of
// bytes in the row image, taken from the field declaration: Character fields
// any width, Float fields 4 or 8, Integer fields 1 to 8. A declaration that
// leaves the width 0 gets the type's default.
type Type int

const (
	Integer Type = iota + 1
	Float
	Character
	Boolean
	Date
)

// DefaultSize is the field width used when a declaration leaves the size 0.
func (t Type) DefaultSize() int {
	switch t {
	case Integer:
		return 8
	case Float:
		return 4
	case Boolean:
		return 1
	case Date:
		return 4
	}
	return 1
}

// Field describes one column: a name, a type, and a fixed byte width.
type Field struct {
	Name string
	Type Type
	Size int
}

// Schema is a named, ordered sequence of fields. The row size and the size of
// the schema's catalog record are derived once at construction.
type Schema struct {
	name           string
	fields         []Field
	rowSize        int
	serializedSize int
}

// New builds a schema. Fields declared with size 0 get their type's default
// width.
func New(name string, fields []Field) *Schema {
	fs := make([]Field, len(fields))
	copy(fs, fields)
	rowSize := 0
	for i := range fs {
		if fs[i].Size == 0 {
			fs[i].Size = fs[i].Type.DefaultSize()
		}
		rowSize += fs[i].Size
	}
	s := &Schema{
		name:    name,
		fields:  fs,
		rowSize: rowSize,
	}
	s.serializedSize = s.computeSerializedSize()
	return s
}

// computeSerializedSize matches the catalog record codec: the name with its
// NUL, an 8 byte field count, then for each field its name with NUL, a 1 byte
// type id, and an 8 byte width.
func (s *Schema) computeSerializedSize() int {
	size := len(s.name) + 1 + 8
	for _, f := range s.fields {
		size += len(f.Name) + 1 + 1 + 8
	}
	return size
}

func (s *Schema) Name() string {
	return s.name
}

func (s *Schema) FieldCount() int {
	return len(s.fields)
}

func (s *Schema) Field(i int) Field {
	return s.fields[i]
}

// FieldIndex returns the position of the named field and whether it exists.
func (s *Schema) FieldIndex(name string) (int, bool) {
	for i, f := range s.fields {
		if f.Name == name {
			return i, true
		}
	}
	return 0, false
}

// FieldOffset returns the byte offset of field i inside a row image.
func (s *Schema) FieldOffset(i int) int {
	offset := 0
	for j := 0; j < i; j++ {
		offset += s.fields[j].Size
	}
	return offset
}

// RowSize is the byte length of a row conforming to this schema.
func (s *Schema) RowSize() int {
	return s.rowSize
}

// SerializedSize is the byte length of this schema's catalog record body.
func (s *Schema) SerializedSize() int {
	return s.serializedSize
}
