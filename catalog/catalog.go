// Package catalog persists the database schemas. The schema file is read
// once when the catalog opens and rewritten in full when it closes. Each
// record is an 8 byte little endian length followed by that many bytes of
// schema payload; the length prefix stays little endian even for big endian
// databases.
package catalog

import (
	"encoding/binary"
	"fmt"
	"os"

	"heapdb/codec"
	"heapdb/schema"
)

type Catalog struct {
	path    string
	cdc     codec.Codec
	schemas []*schema.Schema
	index   map[string]int
}

// Open reads the schema file into memory. A missing file yields an empty
// catalog, as does an empty path, which keeps the catalog purely in memory.
func Open(path string, cdc codec.Codec) (*Catalog, error) {
	c := &Catalog{
		path:  path,
		cdc:   cdc,
		index: map[string]int{},
	}
	if path == "" {
		return c, nil
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading schema file: %w", err)
	}
	for len(b) > 0 {
		if len(b) < 8 {
			return nil, fmt.Errorf("schema file has %d trailing bytes", len(b))
		}
		length := binary.LittleEndian.Uint64(b[:8])
		b = b[8:]
		if uint64(len(b)) < length {
			return nil, fmt.Errorf("schema record of %d bytes truncated at %d", length, len(b))
		}
		s, err := decodeSchema(cdc, b[:length])
		if err != nil {
			return nil, err
		}
		b = b[length:]
		if err := c.AddSchema(s); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Close rewrites the schema file from the in memory list.
func (c *Catalog) Close() error {
	if c.path == "" {
		return nil
	}
	out := []byte{}
	for _, s := range c.schemas {
		body := encodeSchema(c.cdc, s)
		length := make([]byte, 8)
		binary.LittleEndian.PutUint64(length, uint64(len(body)))
		out = append(out, length...)
		out = append(out, body...)
	}
	if err := os.WriteFile(c.path, out, 0644); err != nil {
		return fmt.Errorf("error rewriting schema file: %w", err)
	}
	return nil
}

// AddSchema appends a schema at the end of the catalog. Schema names are
// unique.
func (c *Catalog) AddSchema(s *schema.Schema) error {
	if _, ok := c.index[s.Name()]; ok {
		return fmt.Errorf("schema %s already exists", s.Name())
	}
	c.schemas = append(c.schemas, s)
	c.index[s.Name()] = len(c.schemas) - 1
	return nil
}

func (c *Catalog) SchemaCount() int {
	return len(c.schemas)
}

// GetSchema returns the schema at position i in catalog order.
func (c *Catalog) GetSchema(i int) (*schema.Schema, bool) {
	if i < 0 || i >= len(c.schemas) {
		return nil, false
	}
	return c.schemas[i], true
}

// Find resolves a schema by name.
func (c *Catalog) Find(name string) (*schema.Schema, bool) {
	i, ok := c.index[name]
	if !ok {
		return nil, false
	}
	return c.schemas[i], true
}

// Schemas returns the schemas in catalog order.
func (c *Catalog) Schemas() []*schema.Schema {
	out := make([]*schema.Schema, len(c.schemas))
	copy(out, c.schemas)
	return out
}

// Record body: the schema name with a NUL terminator, an 8 byte field count,
// then per field the name with NUL, a 1 byte type id, and an 8 byte width.
// Integers here follow the database byte order.

func encodeSchema(cdc codec.Codec, s *schema.Schema) []byte {
	b := make([]byte, 0, s.SerializedSize())
	b = append(b, s.Name()...)
	b = append(b, 0)
	count := make([]byte, 8)
	cdc.PutUint64(count, uint64(s.FieldCount()))
	b = append(b, count...)
	for i := 0; i < s.FieldCount(); i++ {
		f := s.Field(i)
		b = append(b, f.Name...)
		b = append(b, 0)
		b = append(b, byte(f.Type))
		size := make([]byte, 8)
		cdc.PutUint64(size, uint64(f.Size))
		b = append(b, size...)
	}
	return b
}

func decodeSchema(cdc codec.Codec, b []byte) (*schema.Schema, error) {
	name, rest, err := cutString(b)
	if err != nil {
		return nil, fmt.Errorf("schema record: %w", err)
	}
	if len(rest) < 8 {
		return nil, fmt.Errorf("schema record for %s truncated", name)
	}
	count := int(cdc.Uint64(rest[:8]))
	rest = rest[8:]
	fields := make([]schema.Field, 0, count)
	for i := 0; i < count; i++ {
		fieldName, r, err := cutString(rest)
		if err != nil {
			return nil, fmt.Errorf("schema record for %s: %w", name, err)
		}
		rest = r
		if len(rest) < 9 {
			return nil, fmt.Errorf("schema record for %s truncated", name)
		}
		fields = append(fields, schema.Field{
			Name: fieldName,
			Type: schema.Type(rest[0]),
			Size: int(cdc.Uint64(rest[1:9])),
		})
		rest = rest[9:]
	}
	return schema.New(name, fields), nil
}

func cutString(b []byte) (string, []byte, error) {
	for i, by := range b {
		if by == 0 {
			return string(b[:i]), b[i+1:], nil
		}
	}
	return "", nil, fmt.Errorf("missing string terminator")
}
