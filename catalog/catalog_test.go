package catalog

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"heapdb/codec"
	"heapdb/schema"
)

func bookSchema() *schema.Schema {
	return schema.New("Book", []schema.Field{
		{Name: "Title", Type: schema.Character, Size: 10},
		{Name: "Editor", Type: schema.Character, Size: 15},
		{Name: "Parution", Type: schema.Date},
	})
}

func TestOpenEmpty(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "schema.db"), codec.New(codec.LittleEndian))
	if err != nil {
		t.Fatal(err)
	}
	if got := c.SchemaCount(); got != 0 {
		t.Errorf("want 0 schemas got %d", got)
	}
	if _, ok := c.Find("Book"); ok {
		t.Error("found a schema in an empty catalog")
	}
}

func TestCatalogRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.db")
	cdc := codec.New(codec.LittleEndian)

	c, err := Open(path, cdc)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.AddSchema(bookSchema()); err != nil {
		t.Fatal(err)
	}
	if err := c.AddSchema(schema.New("Runner", []schema.Field{
		{Name: "Name", Type: schema.Character, Size: 25},
		{Name: "Number", Type: schema.Integer},
	})); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	c2, err := Open(path, cdc)
	if err != nil {
		t.Fatal(err)
	}
	if got := c2.SchemaCount(); got != 2 {
		t.Fatalf("want 2 schemas got %d", got)
	}
	s, ok := c2.Find("Book")
	if !ok {
		t.Fatal("Book not found after reopen")
	}
	if got := s.FieldCount(); got != 3 {
		t.Errorf("want 3 fields got %d", got)
	}
	if f := s.Field(1); f.Name != "Editor" || f.Type != schema.Character || f.Size != 15 {
		t.Errorf("field 1 mismatch: %+v", f)
	}
	if s.RowSize() != 29 {
		t.Errorf("row size: want 29 got %d", s.RowSize())
	}
	// catalog order preserved
	first, _ := c2.GetSchema(0)
	if first.Name() != "Book" {
		t.Errorf("want Book first got %s", first.Name())
	}
}

func TestRecordLengthPrefix(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.db")
	cdc := codec.New(codec.BigEndian)
	c, err := Open(path, cdc)
	if err != nil {
		t.Fatal(err)
	}
	s := bookSchema()
	if err := c.AddSchema(s); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	// the length prefix is little endian even for a big endian database
	length := binary.LittleEndian.Uint64(b[:8])
	if int(length) != s.SerializedSize() {
		t.Errorf("record length: want %d got %d", s.SerializedSize(), length)
	}
	if len(b) != 8+int(length) {
		t.Errorf("file is %d bytes, want %d", len(b), 8+length)
	}
}

func TestAddSchemaDuplicate(t *testing.T) {
	c, err := Open("", codec.New(codec.LittleEndian))
	if err != nil {
		t.Fatal(err)
	}
	if err := c.AddSchema(bookSchema()); err != nil {
		t.Fatal(err)
	}
	if err := c.AddSchema(bookSchema()); err == nil {
		t.Error("expected error adding a duplicate schema name")
	}
}

func TestOpenTruncatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.db")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(path, codec.New(codec.LittleEndian)); err == nil {
		t.Error("expected error on truncated schema file")
	}
}
