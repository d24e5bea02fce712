package pager

import (
	"bytes"
	"testing"

	"heapdb/codec"
	"heapdb/schema"
)

func runnerSchema() *schema.Schema {
	return schema.New("Runner", []schema.Field{
		{Name: "Name", Type: schema.Character, Size: 25},
		{Name: "Number", Type: schema.Integer},
	})
}

func runnerRow(t *testing.T, cdc codec.Codec, name string, number uint64) *schema.Row {
	t.Helper()
	row := schema.NewRow(cdc, runnerSchema())
	if err := row.SetString("Name", name); err != nil {
		t.Fatal(err)
	}
	if err := row.SetUint("Number", number); err != nil {
		t.Fatal(err)
	}
	return row
}

// freeCount recomputes the free slot count from the bitmap.
func freeCount(p *Page) int {
	n := 0
	for i := 0; i < p.SlotCount(); i++ {
		if p.IsFree(i) {
			n++
		}
	}
	return n
}

func TestNewPage(t *testing.T) {
	s := runnerSchema()
	p := NewPage(s.Name(), 4, s.RowSize())
	if p.IsDirty() {
		t.Error("fresh page is dirty")
	}
	if got := p.FreeSlotCount(); got != 4 {
		t.Errorf("free slots: want 4 got %d", got)
	}
	if got := p.NextPageOffset(); got != 0 {
		t.Errorf("next page offset: want 0 got %d", got)
	}
	if want := computeHeaderSize(s.Name()) + 4 + 4*s.RowSize(); p.RawPageSize() != want {
		t.Errorf("raw page size: want %d got %d", want, p.RawPageSize())
	}
}

func TestPageAdd(t *testing.T) {
	cdc := codec.New(codec.LittleEndian)
	s := runnerSchema()
	p := NewPage(s.Name(), 2, s.RowSize())

	if !p.Add(runnerRow(t, cdc, "1", 1)) {
		t.Fatal("add into empty page failed")
	}
	if p.IsFree(0) {
		t.Error("slot 0 still free after add")
	}
	if !p.IsDirty() {
		t.Error("page not dirty after add")
	}
	if !p.Add(runnerRow(t, cdc, "2", 2)) {
		t.Fatal("add into half full page failed")
	}
	if !p.IsFull() {
		t.Error("page with 0 free slots not full")
	}
	if p.Add(runnerRow(t, cdc, "3", 3)) {
		t.Error("add into full page succeeded")
	}
	if got := freeCount(p); got != p.FreeSlotCount() {
		t.Errorf("free slot count %d does not match bitmap count %d", p.FreeSlotCount(), got)
	}
}

func TestPageAddReusesLowestFreeSlot(t *testing.T) {
	cdc := codec.New(codec.LittleEndian)
	s := runnerSchema()
	p := NewPage(s.Name(), 2, s.RowSize())
	p.Add(runnerRow(t, cdc, "1", 1))
	p.Add(runnerRow(t, cdc, "2", 2))
	p.Remove(0)
	if !p.Add(runnerRow(t, cdc, "3", 3)) {
		t.Fatal("add after remove failed")
	}
	if p.IsFree(0) {
		t.Error("slot 0 not reused")
	}
	row := schema.RowFromBytes(cdc, s, p.Row(0))
	if got, _ := row.String("Name"); got != "3" {
		t.Errorf("slot 0: want name 3 got %q", got)
	}
}

func TestPageRemove(t *testing.T) {
	cdc := codec.New(codec.LittleEndian)
	s := runnerSchema()
	p := NewPage(s.Name(), 2, s.RowSize())
	p.Add(runnerRow(t, cdc, "1", 1))

	p.Remove(0)
	if !p.IsFree(0) {
		t.Error("slot 0 occupied after remove")
	}
	if got := p.FreeSlotCount(); got != 2 {
		t.Errorf("free slots: want 2 got %d", got)
	}
	// removing a free slot is a no-op
	p.Remove(0)
	if got := p.FreeSlotCount(); got != 2 {
		t.Errorf("free slots after double remove: want 2 got %d", got)
	}
}

func TestPageReplace(t *testing.T) {
	cdc := codec.New(codec.LittleEndian)
	s := runnerSchema()
	p := NewPage(s.Name(), 2, s.RowSize())
	p.Add(runnerRow(t, cdc, "1", 1))

	p.Replace(0, runnerRow(t, cdc, "9", 9))
	row := schema.RowFromBytes(cdc, s, p.Row(0))
	if got, _ := row.Uint("Number"); got != 9 {
		t.Errorf("want 9 got %d", got)
	}
	if got := p.FreeSlotCount(); got != 1 {
		t.Errorf("replace changed free slot count: want 1 got %d", got)
	}

	t.Run("wrong schema", func(t *testing.T) {
		other := schema.New("Book", []schema.Field{{Name: "Title", Type: schema.Character, Size: 10}})
		defer func() {
			if recover() == nil {
				t.Error("expected panic on schema mismatch")
			}
		}()
		p.Replace(0, schema.NewRow(cdc, other))
	})

	t.Run("free slot", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic replacing a free slot")
			}
		}()
		p.Replace(1, runnerRow(t, cdc, "9", 9))
	})
}

func TestPageEncodeDecodeRoundTrip(t *testing.T) {
	for _, order := range []codec.ByteOrder{codec.LittleEndian, codec.BigEndian} {
		cdc := codec.New(order)
		s := runnerSchema()
		p := NewPage(s.Name(), 3, s.RowSize())
		p.Add(runnerRow(t, cdc, "1", 1))
		p.Add(runnerRow(t, cdc, "2", 2))
		p.Remove(0)
		p.SetNextPageOffset(512)

		b := p.encode(cdc)
		if len(b) != p.RawPageSize() {
			t.Fatalf("order %d: image is %d bytes, raw page size %d", order, len(b), p.RawPageSize())
		}
		got, err := decodePage(cdc, b)
		if err != nil {
			t.Fatal(err)
		}
		if got.SchemaName() != "Runner" || got.SlotCount() != 3 || got.FreeSlotCount() != 2 {
			t.Errorf("order %d: header mismatch: %+v", order, got.header)
		}
		if got.NextPageOffset() != 512 {
			t.Errorf("order %d: next page offset: want 512 got %d", order, got.NextPageOffset())
		}
		if !got.IsFree(0) || got.IsFree(1) || !got.IsFree(2) {
			t.Errorf("order %d: bitmap not preserved", order)
		}
		if !bytes.Equal(got.Row(1), p.Row(1)) {
			t.Errorf("order %d: row bytes not preserved", order)
		}
		if got.RowSize() != s.RowSize() {
			t.Errorf("order %d: row size: want %d got %d", order, s.RowSize(), got.RowSize())
		}
	}
}

func TestDecodePageWrongLength(t *testing.T) {
	cdc := codec.New(codec.LittleEndian)
	s := runnerSchema()
	b := NewPage(s.Name(), 2, s.RowSize()).encode(cdc)
	if _, err := decodePage(cdc, b[:len(b)-1]); err == nil {
		t.Error("expected error on short page image")
	}
}
