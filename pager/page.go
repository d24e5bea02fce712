package pager

import (
	"fmt"

	"heapdb/codec"
	"heapdb/schema"
)

// Page is the in memory form of one on disk page: the header, the occupancy
// bitmap with one byte per slot where nonzero means occupied, and the row
// area of slot count times row size bytes.
type Page struct {
	header  pageHeader
	bitmap  []byte
	rows    []byte
	rowSize int
	dirty   bool
}

// NewPage returns an empty page for the schema: every slot free, no next
// page, zeroed bitmap and row area.
func NewPage(schemaName string, slotCount, rowSize int) *Page {
	return &Page{
		header:  newPageHeader(schemaName, slotCount, rowSize),
		bitmap:  make([]byte, slotCount),
		rows:    make([]byte, slotCount*rowSize),
		rowSize: rowSize,
	}
}

// decodePage parses a full on disk image. The image must span exactly the
// page's raw page size.
func decodePage(cdc codec.Codec, b []byte) (*Page, error) {
	h, err := parsePageHeader(cdc, b)
	if err != nil {
		return nil, err
	}
	if len(b) != h.rawPageSize {
		return nil, fmt.Errorf("page image is %d bytes, header says %d", len(b), h.rawPageSize)
	}
	p := &Page{
		header: h,
		bitmap: make([]byte, h.slotCount),
		rows:   make([]byte, h.rawPageSize-h.headerSize-h.slotCount),
	}
	copy(p.bitmap, b[h.headerSize:h.headerSize+h.slotCount])
	copy(p.rows, b[h.headerSize+h.slotCount:])
	if h.slotCount > 0 {
		p.rowSize = len(p.rows) / h.slotCount
	}
	return p, nil
}

func (p *Page) encode(cdc codec.Codec) []byte {
	b := make([]byte, 0, p.header.rawPageSize)
	b = append(b, p.header.encode(cdc)...)
	b = append(b, p.bitmap...)
	b = append(b, p.rows...)
	return b
}

// Add copies the row into the lowest free slot and returns false when the
// page is full.
func (p *Page) Add(row *schema.Row) bool {
	for i := range p.bitmap {
		if p.IsFree(i) {
			p.bitmap[i] = 1
			p.header.decrementFreeSlotCount()
			p.Replace(i, row)
			return true
		}
	}
	return false
}

// Replace overwrites the row bytes at an occupied slot. The bitmap is
// untouched.
func (p *Page) Replace(index int, row *schema.Row) {
	if row.Schema().Name() != p.header.schemaName {
		panic(fmt.Sprintf("row of schema %s cannot be stored in page of %s", row.Schema().Name(), p.header.schemaName))
	}
	if p.IsFree(index) {
		panic(fmt.Sprintf("replace of free slot %d in page of %s", index, p.header.schemaName))
	}
	copy(p.rows[index*p.rowSize:(index+1)*p.rowSize], row.Bytes())
	p.markDirty()
}

// Remove frees the slot. Removing an already free slot is a no-op.
func (p *Page) Remove(index int) {
	if p.bitmap[index] != 0 {
		p.markDirty()
		p.header.incrementFreeSlotCount()
		p.bitmap[index] = 0
	}
}

// Row returns a copy of the row bytes at the slot.
func (p *Page) Row(index int) []byte {
	b := make([]byte, p.rowSize)
	copy(b, p.rows[index*p.rowSize:(index+1)*p.rowSize])
	return b
}

func (p *Page) IsFree(index int) bool {
	return p.bitmap[index] == 0
}

func (p *Page) IsFull() bool {
	return p.header.isFull()
}

func (p *Page) IsDirty() bool {
	return p.dirty
}

func (p *Page) NextPageOffset() int64 {
	return p.header.nextPageOffset
}

func (p *Page) SetNextPageOffset(offset int64) {
	p.header.nextPageOffset = offset
	p.markDirty()
}

func (p *Page) SchemaName() string {
	return p.header.schemaName
}

func (p *Page) SlotCount() int {
	return p.header.slotCount
}

func (p *Page) FreeSlotCount() int {
	return p.header.freeSlotCount
}

func (p *Page) RawPageSize() int {
	return p.header.rawPageSize
}

func (p *Page) RowSize() int {
	return p.rowSize
}

func (p *Page) markDirty() {
	p.dirty = true
}
