// The pager stores rows in fixed size pages in a single data file and caches
// the pages in a bounded buffer pool. Pages belonging to one schema form a
// singly linked chain through their next page offsets; chains of different
// schemas interleave freely in the file.
package pager

import (
	"bytes"
	"fmt"

	"heapdb/codec"
)

// Page header layout, values accumulate start to end:
//   - 8 bytes for the next page offset. Signed, 0 means no next page.
//   - 8 bytes for the slot count, the page's capacity in rows.
//   - 8 bytes for the raw page size, the total bytes the page occupies on
//     disk.
//   - 4 bytes for the header size, the bytes from page start to the
//     occupancy bitmap.
//   - The schema name terminated by a NUL byte.
//   - 8 bytes for the free slot count.
//
// The bitmap and the row area follow the header. Every integer above is
// byte swapped when the database is big endian.
const (
	nextPageOffsetOffset = 0
	slotCountOffset      = nextPageOffsetOffset + codec.OffsetSize
	rawPageSizeOffset    = slotCountOffset + codec.SizeSize
	headerSizeOffset     = rawPageSizeOffset + codec.SizeSize
	schemaNameOffset     = headerSizeOffset + 4
	// headerPrefixSize is the fixed part of the header before the schema
	// name. Reading this much is enough to learn the header and page sizes.
	headerPrefixSize = schemaNameOffset
)

// computeHeaderSize returns the header length for a page of the named schema,
// counting the name's NUL terminator.
func computeHeaderSize(schemaName string) int {
	return headerPrefixSize + len(schemaName) + 1 + codec.SizeSize
}

// pageHeader is the parsed fixed prefix of one on disk page. It is enough to
// navigate a chain and to tell whether the page has room without loading the
// bitmap and row area.
type pageHeader struct {
	nextPageOffset int64
	slotCount      int
	rawPageSize    int
	headerSize     int
	schemaName     string
	freeSlotCount  int
}

func newPageHeader(schemaName string, slotCount, rowSize int) pageHeader {
	hs := computeHeaderSize(schemaName)
	return pageHeader{
		slotCount:     slotCount,
		rawPageSize:   hs + slotCount + slotCount*rowSize,
		headerSize:    hs,
		schemaName:    schemaName,
		freeSlotCount: slotCount,
	}
}

func parsePageHeader(cdc codec.Codec, b []byte) (pageHeader, error) {
	if len(b) < headerPrefixSize+1 {
		return pageHeader{}, fmt.Errorf("page header is %d bytes, need at least %d", len(b), headerPrefixSize+1)
	}
	h := pageHeader{
		nextPageOffset: cdc.Offset(b[nextPageOffsetOffset:slotCountOffset]),
		slotCount:      int(cdc.Uint64(b[slotCountOffset:rawPageSizeOffset])),
		rawPageSize:    int(cdc.Uint64(b[rawPageSizeOffset:headerSizeOffset])),
		headerSize:     int(cdc.Uint32(b[headerSizeOffset:schemaNameOffset])),
	}
	nul := bytes.IndexByte(b[schemaNameOffset:], 0)
	if nul < 0 {
		return pageHeader{}, fmt.Errorf("page header has no schema name terminator")
	}
	h.schemaName = string(b[schemaNameOffset : schemaNameOffset+nul])
	free := schemaNameOffset + nul + 1
	if len(b) < free+codec.SizeSize {
		return pageHeader{}, fmt.Errorf("page header is %d bytes, need %d", len(b), free+codec.SizeSize)
	}
	h.freeSlotCount = int(cdc.Uint64(b[free : free+codec.SizeSize]))
	return h, nil
}

func (h *pageHeader) encode(cdc codec.Codec) []byte {
	b := make([]byte, h.headerSize)
	cdc.PutOffset(b[nextPageOffsetOffset:slotCountOffset], h.nextPageOffset)
	cdc.PutUint64(b[slotCountOffset:rawPageSizeOffset], uint64(h.slotCount))
	cdc.PutUint64(b[rawPageSizeOffset:headerSizeOffset], uint64(h.rawPageSize))
	cdc.PutUint32(b[headerSizeOffset:schemaNameOffset], uint32(h.headerSize))
	copy(b[schemaNameOffset:], h.schemaName)
	free := schemaNameOffset + len(h.schemaName) + 1
	cdc.PutUint64(b[free:free+codec.SizeSize], uint64(h.freeSlotCount))
	return b
}

func (h *pageHeader) isFull() bool {
	return h.freeSlotCount == 0
}

func (h *pageHeader) decrementFreeSlotCount() {
	if h.freeSlotCount == 0 {
		panic(fmt.Sprintf("page of %s: free slot count underflow", h.schemaName))
	}
	h.freeSlotCount--
}

func (h *pageHeader) incrementFreeSlotCount() {
	if h.freeSlotCount == h.slotCount {
		panic(fmt.Sprintf("page of %s: free slot count would exceed %d slots", h.schemaName, h.slotCount))
	}
	h.freeSlotCount++
}
