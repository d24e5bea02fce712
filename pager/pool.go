package pager

import (
	"fmt"

	"heapdb/codec"
)

// DefaultPoolSize is the number of frames a pool holds before it starts
// evicting.
const DefaultPoolSize = 4096

// frame is one buffer pool cell: a resident page and the file offset it was
// read from or will be written to.
type frame struct {
	page   *Page
	offset int64
}

// BufferPool is a bounded cache of pages read from the data file. Clients
// borrow pages through pinned handles; a pinned frame is never evicted, and a
// dirty frame is written back when it is evicted and when the pool closes.
//
// Frames are addressed by small integer ids. The frame table may grow past
// its capacity when every frame is pinned, so clients hold ids, never
// pointers into the table.
type BufferPool struct {
	store storage
	cdc   codec.Codec

	frames   []*frame
	pins     []int
	pageMap  map[int64]int
	policy   ReplacementPolicy
	capacity int

	// firstPageMap caches the offset of the first page of each schema,
	// discovered by scanning the file front to back.
	firstPageMap map[string]int64
	// firstFreeMap caches the last page known to have a free slot for each
	// schema. The page there may have filled up since; the hint is dropped
	// and rebuilt when that happens.
	firstFreeMap map[string]int64
}

// NewBufferPool opens the data file, or an in memory buffer when useMemory is
// set, and returns a pool that evicts once it holds capacity frames. When
// every frame is pinned the pool grows past capacity instead.
func NewBufferPool(useMemory bool, filename string, cdc codec.Codec, capacity int) (*BufferPool, error) {
	var s storage
	if useMemory {
		s = newMemoryStorage()
	} else {
		fs, err := newFileStorage(filename)
		if err != nil {
			return nil, err
		}
		s = fs
	}
	if capacity < 1 {
		capacity = DefaultPoolSize
	}
	return &BufferPool{
		store:        s,
		cdc:          cdc,
		pageMap:      map[int64]int{},
		policy:       NewLRU(),
		capacity:     capacity,
		firstPageMap: map[string]int64{},
		firstFreeMap: map[string]int64{},
	}, nil
}

// Close flushes every dirty frame and releases the data file.
func (p *BufferPool) Close() error {
	for id := range p.frames {
		if err := p.Flush(id); err != nil {
			return err
		}
	}
	return p.store.Close()
}

// pin increments the frame's pin count. The frame leaves the policy's
// candidate set on the 0 to 1 transition.
func (p *BufferPool) pin(frameID int) {
	p.pins[frameID]++
	if p.pins[frameID] == 1 {
		p.policy.Use(frameID)
	}
}

// unpin decrements the frame's pin count. The frame becomes an eviction
// candidate on the 1 to 0 transition. Unpinning an unpinned frame is a bug in
// the caller.
func (p *BufferPool) unpin(frameID int) {
	if p.pins[frameID] == 0 {
		panic(fmt.Sprintf("unpin of unpinned frame %d", frameID))
	}
	p.pins[frameID]--
	if p.pins[frameID] == 0 {
		p.policy.Release(frameID)
	}
}

// Flush writes the frame's page back to its offset if it is dirty.
func (p *BufferPool) Flush(frameID int) error {
	f := p.frames[frameID]
	if !f.page.IsDirty() {
		return nil
	}
	if _, err := p.store.WriteAt(f.page.encode(p.cdc), f.offset); err != nil {
		return fmt.Errorf("error flushing page at offset %d: %w", f.offset, err)
	}
	if err := p.store.Sync(); err != nil {
		return err
	}
	f.page.dirty = false
	return nil
}

// AppendPage writes a page at the end of the data file and returns the offset
// the page begins at. The page does not become resident; a later request
// reads it back through the cache.
func (p *BufferPool) AppendPage(page *Page) (int64, error) {
	off, err := p.store.Append(page.encode(p.cdc))
	if err != nil {
		return 0, fmt.Errorf("error appending page: %w", err)
	}
	if err := p.store.Sync(); err != nil {
		return 0, err
	}
	return off, nil
}

// readPageImage reads the full image of the page at the offset.
func (p *BufferPool) readPageImage(offset int64) ([]byte, error) {
	prefix := make([]byte, headerPrefixSize)
	if _, err := p.store.ReadAt(prefix, offset); err != nil {
		return nil, fmt.Errorf("error reading page header at offset %d: %w", offset, err)
	}
	rawPageSize := p.cdc.Uint64(prefix[rawPageSizeOffset:headerSizeOffset])
	b := make([]byte, rawPageSize)
	if _, err := p.store.ReadAt(b, offset); err != nil {
		return nil, fmt.Errorf("error reading page at offset %d: %w", offset, err)
	}
	return b, nil
}

// readHeader reads and parses just the header of the page at the offset.
func (p *BufferPool) readHeader(offset int64) (pageHeader, error) {
	prefix := make([]byte, headerPrefixSize)
	if _, err := p.store.ReadAt(prefix, offset); err != nil {
		return pageHeader{}, fmt.Errorf("error reading page header at offset %d: %w", offset, err)
	}
	headerSize := p.cdc.Uint32(prefix[headerSizeOffset:schemaNameOffset])
	b := make([]byte, headerSize)
	if _, err := p.store.ReadAt(b, offset); err != nil {
		return pageHeader{}, fmt.Errorf("error reading page header at offset %d: %w", offset, err)
	}
	return parsePageHeader(p.cdc, b)
}

// fetch returns the frame id of the page at the offset, reading it from the
// file when it is not resident. A full pool evicts its replacement
// candidate, writing it back first when dirty. When every frame is pinned
// the pool grows past its capacity instead.
func (p *BufferPool) fetch(offset int64) (int, error) {
	if id, ok := p.pageMap[offset]; ok {
		return id, nil
	}
	b, err := p.readPageImage(offset)
	if err != nil {
		return 0, err
	}
	page, err := decodePage(p.cdc, b)
	if err != nil {
		return 0, err
	}
	if len(p.frames) >= p.capacity {
		if victim, ok := p.policy.PickCandidate(); ok {
			if err := p.Flush(victim); err != nil {
				return 0, err
			}
			delete(p.pageMap, p.frames[victim].offset)
			p.frames[victim].page = page
			p.frames[victim].offset = offset
			p.pageMap[offset] = victim
			return victim, nil
		}
	}
	p.frames = append(p.frames, &frame{page: page, offset: offset})
	p.pins = append(p.pins, 0)
	id := len(p.frames) - 1
	p.pageMap[offset] = id
	return id, nil
}

// RequestPage returns a pinned handle to the page at the exact offset.
func (p *BufferPool) RequestPage(offset int64) (*PageHandle, error) {
	id, err := p.fetch(offset)
	if err != nil {
		return nil, err
	}
	return p.newHandle(id), nil
}

// RequestFreePage returns a pinned handle to some page of the schema with at
// least one free slot, or nil when no such page exists and the caller must
// create one.
func (p *BufferPool) RequestFreePage(schemaName string) (*PageHandle, error) {
	if off, ok := p.firstFreeMap[schemaName]; ok {
		if id, resident := p.pageMap[off]; resident {
			if !p.frames[id].page.IsFull() {
				return p.newHandle(id), nil
			}
			delete(p.firstFreeMap, schemaName)
		} else {
			h, err := p.readHeader(off)
			if err != nil {
				return nil, err
			}
			if !h.isFull() {
				return p.RequestPage(off)
			}
			delete(p.firstFreeMap, schemaName)
		}
	}
	off, ok, err := p.lookForFirstFreePage(schemaName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return p.RequestPage(off)
}

// RequestFirstPage returns a pinned handle to the head of the schema's
// chain, or nil when the schema has no pages.
func (p *BufferPool) RequestFirstPage(schemaName string) (*PageHandle, error) {
	off, ok, err := p.lookForFirstPage(schemaName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return p.RequestPage(off)
}

// RequestNextPage follows the chain from the handle's page. It takes
// ownership of the handle, releasing it, and returns nil at the end of the
// chain.
func (p *BufferPool) RequestNextPage(h *PageHandle) (*PageHandle, error) {
	next := h.Page().NextPageOffset()
	h.Release()
	if next == 0 {
		return nil, nil
	}
	return p.RequestPage(next)
}

// PageHandle is a scoped borrow of a buffer pool frame. While a handle is
// held the frame stays resident and addressable. Releasing it decrements the
// pin count exactly once; releasing twice is a bug in the caller.
type PageHandle struct {
	pool    *BufferPool
	frameID int
	valid   bool
}

func (p *BufferPool) newHandle(frameID int) *PageHandle {
	p.pin(frameID)
	return &PageHandle{pool: p, frameID: frameID, valid: true}
}

// Page returns the borrowed page, or nil after the handle was released.
func (h *PageHandle) Page() *Page {
	if !h.valid {
		return nil
	}
	return h.pool.frames[h.frameID].page
}

// Offset returns the borrowed page's position in the data file.
func (h *PageHandle) Offset() int64 {
	return h.pool.frames[h.frameID].offset
}

// Flush writes the borrowed page back to disk if it is dirty.
func (h *PageHandle) Flush() error {
	return h.pool.Flush(h.frameID)
}

// Release returns the borrow. The frame becomes evictable once its pin count
// reaches 0.
func (h *PageHandle) Release() {
	if !h.valid {
		panic("release of released page handle")
	}
	h.valid = false
	h.pool.unpin(h.frameID)
}
