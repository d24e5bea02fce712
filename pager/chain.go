package pager

// Chain discovery. The head of a schema's chain is found by scanning page
// headers front to back; the rest of the chain is walked through next page
// offsets. A resident page is consulted in memory, a non resident one by
// reading just its header, so a walk never loads full pages it does not
// need.

// lookForFirstPage returns the offset of the schema's first page. The bool is
// false when the schema has no pages.
func (p *BufferPool) lookForFirstPage(schemaName string) (int64, bool, error) {
	if off, ok := p.firstPageMap[schemaName]; ok {
		return off, true, nil
	}
	size, err := p.store.Size()
	if err != nil {
		return 0, false, err
	}
	var off int64
	for off < size {
		h, err := p.readHeader(off)
		if err != nil {
			return 0, false, err
		}
		if h.schemaName == schemaName {
			p.firstPageMap[schemaName] = off
			return off, true, nil
		}
		off += int64(h.rawPageSize)
	}
	return 0, false, nil
}

// lookForLastPage follows the chain to its tail and returns the tail's
// offset. The bool is false when the schema has no pages.
func (p *BufferPool) lookForLastPage(schemaName string) (int64, bool, error) {
	off, ok, err := p.lookForFirstPage(schemaName)
	if err != nil || !ok {
		return 0, false, err
	}
	for {
		_, next, err := p.pageInfoAt(off)
		if err != nil {
			return 0, false, err
		}
		if next == 0 {
			return off, true, nil
		}
		off = next
	}
}

// LastPageOffset is lookForLastPage for callers outside the pool, used to
// seed tail hints at open.
func (p *BufferPool) LastPageOffset(schemaName string) (int64, bool, error) {
	return p.lookForLastPage(schemaName)
}

// lookForFirstFreePage walks the chain until a page with a free slot and
// caches it as the schema's first available hint.
func (p *BufferPool) lookForFirstFreePage(schemaName string) (int64, bool, error) {
	off, ok, err := p.lookForFirstPage(schemaName)
	if err != nil || !ok {
		return 0, false, err
	}
	for {
		free, next, err := p.pageInfoAt(off)
		if err != nil {
			return 0, false, err
		}
		if free > 0 {
			p.firstFreeMap[schemaName] = off
			return off, true, nil
		}
		if next == 0 {
			return 0, false, nil
		}
		off = next
	}
}

// pageInfoAt returns the free slot count and next page offset of the page at
// the offset, from memory when resident and from the header on disk when
// not.
func (p *BufferPool) pageInfoAt(off int64) (free int, next int64, err error) {
	if id, resident := p.pageMap[off]; resident {
		page := p.frames[id].page
		return page.FreeSlotCount(), page.NextPageOffset(), nil
	}
	h, err := p.readHeader(off)
	if err != nil {
		return 0, 0, err
	}
	return h.freeSlotCount, h.nextPageOffset, nil
}
