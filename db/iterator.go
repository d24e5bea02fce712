package db

import (
	"fmt"

	"heapdb/pager"
	"heapdb/schema"
)

// Iterator scans the occupied slots of a schema's chain in slot order, page
// by page. It holds a pinned writable handle on the page it is positioned
// on, so in place mutation through Page and Slot reaches disk on eviction or
// shutdown. Two exhausted iterators are equal: both have released their
// handle and see the same end state.
type Iterator struct {
	pool    *pager.BufferPool
	schema  *schema.Schema
	db      *DB
	handle  *pager.PageHandle
	slot    int
	started bool
	err     error
}

// Iterator positions a new iterator before the first occupied slot of the
// schema's chain. A schema with no pages yields an already exhausted
// iterator.
func (d *DB) Iterator(schemaName string) (*Iterator, error) {
	s, ok := d.catalog.Find(schemaName)
	if !ok {
		return nil, fmt.Errorf("no schema named %s", schemaName)
	}
	h, err := d.pool.RequestFirstPage(schemaName)
	if err != nil {
		return nil, err
	}
	return &Iterator{
		pool:   d.pool,
		schema: s,
		db:     d,
		handle: h,
	}, nil
}

// Next advances to the next occupied slot, skipping holes and crossing page
// boundaries, and reports whether one exists. The handle on an exhausted
// page is released as the iterator moves past it.
func (it *Iterator) Next() bool {
	if it.handle == nil {
		return false
	}
	if !it.started {
		it.started = true
		if !it.handle.Page().IsFree(it.slot) {
			return true
		}
	}
	for {
		it.slot++
		if it.slot == it.handle.Page().SlotCount() {
			h, err := it.pool.RequestNextPage(it.handle)
			if err != nil {
				it.handle = nil
				it.err = err
				return false
			}
			it.handle = h
			it.slot = 0
			if it.handle == nil {
				return false
			}
		}
		if !it.handle.Page().IsFree(it.slot) {
			return true
		}
	}
}

// Row copies the current slot's bytes into a row bound to the schema.
func (it *Iterator) Row() *schema.Row {
	return schema.RowFromBytes(it.db.cdc, it.schema, it.handle.Page().Row(it.slot))
}

// Page is the page the iterator is positioned on, for in place Replace and
// Remove at Slot.
func (it *Iterator) Page() *pager.Page {
	return it.handle.Page()
}

// Slot is the iterator's position inside the current page.
func (it *Iterator) Slot() int {
	return it.slot
}

// Err reports the I/O error that ended the scan early, if any.
func (it *Iterator) Err() error {
	return it.err
}

// Close releases the iterator's handle. Closing an exhausted iterator is a
// no-op; Next already released the last handle.
func (it *Iterator) Close() {
	if it.handle != nil {
		it.handle.Release()
		it.handle = nil
	}
}
