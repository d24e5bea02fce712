// db ties the catalog and the buffer pool together behind the operations a
// shell or a program consumes: declare schemas, insert rows, scan them, and
// mutate them by predicate.
package db

import (
	"fmt"

	"heapdb/catalog"
	"heapdb/codec"
	"heapdb/pager"
	"heapdb/schema"
)

// DefaultSlotCount is the number of row slots in a newly created page.
const DefaultSlotCount = 512

type config struct {
	slotCount int
	order     codec.ByteOrder
	capacity  int
	useMemory bool
}

// Option adjusts how a database opens.
type Option func(*config)

// WithSlotCount sets the slot count for pages created by this session.
func WithSlotCount(n int) Option {
	return func(c *config) { c.slotCount = n }
}

// WithByteOrder sets the integer byte order for the database file. It must
// match the order the file was created with.
func WithByteOrder(o codec.ByteOrder) Option {
	return func(c *config) { c.order = o }
}

// WithPoolCapacity bounds the buffer pool's frame count.
func WithPoolCapacity(n int) Option {
	return func(c *config) { c.capacity = n }
}

// WithMemoryStorage keeps data and schemas in memory, discarding both when
// the database closes.
func WithMemoryStorage() Option {
	return func(c *config) { c.useMemory = true }
}

// DB owns the data file for the session: the catalog, the buffer pool, and
// the per schema tail hints used to link freshly appended pages.
type DB struct {
	catalog   *catalog.Catalog
	pool      *pager.BufferPool
	cdc       codec.Codec
	slotCount int
	lastPage  map[string]int64
}

// Open loads the catalog from the schema file, opens the data file, and
// seeds the tail offset of every known schema's chain.
func Open(dataPath, schemaPath string, opts ...Option) (*DB, error) {
	cfg := config{
		slotCount: DefaultSlotCount,
		capacity:  pager.DefaultPoolSize,
	}
	for _, o := range opts {
		o(&cfg)
	}
	cdc := codec.New(cfg.order)
	catalogPath := schemaPath
	if cfg.useMemory {
		catalogPath = ""
	}
	cat, err := catalog.Open(catalogPath, cdc)
	if err != nil {
		return nil, err
	}
	pool, err := pager.NewBufferPool(cfg.useMemory, dataPath, cdc, cfg.capacity)
	if err != nil {
		return nil, err
	}
	d := &DB{
		catalog:   cat,
		pool:      pool,
		cdc:       cdc,
		slotCount: cfg.slotCount,
		lastPage:  map[string]int64{},
	}
	for _, s := range cat.Schemas() {
		off, ok, err := pool.LastPageOffset(s.Name())
		if err != nil {
			pool.Close()
			return nil, err
		}
		if ok {
			d.lastPage[s.Name()] = off
		}
	}
	return d, nil
}

// Close flushes every dirty page and rewrites the schema file.
func (d *DB) Close() error {
	if err := d.pool.Close(); err != nil {
		return err
	}
	return d.catalog.Close()
}

// AddSchema registers a schema in the catalog.
func (d *DB) AddSchema(s *schema.Schema) error {
	return d.catalog.AddSchema(s)
}

// Schema resolves a schema by name.
func (d *DB) Schema(name string) (*schema.Schema, bool) {
	return d.catalog.Find(name)
}

// Schemas returns the declared schemas in catalog order.
func (d *DB) Schemas() []*schema.Schema {
	return d.catalog.Schemas()
}

// NewRow returns a zeroed row for the named schema.
func (d *DB) NewRow(schemaName string) (*schema.Row, error) {
	s, ok := d.catalog.Find(schemaName)
	if !ok {
		return nil, fmt.Errorf("no schema named %s", schemaName)
	}
	return schema.NewRow(d.cdc, s), nil
}

// Add inserts the row into a page of its schema with a free slot, creating
// and appending a new page when every existing page is full. A new page
// becomes the chain's tail: the previous tail is pointed at it and flushed
// before Add returns, so a scan can always reach the insert.
func (d *DB) Add(row *schema.Row) error {
	name := row.Schema().Name()
	if _, ok := d.catalog.Find(name); !ok {
		return fmt.Errorf("no schema named %s", name)
	}
	h, err := d.pool.RequestFreePage(name)
	if err != nil {
		return err
	}
	if h != nil {
		ok := h.Page().Add(row)
		h.Release()
		if ok {
			return nil
		}
	}
	return d.addNewPage(row)
}

func (d *DB) addNewPage(row *schema.Row) error {
	name := row.Schema().Name()
	page := pager.NewPage(name, d.slotCount, row.Schema().RowSize())
	if !page.Add(row) {
		return fmt.Errorf("new page of %s rejected its first row", name)
	}
	off, err := d.pool.AppendPage(page)
	if err != nil {
		return err
	}
	if last, ok := d.lastPage[name]; ok {
		lh, err := d.pool.RequestPage(last)
		if err != nil {
			return err
		}
		lh.Page().SetNextPageOffset(off)
		if err := lh.Flush(); err != nil {
			lh.Release()
			return err
		}
		lh.Release()
	}
	d.lastPage[name] = off
	return nil
}

// UpdateWhere sets the field on every row of the schema satisfying the
// predicate. Supported values are uint64, int, string, float64, bool, and
// []byte matching the field width.
func (d *DB) UpdateWhere(schemaName, fieldName string, value any, pred func(*schema.Row) bool) error {
	s, ok := d.catalog.Find(schemaName)
	if !ok {
		return fmt.Errorf("no schema named %s", schemaName)
	}
	if _, ok := s.FieldIndex(fieldName); !ok {
		return fmt.Errorf("schema %s has no field %s", schemaName, fieldName)
	}
	it, err := d.Iterator(schemaName)
	if err != nil {
		return err
	}
	defer it.Close()
	for it.Next() {
		row := it.Row()
		if !pred(row) {
			continue
		}
		if err := setField(row, fieldName, value); err != nil {
			return err
		}
		it.Page().Replace(it.Slot(), row)
	}
	return it.Err()
}

// RemoveWhere frees the slot of every row of the schema satisfying the
// predicate.
func (d *DB) RemoveWhere(schemaName string, pred func(*schema.Row) bool) error {
	if _, ok := d.catalog.Find(schemaName); !ok {
		return fmt.Errorf("no schema named %s", schemaName)
	}
	it, err := d.Iterator(schemaName)
	if err != nil {
		return err
	}
	defer it.Close()
	for it.Next() {
		if pred(it.Row()) {
			it.Page().Remove(it.Slot())
		}
	}
	return it.Err()
}

func setField(row *schema.Row, fieldName string, value any) error {
	switch v := value.(type) {
	case uint64:
		return row.SetUint(fieldName, v)
	case int:
		return row.SetUint(fieldName, uint64(v))
	case string:
		return row.SetString(fieldName, v)
	case float64:
		return row.SetFloat(fieldName, v)
	case bool:
		return row.SetBool(fieldName, v)
	case []byte:
		return row.SetFieldBytes(fieldName, v)
	}
	return fmt.Errorf("unsupported value type %T for field %s", value, fieldName)
}
