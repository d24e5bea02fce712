// Package codec converts fixed width values to and from their on disk bytes.
// A database file is tagged with a single byte order when it is created and
// every integer and offset in the file is encoded in that order. Floating
// point values are stored by byte reinterpretation and are never swapped.
package codec

import (
	"encoding/binary"
	"fmt"
	"math"
)

// ByteOrder selects the integer byte order for a database file.
type ByteOrder int

const (
	LittleEndian ByteOrder = iota
	BigEndian
)

// OffsetSize is the width of a file offset on disk.
const OffsetSize = 8

// SizeSize is the width of an unsigned size value on disk.
const SizeSize = 8

// Codec encodes and decodes values in a fixed byte order. The zero value
// encodes little endian.
type Codec struct {
	order ByteOrder
}

func New(order ByteOrder) Codec {
	return Codec{order: order}
}

func (c Codec) Order() ByteOrder {
	return c.order
}

func (c Codec) byteOrder() binary.ByteOrder {
	if c.order == BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// mustWidth asserts a decode buffer has exactly the declared width. A shorter
// or longer buffer means the caller sliced the page image wrong, which is not
// recoverable.
func mustWidth(b []byte, n int) {
	if len(b) != n {
		panic(fmt.Sprintf("codec: decode width mismatch: got %d bytes want %d", len(b), n))
	}
}

func (c Codec) PutUint64(b []byte, v uint64) {
	mustWidth(b, 8)
	c.byteOrder().PutUint64(b, v)
}

func (c Codec) Uint64(b []byte) uint64 {
	mustWidth(b, 8)
	return c.byteOrder().Uint64(b)
}

func (c Codec) PutUint32(b []byte, v uint32) {
	mustWidth(b, 4)
	c.byteOrder().PutUint32(b, v)
}

func (c Codec) Uint32(b []byte) uint32 {
	mustWidth(b, 4)
	return c.byteOrder().Uint32(b)
}

// PutOffset encodes a signed file offset. 0 is the reserved "no page" value.
func (c Codec) PutOffset(b []byte, off int64) {
	mustWidth(b, OffsetSize)
	c.byteOrder().PutUint64(b, uint64(off))
}

func (c Codec) Offset(b []byte) int64 {
	mustWidth(b, OffsetSize)
	return int64(c.byteOrder().Uint64(b))
}

// PutUint encodes v into a field of 1 to 8 bytes. Values wider than the field
// are truncated to the field width.
func (c Codec) PutUint(b []byte, v uint64) {
	if len(b) == 0 || len(b) > 8 {
		panic(fmt.Sprintf("codec: integer field width %d out of range", len(b)))
	}
	if c.order == BigEndian {
		for i := len(b) - 1; i >= 0; i-- {
			b[i] = byte(v)
			v >>= 8
		}
		return
	}
	for i := range b {
		b[i] = byte(v)
		v >>= 8
	}
}

// Uint decodes an unsigned integer field of 1 to 8 bytes.
func (c Codec) Uint(b []byte) uint64 {
	if len(b) == 0 || len(b) > 8 {
		panic(fmt.Sprintf("codec: integer field width %d out of range", len(b)))
	}
	var v uint64
	if c.order == BigEndian {
		for _, by := range b {
			v = v<<8 | uint64(by)
		}
		return v
	}
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

// Floats are reinterpreted bytes, not swapped, so their layout does not
// depend on the configured order.

func (c Codec) PutFloat32(b []byte, v float32) {
	mustWidth(b, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
}

func (c Codec) Float32(b []byte) float32 {
	mustWidth(b, 4)
	return math.Float32frombits(binary.LittleEndian.Uint32(b))
}

func (c Codec) PutFloat64(b []byte, v float64) {
	mustWidth(b, 8)
	binary.LittleEndian.PutUint64(b, math.Float64bits(v))
}

func (c Codec) Float64(b []byte) float64 {
	mustWidth(b, 8)
	return math.Float64frombits(binary.LittleEndian.Uint64(b))
}
