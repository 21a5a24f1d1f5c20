package rmf

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"

	"golang.org/x/exp/constraints"
)

// ReadInt reads a fixed-width little-endian integer of type T at the cursor
// and advances past it. The encoded width equals the width of T.
func ReadInt[T constraints.Integer](c *Cursor) (T, error) {
	var value T

	buf, err := c.Read(int64(unsafe.Sizeof(value)))
	if err != nil {
		return value, err
	}

	var raw uint64
	for idx := len(buf) - 1; idx >= 0; idx-- {
		raw = raw<<8 | uint64(buf[idx])
	}

	return T(raw), nil
}

// ReadFloat32 reads an IEEE-754 single precision value.
func (c *Cursor) ReadFloat32() (float32, error) {
	buf, err := c.Read(4)
	if err != nil {
		return 0, err
	}

	return math.Float32frombits(binary.LittleEndian.Uint32(buf)), nil
}

// ReadFloat64 reads an IEEE-754 double precision value.
func (c *Cursor) ReadFloat64() (float64, error) {
	buf, err := c.Read(8)
	if err != nil {
		return 0, err
	}

	return math.Float64frombits(binary.LittleEndian.Uint64(buf)), nil
}

// ReadBytes reads a fixed-length span of n raw bytes.
func (c *Cursor) ReadBytes(n int64) ([]byte, error) {
	return c.Read(n)
}

// ReadString reads a string encoded as a uint32 length prefix followed by
// that many raw bytes. If the body is truncated the cursor is restored to
// the offset before the length prefix.
func (c *Cursor) ReadString() (string, error) {
	start := c.offset

	length, err := ReadInt[uint32](c)
	if err != nil {
		return "", fmt.Errorf("read string length: %w", err)
	}

	buf, err := c.Read(int64(length))
	if err != nil {
		c.SeekTo(start)
		return "", fmt.Errorf("read string of %d bytes: %w", length, err)
	}

	return string(buf), nil
}
