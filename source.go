package rmf

import "fmt"

// OutOfBoundsError is returned when a region request does not fit into the
// underlying buffer. The failed read is fatal to the decode in progress.
type OutOfBoundsError struct {
	// Offset is the start of the requested region.
	Offset int64

	// Length is the requested number of bytes.
	Length int64

	// Size is the total length of the buffer.
	Size int64
}

func (e OutOfBoundsError) Error() string {
	return fmt.Sprintf("read of %d bytes at offset %d exceeds buffer of %d bytes", e.Length, e.Offset, e.Size)
}

// Source is an immutable byte buffer of known length. A Source never mutates
// after construction and is safe to share between any number of concurrent
// readers.
type Source struct {
	data []byte
}

// NewSource wraps data in a [Source]. The caller must not modify data
// afterwards.
func NewSource(data []byte) *Source {
	return &Source{data: data}
}

// Len returns the total length of the buffer in bytes.
func (s *Source) Len() int64 {
	return int64(len(s.data))
}

// Region returns the n bytes starting at offset. The returned slice aliases
// the buffer and must be treated as read-only. Region fails with
// [OutOfBoundsError] if the requested span does not fit into the buffer.
func (s *Source) Region(offset, n int64) ([]byte, error) {
	// offset+n may overflow for huge values, compare against the
	// remaining length instead
	if offset < 0 || n < 0 || offset > int64(len(s.data)) || n > int64(len(s.data))-offset {
		return nil, OutOfBoundsError{Offset: offset, Length: n, Size: int64(len(s.data))}
	}

	return s.data[offset : offset+n], nil
}
