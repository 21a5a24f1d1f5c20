package rmf

// Cursor tracks a sequential read position over a [Source]. Reads advance
// the position, seeks reposition it. A Cursor holds unsynchronized mutable
// state and must not be shared between concurrent decodes.
type Cursor struct {
	source *Source
	offset int64
}

// NewCursor returns a Cursor positioned at the start of source.
func NewCursor(source *Source) *Cursor {
	return &Cursor{source: source}
}

// Pos returns the current byte offset.
func (c *Cursor) Pos() int64 {
	return c.offset
}

// Read copies the next n bytes out of the source and advances the cursor
// past them. On [OutOfBoundsError] the offset stays unchanged.
func (c *Cursor) Read(n int64) ([]byte, error) {
	region, err := c.source.Region(c.offset, n)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, n)
	copy(buf, region)

	c.offset += n

	return buf, nil
}

// Seek moves the cursor by delta bytes relative to the current position.
// Seek itself does not bounds-check; the next Read does.
func (c *Cursor) Seek(delta int64) {
	c.offset += delta
}

// SeekTo moves the cursor to an absolute offset.
func (c *Cursor) SeekTo(offset int64) {
	c.offset = offset
}
