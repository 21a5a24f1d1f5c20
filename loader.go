package rmf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Supported container versions, inclusive.
const (
	MinSupportedVersion = 1.6
	MaxSupportedVersion = 2.2
)

// magic identifies an RMF stream. It follows the version float.
var magic = [3]byte{'R', 'M', 'F'}

var ErrAlreadyLoaded = errors.New("document already loaded")

// UnsupportedVersionError reports a container version outside the supported
// range.
type UnsupportedVersionError struct {
	Version float32
}

func (e UnsupportedVersionError) Error() string {
	return fmt.Sprintf("unsupported RMF version %g (only versions %g through %g are supported)",
		e.Version, MinSupportedVersion, MaxSupportedVersion)
}

// InvalidMagicError reports a stream that does not carry the RMF magic
// marker.
type InvalidMagicError struct {
	Magic [3]byte
}

func (e InvalidMagicError) Error() string {
	return fmt.Sprintf("invalid RMF magic number %q", e.Magic[:])
}

// RootFunc builds the root record of a document. It receives the loader as
// decoding context and is expected to consume bytes through the loader's
// cursor and to wrap its read spans in trace scopes. Any error, in
// particular a propagated [OutOfBoundsError], aborts the load.
type RootFunc func(*Loader) (any, error)

type loaderState int

const (
	stateUnloaded loaderState = iota
	stateHeaderValidated
	stateRootBuilt
	stateReady
)

// Loader decodes one RMF document from an in-memory buffer. It owns the
// cursor and trace for that decode; both are unsynchronized, so a Loader
// must not be shared between concurrent decodes. The underlying [Source]
// may be shared read-only across loaders.
type Loader struct {
	source *Source
	label  string
	cursor *Cursor
	trace  *Trace

	permissive bool
	state      loaderState
	version    float32
	root       any
}

// NewLoader returns a Loader over data. The label identifies the data
// source in diagnostics (eg. a filename); it carries no other meaning.
func NewLoader(data []byte, label string) *Loader {
	l := &Loader{
		source: NewSource(data),
		label:  label,
	}
	l.cursor = NewCursor(l.source)
	l.trace = NewTrace(nil, label, l.cursor.Pos)

	return l
}

// NewLoaderFromFile reads path into memory and returns a Loader over it,
// labeled with the file's basename.
func NewLoaderFromFile(path string) (*Loader, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load RMF data: %w", err)
	}

	return NewLoader(data, filepath.Base(path)), nil
}

// WithSink directs the structural trace to sink. By default trace output
// is discarded.
func (l *Loader) WithSink(sink Sink) *Loader {
	l.trace = NewTrace(sink, l.label, l.cursor.Pos)
	return l
}

// Permissive downgrades header validation failures from errors to trace
// diagnostics, matching the behavior of legacy readers that load past an
// unsupported version or a bad magic number.
func (l *Loader) Permissive() *Loader {
	l.permissive = true
	return l
}

// Load validates the container header, then delegates construction of the
// root record to build. Load decodes at most once per Loader; a second
// call returns [ErrAlreadyLoaded].
func (l *Loader) Load(build RootFunc) error {
	if l.state != stateUnloaded {
		return ErrAlreadyLoaded
	}

	version, err := l.cursor.ReadFloat32()
	if err != nil {
		return fmt.Errorf("read version: %w", err)
	}
	l.version = version

	if version < MinSupportedVersion || version > MaxSupportedVersion {
		if err := l.reportHeader(UnsupportedVersionError{Version: version}); err != nil {
			return err
		}
	}

	buf, err := l.cursor.Read(3)
	if err != nil {
		return fmt.Errorf("read magic: %w", err)
	}
	if !bytes.Equal(buf, magic[:]) {
		if err := l.reportHeader(InvalidMagicError{Magic: [3]byte(buf)}); err != nil {
			return err
		}
	}
	l.state = stateHeaderValidated

	l.trace.Open("rmf", AttrF("version", "%g", version))

	root, err := build(l)
	if err != nil {
		return fmt.Errorf("build root record: %w", err)
	}
	l.root = root
	l.state = stateRootBuilt

	l.trace.Close()
	l.state = stateReady

	return nil
}

// reportHeader applies the strictness policy to a header validation
// failure.
func (l *Loader) reportHeader(err error) error {
	if !l.permissive {
		return err
	}

	l.trace.Leaf("warning", err.Error())
	return nil
}

// Ready reports whether a document has been fully decoded.
func (l *Loader) Ready() bool {
	return l.state == stateReady
}

// Version returns the container version of the loaded document.
func (l *Loader) Version() float32 {
	return l.version
}

// Root returns the root record, or nil before the document is fully
// decoded.
func (l *Loader) Root() any {
	if l.state != stateReady {
		return nil
	}

	return l.root
}

// Label returns the human-readable source label.
func (l *Loader) Label() string {
	return l.label
}

// Cursor returns the loader's read position tracker. Root builders use it
// to consume bytes of the document body.
func (l *Loader) Cursor() *Cursor {
	return l.cursor
}

// Trace returns the loader's structural trace. Root builders use it to
// annotate their read spans.
func (l *Loader) Trace() *Trace {
	return l.trace
}

// Source returns the underlying buffer.
func (l *Loader) Source() *Source {
	return l.source
}

// RawRecord is an opaque root record holding the undecoded remainder of a
// document.
type RawRecord struct {
	// Offset is the position of the first captured byte.
	Offset int64

	// Bytes is the remainder of the document body.
	Bytes []byte
}

// RawRoot is a [RootFunc] that captures the remaining bytes of the document
// without interpreting them. Useful for inspecting containers whose record
// types are not known to the caller.
func RawRoot(l *Loader) (any, error) {
	offset := l.cursor.Pos()

	buf, err := l.cursor.Read(l.source.Len() - offset)
	if err != nil {
		return nil, err
	}

	l.trace.Leaf("raw", "", AttrF("size", "%d", len(buf)))

	return RawRecord{Offset: offset, Bytes: buf}, nil
}
