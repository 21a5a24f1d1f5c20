package rmf

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func containerBytes(version float32, magic string, payload []byte) []byte {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], math.Float32bits(version))

	data := append(buf[:], magic...)
	return append(data, payload...)
}

func TestLoadValidContainer(t *testing.T) {
	var lines []string
	sink := func(line string) { lines = append(lines, line) }

	loader := NewLoader(containerBytes(2.0, "RMF", []byte{1, 2, 3}), "scene.rmf").WithSink(sink)

	err := loader.Load(RawRoot)
	require.NoError(t, err)

	require.True(t, loader.Ready())
	require.Equal(t, float32(2.0), loader.Version())
	require.Equal(t, "scene.rmf", loader.Label())
	require.Equal(t, RawRecord{Offset: 7, Bytes: []byte{1, 2, 3}}, loader.Root())

	require.Equal(t, []string{
		`scene.rmf+00000007: <rmf version="2">`,
		`scene.rmf+0000000a:   <raw size="3"/>`,
		`scene.rmf+0000000a: </rmf>`,
	}, lines)
}

func TestLoadVersionBoundsInclusive(t *testing.T) {
	for _, version := range []float32{1.6, 2.2} {
		loader := NewLoader(containerBytes(version, "RMF", nil), "v.rmf")
		require.NoError(t, loader.Load(RawRoot))
		require.Equal(t, version, loader.Version())
	}
}

func TestLoadUnsupportedVersionStrict(t *testing.T) {
	loader := NewLoader(containerBytes(0.5, "RMF", nil), "old.rmf")

	err := loader.Load(RawRoot)

	var unsupported UnsupportedVersionError
	require.ErrorAs(t, err, &unsupported)
	require.Equal(t, float32(0.5), unsupported.Version)

	require.False(t, loader.Ready())
	require.Nil(t, loader.Root())
}

func TestLoadUnsupportedVersionPermissive(t *testing.T) {
	var lines []string
	sink := func(line string) { lines = append(lines, line) }

	loader := NewLoader(containerBytes(0.5, "RMF", nil), "old.rmf").WithSink(sink).Permissive()

	require.NoError(t, loader.Load(RawRoot))
	require.True(t, loader.Ready())
	require.Equal(t, float32(0.5), loader.Version())

	require.Contains(t, lines[0], "unsupported RMF version 0.5")
}

func TestLoadInvalidMagicStrict(t *testing.T) {
	loader := NewLoader(containerBytes(2.0, "XYZ", nil), "bad.rmf")

	err := loader.Load(RawRoot)

	var invalid InvalidMagicError
	require.ErrorAs(t, err, &invalid)
	require.Equal(t, [3]byte{'X', 'Y', 'Z'}, invalid.Magic)

	require.False(t, loader.Ready())
	require.Nil(t, loader.Root())
}

func TestLoadInvalidMagicPermissive(t *testing.T) {
	var lines []string
	sink := func(line string) { lines = append(lines, line) }

	loader := NewLoader(containerBytes(2.0, "XYZ", nil), "bad.rmf").WithSink(sink).Permissive()

	require.NoError(t, loader.Load(RawRoot))
	require.True(t, loader.Ready())

	require.Contains(t, lines[0], `invalid RMF magic number "XYZ"`)
}

func TestLoadTruncatedHeader(t *testing.T) {
	loader := NewLoader([]byte{1, 2}, "short.rmf")

	var oob OutOfBoundsError
	err := loader.Load(RawRoot)
	require.ErrorAs(t, err, &oob)
	require.False(t, loader.Ready())
}

func TestLoadTruncatedBody(t *testing.T) {
	// two payload bytes, the builder wants four
	loader := NewLoader(containerBytes(2.0, "RMF", []byte{1, 2}), "trunc.rmf")

	err := loader.Load(func(l *Loader) (any, error) {
		_, err := l.Cursor().ReadFloat32()
		return nil, err
	})

	var oob OutOfBoundsError
	require.ErrorAs(t, err, &oob)

	require.False(t, loader.Ready())
	require.Nil(t, loader.Root())
	require.EqualValues(t, 7, loader.Cursor().Pos())
}

func TestLoadTwice(t *testing.T) {
	loader := NewLoader(containerBytes(2.0, "RMF", nil), "twice.rmf")

	require.NoError(t, loader.Load(RawRoot))
	require.ErrorIs(t, loader.Load(RawRoot), ErrAlreadyLoaded)
}

func TestRootBuilderContext(t *testing.T) {
	var lines []string
	sink := func(line string) { lines = append(lines, line) }

	payload := append([]byte{4, 0, 0, 0}, "root"...)
	loader := NewLoader(containerBytes(2.0, "RMF", payload), "ctx.rmf").WithSink(sink)

	err := loader.Load(func(l *Loader) (any, error) {
		l.Trace().Open("node")
		defer l.Trace().Close()

		return l.Cursor().ReadString()
	})
	require.NoError(t, err)
	require.Equal(t, "root", loader.Root())

	require.Equal(t, []string{
		`ctx.rmf+00000007: <rmf version="2">`,
		`ctx.rmf+00000007:   <node>`,
		`ctx.rmf+0000000f:   </node>`,
		`ctx.rmf+0000000f: </rmf>`,
	}, lines)
}

func TestNewLoaderFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.rmf")
	err := os.WriteFile(path, containerBytes(2.0, "RMF", []byte{7}), 0o644)
	require.NoError(t, err)

	loader, err := NewLoaderFromFile(path)
	require.NoError(t, err)
	require.Equal(t, "cube.rmf", loader.Label())

	require.NoError(t, loader.Load(RawRoot))
	require.Equal(t, RawRecord{Offset: 7, Bytes: []byte{7}}, loader.Root())
}

func TestNewLoaderFromFileMissing(t *testing.T) {
	_, err := NewLoaderFromFile(filepath.Join(t.TempDir(), "nope.rmf"))
	require.Error(t, err)
}
