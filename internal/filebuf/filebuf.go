// Package filebuf provides buffered file I/O with transparent gzip, xz,
// and lzma compression selected by file extension. Plain files keep their
// seek and in-place patch abilities; compressed streams are sequential
// only, and operations that need random access report ErrNotSeekable.
package filebuf

import (
	"errors"
	"path/filepath"
	"strings"
)

// DefaultBufferSize is the buffer applied when the caller passes 0.
const DefaultBufferSize = 262144

// ErrNotSeekable is returned for positioning operations on compressed
// streams, and ErrDisconnected for I/O on a writer whose file handle has
// been released.
var (
	ErrNotSeekable  = errors.New("filebuf: compressed stream is not seekable")
	ErrDisconnected = errors.New("filebuf: file is disconnected")
)

// Compression identifies the stream codec layered under the buffer.
type Compression int

const (
	None Compression = iota
	Gzip
	Xz
	Lzma
)

func (c Compression) String() string {
	switch c {
	case Gzip:
		return "gzip"
	case Xz:
		return "xz"
	case Lzma:
		return "lzma"
	}
	return "none"
}

// CompressionForPath returns the codec implied by the path's extension.
// There is no content sniffing; the name alone decides.
func CompressionForPath(path string) Compression {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		return Gzip
	case ".xz":
		return Xz
	case ".lzma":
		return Lzma
	}
	return None
}
