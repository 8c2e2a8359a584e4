package filebuf

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"os"

	"github.com/ulikunitz/xz"
	"github.com/ulikunitz/xz/lzma"
)

// Reader is a buffered reader over a possibly compressed file. The
// embedded bufio.Reader supplies byte-at-a-time scanning for header
// parsing and bulk reads for page bodies from one shared position.
type Reader struct {
	*bufio.Reader
	f    *os.File
	decC io.Closer // gzip decompressor, nil otherwise
	comp Compression
	size int
}

// Open opens path for reading, layering the decompressor chosen by the
// extension. bufSize of 0 selects DefaultBufferSize.
func Open(path string, bufSize int) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	r, err := newReader(f, CompressionForPath(path), bufSize)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// FromReader wraps an arbitrary stream, applying the given codec. The
// result is never seekable. Close does not close rd.
func FromReader(rd io.Reader, comp Compression, bufSize int) (*Reader, error) {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	dec, decC, err := decompressor(rd, comp)
	if err != nil {
		return nil, err
	}
	return &Reader{
		Reader: bufio.NewReaderSize(dec, bufSize),
		decC:   decC,
		comp:   comp,
		size:   bufSize,
	}, nil
}

func newReader(f *os.File, comp Compression, bufSize int) (*Reader, error) {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	dec, decC, err := decompressor(f, comp)
	if err != nil {
		return nil, err
	}
	return &Reader{
		Reader: bufio.NewReaderSize(dec, bufSize),
		f:      f,
		decC:   decC,
		comp:   comp,
		size:   bufSize,
	}, nil
}

func decompressor(r io.Reader, comp Compression) (io.Reader, io.Closer, error) {
	switch comp {
	case None:
		return r, nil, nil
	case Gzip:
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip reader: %w", err)
		}
		return zr, zr, nil
	case Xz:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("xz reader: %w", err)
		}
		return xr, nil, nil
	case Lzma:
		lr, err := lzma.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("lzma reader: %w", err)
		}
		return lr, nil, nil
	}
	return nil, nil, fmt.Errorf("unknown compression %d", comp)
}

// Compression returns the codec in effect.
func (r *Reader) Compression() Compression { return r.comp }

// Seekable reports whether Offset and SeekTo work.
func (r *Reader) Seekable() bool { return r.f != nil && r.comp == None }

// Offset returns the position of the next byte the caller would read.
func (r *Reader) Offset() (int64, error) {
	if !r.Seekable() {
		return 0, ErrNotSeekable
	}
	pos, err := r.f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	return pos - int64(r.Buffered()), nil
}

// SeekTo repositions the reader, discarding buffered data.
func (r *Reader) SeekTo(off int64) error {
	if !r.Seekable() {
		return ErrNotSeekable
	}
	if _, err := r.f.Seek(off, io.SeekStart); err != nil {
		return err
	}
	r.Reset(r.f)
	return nil
}

// Close releases the decompressor and the file.
func (r *Reader) Close() error {
	var err error
	if r.decC != nil {
		err = r.decC.Close()
		r.decC = nil
	}
	if r.f != nil {
		if cerr := r.f.Close(); err == nil {
			err = cerr
		}
		r.f = nil
	}
	return err
}
