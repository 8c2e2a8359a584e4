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

// Writer is a buffered writer over a possibly compressed file. It tracks
// the logical (uncompressed) offset so callers can record positions for
// later in-place patching on plain files.
type Writer struct {
	bw    *bufio.Writer
	f     *os.File
	enc   io.WriteCloser // compressor, nil for plain files
	comp  Compression
	path  string
	size  int
	off   int64
	fsync bool
}

// Create creates or truncates path for writing, layering the compressor
// chosen by the extension. bufSize of 0 selects DefaultBufferSize.
func Create(path string, bufSize int) (*Writer, error) {
	return CreateLevel(path, bufSize, 0)
}

// CreateLevel is Create with an explicit compression effort level,
// 1 (fastest) through 9 (smallest). Zero keeps the codec's default, and
// the level is ignored for plain files.
func CreateLevel(path string, bufSize, level int) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	w, err := newWriter(f, path, CompressionForPath(path), bufSize, level)
	if err != nil {
		f.Close()
		return nil, err
	}
	return w, nil
}

// OpenAppend opens an existing plain file for writing at its end.
// Compressed files cannot be appended to.
func OpenAppend(path string, bufSize int) (*Writer, error) {
	if CompressionForPath(path) != None {
		return nil, fmt.Errorf("append to %s: %w", path, ErrNotSeekable)
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}
	end, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		f.Close()
		return nil, err
	}
	w, err := newWriter(f, path, None, bufSize, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	w.off = end
	return w, nil
}

// ToWriter wraps an arbitrary stream, applying the given codec. Close
// finishes the compressor but does not close dst.
func ToWriter(dst io.Writer, comp Compression, bufSize int) (*Writer, error) {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	enc, err := compressor(dst, comp, 0)
	if err != nil {
		return nil, err
	}
	w := &Writer{comp: comp, size: bufSize, enc: enc}
	if enc != nil {
		w.bw = bufio.NewWriterSize(enc, bufSize)
	} else {
		w.bw = bufio.NewWriterSize(dst, bufSize)
	}
	return w, nil
}

func newWriter(f *os.File, path string, comp Compression, bufSize, level int) (*Writer, error) {
	if bufSize <= 0 {
		bufSize = DefaultBufferSize
	}
	enc, err := compressor(f, comp, level)
	if err != nil {
		return nil, err
	}
	w := &Writer{f: f, enc: enc, comp: comp, path: path, size: bufSize}
	if enc != nil {
		w.bw = bufio.NewWriterSize(enc, bufSize)
	} else {
		w.bw = bufio.NewWriterSize(f, bufSize)
	}
	return w, nil
}

// dictCaps maps effort levels 1..9 to LZMA dictionary capacities, the xz
// tool's preset sizes.
var dictCaps = [9]int{
	1 << 20, 2 << 20, 4 << 20, 4 << 20, 8 << 20,
	8 << 20, 16 << 20, 32 << 20, 64 << 20,
}

func compressor(dst io.Writer, comp Compression, level int) (io.WriteCloser, error) {
	if level > 9 {
		level = 9
	}
	switch comp {
	case None:
		return nil, nil
	case Gzip:
		if level < 1 {
			return gzip.NewWriter(dst), nil
		}
		gw, err := gzip.NewWriterLevel(dst, level)
		if err != nil {
			return nil, fmt.Errorf("gzip writer: %w", err)
		}
		return gw, nil
	case Xz:
		cfg := xz.WriterConfig{}
		if level >= 1 {
			cfg.DictCap = dictCaps[level-1]
		}
		xw, err := cfg.NewWriter(dst)
		if err != nil {
			return nil, fmt.Errorf("xz writer: %w", err)
		}
		return xw, nil
	case Lzma:
		cfg := lzma.WriterConfig{}
		if level >= 1 {
			cfg.DictCap = dictCaps[level-1]
		}
		lw, err := cfg.NewWriter(dst)
		if err != nil {
			return nil, fmt.Errorf("lzma writer: %w", err)
		}
		return lw, nil
	}
	return nil, fmt.Errorf("unknown compression %d", comp)
}

// Compression returns the codec in effect.
func (w *Writer) Compression() Compression { return w.comp }

// Seekable reports whether PatchAt and Disconnect work.
func (w *Writer) Seekable() bool { return w.comp == None && w.path != "" }

// Offset returns the logical number of bytes written so far.
func (w *Writer) Offset() int64 { return w.off }

func (w *Writer) Write(p []byte) (int, error) {
	if w.bw == nil {
		return 0, ErrDisconnected
	}
	n, err := w.bw.Write(p)
	w.off += int64(n)
	return n, err
}

func (w *Writer) WriteString(s string) (int, error) {
	if w.bw == nil {
		return 0, ErrDisconnected
	}
	n, err := w.bw.WriteString(s)
	w.off += int64(n)
	return n, err
}

func (w *Writer) WriteByte(b byte) error {
	if w.bw == nil {
		return ErrDisconnected
	}
	if err := w.bw.WriteByte(b); err != nil {
		return err
	}
	w.off++
	return nil
}

// Flush drains the buffer into the compressor or file.
func (w *Writer) Flush() error {
	if w.bw == nil {
		return ErrDisconnected
	}
	return w.bw.Flush()
}

// SetFsync makes Sync (and Close) force data to stable storage.
func (w *Writer) SetFsync(on bool) { w.fsync = on }

// Sync flushes buffered data and, when fsync is enabled on a plain file,
// forces it to disk.
func (w *Writer) Sync() error {
	if err := w.Flush(); err != nil {
		return err
	}
	if w.fsync && w.f != nil {
		return w.f.Sync()
	}
	return nil
}

// PatchAt overwrites previously written bytes at the given logical
// offset. Only plain files support this; the current position and offset
// accounting are unaffected.
func (w *Writer) PatchAt(off int64, p []byte) error {
	if w.f == nil {
		if w.path != "" {
			return ErrDisconnected
		}
		return ErrNotSeekable
	}
	if !w.Seekable() {
		return ErrNotSeekable
	}
	if err := w.bw.Flush(); err != nil {
		return err
	}
	_, err := w.f.WriteAt(p, off)
	return err
}

// Disconnect flushes and releases the OS file handle while keeping the
// writer's state, so a long-lived process does not pin the file open.
func (w *Writer) Disconnect() error {
	if !w.Seekable() {
		return ErrNotSeekable
	}
	if w.f == nil {
		return ErrDisconnected
	}
	if err := w.bw.Flush(); err != nil {
		return err
	}
	if w.fsync {
		if err := w.f.Sync(); err != nil {
			return err
		}
	}
	err := w.f.Close()
	w.f = nil
	w.bw = nil
	return err
}

// Reconnect reopens a disconnected writer at its recorded offset.
func (w *Writer) Reconnect() error {
	if w.f != nil {
		return nil
	}
	if w.path == "" {
		return ErrNotSeekable
	}
	f, err := os.OpenFile(w.path, os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	if _, err := f.Seek(w.off, io.SeekStart); err != nil {
		f.Close()
		return err
	}
	w.f = f
	w.bw = bufio.NewWriterSize(f, w.size)
	return nil
}

// Lock takes an exclusive advisory lock on the underlying file.
func (w *Writer) Lock() error {
	if w.f == nil {
		return ErrDisconnected
	}
	return LockFile(w.f)
}

// Close flushes, finishes the compressor, and closes the file.
func (w *Writer) Close() error {
	var err error
	if w.bw != nil {
		err = w.bw.Flush()
	}
	if w.enc != nil {
		if eerr := w.enc.Close(); err == nil {
			err = eerr
		}
		w.enc = nil
	}
	if w.f != nil {
		if w.fsync && err == nil {
			err = w.f.Sync()
		}
		if cerr := w.f.Close(); err == nil {
			err = cerr
		}
		w.f = nil
	}
	w.bw = nil
	return err
}
