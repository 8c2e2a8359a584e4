package sdds

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/robert-malhotra/go-sdds/internal/filebuf"
	"github.com/robert-malhotra/go-sdds/internal/layout"
	"github.com/robert-malhotra/go-sdds/internal/namelist"
)

// Dataset is an open SDDS file, reading or writing one page at a time.
// A Dataset is not safe for concurrent use.
type Dataset struct {
	cfg  config
	path string

	layout   *layout.Layout // current schema, including programmatic edits
	original *layout.Layout // schema as written to or read from disk
	saved    *layout.Layout // SaveLayout snapshot

	reading bool
	writing bool
	closed  bool

	r    *filebuf.Reader
	scan *namelist.Scanner
	w    *filebuf.Writer

	order binary.ByteOrder // byte order of binary page bodies

	page page

	pageNum     int   // 1-based number of the current page, 0 before any
	layoutDone  bool  // header parsed (input) or written (output)
	fixedRows   int   // row count locked by the first page in fixed mode
	rowsFlushed int   // output: rows of the current page already on disk
	countOffset int64 // output: patchable row-count position, -1 if none
	recovered   bool  // input: current page was truncated and kept partial
	pageOffsets []int64

	errs []string
}

// Open opens an SDDS file for reading and parses its header. Compression
// is inferred from the file extension.
func Open(path string, opts ...Option) (*Dataset, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	r, err := filebuf.Open(path, cfg.bufSize)
	if err != nil {
		return nil, err
	}
	d := &Dataset{cfg: cfg, path: path, reading: true, r: r, fixedRows: -1}
	if err := d.readLayout(); err != nil {
		r.Close()
		return nil, err
	}
	cfg.logger.Debug("opened dataset",
		"path", path,
		"mode", d.layout.Mode.Encoding.String(),
		"columns", len(d.layout.Columns),
		"parameters", len(d.layout.Parameters),
		"arrays", len(d.layout.Arrays))
	return d, nil
}

// FromReader reads an SDDS stream. The stream must already be
// uncompressed; pages arrive sequentially and cannot be revisited.
func FromReader(rd io.Reader, opts ...Option) (*Dataset, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	r, err := filebuf.FromReader(rd, filebuf.None, cfg.bufSize)
	if err != nil {
		return nil, err
	}
	d := &Dataset{cfg: cfg, reading: true, r: r, fixedRows: -1}
	if err := d.readLayout(); err != nil {
		return nil, err
	}
	return d, nil
}

// Create creates an SDDS file for writing. The header is not written
// until WriteLayout or the first WritePage, so definitions may still be
// added. Compression is inferred from the file extension.
func Create(path string, opts ...Option) (*Dataset, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	w, err := filebuf.CreateLevel(path, cfg.bufSize, cfg.compressLevel)
	if err != nil {
		return nil, err
	}
	d := newOutput(cfg, w)
	d.path = path
	return d, nil
}

// ToWriter writes an SDDS stream to w without compression. Operations
// that patch earlier bytes, such as UpdatePage, are unavailable.
func ToWriter(w io.Writer, opts ...Option) (*Dataset, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	fw, err := filebuf.ToWriter(w, filebuf.None, cfg.bufSize)
	if err != nil {
		return nil, err
	}
	return newOutput(cfg, fw), nil
}

func newOutput(cfg config, w *filebuf.Writer) *Dataset {
	l := layout.New()
	l.Mode = cfg.mode
	if l.Mode.LinesPerRow < 1 {
		l.Mode.LinesPerRow = 1
	}
	l.Description = cfg.description
	return &Dataset{
		cfg:         cfg,
		writing:     true,
		w:           w,
		layout:      l,
		fixedRows:   -1,
		countOffset: -1,
	}
}

// OpenAppend opens an existing uncompressed SDDS file and positions it
// for writing additional pages under the layout already on disk.
func OpenAppend(path string, opts ...Option) (*Dataset, error) {
	in, err := Open(path, opts...)
	if err != nil {
		return nil, err
	}
	pages := 0
	fixedRows := -1
	for {
		if _, err := in.ReadPage(); err == io.EOF {
			break
		} else if err != nil {
			in.Close()
			return nil, fmt.Errorf("scanning %s for append: %w", path, err)
		}
		if pages == 0 {
			fixedRows = in.RowCount()
		}
		pages++
	}
	l := in.layout.Clone()
	cfg := in.cfg
	if err := in.Close(); err != nil {
		return nil, err
	}

	w, err := filebuf.OpenAppend(path, cfg.bufSize)
	if err != nil {
		return nil, err
	}
	d := newOutput(cfg, w)
	d.path = path
	d.layout = l
	d.original = l.Clone()
	d.layoutDone = true
	d.pageNum = pages
	d.order = orderFor(l.Mode.Endian)
	if l.Mode.FixedRowCount {
		d.fixedRows = fixedRows
	}
	return d, nil
}

// Close flushes pending output and releases the file. It is safe to call
// more than once.
func (d *Dataset) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if d.r != nil {
		return d.r.Close()
	}
	if d.w != nil {
		return d.w.Close()
	}
	return nil
}

// Layout returns a copy of the dataset's current schema.
func (d *Dataset) Layout() *layout.Layout { return d.layout.Clone() }

// Path returns the file path, if any.
func (d *Dataset) Path() string { return d.path }

// Version returns the format version from the file's first line, or the
// version new files are written with.
func (d *Dataset) Version() int { return int(d.layout.Version) }

// Mode returns the dataset's data mode: encoding, row ordering, and the
// ASCII page shaping fields.
func (d *Dataset) Mode() DataMode { return d.layout.Mode }

// CurrentPage returns the 1-based number of the page last read or
// started, or 0.
func (d *Dataset) CurrentPage() int { return d.pageNum }

// GetDescription returns the file description text and contents.
func (d *Dataset) GetDescription() (text, contents string) {
	return d.layout.Description.Text, d.layout.Description.Contents
}

// SetDescription replaces the file description. It fails once the header
// has been written.
func (d *Dataset) SetDescription(text, contents string) error {
	if err := d.requireUnwrittenLayout(); err != nil {
		return err
	}
	d.layout.Description = layout.Description{Text: text, Contents: contents}
	return nil
}

// SetFsync makes page writes force data to stable storage.
func (d *Dataset) SetFsync(on bool) {
	if d.w != nil {
		d.w.SetFsync(on)
	}
}

// Sync flushes buffered output, forcing it to disk when fsync is enabled.
// A memory dataset has nothing to flush.
func (d *Dataset) Sync() error {
	if err := d.requireWriting(); err != nil {
		return err
	}
	if d.w == nil {
		return nil
	}
	return d.fail(d.w.Sync())
}

// Disconnect flushes and releases the OS file handle while keeping page
// state in memory, so a long-lived writer does not pin the file open.
func (d *Dataset) Disconnect() error {
	if err := d.requireOutputFile(); err != nil {
		return err
	}
	return d.fail(d.w.Disconnect())
}

// Reconnect restores a disconnected dataset's file handle.
func (d *Dataset) Reconnect() error {
	if err := d.requireOutputFile(); err != nil {
		return err
	}
	return d.fail(d.w.Reconnect())
}

// LockFile takes an exclusive advisory lock on the output file.
func (d *Dataset) LockFile() error {
	if err := d.requireOutputFile(); err != nil {
		return err
	}
	return d.fail(d.w.Lock())
}

func (d *Dataset) requireReading() error {
	if d.closed {
		return d.fail(ErrClosed)
	}
	if !d.reading {
		return d.failf(ErrSchema, "dataset is not open for reading")
	}
	return nil
}

func (d *Dataset) requireWriting() error {
	if d.closed {
		return d.fail(ErrClosed)
	}
	if !d.writing {
		return d.failf(ErrSchema, "dataset is not open for writing")
	}
	return nil
}

func (d *Dataset) requireUnwrittenLayout() error {
	if err := d.requireWriting(); err != nil {
		return err
	}
	if d.layoutDone {
		return d.fail(ErrLayoutWritten)
	}
	return nil
}

func (d *Dataset) requireOutputFile() error {
	if err := d.requireWriting(); err != nil {
		return err
	}
	if d.w == nil {
		return d.failf(ErrSchema, "dataset is memory only")
	}
	return nil
}

// readLayout parses the version line and header namelists, leaving the
// shared reader positioned at the first byte of the first page.
func (d *Dataset) readLayout() error {
	line, err := d.r.ReadString('\n')
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotSDDS, err)
	}
	version, ok := parseVersionLine(line)
	if !ok {
		return fmt.Errorf("%w: bad version line %q", ErrNotSDDS, strings.TrimSpace(line))
	}

	l := layout.New()
	l.Version = int32(version)
	sc := namelist.NewScanner(d.r)
	if d.path != "" {
		dir := filepath.Dir(d.path)
		sc.SetIncludeOpener(func(p string) (io.ReadCloser, error) {
			if !filepath.IsAbs(p) {
				p = filepath.Join(dir, p)
			}
			return os.Open(p)
		})
	}

	for {
		tag, err := sc.Next()
		if err == io.EOF {
			return fmt.Errorf("%w: header ends without &data", ErrSchema)
		}
		if err != nil {
			return fmt.Errorf("%w: %w", ErrSchema, err)
		}
		switch tag.Name {
		case "description":
			desc, err := layout.DescriptionFromTag(tag)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrSchema, err)
			}
			l.Description = desc
		case "parameter":
			def, err := layout.ParameterFromTag(tag)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrSchema, err)
			}
			if err := d.checkName(def.Name, "parameter"); err != nil {
				return err
			}
			if _, err := l.AddParameter(def); err != nil {
				return fmt.Errorf("%w: %w", ErrSchema, err)
			}
		case "column":
			def, err := layout.ColumnFromTag(tag)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrSchema, err)
			}
			if err := d.checkName(def.Name, "column"); err != nil {
				return err
			}
			if _, err := l.AddColumn(def); err != nil {
				return fmt.Errorf("%w: %w", ErrSchema, err)
			}
		case "array":
			def, err := layout.ArrayFromTag(tag)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrSchema, err)
			}
			if err := d.checkName(def.Name, "array"); err != nil {
				return err
			}
			if _, err := l.AddArray(def); err != nil {
				return fmt.Errorf("%w: %w", ErrSchema, err)
			}
		case "associate":
			def, err := layout.AssociateFromTag(tag)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrSchema, err)
			}
			if _, err := l.AddAssociate(def); err != nil {
				return fmt.Errorf("%w: %w", ErrSchema, err)
			}
		case "data":
			mode, err := layout.DataModeFromTag(tag)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrSchema, err)
			}
			// The rest of the &data line is consumed so the reader
			// lands exactly on the first body byte.
			if err := sc.SkipLine(); err != nil && err != io.EOF {
				return fmt.Errorf("%w: %w", ErrSchema, err)
			}
			flags := sc.Flags()
			if mode.Endian == layout.EndianUnspecified {
				switch {
				case flags.BigEndian:
					mode.Endian = layout.EndianBig
				case flags.LittleEndian:
					mode.Endian = layout.EndianLittle
				}
			}
			if flags.FixedRowCount {
				mode.FixedRowCount = true
			}
			l.Mode = mode
			d.layout = l
			d.original = l.Clone()
			d.scan = sc
			d.order = orderFor(mode.Endian)
			d.layoutDone = true
			d.page.bind(l)
			return nil
		default:
			return fmt.Errorf("%w: unrecognized namelist &%s", ErrSchema, tag.Name)
		}
	}
}

func (d *Dataset) checkName(name, class string) error {
	if d.cfg.anyName || layout.ValidName(name) {
		return nil
	}
	return fmt.Errorf("%w: invalid %s name %q", ErrSchema, class, name)
}

func parseVersionLine(line string) (int, bool) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, "SDDS") {
		return 0, false
	}
	v, err := strconv.Atoi(line[4:])
	if err != nil || v < 1 || v > layout.Version {
		return 0, false
	}
	return v, true
}

func orderFor(e layout.Endianness) binary.ByteOrder {
	switch e {
	case layout.EndianBig:
		return binary.BigEndian
	case layout.EndianLittle:
		return binary.LittleEndian
	}
	return binary.NativeEndian
}

func nativeEndianness() layout.Endianness {
	if binary.NativeEndian.Uint16([]byte{0x01, 0x00}) == 1 {
		return layout.EndianLittle
	}
	return layout.EndianBig
}
