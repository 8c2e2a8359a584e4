package sdds

import (
	"io"
	"log/slog"

	"github.com/robert-malhotra/go-sdds/internal/filebuf"
	"github.com/robert-malhotra/go-sdds/internal/layout"
)

// Option configures a Dataset at open or create time.
type Option func(*config)

type config struct {
	bufSize       int
	logger        *slog.Logger
	autoRecover   bool
	rowLimit      int
	anyName       bool
	compressLevel int

	// output shaping
	mode        layout.DataMode
	description layout.Description
}

func defaultConfig() config {
	return config{
		bufSize: filebuf.DefaultBufferSize,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		mode: layout.DataMode{
			Encoding:    layout.EncodingBinary,
			LinesPerRow: 1,
		},
	}
}

// WithIOBufferSize sets the read/write buffer size in bytes.
func WithIOBufferSize(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.bufSize = n
		}
	}
}

// WithCompressionLevel sets the effort level, 1 (fastest) through
// 9 (smallest), for gzip, xz, and lzma output. Zero keeps each codec's
// default; plain files ignore it.
func WithCompressionLevel(n int) Option {
	return func(c *config) {
		if n >= 0 && n <= 9 {
			c.compressLevel = n
		}
	}
}

// WithLogger routes diagnostic logging to l. The default discards it.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithAutoRecovery makes a page whose declared row count exceeds the data
// actually present decode to the partial rows instead of failing.
func WithAutoRecovery(on bool) Option {
	return func(c *config) { c.autoRecover = on }
}

// WithRowLimit caps the rows kept per page on read; excess rows are
// consumed and dropped. Zero means no limit.
func WithRowLimit(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.rowLimit = n
		}
	}
}

// WithAnyName disables the definition-name validity rule.
func WithAnyName() Option {
	return func(c *config) { c.anyName = true }
}

// WithEncoding selects ASCII or binary page bodies for a new file.
func WithEncoding(enc Encoding) Option {
	return func(c *config) { c.mode.Encoding = enc }
}

// WithEndian forces the byte order of binary pages for a new file. The
// default is the writer's native order.
func WithEndian(e Endianness) Option {
	return func(c *config) { c.mode.Endian = e }
}

// WithColumnMajorOrder stores binary pages one whole column at a time.
func WithColumnMajorOrder() Option {
	return func(c *config) { c.mode.ColumnMajorOrder = true }
}

// WithRowMajorOrder stores binary pages one row at a time. This is the
// default for new files; it exists to override a column-major mode
// inherited through CreateCopy.
func WithRowMajorOrder() Option {
	return func(c *config) { c.mode.ColumnMajorOrder = false }
}

// WithNoRowCounts ends ASCII pages with a blank line instead of declaring
// a row count up front.
func WithNoRowCounts() Option {
	return func(c *config) { c.mode.NoRowCounts = true }
}

// WithRowCounts restores up-front row counts, overriding a no-row-counts
// mode inherited through CreateCopy. Binary output requires counts.
func WithRowCounts() Option {
	return func(c *config) { c.mode.NoRowCounts = false }
}

// WithFixedRowCount requires every page to carry the same row count,
// recorded in a patchable field so the file supports in-place updates.
func WithFixedRowCount() Option {
	return func(c *config) { c.mode.FixedRowCount = true }
}

// WithVariableRowCount clears a fixed-row-count mode inherited through
// CreateCopy, letting pages differ in length again.
func WithVariableRowCount() Option {
	return func(c *config) { c.mode.FixedRowCount = false }
}

// WithLinesPerRow spreads each ASCII row over n text lines.
func WithLinesPerRow(n int) Option {
	return func(c *config) {
		if n >= 1 {
			c.mode.LinesPerRow = int32(n)
		}
	}
}

// WithAdditionalHeaderLines reserves n blank lines after an ASCII header
// for later in-place layout edits.
func WithAdditionalHeaderLines(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.mode.AdditionalHeaderLines = int32(n)
		}
	}
}

// WithDescription sets the file's description text and contents tag.
func WithDescription(text, contents string) Option {
	return func(c *config) {
		c.description = layout.Description{Text: text, Contents: contents}
	}
}
