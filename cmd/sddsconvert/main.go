// Command sddsconvert rewrites an SDDS file in a different
// representation: binary or ASCII pages, either byte order, row- or
// column-major storage, a subset of the columns, and compression chosen
// by the output file extension.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"github.com/robert-malhotra/go-sdds/sdds"
)

var cli struct {
	Input  string `arg:"" help:"Source SDDS file." type:"existingfile"`
	Output string `arg:"" help:"Destination file; a .gz or .xz suffix selects compression." type:"path"`

	Binary bool `help:"Write binary pages." xor:"enc"`
	ASCII  bool `help:"Write ASCII pages." xor:"enc"`

	Endian      string `help:"Byte order of binary pages." enum:"keep,native,big,little" default:"keep"`
	ColumnMajor bool   `help:"Store binary pages one column at a time." xor:"order"`
	RowMajor    bool   `help:"Store binary pages one row at a time." xor:"order"`
	Level       int    `help:"Compression effort, 1 (fastest) to 9 (smallest); 0 keeps the codec default." default:"0"`

	KeepColumns   []string `help:"Glob patterns of columns to keep; everything else is dropped." sep:","`
	DeleteColumns []string `help:"Glob patterns of columns to drop." sep:","`

	Sparse   int `help:"Keep one row out of every N." default:"1"`
	RowLimit int `help:"Cap the rows read per page; 0 reads everything." default:"0"`

	Recover bool `help:"Keep partial pages when the input is truncated."`
	Verbose bool `short:"v" help:"Log progress to stderr."`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("sddsconvert"),
		kong.Description("Rewrite an SDDS file in a different representation."),
		kong.UsageOnError(),
	)
	kctx.FatalIfErrorf(run())
}

func run() error {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	if cli.Verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	in, err := sdds.Open(cli.Input,
		sdds.WithAutoRecovery(cli.Recover),
		sdds.WithRowLimit(cli.RowLimit),
		sdds.WithLogger(logger))
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := sdds.CreateCopy(cli.Output, in, outputOptions(logger)...)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := selectColumns(out); err != nil {
		return err
	}

	pages, rows := 0, 0
	for {
		if _, err := in.ReadPageSparse(cli.Sparse, 0); err == io.EOF {
			break
		} else if err != nil {
			return fmt.Errorf("reading %s: %w", cli.Input, err)
		}
		if err := out.CopyPage(in); err != nil {
			return err
		}
		if err := out.WritePage(); err != nil {
			return fmt.Errorf("writing %s: %w", cli.Output, err)
		}
		pages++
		rows += in.RowCount()
	}
	if err := out.Close(); err != nil {
		return err
	}
	logger.Info("converted", "pages", pages, "rows", rows, "output", cli.Output)
	return nil
}

func outputOptions(logger *slog.Logger) []sdds.Option {
	opts := []sdds.Option{sdds.WithLogger(logger)}
	if cli.Binary {
		// Binary pages always carry a row count.
		opts = append(opts, sdds.WithEncoding(sdds.BinaryMode), sdds.WithRowCounts())
	}
	if cli.ASCII {
		opts = append(opts, sdds.WithEncoding(sdds.ASCIIMode))
	}
	switch cli.Endian {
	case "native":
		opts = append(opts, sdds.WithEndian(sdds.NativeEndian))
	case "big":
		opts = append(opts, sdds.WithEndian(sdds.BigEndian))
	case "little":
		opts = append(opts, sdds.WithEndian(sdds.LittleEndian))
	}
	if cli.ColumnMajor {
		opts = append(opts, sdds.WithColumnMajorOrder())
	}
	if cli.RowMajor {
		opts = append(opts, sdds.WithRowMajorOrder())
	}
	if cli.Level > 0 {
		opts = append(opts, sdds.WithCompressionLevel(cli.Level))
	}
	if cli.Sparse > 1 {
		// Sparse pages rarely keep equal lengths.
		opts = append(opts, sdds.WithVariableRowCount())
	}
	return opts
}

// selectColumns narrows the output schema before its header is written.
func selectColumns(out *sdds.Dataset) error {
	if len(cli.KeepColumns) == 0 && len(cli.DeleteColumns) == 0 {
		return nil
	}
	if len(cli.KeepColumns) > 0 {
		if err := out.SetColumnFlags(false); err != nil {
			return err
		}
		for _, pat := range cli.KeepColumns {
			if _, err := out.MatchColumnsOfInterest(pat, sdds.LogicOr); err != nil {
				return err
			}
		}
	}
	for _, pat := range cli.DeleteColumns {
		if _, err := out.MatchColumnsOfInterest(pat, sdds.LogicAnd|sdds.LogicNegateMatch); err != nil {
			return err
		}
	}
	return out.DeleteUnsetColumns()
}
