// Command sddsquery inspects SDDS files: the header layout, per-page row
// counts, and page contents, as text or JSON.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/alecthomas/kong"
	json "github.com/goccy/go-json"

	"github.com/robert-malhotra/go-sdds/sdds"
)

var cli struct {
	File    string   `arg:"" help:"SDDS file to inspect." type:"existingfile"`
	JSON    bool     `help:"Emit the report as JSON."`
	Pages   bool     `help:"Scan the file and report per-page row counts."`
	Page    int      `help:"Dump the rows of one page (1-based)." default:"0"`
	Columns []string `help:"Restrict the row dump to these columns; exact, case-blind, or glob names." sep:","`
	Recover bool     `help:"Keep partial pages when the file is truncated."`
	Verbose bool     `short:"v" help:"Log read diagnostics to stderr."`
}

type definitionReport struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Units       string `json:"units,omitempty"`
	Symbol      string `json:"symbol,omitempty"`
	Description string `json:"description,omitempty"`
	FixedValue  string `json:"fixed_value,omitempty"`
	Dimensions  int    `json:"dimensions,omitempty"`
}

type pageReport struct {
	Page       int              `json:"page"`
	Rows       int              `json:"rows"`
	Parameters map[string]any   `json:"parameters,omitempty"`
	ColumnData map[string][]any `json:"columns,omitempty"`
}

type report struct {
	Path        string             `json:"path"`
	Version     int                `json:"version"`
	Encoding    string             `json:"encoding"`
	ColumnMajor bool               `json:"column_major,omitempty"`
	Description string             `json:"description,omitempty"`
	Contents    string             `json:"contents,omitempty"`
	Parameters  []definitionReport `json:"parameters"`
	Columns     []definitionReport `json:"columns"`
	Arrays      []definitionReport `json:"arrays,omitempty"`
	Pages       []pageReport       `json:"pages,omitempty"`
}

func main() {
	kctx := kong.Parse(&cli,
		kong.Name("sddsquery"),
		kong.Description("Inspect the layout and contents of SDDS files."),
		kong.UsageOnError(),
	)
	kctx.FatalIfErrorf(run())
}

func run() error {
	opts := []sdds.Option{sdds.WithAutoRecovery(cli.Recover)}
	if cli.Verbose {
		opts = append(opts, sdds.WithLogger(slog.New(slog.NewTextHandler(os.Stderr, nil))))
	}
	d, err := sdds.Open(cli.File, opts...)
	if err != nil {
		return err
	}
	defer d.Close()

	rep := report{
		Path:        cli.File,
		Version:     d.Version(),
		Encoding:    d.Mode().Encoding.String(),
		ColumnMajor: d.Mode().ColumnMajorOrder,
	}
	rep.Description, rep.Contents = d.GetDescription()

	for _, name := range d.ParameterNames() {
		def, _ := d.GetParameterDefinition(name)
		r := definitionReport{
			Name:        def.Name,
			Type:        def.Type.String(),
			Units:       def.Units,
			Symbol:      def.Symbol,
			Description: def.Description,
		}
		if def.FixedValue != nil {
			r.FixedValue = *def.FixedValue
		}
		rep.Parameters = append(rep.Parameters, r)
	}
	for _, name := range d.ColumnNames() {
		def, _ := d.GetColumnDefinition(name)
		rep.Columns = append(rep.Columns, definitionReport{
			Name:        def.Name,
			Type:        def.Type.String(),
			Units:       def.Units,
			Symbol:      def.Symbol,
			Description: def.Description,
		})
	}
	for _, name := range d.ArrayNames() {
		def, _ := d.GetArrayDefinition(name)
		rep.Arrays = append(rep.Arrays, definitionReport{
			Name:        def.Name,
			Type:        def.Type.String(),
			Units:       def.Units,
			Symbol:      def.Symbol,
			Description: def.Description,
			Dimensions:  int(def.Dimensions),
		})
	}

	if cli.Pages || cli.Page > 0 {
		if err := scanPages(d, &rep); err != nil {
			return err
		}
	}

	if cli.JSON {
		out, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}
	printReport(rep)
	return nil
}

func scanPages(d *sdds.Dataset, rep *report) error {
	if len(cli.Columns) > 0 {
		names := make([]string, len(cli.Columns))
		for i, want := range cli.Columns {
			name, err := d.LookupColumn(want)
			if err != nil {
				return err
			}
			names[i] = name
		}
		cli.Columns = names
		if err := d.SetColumnsOfInterest(names...); err != nil {
			return err
		}
	}
	for {
		page, err := d.ReadPage()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		pr := pageReport{Page: page, Rows: d.RowCount()}
		if cli.Page == page {
			pr.Parameters = make(map[string]any)
			for _, name := range d.ParameterNames() {
				if v, err := d.GetParameter(name); err == nil {
					pr.Parameters[name] = renderValue(v)
				}
			}
			pr.ColumnData = make(map[string][]any)
			for _, name := range d.ColumnsOfInterest() {
				col, err := d.GetColumn(name)
				if err != nil {
					return err
				}
				pr.ColumnData[name] = renderColumn(col)
			}
		}
		rep.Pages = append(rep.Pages, pr)
		if cli.Page == page && !cli.Pages {
			break
		}
	}
	return nil
}

// renderValue turns a cell into something both %v and JSON print well.
// Character cells become one-byte strings instead of numbers.
func renderValue(v any) any {
	if b, ok := v.(byte); ok {
		return string([]byte{b})
	}
	return v
}

func renderColumn(col any) []any {
	switch vals := col.(type) {
	case []byte:
		out := make([]any, len(vals))
		for i, b := range vals {
			out[i] = string([]byte{b})
		}
		return out
	case []float64:
		return anySlice(vals)
	case []float32:
		return anySlice(vals)
	case []int64:
		return anySlice(vals)
	case []uint64:
		return anySlice(vals)
	case []int32:
		return anySlice(vals)
	case []uint32:
		return anySlice(vals)
	case []int16:
		return anySlice(vals)
	case []uint16:
		return anySlice(vals)
	case []string:
		return anySlice(vals)
	}
	return nil
}

func anySlice[T any](vals []T) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		out[i] = v
	}
	return out
}

func printReport(rep report) {
	fmt.Printf("file %s  SDDS%d  %s", rep.Path, rep.Version, rep.Encoding)
	if rep.ColumnMajor {
		fmt.Print("  column-major")
	}
	fmt.Println()
	if rep.Description != "" || rep.Contents != "" {
		fmt.Printf("description: %s", rep.Description)
		if rep.Contents != "" {
			fmt.Printf(" (%s)", rep.Contents)
		}
		fmt.Println()
	}

	if len(rep.Parameters) > 0 {
		fmt.Printf("\nparameters (%d):\n", len(rep.Parameters))
		for _, p := range rep.Parameters {
			line := fmt.Sprintf("  %-24s %s", p.Name, p.Type)
			if p.Units != "" {
				line += " [" + p.Units + "]"
			}
			if p.FixedValue != "" {
				line += " fixed=" + p.FixedValue
			}
			fmt.Println(line)
		}
	}
	if len(rep.Columns) > 0 {
		fmt.Printf("\ncolumns (%d):\n", len(rep.Columns))
		for _, c := range rep.Columns {
			line := fmt.Sprintf("  %-24s %s", c.Name, c.Type)
			if c.Units != "" {
				line += " [" + c.Units + "]"
			}
			fmt.Println(line)
		}
	}
	if len(rep.Arrays) > 0 {
		fmt.Printf("\narrays (%d):\n", len(rep.Arrays))
		for _, a := range rep.Arrays {
			fmt.Printf("  %-24s %s dims=%d\n", a.Name, a.Type, a.Dimensions)
		}
	}

	for _, pg := range rep.Pages {
		fmt.Printf("\npage %d: %d rows\n", pg.Page, pg.Rows)
		if len(pg.Parameters) > 0 {
			names := sortedKeys(pg.Parameters)
			for _, name := range names {
				fmt.Printf("  %s = %v\n", name, pg.Parameters[name])
			}
		}
		if len(pg.ColumnData) > 0 {
			printRows(pg)
		}
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func printRows(pg pageReport) {
	names := make([]string, 0, len(pg.ColumnData))
	for _, c := range cli.Columns {
		if _, ok := pg.ColumnData[c]; ok {
			names = append(names, c)
		}
	}
	if len(names) == 0 {
		names = sortedKeys(pg.ColumnData)
	}
	fmt.Println("  " + strings.Join(names, "\t"))
	for r := 0; r < pg.Rows; r++ {
		cells := make([]string, len(names))
		for i, name := range names {
			col := pg.ColumnData[name]
			if r < len(col) {
				cells[i] = fmt.Sprintf("%v", col[r])
			}
		}
		fmt.Println("  " + strings.Join(cells, "\t"))
	}
}
