package outfmt

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Formatter renders a command result either as an aligned text table
// or as (optionally filtered and templated) JSON, depending on the
// mode carried by the context.
type Formatter struct {
	ctx    context.Context
	out    io.Writer
	errOut io.Writer
	table  *tabwriter.Writer
}

func NewFormatter(ctx context.Context, out, errOut io.Writer) *Formatter {
	return &Formatter{
		ctx:    ctx,
		out:    out,
		errOut: errOut,
		table:  tabwriter.NewWriter(out, 0, 4, 2, ' ', 0),
	}
}

// Output writes data in the machine-readable mode selected on the
// context. In text mode it does nothing; callers emit the table
// through StartTable and Row instead.
func (f *Formatter) Output(data any) error {
	if !IsJSON(f.ctx) {
		return nil
	}

	query := GetQuery(f.ctx)
	light := IsLight(f.ctx)

	if tmpl := GetTemplate(f.ctx); tmpl != "" {
		filtered, err := applyQueryForMode(data, query, light)
		if err != nil {
			return err
		}
		return WriteTemplate(f.out, filtered, tmpl)
	}

	if light {
		return WriteJSONFilteredLiteral(f.out, data, query, IsCompact(f.ctx))
	}
	return WriteJSONFiltered(f.out, data, query, IsCompact(f.ctx))
}

func applyQueryForMode(data any, query string, light bool) (any, error) {
	if light {
		return ApplyQueryLiteral(data, query)
	}
	return ApplyQuery(data, query)
}

// StartTable writes the header row and reports whether the caller
// should keep emitting rows (false in JSON modes).
func (f *Formatter) StartTable(headers []string) bool {
	if IsJSON(f.ctx) {
		return false
	}
	_, _ = fmt.Fprintln(f.table, strings.Join(headers, "\t"))
	return true
}

// Row writes one table row.
func (f *Formatter) Row(columns ...string) {
	_, _ = fmt.Fprintln(f.table, strings.Join(columns, "\t"))
}

// EndTable flushes the aligned table to the output stream.
func (f *Formatter) EndTable() error {
	return f.table.Flush()
}

// Empty writes a no-results note to stderr so stdout stays clean for
// piping.
func (f *Formatter) Empty(message string) {
	_, _ = fmt.Fprintln(f.errOut, message)
}
