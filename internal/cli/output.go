/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"gopkg.in/yaml.v3"
)

// OutputFormat is a format of command results.
type OutputFormat string

// Output formats.
const (
	OutputTable OutputFormat = "table"
	OutputJSON  OutputFormat = "json"
	OutputYAML  OutputFormat = "yaml"
)

func parseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case OutputTable, OutputJSON, OutputYAML:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q, should be one of [table json yaml]", s)
}

// tabular is implemented by results that can be shown as a table.
type tabular interface {
	header() table.Row
	rows() []table.Row
}

type printer struct {
	w      io.Writer
	format OutputFormat
}

func (p *printer) print(v tabular) error {
	switch p.format {
	case OutputJSON:
		enc := json.NewEncoder(p.w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case OutputYAML:
		enc := yaml.NewEncoder(p.w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		t := table.NewWriter()
		t.SetOutputMirror(p.w)
		t.SetStyle(table.StyleRounded)
		t.AppendHeader(v.header())
		t.AppendRows(v.rows())
		t.Render()
		return nil
	}
}

// printLine prints a single streamed record. Tables are not suitable for streams,
// so the table format falls back to a compact line of JSON.
func (p *printer) printLine(v interface{}) error {
	if p.format == OutputYAML {
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(p.w, "---\n%s", data)
		return err
	}
	return json.NewEncoder(p.w).Encode(v)
}
