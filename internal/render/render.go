package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/launchbynttdata/launch-version-info/internal/versioninfo"
)

// Format selects how output is rendered.
type Format string

const (
	FormatTable Format = "table"
	FormatText  Format = "text"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

var ErrUnknownFormat = errors.New("render: unknown format")

// ParseFormat converts a string into a Format. Empty means FormatTable.
func ParseFormat(value string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(value))); f {
	case "":
		return FormatTable, nil
	case FormatTable, FormatText, FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownFormat, value)
	}
}

// Options tune rendering.
type Options struct {
	// MaxWidth caps table rows; zero means unlimited.
	MaxWidth int
}

// TerminalWidth returns the width of f when it is a terminal, else zero.
func TerminalWidth(f *os.File) int {
	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	w, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return w
}

// Fields writes a record's ordered fields.
func Fields(w io.Writer, format Format, fields []versioninfo.Field, opts Options) error {
	switch format {
	case FormatTable:
		t := newTable(w, opts)
		t.AppendHeader(table.Row{"Field", "Value"})
		for _, f := range fields {
			t.AppendRow(table.Row{f.Key, displayValue(f.Value)})
		}
		t.Render()
		return nil
	case FormatText:
		for _, f := range fields {
			if _, err := fmt.Fprintf(w, "%s: %s\n", f.Key, displayValue(f.Value)); err != nil {
				return fmt.Errorf("writing text: %w", err)
			}
		}
		return nil
	case FormatJSON:
		return writeJSON(w, orderedObject(fields))
	case FormatYAML:
		node, err := mappingNode(fields)
		if err != nil {
			return err
		}
		return writeYAML(w, node)
	default:
		return fmt.Errorf("%w %q", ErrUnknownFormat, string(format))
	}
}

// Value writes a single value: scalars as-is, lists one item per line.
func Value(w io.Writer, value any) error {
	var err error
	switch v := value.(type) {
	case []string:
		for _, item := range v {
			if _, err = fmt.Fprintln(w, item); err != nil {
				break
			}
		}
	default:
		_, err = fmt.Fprintln(w, displayValue(v))
	}
	if err != nil {
		return fmt.Errorf("writing value: %w", err)
	}
	return nil
}

// Rows writes tabular data. JSON and YAML render a list of objects keyed
// by header.
func Rows(w io.Writer, format Format, header []string, rows [][]string, opts Options) error {
	switch format {
	case FormatTable:
		t := newTable(w, opts)
		t.AppendHeader(toRow(header))
		for _, r := range rows {
			t.AppendRow(toRow(r))
		}
		t.Render()
		return nil
	case FormatText:
		for _, r := range rows {
			if _, err := fmt.Fprintln(w, strings.Join(r, " ")); err != nil {
				return fmt.Errorf("writing text: %w", err)
			}
		}
		return nil
	case FormatJSON, FormatYAML:
		objects := make([][]versioninfo.Field, 0, len(rows))
		for _, r := range rows {
			fields := make([]versioninfo.Field, 0, len(header))
			for i, h := range header {
				var cell string
				if i < len(r) {
					cell = r[i]
				}
				fields = append(fields, versioninfo.Field{Key: h, Value: cell})
			}
			objects = append(objects, fields)
		}
		if format == FormatJSON {
			list := make([]orderedObject, 0, len(objects))
			for _, o := range objects {
				list = append(list, orderedObject(o))
			}
			return writeJSON(w, list)
		}
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, o := range objects {
			node, err := mappingNode(o)
			if err != nil {
				return err
			}
			seq.Content = append(seq.Content, node)
		}
		return writeYAML(w, seq)
	default:
		return fmt.Errorf("%w %q", ErrUnknownFormat, string(format))
	}
}

func newTable(w io.Writer, opts Options) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	if opts.MaxWidth > 0 {
		t.SetAllowedRowLength(opts.MaxWidth)
	}
	return t
}

func toRow(cells []string) table.Row {
	row := make(table.Row, 0, len(cells))
	for _, c := range cells {
		row = append(row, c)
	}
	return row
}

func displayValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, ", ")
	default:
		return fmt.Sprint(val)
	}
}

// orderedObject marshals to a JSON object preserving field order.
type orderedObject []versioninfo.Field

func (o orderedObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshal(f.Key)
		if err != nil {
			return nil, err
		}
		value, err := marshal(f.Value)
		if err != nil {
			return nil, fmt.Errorf("encoding %s: %w", f.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("writing json: %w", err)
	}
	return nil
}

func mappingNode(fields []versioninfo.Field) (*yaml.Node, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, f := range fields {
		key := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: f.Key}
		value := &yaml.Node{}
		if err := value.Encode(f.Value); err != nil {
			return nil, fmt.Errorf("encoding %s: %w", f.Key, err)
		}
		node.Content = append(node.Content, key, value)
	}
	return node, nil
}

func writeYAML(w io.Writer, node *yaml.Node) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(node); err != nil {
		return fmt.Errorf("writing yaml: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("writing yaml: %w", err)
	}
	return nil
}
