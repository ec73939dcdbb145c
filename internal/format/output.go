package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// TextRenderer is implemented by values that have a human-readable form.
type TextRenderer interface {
	RenderText(w io.Writer) error
}

// Envelope is the CLI's JSON output shape: {"data": ..., "meta": ...}.
// Text, when set, renders the text format; otherwise text falls back to pretty JSON.
type Envelope struct {
	Data any                     `json:"data"`
	Meta map[string]any          `json:"meta,omitempty"`
	Text func(w io.Writer) error `json:"-"`
}

func (e Envelope) RenderText(w io.Writer) error {
	if e.Text == nil {
		return WriteJSON(w, e.Data, true)
	}
	return e.Text(w)
}

// Write writes output in the requested format.
//
// Supported formats:
// - json (default)
// - text
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "text":
		if tr, ok := v.(TextRenderer); ok {
			return tr.RenderText(w)
		}
		return WriteJSON(w, v, true)
	default:
		return fmt.Errorf("unknown format: %s (want json or text)", format)
	}
}

// WriteJSON writes strict JSON output for CLI commands.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

// Table renders rows under headers with a rounded border.
func Table(headers []string, rows [][]string) string {
	cell := lipgloss.NewStyle().Padding(0, 1)
	head := cell.Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return head
			}
			return cell
		})
	return t.Render()
}

// Fields renders label/value pairs one per line, labels padded to a common width.
func Fields(pairs [][2]string) string {
	width := 0
	for _, p := range pairs {
		if len(p[0])+1 > width {
			width = len(p[0]) + 1
		}
	}
	var b strings.Builder
	for _, p := range pairs {
		fmt.Fprintf(&b, "%-*s  %s\n", width, p[0]+":", p[1])
	}
	return b.String()
}
