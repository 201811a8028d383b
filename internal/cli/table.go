package cli

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// Field is one labelled line of a summary table.
type Field struct {
	Label string
	Value string
}

// RenderSummary renders fields as a two-column rounded table. Fields with an
// empty value are skipped.
func RenderSummary(title string, fields []Field) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if title != "" {
		tw.SetTitle("%s", title)
	}
	for _, f := range fields {
		if f.Value == "" {
			continue
		}
		tw.AppendRow(table.Row{f.Label, f.Value})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignLeft},
	})
	return tw.Render()
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w any) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// PromptWriter returns out when in is a terminal and io.Discard otherwise,
// so piped instructions are read without echoing a prompt.
func PromptWriter(in any, out io.Writer) io.Writer {
	if IsTerminal(in) {
		return out
	}
	return io.Discard
}
