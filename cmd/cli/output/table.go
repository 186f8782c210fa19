package output

import (
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderTable prints a table to stdout.
func RenderTable(headers []string, rows [][]interface{}) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)

	headerRow := table.Row{}
	for _, h := range headers {
		headerRow = append(headerRow, h)
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		t.AppendRow(table.Row(row))
	}

	t.Render()
}

// Checkbox renders a completion flag for table cells.
func Checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

// Timestamp renders an optional time for table cells; empty when nil.
func Timestamp(ts *time.Time) string {
	if ts == nil {
		return ""
	}
	return ts.Local().Format("2006-01-02 15:04")
}
