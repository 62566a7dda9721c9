package main

import (
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// checkStatus is the verdict shown for one doctor line.
type checkStatus int

const (
	checkOK checkStatus = iota
	checkWarn
	checkFail
)

const checkLabelWidth = 20

// renderTable draws rows with a rounded border. Terminals get a bold header;
// pipes and files get plain text.
func renderTable(out io.Writer, headers []string, rows [][]string, aligns []columnAlignment) string {
	if len(headers) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	if shouldColorize(out) {
		tw.Style().Color.Header = text.Colors{text.Bold}
	}

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(headers))
		for i := range headers {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(headers))
	for i := range headers {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

func renderCheckLine(label string, status checkStatus, detail string, colorize bool) string {
	var tag string
	var color text.Color
	switch status {
	case checkOK:
		tag, color = "OK", text.FgGreen
	case checkWarn:
		tag, color = "WARN", text.FgYellow
	default:
		tag, color = "FAIL", text.FgRed
	}
	line := fmt.Sprintf("  %-*s [%s]", checkLabelWidth, label+":", tag)
	if detail != "" {
		line += " " + detail
	}
	if colorize {
		return color.Sprint(line)
	}
	return line
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
