package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// tableView is a rounded table with an optional totals footer.
type tableView struct {
	headers []string
	aligns  []columnAlignment
	rows    [][]string
	footer  []string
}

func (v tableView) render() string {
	columns := len(v.headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(toRow(v.headers, columns))
	for _, row := range v.rows {
		tw.AppendRow(toRow(row, columns))
	}
	if len(v.footer) > 0 {
		tw.AppendFooter(toRow(v.footer, columns))
		tw.Style().Format.Footer = text.FormatDefault
	}

	configs := make([]table.ColumnConfig, 0, columns)
	for i := range columns {
		align := text.AlignLeft
		if i < len(v.aligns) && v.aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignFooter: align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	return tableView{headers: headers, rows: rows, aligns: aligns}.render()
}

func toRow(values []string, columns int) table.Row {
	row := make(table.Row, columns)
	for i := range columns {
		if i < len(values) {
			row[i] = values[i]
		} else {
			row[i] = ""
		}
	}
	return row
}
