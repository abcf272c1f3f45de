package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
	alignWrap // left aligned, wrapped at textColumnWidth
)

const textColumnWidth = 72

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			} else {
				r[i] = ""
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		cc := table.ColumnConfig{
			Number:      i + 1,
			Align:       text.AlignLeft,
			AlignHeader: text.AlignLeft,
		}
		if i < len(aligns) {
			switch aligns[i] {
			case alignRight:
				cc.Align = text.AlignRight
			case alignWrap:
				cc.WidthMax = textColumnWidth
				cc.WidthMaxEnforcer = text.WrapSoft
			}
		}
		columnConfigs = append(columnConfigs, cc)
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}
