package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/grocerygrid/backend/internal/domain"
	"github.com/mattn/go-runewidth"
)

const maxNameWidth = 48

var (
	saleColor   = color.New(color.FgGreen, color.Bold)
	headerColor = color.New(color.Bold)
	dimColor    = color.New(color.Faint)
)

// renderProducts prints one page of products followed by a page footer
func renderProducts(w io.Writer, result domain.QueryResult) {
	if result.Total == 0 {
		fmt.Fprintln(w, "No products match the filter.")
		return
	}

	header := []string{"ID", "NAME", "CATEGORY", "PRICE", "WAS", "SOURCE"}
	rows := make([][]string, 0, len(result.Items))
	sale := make([]bool, 0, len(result.Items))
	for i := range result.Items {
		p := &result.Items[i]
		rows = append(rows, []string{
			p.ID,
			runewidth.Truncate(p.Name, maxNameWidth, "…"),
			p.Category,
			formatPrice(p.Price),
			formatPrice(p.OriginalPrice),
			p.Source,
		})
		sale = append(sale, p.OnSale())
	}

	writeTable(w, header, rows, func(row, col int, cell string) string {
		if col == 3 && sale[row] {
			return saleColor.Sprint(cell)
		}
		if col == 4 {
			return dimColor.Sprint(cell)
		}
		return cell
	})

	fmt.Fprintf(w, "\npage %d/%d, %d products\n", result.Page, result.PageCount, result.Total)
}

// writeTable prints rows with columns padded to their display width. style
// may decorate a cell after padding so escape codes do not affect alignment.
func writeTable(w io.Writer, header []string, rows [][]string, style func(row, col int, cell string) string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i := range widths {
			if i < len(row) {
				if cw := runewidth.StringWidth(row[i]); cw > widths[i] {
					widths[i] = cw
				}
			}
		}
	}

	cells := make([]string, len(header))
	for i, h := range header {
		cells[i] = headerColor.Sprint(pad(h, widths[i]))
	}
	fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))

	for r, row := range rows {
		for i := range widths {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			padded := pad(cell, widths[i])
			if style != nil {
				padded = style(r, i, padded)
			}
			cells[i] = padded
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, "  "), " "))
	}
}

func pad(s string, width int) string {
	if n := width - runewidth.StringWidth(s); n > 0 {
		return s + strings.Repeat(" ", n)
	}
	return s
}

func formatPrice(v *float64) string {
	if v == nil {
		return "-"
	}
	return strings.Replace(strconv.FormatFloat(*v, 'f', 2, 64), ".", ",", 1)
}
