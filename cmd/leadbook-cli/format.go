package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/leadbook/leadbook/client"
)

func formatJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error: encode json: %v\n", err)
		os.Exit(1)
	}
}

func formatTable(headers []string, rows [][]string) {
	writeTable(os.Stdout, headers, rows)
}

func writeTable(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	printRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			width := 0
			if i < len(widths) {
				width = widths[i]
			}
			parts[i] = fmt.Sprintf("%-*s", width, cell)
		}
		fmt.Fprintln(w, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	printRow(headers)
	seps := make([]string, len(headers))
	for i, width := range widths {
		seps[i] = strings.Repeat("-", width)
	}
	printRow(seps)
	for _, row := range rows {
		printRow(row)
	}
}

func formatQuiet(id string) {
	fmt.Println(id)
}

func output(v any, quietVal string) {
	switch flagFmt {
	case "quiet":
		formatQuiet(quietVal)
	default:
		formatJSON(v)
	}
}

var leadHeaders = []string{"ID", "NAME", "PHONE", "CITY", "TYPE", "BUDGET", "STATUS", "UPDATED"}

func leadRow(l *client.Lead) []string {
	return []string{
		l.ID,
		l.FullName,
		l.Phone,
		l.City,
		l.PropertyType,
		budgetRange(l.BudgetMin, l.BudgetMax),
		l.Status,
		l.UpdatedAt.Local().Format(time.DateTime),
	}
}

// budgetRange renders "min-max", "min+", "<=max" or "-".
func budgetRange(lo, hi *int) string {
	switch {
	case lo != nil && hi != nil:
		return strconv.Itoa(*lo) + "-" + strconv.Itoa(*hi)
	case lo != nil:
		return strconv.Itoa(*lo) + "+"
	case hi != nil:
		return "<=" + strconv.Itoa(*hi)
	default:
		return "-"
	}
}
