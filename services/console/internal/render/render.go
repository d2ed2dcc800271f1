// Package render formats observations and statistics for terminal output.
// It knows nothing about storage; callers pass it plain values.
package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/02loveslollipop/village-health-surveillance/services/api/db"
)

const (
	tableWidth = 100
	blockWidth = 60
)

var (
	tableRule = strings.Repeat("=", tableWidth)
	blockRule = strings.Repeat("=", blockWidth)
	thinRule  = strings.Repeat("-", blockWidth)
)

const rowFormat = "%-5v %-20v %-10v %-8v %-10v %-15v %-12v"

// line writes one line without trailing padding.
func line(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, strings.TrimRight(fmt.Sprintf(format, args...), " "))
}

// Table writes the fixed-width observation table between two rules.
func Table(w io.Writer, rows []db.Observation) {
	fmt.Fprintln(w, tableRule)
	line(w, rowFormat, "ID", "Village", "Diarrhea", "Fever", "Rainfall", "Risk", "Date")
	fmt.Fprintln(w, tableRule)
	for _, o := range rows {
		line(w, rowFormat, o.ID, o.Village, o.Diarrhea, o.Fever, o.Rainfall, o.Risk, o.Date)
	}
	fmt.Fprintln(w, tableRule)
}

// Observations writes every row followed by the record total.
func Observations(w io.Writer, rows []db.Observation) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No data found in database.")
		return
	}
	Table(w, rows)
	fmt.Fprintf(w, "Total Records: %d\n", len(rows))
}

// SearchResults writes the rows matching text.
func SearchResults(w io.Writer, text string, rows []db.Observation) {
	if len(rows) == 0 {
		fmt.Fprintf(w, "No records found for village: %s\n", text)
		return
	}
	Table(w, rows)
	fmt.Fprintf(w, "Found %d record(s)\n", len(rows))
}

// Record writes a single observation as labelled lines.
func Record(w io.Writer, o db.Observation) {
	fmt.Fprintf(w, "ID: %d\n", o.ID)
	fmt.Fprintf(w, "Village: %s\n", o.Village)
	fmt.Fprintf(w, "Diarrhea Cases: %d\n", o.Diarrhea)
	fmt.Fprintf(w, "Fever Cases: %d\n", o.Fever)
	fmt.Fprintf(w, "Rainfall: %s\n", o.Rainfall)
	fmt.Fprintf(w, "Risk: %s\n", o.Risk)
	fmt.Fprintf(w, "Date: %s\n", o.Date)
}

// Statistics writes totals, mean counts and the risk distribution. Means and
// the distribution are omitted when there are no records.
func Statistics(w io.Writer, s db.Statistics) {
	fmt.Fprintln(w, blockRule)
	fmt.Fprintln(w, "DATABASE STATISTICS")
	fmt.Fprintln(w, blockRule)
	fmt.Fprintf(w, "Total Records: %d\n", s.Total)

	if s.Total > 0 {
		fmt.Fprintln(w)
		if s.MeanDiarrhea != nil {
			fmt.Fprintf(w, "Average Diarrhea Cases: %.2f\n", *s.MeanDiarrhea)
		}
		if s.MeanFever != nil {
			fmt.Fprintf(w, "Average Fever Cases: %.2f\n", *s.MeanFever)
		}

		fmt.Fprintln(w)
		fmt.Fprintln(w, "Risk Distribution:")
		for _, share := range s.Distribution {
			var percent float64
			if share.Percent != nil {
				percent = *share.Percent
			}
			fmt.Fprintf(w, "  %s: %d (%.1f%%)\n", share.Tier, share.Count, percent)
		}
	}
	fmt.Fprintln(w, blockRule)
}

// Menu writes the interactive console menu.
func Menu(w io.Writer) {
	fmt.Fprintln(w, blockRule)
	fmt.Fprintln(w, "HEALTH MONITORING DATABASE MANAGER")
	fmt.Fprintln(w, blockRule)
	for i, item := range MenuItems {
		fmt.Fprintf(w, "%d. %s\n", i+1, item)
	}
	fmt.Fprintln(w, blockRule)
}

// MenuItems are the interactive menu entries in choice order.
var MenuItems = []string{
	"View All Data",
	"Add New Record",
	"Update Record",
	"Delete Record",
	"Delete All Data",
	"Search by Village",
	"Database Statistics",
	"Exit",
}

// Heading writes a section title over a thin rule.
func Heading(w io.Writer, title string) {
	fmt.Fprintln(w, title)
	fmt.Fprintln(w, thinRule)
}
