package timing

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

var statHeaders = []string{"count", "min", ".50", ".90", ".95", "max", "tot"}

func secs(v float64) string {
	return fmt.Sprintf("%.2fs", v)
}

func statRow(st *Stats) []string {
	return []string{
		strconv.Itoa(st.Count()),
		secs(st.Min()),
		secs(st.Quantile(0.50)),
		secs(st.Quantile(0.90)),
		secs(st.Quantile(0.95)),
		secs(st.Max()),
		secs(st.Sum()),
	}
}

// writeTable prints a right-aligned table: a name column, a "│" divider
// and value columns separated by three spaces.
func writeTable(w io.Writer, header []string, rows [][]string) error {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if n := utf8.RuneCountInString(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	format := func(row []string) string {
		var sb strings.Builder
		sb.WriteString(pad(row[0], widths[0]))
		sb.WriteString(" │ ")
		for i := 1; i < len(row); i++ {
			if i > 1 {
				sb.WriteString("   ")
			}
			sb.WriteString(pad(row[i], widths[i]))
		}
		return sb.String()
	}

	rest := 0
	for i := 1; i < len(widths); i++ {
		rest += widths[i]
		if i > 1 {
			rest += 3
		}
	}

	lines := []string{
		format(header),
		strings.Repeat("─", widths[0]+1) + "┼" + strings.Repeat("─", rest+1),
	}
	for _, row := range rows {
		lines = append(lines, format(row))
	}
	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}

func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return strings.Repeat(" ", width-n) + s
}

// Print writes one table per non-empty section: stages, outdatedness
// rules, filters and phases. Tables are separated by a blank line.
func (r *Recorder) Print(w io.Writer) error {
	type section struct {
		title   string
		summary *Summary
		full    bool
	}
	sections := []section{
		{"stage", r.stages, false},
		{"outdatedness rule", r.rules, true},
		{"filter", r.filters, true},
		{"phase", r.phasesS, true},
	}

	first := true
	for _, s := range sections {
		if s.summary.Empty() {
			continue
		}
		if !first {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		first = false

		var header []string
		var rows [][]string
		if s.full {
			header = append([]string{s.title}, statHeaders...)
			for _, name := range s.summary.Names() {
				rows = append(rows, append([]string{name}, statRow(s.summary.Get(name))...))
			}
		} else {
			header = []string{s.title, "tot"}
			for _, name := range s.summary.Names() {
				rows = append(rows, []string{name, secs(s.summary.Get(name).Sum())})
			}
		}
		if err := writeTable(w, header, rows); err != nil {
			return err
		}
	}
	return nil
}
