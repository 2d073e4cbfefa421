package persist

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"
)

// Preview writes the first n rows as an aligned table for operator
// sanity-checking. Observational only; it never touches the sinks.
func Preview[T Tabular](w io.Writer, rows []T, n int) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	var zero T
	header := ""
	for _, col := range zero.TableColumns() {
		header += col + "\t"
	}
	fmt.Fprintln(tw, header)

	if n > len(rows) {
		n = len(rows)
	}
	for _, row := range rows[:n] {
		line := ""
		for _, v := range row.TableValues() {
			line += formatValue(v) + "\t"
		}
		fmt.Fprintln(tw, line)
	}
	if len(rows) > n {
		fmt.Fprintf(tw, "... %d more rows\n", len(rows)-n)
	}
	tw.Flush()
}

func formatValue(v any) string {
	if t, ok := v.(time.Time); ok {
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
			return t.Format("2006-01-02")
		}
		return t.Format("2006-01-02 15:04:05")
	}
	return fmt.Sprint(v)
}
