package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/heartmarshall/civic-client/internal/domain"
)

// render writes v in the selected output format; table uses the given writer.
func (c *cli) render(cmd *cobra.Command, v any, table func(io.Writer) error) error {
	w := cmd.OutOrStdout()
	switch c.output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	return table(w)
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeReports(w io.Writer, reports []domain.Report) error {
	if len(reports) == 0 {
		_, err := fmt.Fprintln(w, "No reports.")
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tSTATUS\tCATEGORY\tCREATED\tLOCATION\tTEXT\t")
	for _, r := range reports {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t\n",
			r.ID, r.Status, r.Category.Label(), formatTime(r.CreatedAt), formatLocation(r), truncate(r.Text, 48))
	}
	return tw.Flush()
}

func writeReport(w io.Writer, r domain.Report) error {
	tw := newTable(w)
	fmt.Fprintf(tw, "ID:\t%d\n", r.ID)
	fmt.Fprintf(tw, "Status:\t%s\n", r.Status)
	fmt.Fprintf(tw, "Category:\t%s\n", r.Category.Label())
	if r.Username != "" {
		fmt.Fprintf(tw, "Reporter:\t%s\n", r.Username)
	}
	fmt.Fprintf(tw, "Created:\t%s\n", formatTime(r.CreatedAt))
	fmt.Fprintf(tw, "Location:\t%s\n", formatLocation(r))
	if r.HasImage() {
		fmt.Fprintf(tw, "Photo:\t%s\n", *r.ImageURL)
	}
	fmt.Fprintf(tw, "Text:\t%s\n", r.Text)
	return tw.Flush()
}

func formatTime(t domain.Timestamp) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(time.DateTime)
}

func formatLocation(r domain.Report) string {
	if r.Latitude == nil || r.Longitude == nil {
		return "-"
	}
	return fmt.Sprintf("%.6f,%.6f", *r.Latitude, *r.Longitude)
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
