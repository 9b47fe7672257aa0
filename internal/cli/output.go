package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/pfrederiksen/kino-draws/internal/draw"
	"github.com/pfrederiksen/kino-draws/internal/importer"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// OutputResult contains data to be output for one import
type OutputResult struct {
	*importer.Result
	Metrics map[string]interface{} `json:"metrics,omitempty"`
}

// StatusResult describes the stored draws
type StatusResult struct {
	Count  int64      `json:"count"`
	Latest *draw.Draw `json:"latest"`
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteStatus writes the status report in the specified format
func WriteStatus(w io.Writer, status *StatusResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, status)
	case FormatText:
		fmt.Fprintf(w, "Stored draws: %d\n", status.Count)
		if status.Latest == nil {
			fmt.Fprintln(w, "Latest: none")
			return nil
		}
		fmt.Fprintf(w, "Latest: %s\n", status.Latest)
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, verbose bool) error {
	if result.NoData {
		fmt.Fprintf(w, "No draws found: %s\n", result.NoDataNote)
		return nil
	}

	if len(result.Draws) == 0 {
		fmt.Fprintln(w, "No valid draws found.")
	} else {
		for _, d := range result.Draws {
			fmt.Fprintf(w, "%s\n", d)
		}
	}

	if verbose {
		for _, r := range result.Rejected {
			fmt.Fprintf(w, "  dropped %s: %s\n", r.DrawnAt, r.Message)
		}
	}

	fmt.Fprintf(w, "\nTotal: %d found, %d valid, %d dropped, %d new\n",
		result.Found, len(result.Draws), len(result.Rejected), result.Inserted)

	if verbose && result.Metrics != nil {
		writeCounters(w, result.Metrics)
	}
	return nil
}

func writeCounters(w io.Writer, metrics map[string]interface{}) {
	counters, ok := metrics["counters"].(map[string]int64)
	if !ok || len(counters) == 0 {
		return
	}
	names := make([]string, 0, len(counters))
	for name := range counters {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Counters:")
	for _, name := range names {
		fmt.Fprintf(w, "  %s: %d\n", name, counters[name])
	}
}
