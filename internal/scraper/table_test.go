package scraper

import (
	"os"
	"strings"
	"testing"

	"github.com/pfrederiksen/kino-draws/internal/draw"
	"github.com/pfrederiksen/kino-draws/internal/logger"
)

func newTestScraper() *Scraper {
	return New(WithLogger(logger.Discard()))
}

func TestParseArchive_Fixture(t *testing.T) {
	data, err := os.ReadFile("testdata/archive.html")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	rows, err := newTestScraper().ParseArchive(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("ParseArchive failed: %v", err)
	}

	wantTimes := []string{
		"15.05.2024 14:10",
		"15.05.2024 14:05",
		"15.05.2024 14:00",
		"15.05.2024 13:55",
	}
	if len(rows) != len(wantTimes) {
		t.Fatalf("ParseArchive returned %d rows, want %d: %+v", len(rows), len(wantTimes), rows)
	}
	for i, want := range wantTimes {
		if rows[i].DrawnAt != want {
			t.Errorf("rows[%d].DrawnAt = %q, want %q", i, rows[i].DrawnAt, want)
		}
	}

	// numbers held in separate spans stay separate tokens
	if got := len(draw.SplitNumbers(rows[2].Numbers)); got != 20 {
		t.Errorf("rows[2] has %d numbers, want 20 (cell %q)", got, rows[2].Numbers)
	}
	if got := len(draw.SplitNumbers(rows[3].Numbers)); got != 20 {
		t.Errorf("rows[3] has %d numbers, want 20 (cell %q)", got, rows[3].Numbers)
	}
}

func TestParseLatest_Fixture(t *testing.T) {
	data, err := os.ReadFile("testdata/archive.html")
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}

	row, err := newTestScraper().ParseLatest(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("ParseLatest failed: %v", err)
	}

	if row.DrawnAt != "15.05.2024 14:10" {
		t.Errorf("DrawnAt = %q, want '15.05.2024 14:10'", row.DrawnAt)
	}
	if row.Numbers != "1, 2, 3" {
		t.Errorf("Numbers = %q, want '1, 2, 3'", row.Numbers)
	}
}

func TestParseLatest_EdgeCases(t *testing.T) {
	tests := []struct {
		name          string
		html          string
		wantStructure bool
		wantDrawnAt   string
	}{
		{
			name: "table found by class",
			html: `<table class="arhiva-kino"><tr><th>Data</th><th>Numere</th></tr>
				<tr><td>15.05.2024 14:05</td><td>1,2</td></tr></table>`,
			wantDrawnAt: "15.05.2024 14:05",
		},
		{
			name: "fallback to first table with two rows",
			html: `<table><tr><td>menu</td></tr></table>
				<table><tr><th>Data</th></tr><tr><td>14.05.2024 10:00</td><td>1,2</td></tr></table>`,
			wantDrawnAt: "14.05.2024 10:00",
		},
		{
			name: "selector wins over earlier tables",
			html: `<table><tr><td>a</td></tr><tr><td>b</td><td>c</td></tr></table>
				<table id="arhiva"><tr><th>h</th></tr><tr><td>13.05.2024 09:00</td><td>1</td></tr></table>`,
			wantDrawnAt: "13.05.2024 09:00",
		},
		{
			name: "selector match with one row falls back",
			html: `<table class="arhiva-search"><tr><td>Cauta</td></tr></table>
				<table><tr><th>Data</th><th>Numere</th></tr><tr><td>12.05.2024 08:00</td><td>1,2</td></tr></table>`,
			wantDrawnAt: "12.05.2024 08:00",
		},
		{
			name: "later selector match with rows preferred over fallback",
			html: `<table><tr><td>a</td></tr><tr><td>b</td><td>c</td></tr></table>
				<table class="arhiva-search"><tr><td>Cauta</td></tr></table>
				<table id="arhiva"><tr><th>h</th></tr><tr><td>11.05.2024 07:00</td><td>1</td></tr></table>`,
			wantDrawnAt: "11.05.2024 07:00",
		},
		{
			name:          "no table",
			html:          `<html><body><p>Mentenanta</p></body></html>`,
			wantStructure: true,
		},
		{
			name:          "only single-row tables",
			html:          `<table><tr><td>a</td></tr></table>`,
			wantStructure: true,
		},
		{
			name:          "archive table with header only",
			html:          `<table id="arhiva"><tr><th>Data</th><th>Numere</th></tr></table>`,
			wantStructure: true,
		},
		{
			name:          "first data row with one cell",
			html:          `<table id="arhiva"><tr><th>Data</th></tr><tr><td colspan="2">Nicio extragere</td></tr></table>`,
			wantStructure: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row, err := newTestScraper().ParseLatest(strings.NewReader(tt.html))

			if tt.wantStructure {
				if !IsStructure(err) {
					t.Fatalf("ParseLatest() error = %v, want StructureError", err)
				}
				if row != nil {
					t.Errorf("ParseLatest() row = %+v, want nil", row)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseLatest() unexpected error: %v", err)
			}
			if row.DrawnAt != tt.wantDrawnAt {
				t.Errorf("DrawnAt = %q, want %q", row.DrawnAt, tt.wantDrawnAt)
			}
		})
	}
}

func TestParseArchive_NoTable(t *testing.T) {
	rows, err := newTestScraper().ParseArchive(strings.NewReader(`<p>No draws</p>`))

	if !IsStructure(err) {
		t.Fatalf("ParseArchive() error = %v, want StructureError", err)
	}
	if rows != nil {
		t.Errorf("ParseArchive() rows = %v, want nil", rows)
	}
}

func TestParseArchive_CustomSelector(t *testing.T) {
	html := `
		<table id="arhiva"><tr><th>h</th></tr><tr><td>01.01.2024 00:00</td><td>1</td></tr></table>
		<table class="results"><tr><th>h</th></tr><tr><td>02.01.2024 00:00</td><td>2</td></tr></table>
	`

	s := New(WithLogger(logger.Discard()), WithTableSelector("table.results"))
	rows, err := s.ParseArchive(strings.NewReader(html))
	if err != nil {
		t.Fatalf("ParseArchive() error: %v", err)
	}

	if len(rows) != 1 || rows[0].DrawnAt != "02.01.2024 00:00" {
		t.Errorf("ParseArchive() = %+v, want the results table row", rows)
	}
}

func TestCellText_WhitespaceHandling(t *testing.T) {
	html := `<table id="arhiva"><tr><th>h</th></tr>
		<tr><td>
			15.05.2024
			<b>14:05</b>
		</td><td> 3 ,&nbsp;7 </td></tr></table>`

	row, err := newTestScraper().ParseLatest(strings.NewReader(html))
	if err != nil {
		t.Fatalf("ParseLatest() error: %v", err)
	}

	if row.DrawnAt != "15.05.2024 14:05" {
		t.Errorf("DrawnAt = %q, want '15.05.2024 14:05'", row.DrawnAt)
	}
	if got := draw.SplitNumbers(row.Numbers); len(got) != 2 {
		t.Errorf("SplitNumbers(%q) = %v, want 2 numbers", row.Numbers, got)
	}
}
