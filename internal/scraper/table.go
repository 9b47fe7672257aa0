package scraper

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/kino-draws/internal/draw"
	"github.com/pfrederiksen/kino-draws/internal/logger"
	"golang.org/x/net/html"
)

// ParseLatest returns the first data row after the header of the archive table.
// A missing table, or a table without a usable data row, is a *StructureError.
func (s *Scraper) ParseLatest(r io.Reader) (*draw.Row, error) {
	doc, err := newDocument(r)
	if err != nil {
		return nil, err
	}

	table := s.findTable(doc)
	if table == nil {
		return nil, &StructureError{What: "archive table"}
	}

	rows := table.Find("tr")
	if rows.Length() < 2 {
		return nil, &StructureError{What: "archive data row"}
	}

	cells := rowCells(rows.Eq(1))
	if len(cells) < 2 {
		return nil, &StructureError{What: fmt.Sprintf("archive data row with 2 cells (got %d)", len(cells))}
	}

	return &draw.Row{DrawnAt: cells[0], Numbers: cells[1]}, nil
}

// ParseArchive returns every data row after the header of the archive table,
// in document order. Rows with fewer than two cells are skipped.
func (s *Scraper) ParseArchive(r io.Reader) ([]draw.Row, error) {
	doc, err := newDocument(r)
	if err != nil {
		return nil, err
	}

	table := s.findTable(doc)
	if table == nil {
		return nil, &StructureError{What: "archive table"}
	}

	rows := make([]draw.Row, 0)
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		if i == 0 {
			// header
			return
		}
		cells := rowCells(tr)
		if len(cells) < 2 {
			s.log.Debug("Skipping short row", logger.Fields{"row": i, "cells": len(cells)})
			return
		}
		rows = append(rows, draw.Row{DrawnAt: cells[0], Numbers: cells[1]})
	})

	return rows, nil
}

// findTable picks the first table matching the configured selector that has
// at least two rows, falling back to the first such table on the page.
func (s *Scraper) findTable(doc *goquery.Document) *goquery.Selection {
	tables := doc.Find("table")
	s.log.Debug("Found tables", logger.Fields{"count": tables.Length()})
	tables.Each(func(i int, t *goquery.Selection) {
		id, _ := t.Attr("id")
		class, _ := t.Attr("class")
		s.log.Debug("Table", logger.Fields{
			"index": i,
			"rows":  t.Find("tr").Length(),
			"id":    id,
			"class": class,
		})
	})

	if found := firstWithRows(doc.Find(s.tableSelector)); found != nil {
		return found
	}
	return firstWithRows(tables)
}

// firstWithRows returns the first table holding a header and a data row
func firstWithRows(tables *goquery.Selection) *goquery.Selection {
	var found *goquery.Selection
	tables.EachWithBreak(func(i int, t *goquery.Selection) bool {
		if t.Find("tr").Length() >= 2 {
			found = t
			return false
		}
		return true
	})
	return found
}

// rowCells returns the trimmed text of each td of a row
func rowCells(tr *goquery.Selection) []string {
	cells := make([]string, 0, 2)
	tr.ChildrenFiltered("td").Each(func(_ int, td *goquery.Selection) {
		cells = append(cells, cellText(td))
	})
	return cells
}

// cellText joins the text nodes of a cell with spaces, so numbers held in
// separate elements stay separate tokens.
func cellText(sel *goquery.Selection) string {
	var parts []string
	for _, n := range sel.Nodes {
		collectText(n, &parts)
	}
	return normalizeSpace(strings.Join(parts, " "))
}

func collectText(n *html.Node, parts *[]string) {
	if n.Type == html.TextNode {
		if t := strings.TrimSpace(n.Data); t != "" {
			*parts = append(*parts, t)
		}
		return
	}
	if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, parts)
	}
}
