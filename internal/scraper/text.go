package scraper

import (
	"io"
	"strconv"
	"strings"

	"github.com/pfrederiksen/kino-draws/internal/draw"
	"github.com/pfrederiksen/kino-draws/internal/logger"
	"golang.org/x/net/html"
)

// ParseText scans the visible page text for draw blocks: a marker line, a
// timestamp line in draw.LayoutText, then one purely numeric line per number.
//
// An occurrence is skipped when the marker is the last line, when the
// timestamp does not parse, or when no numeric line follows. Draws are
// returned with whatever count of numbers was found; completeness is checked
// by the caller. A page without any marker line is a *StructureError.
func (s *Scraper) ParseText(r io.Reader) ([]*draw.Draw, error) {
	doc, err := newDocument(r)
	if err != nil {
		return nil, err
	}

	var lines []string
	for _, n := range doc.Nodes {
		collectLines(n, &lines)
	}

	return s.scanLines(lines)
}

func (s *Scraper) scanLines(lines []string) ([]*draw.Draw, error) {
	draws := make([]*draw.Draw, 0)
	markers := 0

	for i, line := range lines {
		if line != s.marker {
			continue
		}
		markers++

		if i+1 >= len(lines) {
			s.log.Debug("Marker on last line, skipping", logger.Fields{"line": i})
			continue
		}

		drawnAt, err := draw.ParseDrawnAt(draw.LayoutText, lines[i+1])
		if err != nil {
			s.log.Debug("Unparseable draw time, skipping", logger.Fields{"line": i + 1, "value": lines[i+1]})
			continue
		}

		nums := make([]int, 0, draw.NumbersPerDraw)
		for j := i + 2; j < len(lines) && draw.IsNumeric(lines[j]); j++ {
			n, err := strconv.Atoi(lines[j])
			if err != nil {
				break
			}
			nums = append(nums, n)
		}
		if len(nums) == 0 {
			s.log.Debug("No numbers after draw time, skipping", logger.Fields{"line": i + 1})
			continue
		}

		draws = append(draws, draw.NewDraw(drawnAt, nums))
	}

	if markers == 0 {
		return nil, &StructureError{What: "marker line " + strconv.Quote(s.marker)}
	}
	return draws, nil
}

// collectLines flattens the visible text under n into trimmed, non-empty lines
func collectLines(n *html.Node, lines *[]string) {
	switch n.Type {
	case html.TextNode:
		for _, l := range strings.Split(n.Data, "\n") {
			if l = normalizeSpace(l); l != "" {
				*lines = append(*lines, l)
			}
		}
		return
	case html.ElementNode:
		switch n.Data {
		case "script", "style", "noscript", "head", "template":
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectLines(c, lines)
	}
}
