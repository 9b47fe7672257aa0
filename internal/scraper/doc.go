// Package scraper provides HTTP fetching and HTML parsing for Keno draw archive pages.
//
// The scraper fetches the public archive page and extracts draw rows from it in one
// of three ways: the latest row of the archive table, every row of the archive table,
// or a scan of the page's visible text for "Extragere" blocks (timestamp line followed
// by one line per drawn number). Missing page structure is reported as a
// *StructureError, which callers treat as "no data this run".
package scraper
