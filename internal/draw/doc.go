// Package draw provides the Keno draw model, identifier derivation and row validation.
//
// A Draw is one completed result: the official draw timestamp and the 20 numbers
// drawn. Each draw is keyed by a deterministic integer ID derived from its
// timestamp (Unix seconds, UTC), so the same physical draw maps to the same ID
// whichever page layout it was scraped from.
package draw
