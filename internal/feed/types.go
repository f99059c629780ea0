// Package feed models parsed Atom/RSS content, diffs two parsed feeds
// against each other, and regenerates canonical Atom 1.0 output from a diff.
// It wraps github.com/mmcdole/gofeed for parsing, the same library the rest
// of this module's ancestry uses for feed ingestion.
package feed

import "time"

// Link is a single atom:link-style element: a relation and the URL it points to.
type Link struct {
	Rel  string
	Href string
}

// Meta carries feed-level metadata, independent of any entry list. It is the
// thing the comparator reports as "changed_metadata" and the generator uses
// to build the feed envelope.
type Meta struct {
	Title      string
	Link       string
	Links      []Link
	Author     string
	HasAuthor  bool
	FieldCount int // number of populated top-level metadata fields, used to detect "the new feed has more fields than the old one"
}

// SelfLink returns the first rel="self" link's href, or ok=false if none is present.
func (m Meta) SelfLink() (string, bool) {
	for _, l := range m.Links {
		if l.Rel == "self" && l.Href != "" {
			return l.Href, true
		}
	}
	return "", false
}

// Entry is a single feed item, with a fixed set of well-known fields plus an
// Extra map of arbitrary passthrough values keyed by the original feedparser
// field name (e.g. "author_email", "enclosure").
type Entry struct {
	ID            string
	Title         string
	Link          string
	UpdatedParsed time.Time
	Summary       string
	Tags          []string
	Content       []string
	Extra         map[string]ExtraValue
}

// ExtraValue is a passthrough field value: a plain string, a repeated list of
// strings, an attributed sub-element, or raw (pre-escaped) XHTML content.
// Exactly one of these is non-nil/non-zero for a given value.
type ExtraValue struct {
	Text       string
	List       []string
	Attrs      map[string]string
	RawXHTML   string
	IsRawXHTML bool
}

// Feed is a fully parsed Atom/RSS document: its declared version, its
// metadata, and its ordered entry list. Bozo reports that the input was
// malformed; in that case Meta and Entries are not meaningful.
type Feed struct {
	Bozo    bool
	Version string
	Meta    Meta
	Entries []Entry
}
