package feed

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

const defaultAuthor = "Hub Aggregator"

// atomFeed and atomEntry mirror the subset of Atom 1.0 this generator
// produces. xml.Marshal drives the well-known fields; passthrough fields are
// appended to an entry's raw element buffer before marshaling the entry.
type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Xmlns   string      `xml:"xmlns,attr"`
	Title   string      `xml:"title"`
	Link    atomLink    `xml:"link"`
	Author  atomAuthor  `xml:"author"`
	Entries []atomEntry `xml:"entry"`
}

type atomLink struct {
	Href string `xml:"href,attr"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomEntry struct {
	Title   string    `xml:"title"`
	ID      string    `xml:"id"`
	Link    atomLink  `xml:"link"`
	Updated string    `xml:"updated,omitempty"`
	Pubdate string    `xml:"published,omitempty"`
	Summary string    `xml:"summary,omitempty"`
	Extra   []rawElem `xml:",omitempty"`
}

// rawElem renders a single passthrough element, either escaped text, a
// repeated list, an attributed sub-element, or raw (unescaped) XHTML content.
type rawElem struct {
	XMLName xml.Name
	Attrs   []xml.Attr `xml:",any,attr"`
	Text    string     `xml:",chardata"`
	Inner   string     `xml:",innerxml"`
}

// Generate renders meta and entries as canonical Atom 1.0 bytes, per §4.4:
// the feed link prefers a rel=self link, missing author defaults to
// "Hub Aggregator", entries without a title are skipped, and each entry's
// pubdate is derived from its updated timestamp.
func Generate(meta Meta, entries []Entry) ([]byte, error) {
	selfLink, ok := meta.SelfLink()
	if !ok {
		selfLink = meta.Link
	}

	author := meta.Author
	if author == "" {
		author = defaultAuthor
	}

	out := atomFeed{
		Xmlns:  "http://www.w3.org/2005/Atom",
		Title:  meta.Title,
		Link:   atomLink{Href: selfLink},
		Author: atomAuthor{Name: author},
	}

	for _, e := range entries {
		if e.Title == "" {
			continue
		}
		entry := atomEntry{
			Title:   e.Title,
			ID:      e.ID,
			Link:    atomLink{Href: e.Link},
			Summary: e.Summary,
		}
		if !e.UpdatedParsed.IsZero() {
			entry.Updated = e.UpdatedParsed.Format("2006-01-02T15:04:05Z07:00")
			entry.Pubdate = entry.Updated
		}
		entry.Extra = passthroughElements(e.Extra)
		out.Entries = append(out.Entries, entry)
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("generate atom feed: %w", err)
	}
	return buf.Bytes(), nil
}

func passthroughElements(extra map[string]ExtraValue) []rawElem {
	if len(extra) == 0 {
		return nil
	}
	var elems []rawElem
	for name, v := range extra {
		switch {
		case v.IsRawXHTML:
			elems = append(elems, rawElem{XMLName: xml.Name{Local: name}, Inner: v.RawXHTML})
		case len(v.List) > 0:
			for _, item := range v.List {
				elems = append(elems, rawElem{XMLName: xml.Name{Local: name}, Text: item})
			}
		case len(v.Attrs) > 0:
			attrs := make([]xml.Attr, 0, len(v.Attrs))
			for k, av := range v.Attrs {
				attrs = append(attrs, xml.Attr{Name: xml.Name{Local: k}, Value: av})
			}
			elems = append(elems, rawElem{XMLName: xml.Name{Local: name}, Attrs: attrs, Text: v.Text})
		case v.Text != "":
			elems = append(elems, rawElem{XMLName: xml.Name{Local: name}, Text: v.Text})
		}
		// a zero-value ExtraValue (the "None" case) is silently dropped.
	}
	return elems
}
