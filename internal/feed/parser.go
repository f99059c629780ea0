package feed

import (
	"bytes"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/extensions"
)

// knownEntryFields is the fixed set of entry fields the generator treats
// specially (§4.4). Passthrough fields are everything a gofeed item exposes
// beyond this set.
var knownEntryFields = map[string]struct{}{
	"author_email": {}, "author_link": {}, "author_name": {}, "categories": {},
	"description": {}, "enclosure": {}, "guidislink": {}, "item_copyright": {},
	"link": {}, "pubdate": {}, "published": {}, "published_parsed": {},
	"summary": {}, "title": {}, "ttl": {}, "unique_id": {}, "updated": {},
	"updated_parsed": {},
}

// Parse parses raw feed bytes. It returns nil for empty input, matching the
// source adapter's "None for falsy content" behavior. For non-empty input
// that gofeed cannot parse, it returns a Feed with Bozo set rather than an
// error — the adapter never throws on malformed input.
func Parse(data []byte) *Feed {
	if len(data) == 0 {
		return nil
	}

	fp := gofeed.NewParser()
	gf, err := fp.Parse(bytes.NewReader(data))
	if err != nil || gf == nil {
		return &Feed{Bozo: true}
	}

	return fromGofeed(gf)
}

func fromGofeed(gf *gofeed.Feed) *Feed {
	meta := Meta{
		Title: gf.Title,
		Link:  gf.Link,
	}
	fieldCount := 0
	if gf.Title != "" {
		fieldCount++
	}
	if gf.Link != "" {
		fieldCount++
		meta.Links = append(meta.Links, Link{Rel: "alternate", Href: gf.Link})
	}
	if gf.Author != nil && gf.Author.Name != "" {
		meta.Author = gf.Author.Name
		meta.HasAuthor = true
		fieldCount++
	}
	if gf.Description != "" {
		fieldCount++
	}
	meta.FieldCount = fieldCount

	entries := make([]Entry, 0, len(gf.Items))
	for _, item := range gf.Items {
		entries = append(entries, entryFromItem(item))
	}

	version := gf.FeedVersion
	if version == "" {
		version = string(gf.FeedType)
	}

	return &Feed{
		Version: version,
		Meta:    meta,
		Entries: entries,
	}
}

func entryFromItem(item *gofeed.Item) Entry {
	id := item.GUID
	if id == "" {
		id = item.Link
	}

	updated := item.UpdatedParsed
	if updated == nil {
		updated = item.PublishedParsed
	}

	content := item.Content
	if content == "" {
		content = item.Description
	}

	e := Entry{
		ID:      id,
		Title:   item.Title,
		Link:    item.Link,
		Summary: item.Description,
		Tags:    categoryNames(item.Categories),
	}
	if updated != nil {
		e.UpdatedParsed = *updated
	}
	if content != "" {
		e.Content = []string{content}
	}

	// Extra holds passthrough fields beyond the fixed default set (author_*,
	// categories, unique_id and the rest — see §4.4). gofeed normalizes the
	// well-known RSS/Atom fields into the Entry fields above and surfaces
	// everything else through item.Custom (unrecognized sibling elements) and
	// item.Extensions (namespaced elements, e.g. media:, georss:); both feed
	// into Extra here, so a feed that actually carries custom elements
	// reaches the generator's passthroughElements unchanged.
	e.Extra = extraFromItem(item)

	return e
}

// extraFromItem collects an item's passthrough fields: unrecognized
// top-level elements from item.Custom, and namespaced extension elements
// from item.Extensions, keyed by local element name.
func extraFromItem(item *gofeed.Item) map[string]ExtraValue {
	extra := make(map[string]ExtraValue)

	for name, value := range item.Custom {
		if _, known := knownEntryFields[name]; known {
			continue
		}
		extra[name] = ExtraValue{Text: value}
	}

	for _, byName := range item.Extensions {
		for name, elems := range byName {
			if _, known := knownEntryFields[name]; known {
				continue
			}
			if len(elems) == 0 {
				continue
			}
			extra[name] = extraValueFromExtensions(elems)
		}
	}

	return extra
}

// extraValueFromExtensions converts gofeed's extension representation into
// an ExtraValue: a repeated element becomes a List, an element with
// attributes becomes Attrs, and a plain element becomes Text.
func extraValueFromExtensions(elems []extensions.Extension) ExtraValue {
	if len(elems) > 1 {
		list := make([]string, len(elems))
		for i, el := range elems {
			list[i] = el.Value
		}
		return ExtraValue{List: list}
	}

	el := elems[0]
	if len(el.Attrs) > 0 {
		return ExtraValue{Attrs: el.Attrs}
	}
	return ExtraValue{Text: el.Value}
}

func categoryNames(categories []string) []string {
	if len(categories) == 0 {
		return nil
	}
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}
