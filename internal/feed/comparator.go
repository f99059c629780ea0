package feed

// Delta is the result of comparing two parsed feeds: what entries are new,
// updated, or gone, and whether the feed-level metadata itself changed.
type Delta struct {
	NewEntries      []Entry
	UpdatedEntries  []Entry
	RemovedEntries  []Entry
	ChangedMetadata bool
	Metadata        Meta
}

// Changed reports whether this delta carries any observable change at all —
// any new, updated, or removed entry, or a metadata change.
func (d Delta) Changed() bool {
	return len(d.NewEntries) > 0 || len(d.UpdatedEntries) > 0 || len(d.RemovedEntries) > 0 || d.ChangedMetadata
}

// Compare diffs newFeed against past, the previously stored parse of the same
// topic. Order of NewEntries follows newFeed's entry order.
//
// An entry whose id is present in both feeds is reported in UpdatedEntries
// once for an updated timestamp and once more for a changed link, if both
// conditions hold — this mirrors the source comparator's behavior exactly
// and is not deduplicated (see design notes on the double-emit edge case).
func Compare(newFeed, past Feed) Delta {
	pastByID := make(map[string]Entry, len(past.Entries))
	for _, e := range past.Entries {
		pastByID[e.ID] = e
	}
	newByID := make(map[string]struct{}, len(newFeed.Entries))
	for _, e := range newFeed.Entries {
		newByID[e.ID] = struct{}{}
	}

	var newEntries, updatedEntries []Entry
	for _, e := range newFeed.Entries {
		old, existed := pastByID[e.ID]
		if !existed {
			newEntries = append(newEntries, e)
			continue
		}
		if e.UpdatedParsed.After(old.UpdatedParsed) {
			updatedEntries = append(updatedEntries, e)
		}
		if e.Link != old.Link {
			updatedEntries = append(updatedEntries, e)
		}
	}

	var removedEntries []Entry
	for _, e := range past.Entries {
		if _, stillPresent := newByID[e.ID]; !stillPresent {
			removedEntries = append(removedEntries, e)
		}
	}

	changedMeta := metadataChanged(newFeed.Meta, past.Meta)

	metadata := past.Meta
	if changedMeta {
		metadata = newFeed.Meta
	}

	return Delta{
		NewEntries:      newEntries,
		UpdatedEntries:  updatedEntries,
		RemovedEntries:  removedEntries,
		ChangedMetadata: changedMeta,
		Metadata:        metadata,
	}
}

func metadataChanged(newMeta, pastMeta Meta) bool {
	if newMeta.Title != pastMeta.Title {
		return true
	}
	if newMeta.HasAuthor != pastMeta.HasAuthor || newMeta.Author != pastMeta.Author {
		return true
	}
	if newMeta.FieldCount > pastMeta.FieldCount {
		return true
	}
	return false
}
