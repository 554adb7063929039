package arris

import (
	"fmt"
	"slices"
)

// DisplayView is the metadata shown for a selection. When Single is false,
// a nil field means the selected files disagree on it, not that it is
// absent.
type DisplayView struct {
	Metadata
	Single bool
}

// DisplayMetadata computes the view of the given metadata records, one per
// selected file. A single record is shown verbatim. For several records a
// field keeps its value only when every record agrees on it; the date is
// never shared and tags are compared as sets. mds must not be empty.
func DisplayMetadata(mds []*Metadata) DisplayView {
	if len(mds) == 1 {
		return DisplayView{Metadata: *mds[0].Clone(), Single: true}
	}

	var view DisplayView
	for _, f := range AllFields {
		dst := view.stringField(f)
		if dst == nil {
			continue
		}
		*dst = unanimous(mds, func(md *Metadata) *string { return *md.stringField(f) })
	}

	key := tagSetKey(mds[0].Tags)
	shared := true
	for _, md := range mds[1:] {
		if tagSetKey(md.Tags) != key {
			shared = false
			break
		}
	}
	if shared && mds[0].Tags != nil {
		view.Tags = slices.Clone(mds[0].Tags)
	}
	return view
}

// unanimous returns the value of get shared by every record, or nil when
// the records hold more than one distinct value.
func unanimous(mds []*Metadata, get func(*Metadata) *string) *string {
	first := get(mds[0])
	for _, md := range mds[1:] {
		if !equalPtr(first, get(md)) {
			return nil
		}
	}
	return clonePtr(first)
}

// ApplyEditedMetadata merges the edited view into each of mds in place.
// For a single selection every field of the view is written, so a nil
// field clears the stored value. For several files a nil field leaves the
// stored values untouched and any other value is written to all of them.
// An empty tag list is stored as no tags, which is how it reads back from
// a file.
func ApplyEditedMetadata(mds []*Metadata, view DisplayView) {
	if len(mds) == 1 {
		edited := view.Metadata.Clone()
		if len(edited.Tags) == 0 {
			edited.Tags = nil
		}
		*mds[0] = *edited
		return
	}

	for _, md := range mds {
		for _, f := range AllFields {
			src := view.stringField(f)
			if src == nil || *src == nil {
				continue
			}
			*md.stringField(f) = clonePtr(*src)
		}
		if view.DateTime != nil {
			md.DateTime = clonePtr(view.DateTime)
		}
		if view.Tags != nil {
			md.Tags = nil
			if len(view.Tags) > 0 {
				md.Tags = slices.Clone(view.Tags)
			}
		}
	}
}

// DisplayFor loads the metadata of the selected records and computes their
// display view.
func (l *Ledger) DisplayFor(indices []int) (DisplayView, error) {
	if len(indices) == 0 {
		return DisplayView{}, fmt.Errorf("computing display metadata: empty selection")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	mds := make([]*Metadata, len(indices))
	for i, idx := range indices {
		r, err := l.get(idx)
		if err != nil {
			return DisplayView{}, err
		}
		if r.Metadata == nil {
			return DisplayView{}, fmt.Errorf("file %d: %w", idx, ErrNotLoaded)
		}
		mds[i] = r.Metadata
	}
	return DisplayMetadata(mds), nil
}

// ApplyEdit merges view into the metadata of the selected records and marks
// them edited.
func (l *Ledger) ApplyEdit(indices []int, view DisplayView) error {
	if len(indices) == 0 {
		return fmt.Errorf("applying edited metadata: empty selection")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	mds := make([]*Metadata, len(indices))
	for i, idx := range indices {
		r, err := l.get(idx)
		if err != nil {
			return err
		}
		if r.Metadata == nil {
			return fmt.Errorf("file %d: %w", idx, ErrNotLoaded)
		}
		mds[i] = r.Metadata
	}
	ApplyEditedMetadata(mds, view)
	for _, idx := range indices {
		l.records[idx].Edited = true
	}
	return nil
}
