package deviceaccess

import "golang.org/x/xerrors"

// Entry is a selector plus the access bits granted (in an allow list) or
// denied (in a deny list).
type Entry struct {
	Selector Selector
	Access   Access
}

// Encompasses reports whether e covers other: same rules as
// Selector.Matches for type/major/minor, plus e's access bits must each be
// at least as permissive as other's. Reflexive and transitive; not total,
// since two entries with equal selectors but different access (e.g. r and
// w) can each fail to encompass the other.
func (e Entry) Encompasses(other Entry) bool {
	return e.Selector.covers(other.Selector) && e.Access.covers(other.Access)
}

// HasWildcard reports whether e's selector is wildcarded.
func (e Entry) HasWildcard() bool {
	return e.Selector.HasWildcard()
}

// None reports whether e grants/denies nothing.
func (e Entry) None() bool {
	return e.Access.None()
}

// NonWildcardEntry pairs a NonWildcardSelector with an Access. One built by
// ToNonWildcards/NewNonWildcardEntry carries no wildcard; the fields are
// exported, so a composite literal can bypass those checks.
type NonWildcardEntry struct {
	Selector NonWildcardSelector
	Access   Access
}

// NewNonWildcardEntry validates and builds a NonWildcardEntry.
func NewNonWildcardEntry(t Type, major, minor uint32, access Access) (NonWildcardEntry, error) {
	sel, err := NewNonWildcardSelector(t, major, minor)
	if err != nil {
		return NonWildcardEntry{}, err
	}
	return NonWildcardEntry{Selector: sel, Access: access}, nil
}

// ToEntry widens a NonWildcardEntry into the general Entry form.
func (e NonWildcardEntry) ToEntry() Entry {
	return Entry{Selector: e.Selector.Widen(), Access: e.Access}
}

// WildcardError is returned by ToNonWildcards when an input entry carries a
// wildcarded selector in a context where only concrete entries are legal
// (deny lists, reconfigure additions/removals).
type WildcardError struct {
	Entry Entry
}

func (e *WildcardError) Error() string {
	return xerrors.Errorf("entry %+v has a wildcarded selector, which is not permitted here", e.Entry).Error()
}

// ToNonWildcards converts a slice of Entry to NonWildcardEntry, failing on
// the first wildcarded input.
func ToNonWildcards(entries []Entry) ([]NonWildcardEntry, error) {
	out := make([]NonWildcardEntry, 0, len(entries))
	for _, e := range entries {
		if e.HasWildcard() {
			return nil, &WildcardError{Entry: e}
		}
		nw, err := NewNonWildcardSelector(e.Selector.Type, *e.Selector.Major, *e.Selector.Minor)
		if err != nil {
			// Type == All was already rejected by HasWildcard above, so
			// this can only happen if a caller hand-built an inconsistent
			// Selector; surface it the same way.
			return nil, &WildcardError{Entry: e}
		}
		out = append(out, NonWildcardEntry{Selector: nw, Access: e.Access})
	}
	return out, nil
}

// ToEntries widens a slice of NonWildcardEntry to Entry.
func ToEntries(entries []NonWildcardEntry) []Entry {
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.ToEntry())
	}
	return out
}
