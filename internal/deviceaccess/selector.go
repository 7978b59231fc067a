// Package deviceaccess implements the pure device-rule entry model: the
// selector/access/entry types and the predicates the diff algebra and
// policy validator are built on.
package deviceaccess

import (
	"encoding/json"

	"golang.org/x/xerrors"
)

// Type identifies the kind of device a Selector matches.
type Type int

const (
	// Block identifies block devices (e.g. disks).
	Block Type = iota
	// Character identifies character devices (e.g. /dev/null).
	Character
	// All matches both block and character devices. Legal only inside a
	// selector that is also wildcarded on major/minor, and only in allow
	// lists.
	All
)

func (t Type) String() string {
	switch t {
	case Block:
		return "b"
	case Character:
		return "c"
	case All:
		return "a"
	default:
		return "?"
	}
}

// MarshalJSON renders Type using the same single-letter grammar as Parse,
// so CLI/state JSON output reads the same way as the textual entry form.
func (t Type) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON parses Type from the same single-letter grammar as Parse.
func (t *Type) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "b":
		*t = Block
	case "c":
		*t = Character
	case "a":
		*t = All
	default:
		return xerrors.Errorf("unknown device type %q", s)
	}
	return nil
}

// Selector identifies a device or a class of devices. Major and Minor are
// pointers so that "absent" (wildcarded) is distinguishable from "0".
type Selector struct {
	Type  Type
	Major *uint32
	Minor *uint32
}

// HasWildcard reports whether the selector is wildcarded: type All, or
// major absent, or minor absent.
func (s Selector) HasWildcard() bool {
	return s.Type == All || s.Major == nil || s.Minor == nil
}

// Matches implements the asymmetric selector-match used by apply_diff's
// removal step: does a (possibly wildcarded) allow selector cover a
// concrete removal selector. It is intentionally distinct from Encompasses,
// which also compares access bits.
func (s Selector) Matches(other Selector) bool {
	if s.Type != All && s.Type != other.Type {
		return false
	}
	if s.Major != nil && (other.Major == nil || *s.Major != *other.Major) {
		return false
	}
	if s.Minor != nil && (other.Minor == nil || *s.Minor != *other.Minor) {
		return false
	}
	return true
}

// covers reports whether s's type/major/minor fields each cover other's,
// under the same "absent means wildcard" rule as Matches. It is the
// selector-only half of Encompasses.
func (s Selector) covers(other Selector) bool {
	return s.Matches(other)
}

// ConcreteEqual reports whether two selectors denote the exact same
// concrete (type, major, minor) triple. Selector carries pointer fields so
// that "absent" is distinguishable from zero, which means Go's built-in ==
// would compare addresses, not values; this is the value comparison the
// diff algebra needs when matching deny/allow entries by identical
// selector.
func (s Selector) ConcreteEqual(other Selector) bool {
	if s.Type != other.Type {
		return false
	}
	if (s.Major == nil) != (other.Major == nil) {
		return false
	}
	if s.Major != nil && *s.Major != *other.Major {
		return false
	}
	if (s.Minor == nil) != (other.Minor == nil) {
		return false
	}
	if s.Minor != nil && *s.Minor != *other.Minor {
		return false
	}
	return true
}

func u32ptr(v uint32) *uint32 { return &v }

// NonWildcardSelector carries a concrete type (Block or Character) and both
// Major and Minor present. ToNonWildcards and NewNonWildcardSelector reject
// type All; the fields are exported, so a composite literal skips that
// check.
type NonWildcardSelector struct {
	Type  Type
	Major uint32
	Minor uint32
}

// NewNonWildcardSelector validates and builds a NonWildcardSelector.
func NewNonWildcardSelector(t Type, major, minor uint32) (NonWildcardSelector, error) {
	if t == All {
		return NonWildcardSelector{}, xerrors.Errorf("device type 'all' is not permitted in a non-wildcard selector")
	}
	return NonWildcardSelector{Type: t, Major: major, Minor: minor}, nil
}

// Widen returns the Selector form of a NonWildcardSelector.
func (s NonWildcardSelector) Widen() Selector {
	return Selector{Type: s.Type, Major: u32ptr(s.Major), Minor: u32ptr(s.Minor)}
}
