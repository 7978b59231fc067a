package deviceaccess

import (
	"strconv"
	"strings"

	"golang.org/x/xerrors"
)

// Parse reads a device entry in the classic cgroup device-list grammar:
// "<t> <M>:<m> <a>" where t is one of a/b/c, M and m are a non-negative
// integer or "*", and a is a non-empty subset of "rwm".
func Parse(s string) (Entry, error) {
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return Entry{}, xerrors.Errorf("malformed device entry %q: expected 3 fields, got %d", s, len(fields))
	}

	var typ Type
	switch fields[0] {
	case "a":
		typ = All
	case "b":
		typ = Block
	case "c":
		typ = Character
	default:
		return Entry{}, xerrors.Errorf("malformed device entry %q: unknown type %q", s, fields[0])
	}

	majorMinor := strings.SplitN(fields[1], ":", 2)
	if len(majorMinor) != 2 {
		return Entry{}, xerrors.Errorf("malformed device entry %q: expected major:minor, got %q", s, fields[1])
	}
	major, err := parseNumberOrWildcard(majorMinor[0])
	if err != nil {
		return Entry{}, xerrors.Errorf("malformed device entry %q: %w", s, err)
	}
	minor, err := parseNumberOrWildcard(majorMinor[1])
	if err != nil {
		return Entry{}, xerrors.Errorf("malformed device entry %q: %w", s, err)
	}

	access, err := parseAccess(fields[2])
	if err != nil {
		return Entry{}, xerrors.Errorf("malformed device entry %q: %w", s, err)
	}

	return Entry{
		Selector: Selector{Type: typ, Major: major, Minor: minor},
		Access:   access,
	}, nil
}

func parseNumberOrWildcard(s string) (*uint32, error) {
	if s == "*" {
		return nil, nil
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return nil, xerrors.Errorf("invalid major/minor %q: %w", s, err)
	}
	v := uint32(n)
	return &v, nil
}

func parseAccess(s string) (Access, error) {
	if s == "" {
		return Access{}, xerrors.Errorf("empty access string")
	}
	var a Access
	for _, r := range s {
		switch r {
		case 'r':
			a.Read = true
		case 'w':
			a.Write = true
		case 'm':
			a.Mknod = true
		default:
			return Access{}, xerrors.Errorf("invalid access character %q", r)
		}
	}
	return a, nil
}

// Stringify renders an Entry back into the textual grammar Parse accepts.
// Access bits are always emitted in "rwm" order, so
// Parse(Stringify(e)) == e regardless of the input string's original bit
// ordering.
func Stringify(e Entry) string {
	var b strings.Builder
	b.WriteString(e.Selector.Type.String())
	b.WriteByte(' ')
	b.WriteString(numberOrWildcard(e.Selector.Major))
	b.WriteByte(':')
	b.WriteString(numberOrWildcard(e.Selector.Minor))
	b.WriteByte(' ')
	if e.Access.Read {
		b.WriteByte('r')
	}
	if e.Access.Write {
		b.WriteByte('w')
	}
	if e.Access.Mknod {
		b.WriteByte('m')
	}
	return b.String()
}

func numberOrWildcard(v *uint32) string {
	if v == nil {
		return "*"
	}
	return strconv.FormatUint(uint64(*v), 10)
}
