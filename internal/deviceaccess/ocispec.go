package deviceaccess

import (
	specs "github.com/opencontainers/runtime-spec/specs-go"
	"golang.org/x/xerrors"
)

// FromLinuxDeviceCgroup converts a single OCI runtime-spec device-cgroup
// rule (Linux.Resources.Devices[i]) into an Entry. Only rules with
// Allow == true are meaningful as allow-list entries; callers building a
// deny list should invert the sense of Allow themselves, since the OCI
// shape does not distinguish "allow" rules from "deny" rules beyond that
// single boolean.
func FromLinuxDeviceCgroup(rule specs.LinuxDeviceCgroup) (Entry, error) {
	var typ Type
	switch rule.Type {
	case "a", "":
		typ = All
	case "b":
		typ = Block
	case "c", "u":
		typ = Character
	default:
		return Entry{}, xerrors.Errorf("unknown OCI device cgroup type %q", rule.Type)
	}

	var major, minor *uint32
	if rule.Major != nil {
		if *rule.Major < 0 {
			return Entry{}, xerrors.Errorf("negative major %d is not a wildcard in the OCI shape; use a nil pointer", *rule.Major)
		}
		v := uint32(*rule.Major)
		major = &v
	}
	if rule.Minor != nil {
		if *rule.Minor < 0 {
			return Entry{}, xerrors.Errorf("negative minor %d is not a wildcard in the OCI shape; use a nil pointer", *rule.Minor)
		}
		v := uint32(*rule.Minor)
		minor = &v
	}

	access, err := parseAccess(rule.Access)
	if err != nil {
		return Entry{}, xerrors.Errorf("OCI device cgroup rule has invalid access %q: %w", rule.Access, err)
	}

	return Entry{
		Selector: Selector{Type: typ, Major: major, Minor: minor},
		Access:   access,
	}, nil
}

// ToLinuxDeviceCgroup converts an Entry into the OCI runtime-spec
// device-cgroup rule shape, setting Allow according to allow.
func ToLinuxDeviceCgroup(e Entry, allow bool) specs.LinuxDeviceCgroup {
	var major, minor *int64
	if e.Selector.Major != nil {
		v := int64(*e.Selector.Major)
		major = &v
	}
	if e.Selector.Minor != nil {
		v := int64(*e.Selector.Minor)
		minor = &v
	}

	return specs.LinuxDeviceCgroup{
		Allow:  allow,
		Type:   e.Selector.Type.String(),
		Major:  major,
		Minor:  minor,
		Access: accessString(e.Access),
	}
}

func accessString(a Access) string {
	s := ""
	if a.Read {
		s += "r"
	}
	if a.Write {
		s += "w"
	}
	if a.Mknod {
		s += "m"
	}
	return s
}
