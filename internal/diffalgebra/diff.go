// Package diffalgebra implements apply_diff, the pure update function on a
// cgroup's (allow, deny) device-access state.
package diffalgebra

import "github.com/mec-project/devicemanager/internal/deviceaccess"

// CgroupDeviceAccess is the per-cgroup allow/deny state. Lists preserve
// insertion order for determinism, but semantics are set-like modulo the
// empty-entry stripping ApplyDiff performs on every call.
type CgroupDeviceAccess struct {
	AllowList []deviceaccess.Entry
	DenyList  []deviceaccess.Entry
}

// Clone returns a deep-enough copy for a caller to hold without aliasing
// the manager's internal slices. A nil list stays nil in the copy.
func (s CgroupDeviceAccess) Clone() CgroupDeviceAccess {
	var allow, deny []deviceaccess.Entry
	if s.AllowList != nil {
		allow = make([]deviceaccess.Entry, len(s.AllowList))
		copy(allow, s.AllowList)
	}
	if s.DenyList != nil {
		deny = make([]deviceaccess.Entry, len(s.DenyList))
		copy(deny, s.DenyList)
	}
	return CgroupDeviceAccess{AllowList: allow, DenyList: deny}
}

// ApplyDiff updates old under the given non-wildcard additions and
// removals, in that order, and returns the resulting state. It is pure,
// total and deterministic: additions revoke matching concrete deny bits
// before being appended to the allow list, removals narrow or clear
// matching allow entries and synthesize a new deny entry for any bits a
// wildcard allow still covers, and empty entries are stripped from both
// lists at the end.
func ApplyDiff(
	old CgroupDeviceAccess,
	additions []deviceaccess.NonWildcardEntry,
	removals []deviceaccess.NonWildcardEntry,
) CgroupDeviceAccess {
	next := old.Clone()

	// Step A: additions.
	for _, add := range additions {
		addEntry := add.ToEntry()
		for i := range next.DenyList {
			revokeMatchingConcrete(&next.DenyList[i], addEntry)
		}
		next.AllowList = append(next.AllowList, addEntry)
	}

	// Step B: removals.
	for _, rem := range removals {
		remEntry := rem.ToEntry()
		covered := deviceaccess.Access{}

		for i := range next.AllowList {
			allowEntry := &next.AllowList[i]
			if allowEntry.HasWildcard() {
				if allowEntry.Selector.Matches(remEntry.Selector) {
					covered = covered.Or(allowEntry.Access)
				}
				continue
			}
			revokeMatchingConcrete(allowEntry, remEntry)
		}

		effectiveDeny := remEntry.Access.And(covered)
		if !effectiveDeny.None() {
			next.DenyList = append(next.DenyList, deviceaccess.Entry{
				Selector: remEntry.Selector,
				Access:   effectiveDeny,
			})
		}
	}

	// Step C: strip empties.
	next.AllowList = stripEmpties(next.AllowList)
	next.DenyList = stripEmpties(next.DenyList)

	return next
}

// revokeMatchingConcrete clears from entry every access bit diff also sets,
// but only if entry's selector exactly matches diff's. entry is assumed
// non-wildcard (deny-list entries always are; concrete allow entries are by
// definition). Wildcard allow entries must never be passed here: narrowing
// them in place would change access for unrelated devices, which is why
// the removal loop special-cases them instead of calling this.
func revokeMatchingConcrete(entry *deviceaccess.Entry, diff deviceaccess.Entry) {
	if !entry.Selector.ConcreteEqual(diff.Selector) {
		return
	}
	entry.Access = entry.Access.AndNot(diff.Access)
}

func stripEmpties(entries []deviceaccess.Entry) []deviceaccess.Entry {
	out := entries[:0]
	for _, e := range entries {
		if !e.None() {
			out = append(out, e)
		}
	}
	return out
}
