// Package policyvalidate implements the pure predicates that reject a
// configure/reconfigure call before any state mutation happens.
package policyvalidate

import (
	"github.com/mec-project/devicemanager/internal/deviceaccess"
	"golang.org/x/xerrors"
)

// PolicyConflictError is returned by Configure/Reconfigure when the
// caller's intent is ambiguous: a deny entry (or removal) already
// encompasses an allow entry (or addition), making the allow dead at the
// kernel level.
type PolicyConflictError struct {
	Winner deviceaccess.Entry // the deny/removal entry that encompasses Loser
	Loser  deviceaccess.Entry // the allow/addition entry that is encompassed
}

func (e *PolicyConflictError) Error() string {
	return xerrors.Errorf(
		"entry %q cannot be encompassed by entry %q",
		deviceaccess.Stringify(e.Loser), deviceaccess.Stringify(e.Winner),
	).Error()
}

// Configure rejects an (allow, deny) pair if any deny entry encompasses any
// allow entry. deny is required to already be non-wildcard; callers
// convert with deviceaccess.ToNonWildcards before calling this.
func Configure(allow []deviceaccess.Entry, deny []deviceaccess.NonWildcardEntry) error {
	for _, a := range allow {
		for _, d := range deny {
			denyEntry := d.ToEntry()
			if denyEntry.Encompasses(a) {
				return &PolicyConflictError{Winner: denyEntry, Loser: a}
			}
		}
	}
	return nil
}

// Reconfigure rejects an (additions, removals) pair if any removal
// encompasses any addition.
func Reconfigure(additions, removals []deviceaccess.NonWildcardEntry) error {
	for _, x := range additions {
		addEntry := x.ToEntry()
		for _, r := range removals {
			remEntry := r.ToEntry()
			if remEntry.Encompasses(addEntry) {
				return &PolicyConflictError{Winner: remEntry, Loser: addEntry}
			}
		}
	}
	return nil
}
