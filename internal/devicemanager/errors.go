package devicemanager

import "golang.org/x/xerrors"

// CommitFailedError wraps a DeviceController.Apply failure. It is raised
// after the in-memory state has already been updated; the Manager does not
// roll back, on the documented contract that a container whose commit
// fails is expected to be destroyed by its caller, making the stale state
// moot.
type CommitFailedError struct {
	Cgroup string
	Err    error
}

func (e *CommitFailedError) Error() string {
	return xerrors.Errorf("failed to commit device access changes for cgroup %q: %w", e.Cgroup, e.Err).Error()
}

func (e *CommitFailedError) Unwrap() error { return e.Err }
