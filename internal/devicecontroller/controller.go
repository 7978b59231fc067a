// Package devicecontroller implements the outbound DeviceController port:
// the collaborator that actually installs a cgroup's device access rules
// into the kernel. On cgroup-v2, that means compiling a
// BPF_PROG_TYPE_CGROUP_DEVICE program and attaching it to the cgroup's
// device hook.
package devicecontroller

import "github.com/mec-project/devicemanager/internal/deviceaccess"

// Controller installs a cgroup's complete device access state into the
// kernel. Wildcards are permitted in allow, forbidden in deny;
// implementations may assume the Manager already enforced that.
type Controller interface {
	Apply(cgroupPath string, allow, deny []deviceaccess.Entry) error
}

// Error wraps a controller-level failure with the cgroup it was attempting
// to configure.
type Error struct {
	CgroupPath string
	Err        error
}

func (e *Error) Error() string {
	return "device controller: cgroup " + e.CgroupPath + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
