// Package cgroupdriver resolves the Manager's opaque CgroupId into a
// concrete /sys/fs/cgroup path, the way a container runtime picks between
// the raw cgroupfs layout and a systemd-managed unit for a given cgroup.
package cgroupdriver

import (
	"context"
	"path/filepath"

	systemdDbus "github.com/coreos/go-systemd/v22/dbus"
	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

const unifiedMountpoint = "/sys/fs/cgroup"

// Driver resolves a CgroupId to the cgroup-v2 directory path the
// DeviceController should attach its program to.
type Driver interface {
	Resolve(ctx context.Context, cgroupID string) (string, error)
}

// Cgroupfs treats CgroupId as a path fragment relative to the unified
// cgroup-v2 mountpoint. It is the driver a host mounts directly, with no
// systemd unit standing between the cgroup id and its filesystem path.
type Cgroupfs struct {
	// Root overrides the default unified mountpoint; empty means
	// /sys/fs/cgroup.
	Root string
}

func (c Cgroupfs) Resolve(_ context.Context, cgroupID string) (string, error) {
	if cgroupID == "" {
		return "", xerrors.Errorf("cgroup id must not be empty")
	}
	root := c.Root
	if root == "" {
		root = unifiedMountpoint
	}
	if err := verifyUnifiedCgroup2(root); err != nil {
		return "", xerrors.Errorf("resolving cgroup id %q: %w", cgroupID, err)
	}
	return filepath.Join(root, cgroupID), nil
}

// verifyUnifiedCgroup2 statfs's root and rejects anything that is not a
// cgroup-v2 unified mount, so a misconfigured Root fails at resolve time
// rather than surfacing later as an obscure BPF attach error.
func verifyUnifiedCgroup2(root string) error {
	var st unix.Statfs_t
	if err := unix.Statfs(root, &st); err != nil {
		return xerrors.Errorf("statfs %q: %w", root, err)
	}
	if st.Type != unix.CGROUP2_SUPER_MAGIC {
		return xerrors.Errorf("%q is not a cgroup-v2 unified mount", root)
	}
	return nil
}

// Systemd treats CgroupId as a systemd scope/slice unit name and resolves
// its cgroup path via the ControlGroup unit property over D-Bus.
type Systemd struct {
	Root string
}

func (s Systemd) Resolve(ctx context.Context, cgroupID string) (string, error) {
	if cgroupID == "" {
		return "", xerrors.Errorf("cgroup id must not be empty")
	}

	conn, err := systemdDbus.NewSystemConnectionContext(ctx)
	if err != nil {
		return "", xerrors.Errorf("connecting to systemd over dbus: %w", err)
	}
	defer conn.Close()

	prop, err := conn.GetUnitPropertyContext(ctx, cgroupID, "ControlGroup")
	if err != nil {
		return "", xerrors.Errorf("looking up ControlGroup for unit %q: %w", cgroupID, err)
	}

	rel, ok := prop.Value.Value().(string)
	if !ok {
		return "", xerrors.Errorf("unexpected ControlGroup property type for unit %q: %T", cgroupID, prop.Value.Value())
	}

	root := s.Root
	if root == "" {
		root = unifiedMountpoint
	}
	return filepath.Join(root, rel), nil
}
