package devicecontroller

import (
	"os"

	"github.com/cilium/ebpf"
	"github.com/cilium/ebpf/link"
	"golang.org/x/xerrors"

	"github.com/mec-project/devicemanager/internal/deviceaccess"
)

// Cgroupfs2Controller attaches a freshly-built BPF_PROG_TYPE_CGROUP_DEVICE
// program to a cgroup-v2 directory on every Apply call, replacing whatever
// program was attached before it. It always builds the program from the
// complete allow/deny lists handed to it; it never patches an existing
// program in place, since the kernel has no API for editing a loaded
// cgroup-device program's instructions after the fact.
type Cgroupfs2Controller struct {
	// attached tracks the currently-linked program per cgroup path so a
	// later Apply can Close the old link before installing the new one.
	attached map[string]link.Link
}

// NewCgroupfs2Controller returns a Controller backed by real cgroup-v2 BPF
// attachment. It is only usable on a host with a mounted unified cgroup
// hierarchy and CAP_BPF/CAP_SYS_ADMIN.
func NewCgroupfs2Controller() *Cgroupfs2Controller {
	return &Cgroupfs2Controller{attached: make(map[string]link.Link)}
}

func (c *Cgroupfs2Controller) Apply(cgroupPath string, allow, deny []deviceaccess.Entry) error {
	insns, err := buildProgram(allow, deny)
	if err != nil {
		return &Error{CgroupPath: cgroupPath, Err: err}
	}

	spec := &ebpf.ProgramSpec{
		Name:         "mec_device_filter",
		Type:         ebpf.CGroupDevice,
		License:      "GPL",
		Instructions: insns,
	}

	prog, err := ebpf.NewProgram(spec)
	if err != nil {
		return &Error{CgroupPath: cgroupPath, Err: xerrors.Errorf("loading device filter program: %w", err)}
	}
	defer prog.Close()

	cgroupFD, err := os.Open(cgroupPath)
	if err != nil {
		return &Error{CgroupPath: cgroupPath, Err: xerrors.Errorf("opening cgroup directory: %w", err)}
	}
	defer cgroupFD.Close()

	l, err := link.AttachCgroup(link.CgroupOptions{
		Path:    cgroupPath,
		Attach:  ebpf.AttachCGroupDevice,
		Program: prog,
	})
	if err != nil {
		return &Error{CgroupPath: cgroupPath, Err: xerrors.Errorf("attaching device filter to cgroup: %w", err)}
	}

	if old, ok := c.attached[cgroupPath]; ok {
		_ = old.Close()
	}
	c.attached[cgroupPath] = l

	return nil
}

