package devicecontroller

import (
	"github.com/sirupsen/logrus"

	"github.com/mec-project/devicemanager/internal/deviceaccess"
)

// LoggingController logs the program that would be built and attached
// instead of touching the kernel. It is what the CLI's --dry-run flag
// installs, for use off a real Linux host.
type LoggingController struct {
	Logger *logrus.Logger
}

func (c *LoggingController) Apply(cgroupPath string, allow, deny []deviceaccess.Entry) error {
	insns, err := buildProgram(allow, deny)
	if err != nil {
		return &Error{CgroupPath: cgroupPath, Err: err}
	}

	logger := c.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	logger.WithFields(logrus.Fields{
		"cgroup":       cgroupPath,
		"allow_len":    len(allow),
		"deny_len":     len(deny),
		"instructions": len(insns),
	}).Info("dry-run: device filter program built, not attached")

	return nil
}
