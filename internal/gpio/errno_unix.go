//go:build unix

package gpio

import (
	"errors"

	"golang.org/x/sys/unix"
)

// errnoHint names the sysfs failures worth telling an operator about.
func errnoHint(err error) string {
	switch {
	case errors.Is(err, unix.EBUSY):
		return "pin is claimed by another process or driver"
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return "permission denied, run as root or add the user to the gpio group"
	case errors.Is(err, unix.EINVAL):
		return "pin number rejected by the kernel"
	case errors.Is(err, unix.ENOENT):
		return "sysfs gpio node missing"
	}
	return ""
}
