// SPDX-License-Identifier: Unlicense OR MIT

package ioport

import (
	"github.com/juju/errors"
	"golang.org/x/sys/unix"
)

// EnableNative asks the kernel for access to the whole 16-bit port
// space so that Native works in user space. It needs CAP_SYS_RAWIO.
func EnableNative() error {
	// ioperm covers the first 0x400 ports; beyond that iopl is needed.
	if err := unix.Ioperm(0, 0x400, 1); err != nil {
		return errors.Annotate(err, "ioperm")
	}
	if err := unix.Iopl(3); err != nil {
		return errors.Annotate(err, "iopl")
	}
	logger.Debugf("native port access enabled")
	return nil
}
