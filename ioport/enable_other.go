// SPDX-License-Identifier: Unlicense OR MIT

//go:build !(linux && amd64)

package ioport

import "github.com/juju/errors"

// EnableNative reports that native port access is unavailable on this
// platform.
func EnableNative() error {
	return errors.NotSupportedf("native port access")
}
