// SPDX-License-Identifier: Unlicense OR MIT

//go:build !unix

package ioport

import "github.com/juju/errors"

// DevPortPath is the Linux character device exposing the port space.
const DevPortPath = "/dev/port"

// DevPort is not available on this platform.
type DevPort struct {
	Native
}

// OpenDevPort reports that there is no port device on this platform.
func OpenDevPort(path string) (*DevPort, error) {
	return nil, errors.NotSupportedf("port device %s", path)
}

func (*DevPort) Close() error { return nil }
