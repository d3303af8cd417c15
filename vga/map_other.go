// SPDX-License-Identifier: Unlicense OR MIT

//go:build !linux

package vga

import "github.com/juju/errors"

// MemPath is the Linux character device exposing physical memory.
const MemPath = "/dev/mem"

// MapHardware reports that the physical text buffer cannot be mapped on
// this platform.
func MapHardware(path string, addr uintptr) (*Buffer, func() error, error) {
	return nil, nil, errors.NotSupportedf("mapping %s", path)
}
