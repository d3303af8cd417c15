// SPDX-License-Identifier: Unlicense OR MIT

// Package ioport provides byte, word and long access to the x86 I/O
// port space.
//
// Port accesses are synchronous and cannot fail. They are not
// synchronized either: a device reached through an index/data port pair
// must be guarded by its driver.
package ioport

import (
	"io"

	"github.com/juju/errors"
	"github.com/juju/loggo"
)

var logger = loggo.GetLogger("freestand.ioport")

// Bus is an I/O port address space.
type Bus interface {
	Inb(port uint16) uint8
	Outb(port uint16, val uint8)
	Inw(port uint16) uint16
	Outw(port uint16, val uint16)
	Inl(port uint16) uint32
	Outl(port uint16, val uint32)
}

// Backend names accepted by Open.
const (
	BackendSim     = "sim"
	BackendDevPort = "devport"
	BackendNative  = "native"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open returns the bus implementation named by backend. The returned
// closer releases whatever the backend acquired from the host.
func Open(backend string) (Bus, io.Closer, error) {
	switch backend {
	case BackendSim:
		return NewSim(), nopCloser{}, nil
	case BackendDevPort:
		p, err := OpenDevPort(DevPortPath)
		if err != nil {
			return nil, nil, errors.Trace(err)
		}
		return p, p, nil
	case BackendNative:
		if err := EnableNative(); err != nil {
			return nil, nil, errors.Trace(err)
		}
		return Native{}, nopCloser{}, nil
	}
	return nil, nil, errors.NotValidf("port backend %q", backend)
}
