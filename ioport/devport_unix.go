// SPDX-License-Identifier: Unlicense OR MIT

//go:build unix

package ioport

import (
	"encoding/binary"

	"github.com/juju/errors"
	"golang.org/x/sys/unix"
)

// DevPortPath is the Linux character device exposing the port space.
const DevPortPath = "/dev/port"

// DevPort reaches the port space through a device file where the file
// offset is the port number. Word and long accesses are split into byte
// accesses at consecutive ports, which is how the kernel services them;
// devices that need true 16 or 32-bit cycles require Native.
type DevPort struct {
	fd   int
	path string
}

// OpenDevPort opens the port device at path, normally DevPortPath.
func OpenDevPort(path string) (*DevPort, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, errors.Annotatef(err, "opening %s", path)
	}
	logger.Debugf("opened %s", path)
	return &DevPort{fd: fd, path: path}, nil
}

// Close releases the device file.
func (p *DevPort) Close() error {
	return errors.Trace(unix.Close(p.fd))
}

func (p *DevPort) read(port uint16, b []byte) {
	n, err := unix.Pread(p.fd, b, int64(port))
	if err != nil || n != len(b) {
		// Floating bus.
		logger.Warningf("%s: read %d bytes at %#x: n=%d err=%v", p.path, len(b), port, n, err)
		for i := range b {
			b[i] = 0xff
		}
	}
}

func (p *DevPort) write(port uint16, b []byte) {
	n, err := unix.Pwrite(p.fd, b, int64(port))
	if err != nil || n != len(b) {
		logger.Warningf("%s: write %d bytes at %#x: n=%d err=%v", p.path, len(b), port, n, err)
	}
}

func (p *DevPort) Inb(port uint16) uint8 {
	var b [1]byte
	p.read(port, b[:])
	return b[0]
}

func (p *DevPort) Outb(port uint16, val uint8) {
	p.write(port, []byte{val})
}

func (p *DevPort) Inw(port uint16) uint16 {
	var b [2]byte
	p.read(port, b[:])
	return binary.LittleEndian.Uint16(b[:])
}

func (p *DevPort) Outw(port uint16, val uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], val)
	p.write(port, b[:])
}

func (p *DevPort) Inl(port uint16) uint32 {
	var b [4]byte
	p.read(port, b[:])
	return binary.LittleEndian.Uint32(b[:])
}

func (p *DevPort) Outl(port uint16, val uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], val)
	p.write(port, b[:])
}
