// SPDX-License-Identifier: Unlicense OR MIT

package vga

import (
	"unsafe"

	"github.com/juju/errors"
	"golang.org/x/sys/unix"
)

// MemPath is the Linux character device exposing physical memory.
const MemPath = "/dev/mem"

// MapHardware maps the physical text buffer at addr, normally
// BufferAddr, from the memory device at path, normally MemPath. The
// mapping lives until unmap is called, which must not happen while the
// buffer is still reachable through a lock.Region.
func MapHardware(path string, addr uintptr) (b *Buffer, unmap func() error, err error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_SYNC|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, nil, errors.Annotatef(err, "opening %s", path)
	}
	defer unix.Close(fd)
	page := uintptr(unix.Getpagesize())
	start := addr &^ (page - 1)
	off := int(addr - start)
	size := (off + int(unsafe.Sizeof(Buffer{})) + int(page) - 1) &^ (int(page) - 1)
	mem, err := unix.Mmap(fd, int64(start), size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, errors.Annotatef(err, "mapping text buffer at %#x", addr)
	}
	unmap = func() error {
		return errors.Trace(unix.Munmap(mem))
	}
	return (*Buffer)(unsafe.Pointer(&mem[off])), unmap, nil
}
