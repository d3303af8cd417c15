// SPDX-License-Identifier: Unlicense OR MIT

package kernel

// ExitCode is the value written to QEMU's isa-debug-exit device. QEMU
// exits with status code<<1 | 1.
type ExitCode uint32

const (
	Success ExitCode = 0x10
	Failure ExitCode = 0x11
)

// exitPort is the iobase of the isa-debug-exit device.
const exitPort = 0xf4

// ExitQEMU asks QEMU to exit. It returns only when the machine is not
// QEMU started with -device isa-debug-exit,iobase=0xf4,iosize=0x04.
func (m *Machine) ExitQEMU(code ExitCode) {
	logger.Debugf("exiting QEMU with %#x", uint32(code))
	m.bus.Outl(exitPort, uint32(code))
}
