// SPDX-License-Identifier: Unlicense OR MIT

package kernel

// SetIdle replaces the idle function of m.
func SetIdle(m *Machine, idle func()) {
	m.idle = idle
}
