// SPDX-License-Identifier: Unlicense OR MIT

package kernel

// Fatal reports msg on the serial port and idles forever. The report is
// best-effort: if the port is held, for example by the context that
// failed, nothing is printed.
func (m *Machine) Fatal(msg string) {
	if !m.Console.COM1.TryPrintf("fatal error: %s\n", msg) {
		logger.Errorf("fatal error: %s", msg)
	}
	for {
		m.idle()
	}
}

// FatalError is like Fatal for an error.
func (m *Machine) FatalError(err error) {
	m.Fatal(err.Error())
}
