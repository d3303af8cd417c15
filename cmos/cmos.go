// SPDX-License-Identifier: Unlicense OR MIT

// Package cmos reads the real time clock of the CMOS.
package cmos

import (
	"time"

	"github.com/juju/loggo"

	"eliasnaur.com/freestand/ioport"
	"eliasnaur.com/freestand/lock"
)

var logger = loggo.GetLogger("freestand.cmos")

// Index and data ports of the CMOS.
const (
	AddrPort = 0x70
	DataPort = 0x71
)

const (
	regSeconds = 0x00
	regMinutes = 0x02
	regHours   = 0x04
	regDay     = 0x07
	regMonth   = 0x08
	regYear    = 0x09
	regStatusA = 0x0a
	regStatusB = 0x0b
	regCentury = 0x32
)

const (
	// statusAUpdate is set while the clock updates its registers.
	statusAUpdate = 1 << 7
	// status24Hour selects 24-hour mode; 12-hour otherwise.
	status24Hour = 1 << 1
	// statusBinary selects binary values; BCD otherwise.
	statusBinary = 1 << 2
	hourPM       = 1 << 7
)

// maxReads bounds the number of snapshots Read takes before it settles
// for the last one.
const maxReads = 16

// maxPolls bounds the status reads spent waiting for an update to end.
// An update takes under 2ms; a flag set for longer is stuck.
const maxPolls = 1 << 12

// Clock is the real time clock. A Clock shares the index port with
// every other user of the CMOS and must be guarded.
type Clock struct {
	bus ioport.Bus
}

// New returns the clock reached through bus.
func New(bus ioport.Bus) Clock {
	return Clock{bus: bus}
}

// NewGuarded returns a clock cell that refuses to lock while the clock is
// updating.
func NewGuarded(bus ioport.Bus) *lock.GatedCell[Clock] {
	return lock.NewGatedCell(New(bus), func(c *Clock) bool {
		return !c.UpdateInProgress()
	})
}

// UpdateInProgress reports whether the clock is updating its registers.
func (c Clock) UpdateInProgress() bool {
	return c.reg(regStatusA)&statusAUpdate != 0
}

type snapshot struct {
	sec, min, hour, day, month, year, century, statusB uint8
}

// Read returns the current time in UTC. The registers are read until two
// consecutive snapshots agree. Read reports false if the clock stays in
// an update for too long.
func (c Clock) Read() (time.Time, bool) {
	s, ok := c.snapshot()
	if !ok {
		return time.Time{}, false
	}
	for i := 1; ; i++ {
		s2, ok := c.snapshot()
		if !ok {
			return time.Time{}, false
		}
		if s2 == s {
			break
		}
		if i == maxReads {
			logger.Warningf("clock did not settle after %d reads", maxReads)
			break
		}
		s = s2
	}
	return s.time(), true
}

func (c Clock) snapshot() (snapshot, bool) {
	if !c.waitUpdate() {
		logger.Warningf("update in progress flag stuck")
		return snapshot{}, false
	}
	return snapshot{
		sec:     c.reg(regSeconds),
		min:     c.reg(regMinutes),
		hour:    c.reg(regHours),
		day:     c.reg(regDay),
		month:   c.reg(regMonth),
		year:    c.reg(regYear),
		century: c.reg(regCentury),
		statusB: c.reg(regStatusB),
	}, true
}

// waitUpdate waits for a clock update to end and reports whether it did.
func (c Clock) waitUpdate() bool {
	for i := 0; i < maxPolls; i++ {
		if !c.UpdateInProgress() {
			return true
		}
	}
	return false
}

func (s snapshot) time() time.Time {
	pm := false
	hour := s.hour
	if s.statusB&status24Hour == 0 {
		pm = hour&hourPM != 0
		hour &^= hourPM
	}
	sec, min, day, month, year, century := s.sec, s.min, s.day, s.month, s.year, s.century
	if s.statusB&statusBinary == 0 {
		sec, min, hour = fromBCD(sec), fromBCD(min), fromBCD(hour)
		day, month, year, century = fromBCD(day), fromBCD(month), fromBCD(year), fromBCD(century)
	}
	if s.statusB&status24Hour == 0 {
		hour %= 12
		if pm {
			hour += 12
		}
	}
	if century == 0 {
		century = 20
	}
	return time.Date(int(century)*100+int(year), time.Month(month), int(day),
		int(hour), int(min), int(sec), 0, time.UTC)
}

func (c Clock) reg(r uint8) uint8 {
	c.bus.Outb(AddrPort, r)
	return c.bus.Inb(DataPort)
}

func fromBCD(v uint8) uint8 {
	return v&0x0f + v>>4*10
}

func toBCD(v uint8) uint8 {
	return v/10<<4 | v%10
}
