// SPDX-License-Identifier: Unlicense OR MIT

package cmos

import (
	"sync"
	"time"

	"eliasnaur.com/freestand/ioport"
)

// RTC emulates the CMOS clock on a simulated port bus.
type RTC struct {
	mu       sync.Mutex
	now      func() time.Time
	index    uint8
	statusB  uint8
	updating bool
}

// Emulate installs a clock on s that reports now() in 24-hour BCD mode.
func Emulate(s *ioport.Sim, now func() time.Time) *RTC {
	r := &RTC{now: now, statusB: status24Hour}
	s.Handle(AddrPort, nil, func(_ uint16, _ int, v uint32) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.index = uint8(v) &^ 0x80
	})
	s.Handle(DataPort, func(uint16, int) uint32 {
		r.mu.Lock()
		defer r.mu.Unlock()
		return uint32(r.read())
	}, nil)
	return r
}

// SetMode selects binary or BCD values and 24- or 12-hour time.
func (r *RTC) SetMode(binary, hour24 bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statusB = 0
	if binary {
		r.statusB |= statusBinary
	}
	if hour24 {
		r.statusB |= status24Hour
	}
}

// SetUpdating sets the update-in-progress flag.
func (r *RTC) SetUpdating(updating bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updating = updating
}

func (r *RTC) read() uint8 {
	switch r.index {
	case regStatusA:
		if r.updating {
			return statusAUpdate
		}
		return 0
	case regStatusB:
		return r.statusB
	}
	t := r.now().UTC()
	var v uint8
	pm := false
	switch r.index {
	case regSeconds:
		v = uint8(t.Second())
	case regMinutes:
		v = uint8(t.Minute())
	case regHours:
		v = uint8(t.Hour())
		if r.statusB&status24Hour == 0 {
			pm = v >= 12
			v %= 12
			if v == 0 {
				v = 12
			}
		}
	case regDay:
		v = uint8(t.Day())
	case regMonth:
		v = uint8(t.Month())
	case regYear:
		v = uint8(t.Year() % 100)
	case regCentury:
		v = uint8(t.Year() / 100)
	default:
		return 0
	}
	if r.statusB&statusBinary == 0 {
		v = toBCD(v)
	}
	if pm {
		v |= hourPM
	}
	return v
}
