// Copyright (c) 2025 hitoshi.mukai.b@gmail.com. All rights reserved.
// You are free to use this source code for any purpose. The copyright remains with the author.
// The author accepts no liability for any damages arising from the use of this source code.
//
// Last modified: 2026.10.14
//

package sp3

import (
	"fmt"
	"strconv"
	"strings"
)

// Standard deviation exponent (base given by the %f line). NoSdev when the column is blank.
type Sdev int

const NoSdev Sdev = -1

func (p Sdev) format(width int) string {
	if p == NoSdev {
		return strings.Repeat(" ", width)
	}
	return fmt.Sprintf("%*d", width, int(p))
}

// One decoded P or V line, in the units written in the file
//
//	P: [km] and clock [us]
//	V: [dm/s] and clock rate [1e-4 us/s]
type record struct {
	sat       SatID
	x, y, z   float64
	clock     float64
	hasClock  bool
	sdev      [3]Sdev
	clockSdev Sdev

	clockEvent     bool // Col 75 'E'
	clockPredicted bool // Col 76 'P'
	maneuver       bool // Col 79 'M'
	orbitPredicted bool // Col 80 'P'
}

// All three components exactly zero means "no data"
func (p *record) isZero() bool {
	return p.x == 0 && p.y == 0 && p.z == 0
}

// Decode a P or V line. The caller has checked the minimum width.
func parseRecord(l string) (*record, error) {
	var err error
	r := &record{sdev: [3]Sdev{NoSdev, NoSdev, NoSdev}, clockSdev: NoSdev}
	if r.sat, err = parseSat(cols(l, 1, 4)); err != nil {
		return nil, err
	}
	if r.x, err = parseFloat(cols(l, 4, 18), ErrCoordinates); err != nil {
		return nil, err
	}
	if r.y, err = parseFloat(cols(l, 18, 32), ErrCoordinates); err != nil {
		return nil, err
	}
	if r.z, err = parseFloat(cols(l, 32, 46), ErrCoordinates); err != nil {
		return nil, err
	}

	// Clock (sentinel or blank means no data)
	c := strings.TrimSpace(cols(l, 46, 60))
	if c != "" && !strings.HasPrefix(c, clockSentinelTag) {
		if r.clock, err = parseFloat(c, ErrClock); err != nil {
			return nil, err
		}
		r.hasClock = true
	}

	// Optional columns (SP3-c and later)
	for i, from := range []int{61, 64, 67} {
		r.sdev[i] = parseSdev(cols(l, from, from+2))
	}
	r.clockSdev = parseSdev(cols(l, 70, 73))
	r.clockEvent = flagAt(l, 74, 'E')
	r.clockPredicted = flagAt(l, 75, 'P')
	r.maneuver = flagAt(l, 78, 'M')
	r.orbitPredicted = flagAt(l, 79, 'P')
	return r, nil
}

// Lenient: unreadable exponents are treated as absent
func parseSdev(s string) Sdev {
	t := strings.TrimSpace(s)
	if t == "" {
		return NoSdev
	}
	v, err := strconv.Atoi(t)
	if err != nil || v < 0 {
		return NoSdev
	}
	return Sdev(v)
}

func flagAt(l string, i int, c byte) bool {
	return i < len(l) && l[i] == c
}

func flagChar(b bool, c byte) byte {
	if b {
		return c
	}
	return ' '
}

// Render a record line. Trailing blanks are trimmed.
func (p *record) format(marker byte) string {
	clk := clockSentinel
	if p.hasClock {
		clk = p.clock
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%c%s%14.6f%14.6f%14.6f%14.6f", marker, p.sat, p.x, p.y, p.z, clk)
	fmt.Fprintf(&sb, " %s %s %s %s %c%c  %c%c",
		p.sdev[0].format(2), p.sdev[1].format(2), p.sdev[2].format(2), p.clockSdev.format(3),
		flagChar(p.clockEvent, 'E'), flagChar(p.clockPredicted, 'P'),
		flagChar(p.maneuver, 'M'), flagChar(p.orbitPredicted, 'P'))
	return strings.TrimRight(sb.String(), " ")
}
